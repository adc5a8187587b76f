package executions

import "codeberg.org/promptdeck/server/internal/runner"

type ExecuteRequest struct {
	PromptID   string            `json:"promptId"`
	Provider   string            `json:"provider" binding:"required,max=40"`
	Model      string            `json:"model" binding:"required,max=120"`
	Content    string            `json:"content"`
	Parameters runner.Parameters `json:"parameters"`
}

package users

import (
	"codeberg.org/promptdeck/server/api/rest/pagination"
	"codeberg.org/promptdeck/server/promptdeck/executions"
)

type QuotaResponse struct {
	TokensUsed  int64 `json:"tokens_used"`
	TokensLimit int64 `json:"tokens_limit"`
	Remaining   int64 `json:"remaining"`
}

type QuotaCheckRequest struct {
	Content string `json:"content" binding:"required"`
}

type QuotaCheckResponse struct {
	EstimatedTokens int   `json:"estimated_tokens"`
	Remaining       int64 `json:"remaining"`
	Allowed         bool  `json:"allowed"`
}

type ExecutionsListResponse struct {
	Executions []executions.Execution `json:"executions"`
	Pagination pagination.Meta        `json:"pagination"`
}

package prompts

import (
	"codeberg.org/promptdeck/server/api/rest/pagination"
	"codeberg.org/promptdeck/server/promptdeck/prompts"
)

type PromptsListResponse struct {
	Prompts    []prompts.Prompt `json:"prompts"`
	Pagination pagination.Meta  `json:"pagination"`
}

type FavoriteResponse struct {
	PromptID   string `json:"prompt_id"`
	IsFavorite bool   `json:"is_favorite"`
}

type VersionsResponse struct {
	Versions []prompts.Version `json:"versions"`
}

type ImproveRequest struct {
	Language string `json:"language" binding:"omitempty,oneof=es en"`
}

type TranslateRequest struct {
	Language string `json:"language" binding:"required,oneof=es en"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

package dto

type ToolSettingsResponse struct {
	Enabled   []string `json:"enabled"`
	Available []string `json:"available"`
}

type UpdateToolSettingsRequest struct {
	Enabled []string `json:"enabled" validate:"required,dive,oneof=WEBSEARCH CALCULATOR websearch calculator"`
}

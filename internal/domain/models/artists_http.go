package models

// Requests for the artist HTTP endpoints. Defined in domain for consistency and reuse.

type RegisterRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	NewsAPIKey string `json:"news_api_key" validate:"omitempty,max=128"`
}

type RefreshRequest struct {
	NewsAPIKey string `json:"news_api_key" validate:"omitempty,max=128"`
}

type ListRequest struct {
	Names string `query:"names" json:"names"`
}

type ArtistPathRequest struct {
	Name string `param:"name" json:"name" validate:"required,max=200"`
}

type HistoryRequest struct {
	Name  string `param:"name" json:"name" validate:"required,max=200"`
	Since string `query:"since" json:"since"`
	Limit int    `query:"limit" json:"limit" default:"50" validate:"min=1,max=1000"`
}

package dto

type CreateItemRequest struct {
	Category        string  `json:"category"`
	Title           string  `json:"title"`
	Summary         *string `json:"summary"`
	KeyDetail       *string `json:"key_detail"`
	ExtractedText   *string `json:"extracted_text"`
	SuggestedAction *string `json:"suggested_action"`
}

type ItemResponse struct {
	ID              int64   `json:"id"`
	Category        string  `json:"category"`
	Title           string  `json:"title"`
	Summary         *string `json:"summary"`
	KeyDetail       *string `json:"key_detail"`
	ExtractedText   *string `json:"extracted_text"`
	SuggestedAction *string `json:"suggested_action"`
	CreatedAt       string  `json:"created_at"`
}

type DeleteItemResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

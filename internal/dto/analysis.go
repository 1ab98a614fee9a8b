package dto

type IntentResponse struct {
	Category        string  `json:"category"`
	Title           string  `json:"title"`
	Summary         string  `json:"summary"`
	SuggestedAction string  `json:"suggested_action"`
	KeyDetail       *string `json:"key_detail"`
}

type AnalysisResponse struct {
	Intent        IntentResponse `json:"intent"`
	ExtractedText string         `json:"extracted_text"`
	Source        string         `json:"source"`
	FileName      string         `json:"filename"`
	SizeBytes     int64          `json:"size_bytes"`
}

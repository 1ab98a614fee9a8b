package models

// Intent is the structured reading of why a screenshot was taken. It is never persisted directly.
type Intent struct {
	Category        Category
	Title           string
	Summary         string
	SuggestedAction string
	KeyDetail       *string // nil when nothing salient was found
}

type AnalysisSource string

const (
	// SourceVision marks a result resolved by the vision model.
	SourceVision AnalysisSource = "vision"
	// SourceFallback marks a result resolved by OCR and keyword rules.
	SourceFallback AnalysisSource = "fallback"
)

// Analysis is the outcome of resolving an Intent for one upload.
type Analysis struct {
	Intent        Intent
	ExtractedText string
	Source        AnalysisSource
}

package models

import "time"

type Item struct {
	ID              int64     `db:"id"`
	Category        Category  `db:"category"`
	Title           string    `db:"title"`
	Summary         *string   `db:"summary"`
	KeyDetail       *string   `db:"key_detail"`
	ExtractedText   *string   `db:"extracted_text"`
	SuggestedAction *string   `db:"suggested_action"`
	CreatedAt       time.Time `db:"created_at"`
}

// ItemFields carries the user-chosen fields of an Item before the store assigns id and created_at.
type ItemFields struct {
	Category        Category
	Title           string
	Summary         *string
	KeyDetail       *string
	ExtractedText   *string
	SuggestedAction *string
}

package service

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrExtraction           = errors.New("text extraction failed")
	ErrAnalyzerUnavailable  = errors.New("analyzer unavailable")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrMissingFields        = errors.New("missing required fields")
)

package models

// Upload is an accepted image written to the upload directory.
type Upload struct {
	FileName     string // generated, collision resistant
	OriginalName string
	Path         string
	ContentType  string
	Size         int64
}

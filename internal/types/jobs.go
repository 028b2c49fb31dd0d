package types

import "time"

// JobPostingRequest creates or replaces a saved job posting.
type JobPostingRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Company     string   `json:"company" validate:"required,max=200"`
	Location    string   `json:"location" validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=20000"`
	Categories  []string `json:"categories,omitempty" validate:"max=20,dive,required,max=50"`
	JobType     string   `json:"job_type" validate:"required,oneof=full-time part-time contract internship temporary"`
	Stipend     string   `json:"stipend,omitempty" validate:"max=100"`
	URL         string   `json:"url,omitempty" validate:"omitempty,url"`
}

// UploadResponse is the text extracted from an uploaded resume PDF.
type UploadResponse struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	Pages      int       `json:"pages"`
	Text       string    `json:"text"`
	UploadedAt time.Time `json:"uploaded_at"`
}

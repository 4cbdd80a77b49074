package entity

import "time"

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// OutpaintJob is the metadata document of an asynchronous outpaint request.
type OutpaintJob struct {
	ID        string            `json:"id"`
	Group     int64             `json:"group"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Files     map[string]string `json:"files,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// OutpaintTask is the message published to the outpaint topic.
type OutpaintTask struct {
	JobID      string `json:"job_id"`
	Group      int64  `json:"group"`
	UserPrompt string `json:"user_prompt"`
	Ratio      string `json:"ratio"`
}

type OutpaintAccepted struct {
	ID     string `json:"id"`
	Group  int64  `json:"group"`
	Status string `json:"status"`
}

type SavedFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	URL      string `json:"url"`
}

type StoreUploadResponse struct {
	Group int64       `json:"group"`
	Count int         `json:"count"`
	Files []SavedFile `json:"files"`
	Note  string      `json:"note"`
}

type AdImageResponse struct {
	Width           int              `json:"width"`
	Height          int              `json:"height"`
	Prompt          string           `json:"prompt"`
	ImageBase64     string           `json:"image_base64"`
	ElementFailures []ElementFailure `json:"element_failures,omitempty"`
}

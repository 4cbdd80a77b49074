package entity

import "image"

// AdImageRequest carries the decoded form of /v1/ad-image.
type AdImageRequest struct {
	Image        []byte
	UserPrompt   string
	ResizeMode   string
	Ratio        string
	BaseSize     int
	ElementsJSON string
	Logos        [][]byte
}

// AdImageResult is the composed advertisement before encoding.
type AdImageResult struct {
	Image    *image.RGBA
	Prompt   string
	Failures []ElementFailure
}

// OutpaintRequest carries the form of /v1/outpaint. Group is nil when the
// client did not pin one.
type OutpaintRequest struct {
	Image      []byte
	UserPrompt string
	Ratio      string
	Group      *int64
}

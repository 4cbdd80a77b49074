package entity

import "errors"

var (
	// Image errors
	ErrEmptyImage      = errors.New("empty image file")
	ErrDecodeImage     = errors.New("cannot decode image")
	ErrInvalidElements = errors.New("elements_json must be a JSON array")
	ErrNoImages        = errors.New("no images provided")
	ErrInvalidSize     = errors.New("target size out of range")
	ErrMissingField    = errors.New("required field is missing")
	ErrInvalidField    = errors.New("invalid form field")

	// Model errors
	ErrEmptyModelResponse = errors.New("model response is empty")
	ErrLLMTimeout         = errors.New("LLM call timed out")
	ErrLLMUpstream        = errors.New("LLM HTTP error")
	ErrInpaintUnavailable = errors.New("inpaint pipeline is not available")
	ErrInpaintFailed      = errors.New("inpainting failed")
	ErrSegmentation       = errors.New("mask generation failed")
	ErrOutpaintFailed     = errors.New("outpaint failed")

	// Job errors
	ErrJobNotFound = errors.New("job not found")
)

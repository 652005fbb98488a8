package domain

import "errors"

// Sentinel errors translated to HTTP responses by the handler layer.
var (
	ErrInvalidFileURL    = errors.New("invalid or missing fileUrl (must be http/https or gs://)")
	ErrMissingPrompt     = errors.New("missing prompt")
	ErrMissingRecordID   = errors.New("missing recordId")
	ErrRecordNotFound    = errors.New("record not found")
	ErrRecordMissingURI  = errors.New("record missing gcsUri")
	ErrInvalidGSURI      = errors.New("missing or invalid gsUri")
	ErrInvalidFolder     = errors.New("missing or invalid Google Drive folderId or link")
	ErrMissingReportURL  = errors.New("missing Zoho report URL")
	ErrMissingPrivateLnk = errors.New("missing Zoho privatelink")
	ErrNoEligibleFiles   = errors.New("no eligible source files found")
	ErrNotFound          = errors.New("not found")
)

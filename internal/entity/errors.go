package entity

import "errors"

// Domain errors
var (
	// Validation errors, rejected before any I/O
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrInvalidExtension = errors.New("invalid file extension")
	ErrFileTooLarge     = errors.New("file too large")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrInvalidDocType   = errors.New("unknown doc type")

	// Ingestion failures, abort the whole upload and discard partial artifacts
	ErrMissingHeader     = errors.New("missing header row")
	ErrInvalidColumnName = errors.New("invalid header column name")
	ErrEmptyDataset      = errors.New("csv contains no data")
	ErrIngestFailed      = errors.New("failed to process csv")

	// Not-found errors
	ErrDatasetNotFound  = errors.New("dataset not found")
	ErrInsightsNotFound = errors.New("insights not found")

	// State-precondition failures
	ErrNotIndexed       = errors.New("dataset not indexed")
	ErrLLMNotConfigured = errors.New("generation capability not configured")

	// Upstream capability failures, never retried locally
	ErrUpstream           = errors.New("upstream dependency error")
	ErrVectorSizeMismatch = errors.New("embedding size mismatch, reindex the dataset")
)

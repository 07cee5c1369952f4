// Package validator holds request-level validation helpers shared by the API
// handlers and use cases.
package validator

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/google/uuid"
)

var filenameRe = regexp.MustCompile(`^[\w][\w .()-]*$`)

// ValidateUploadFilename checks that the uploaded filename is safe to store
// and carries the .csv extension. Path separators and traversal sequences
// are rejected outright.
func ValidateUploadFilename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: filename", entity.ErrMissingField)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", entity.ErrInvalidFilename, name)
	}
	if !filenameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", entity.ErrInvalidFilename, name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return fmt.Errorf("%w: only .csv files are accepted, got %q", entity.ErrInvalidExtension, filepath.Ext(name))
	}
	return nil
}

// ValidateDelimiter checks an optional explicit delimiter override. Empty
// means "sniff"; anything longer than one character is rejected.
func ValidateDelimiter(delimiter string) error {
	if delimiter == "" {
		return nil
	}
	if len([]rune(delimiter)) != 1 {
		return fmt.Errorf("%w: delimiter must be a single character, got %q", entity.ErrInvalidParameter, delimiter)
	}
	return nil
}

// ValidateDatasetID rejects anything that is not a UUID so dataset
// identifiers can be used directly as storage directory names.
func ValidateDatasetID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: dataset_id", entity.ErrMissingField)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: dataset_id must be a UUID", entity.ErrInvalidParameter)
	}
	return nil
}

// ClampLimit resolves an optional limit against its default and maximum.
func ClampLimit(requested *int, def, max int) (int, error) {
	if requested == nil {
		return def, nil
	}
	if *requested < 1 {
		return 0, fmt.Errorf("%w: limit must be positive, got %d", entity.ErrInvalidParameter, *requested)
	}
	if *requested > max {
		return max, nil
	}
	return *requested, nil
}

// ValidateDocTypes checks an optional doc_type filter list.
func ValidateDocTypes(docTypes []string) error {
	for _, dt := range docTypes {
		if dt != string(entity.DocTypeSummary) && dt != string(entity.DocTypeRows) {
			return fmt.Errorf("%w: %q", entity.ErrInvalidDocType, dt)
		}
	}
	return nil
}

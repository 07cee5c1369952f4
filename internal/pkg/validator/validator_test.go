package validator

import (
	"testing"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUploadFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{name: "valid csv", filename: "sales_2024.csv", wantErr: nil},
		{name: "valid with spaces", filename: "my data (v2).csv", wantErr: nil},
		{name: "uppercase extension", filename: "DATA.CSV", wantErr: nil},
		{name: "empty", filename: "", wantErr: entity.ErrMissingField},
		{name: "path traversal", filename: "../etc/passwd.csv", wantErr: entity.ErrInvalidFilename},
		{name: "path separator", filename: "dir/data.csv", wantErr: entity.ErrInvalidFilename},
		{name: "wrong extension", filename: "data.xlsx", wantErr: entity.ErrInvalidExtension},
		{name: "no extension", filename: "data", wantErr: entity.ErrInvalidExtension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUploadFilename(tt.filename)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDatasetID(t *testing.T) {
	assert.NoError(t, ValidateDatasetID("3d7f1c9a-96d4-4b2e-8f0a-61f6a4f1f111"))
	assert.ErrorIs(t, ValidateDatasetID(""), entity.ErrMissingField)
	assert.ErrorIs(t, ValidateDatasetID("not-a-uuid"), entity.ErrInvalidParameter)
	assert.ErrorIs(t, ValidateDatasetID("../../secrets"), entity.ErrInvalidParameter)
}

func TestClampLimit(t *testing.T) {
	limit := func(n int) *int { return &n }

	got, err := ClampLimit(nil, 100, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, got)

	got, err = ClampLimit(limit(50), 100, 1000)
	require.NoError(t, err)
	assert.Equal(t, 50, got)

	got, err = ClampLimit(limit(5000), 100, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000, got)

	_, err = ClampLimit(limit(0), 100, 1000)
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestValidateDocTypes(t *testing.T) {
	assert.NoError(t, ValidateDocTypes(nil))
	assert.NoError(t, ValidateDocTypes([]string{"summary", "rows"}))
	assert.ErrorIs(t, ValidateDocTypes([]string{"chunks"}), entity.ErrInvalidDocType)
}

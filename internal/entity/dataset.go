package entity

import "time"

// TopValue is one categorical value with its occurrence count in the sample.
type TopValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// NumericColumnSummary holds the min/max/mean of a numeric column over the
// ingestion sample. The richer profile (std, quantiles) lives in ColumnProfile.
type NumericColumnSummary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// DatasetMetadata is the single source of truth for an ingested dataset.
// It is created once at ingestion and immutable afterwards.
type DatasetMetadata struct {
	DatasetID             string                          `json:"dataset_id"`
	Filename              string                          `json:"filename"`
	FileSizeBytes         int64                           `json:"file_size_bytes"`
	CreatedAt             time.Time                       `json:"created_at"`
	NbRows                int                             `json:"nb_rows"`
	NbColumns             int                             `json:"nb_columns"`
	Columns               []string                        `json:"columns"`
	Dtypes                map[string]string               `json:"dtypes"`
	Preview               []map[string]any                `json:"preview"`
	Delimiter             string                          `json:"delimiter"`
	Encoding              string                          `json:"encoding"`
	MissingValuesCount    map[string]int                  `json:"missing_values_count"`
	NumericColumnsSummary map[string]NumericColumnSummary `json:"numeric_columns_summary"`
	TopValues             map[string][]TopValue           `json:"top_values"`
	InferredPrimaryKey    *string                         `json:"inferred_primary_key_candidate,omitempty"`
	Warnings              []string                        `json:"warnings"`
}

// DatasetSummary is the listing projection of DatasetMetadata.
type DatasetSummary struct {
	DatasetID string    `json:"dataset_id"`
	CreatedAt time.Time `json:"created_at"`
	Filename  string    `json:"filename"`
	NbRows    int       `json:"nb_rows"`
	NbColumns int       `json:"nb_columns"`
}

// DatasetSchema exposes the inferred schema and per-column statistics.
type DatasetSchema struct {
	DatasetID             string                          `json:"dataset_id"`
	Columns               []string                        `json:"columns"`
	Dtypes                map[string]string               `json:"dtypes"`
	MissingValuesCount    map[string]int                  `json:"missing_values_count"`
	NumericColumnsSummary map[string]NumericColumnSummary `json:"numeric_columns_summary"`
	TopValues             map[string][]TopValue           `json:"top_values"`
	InferredPrimaryKey    *string                         `json:"inferred_primary_key_candidate,omitempty"`
	Warnings              []string                        `json:"warnings"`
}

// DatasetPreview is a bounded head of the dataset with typed cell values.
type DatasetPreview struct {
	DatasetID string           `json:"dataset_id"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	Limit     int              `json:"limit"`
}

// DatasetQueryRequest selects columns and rows with equality filters.
type DatasetQueryRequest struct {
	Columns []string       `json:"columns,omitempty"`
	Filters map[string]any `json:"filters,omitempty"`
	Limit   *int           `json:"limit,omitempty"`
}

type DatasetQueryResponse struct {
	DatasetID string           `json:"dataset_id"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
}

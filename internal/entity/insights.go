package entity

import "time"

type ColumnType string

const (
	ColumnTypeNumeric     ColumnType = "numeric"
	ColumnTypeCategorical ColumnType = "categorical"
	ColumnTypeDatetime    ColumnType = "datetime"
	ColumnTypeText        ColumnType = "text"
)

// NumericSummary is the profiled distribution of a numeric column.
// Std is the population standard deviation; quantiles use linear interpolation.
type NumericSummary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
}

// ColumnProfile classifies one column and carries its type-specific statistics.
type ColumnProfile struct {
	Type           ColumnType      `json:"type"`
	MissingRate    float64         `json:"missing_rate"`
	UniqueCount    int             `json:"unique_count"`
	UniqueRate     float64         `json:"unique_rate"`
	TopValues      []TopValue      `json:"top_values,omitempty"`
	NumericSummary *NumericSummary `json:"numeric_summary,omitempty"`
}

type DatasetOverview struct {
	Rows              int     `json:"rows"`
	Cols              int     `json:"cols"`
	MemoryEstimate    int64   `json:"memory_estimate"`
	MissingRateGlobal float64 `json:"missing_rate_global"`
}

type MissingColumnAnomaly struct {
	Column      string  `json:"column"`
	MissingRate float64 `json:"missing_rate"`
}

type OutlierAnomaly struct {
	Column  string `json:"column"`
	Method  string `json:"method"`
	Indices []int  `json:"indices"`
}

type SuspectValueAnomaly struct {
	Column  string `json:"column"`
	Issue   string `json:"issue"`
	Example string `json:"example,omitempty"`
}

type InsightsAnomalies struct {
	MissingColumns []MissingColumnAnomaly `json:"missing_columns"`
	Outliers       []OutlierAnomaly       `json:"outliers"`
	SuspectValues  []SuspectValueAnomaly  `json:"suspect_values"`
}

// InsightsResult is the cached output of the profiling + anomaly pipeline.
type InsightsResult struct {
	DatasetID       string                   `json:"dataset_id"`
	GeneratedAt     time.Time                `json:"generated_at"`
	SampleRowsUsed  int                      `json:"sample_rows_used"`
	TargetColumn    *string                  `json:"target_column,omitempty"`
	DatasetOverview DatasetOverview          `json:"dataset_overview"`
	ColumnProfiles  map[string]ColumnProfile `json:"column_profiles"`
	Anomalies       InsightsAnomalies        `json:"anomalies"`
	Recommendations []string                 `json:"recommendations"`
}

type InsightsRequest struct {
	SampleRows     *int    `json:"sample_rows,omitempty"`
	TargetColumn   *string `json:"target_column,omitempty"`
	ForceRecompute bool    `json:"force_recompute"`
}

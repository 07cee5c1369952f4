package entity

import "time"

type ChartType string

const (
	ChartTypeBar       ChartType = "bar"
	ChartTypePie       ChartType = "pie"
	ChartTypeHistogram ChartType = "histogram"
	ChartTypeLine      ChartType = "line"
	ChartTypeScatter   ChartType = "scatter"
)

type Aggregation string

const (
	AggregationAvg   Aggregation = "avg"
	AggregationCount Aggregation = "count"
)

// ChartSpec is an ephemeral visualization suggestion with a bounded preview.
// DataPreview holds parallel arrays (x/y or labels/values) capped at the
// configured max points.
type ChartSpec struct {
	Title       string           `json:"title"`
	Type        ChartType        `json:"type"`
	X           *string          `json:"x"`
	Y           *string          `json:"y"`
	Aggregation *Aggregation     `json:"aggregation"`
	DataPreview map[string][]any `json:"data_preview"`
	Notes       string           `json:"notes"`
}

type ChartsSuggestRequest struct {
	Question  *string `json:"question,omitempty"`
	MaxCharts int     `json:"max_charts,omitempty"`
}

type ChartsSuggestResponse struct {
	DatasetID string      `json:"dataset_id"`
	Charts    []ChartSpec `json:"charts"`
}

// ResultFormat selects the rendering of an exported report.
type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatPDF      ResultFormat = "pdf"
	FormatDOCX     ResultFormat = "docx"
)

type ReportResponse struct {
	DatasetID      string    `json:"dataset_id"`
	ReportMarkdown string    `json:"report_markdown"`
	UsedLLM        bool      `json:"used_llm"`
	GeneratedAt    time.Time `json:"generated_at"`
}

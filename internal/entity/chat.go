package entity

type ChatRequest struct {
	DatasetID      string   `json:"dataset_id"`
	Message        string   `json:"message"`
	TopK           int      `json:"top_k,omitempty"`
	DocTypes       []string `json:"doc_types,omitempty"`
	ResponseFormat string   `json:"response_format,omitempty"`
}

// ChatCitation is the verifiable reference backing one retrieved chunk, e.g.
// "dataset:<id> rows:3-4".
type ChatCitation struct {
	Citation string  `json:"citation"`
	DocType  DocType `json:"doc_type"`
	RowStart *int    `json:"row_start"`
	RowEnd   *int    `json:"row_end"`
	Score    float64 `json:"score"`
}

type ChatContext struct {
	Text   string       `json:"text"`
	Source SearchSource `json:"source"`
	Score  float64      `json:"score"`
}

type ChatResponse struct {
	Answer         string         `json:"answer"`
	Citations      []ChatCitation `json:"citations"`
	Contexts       []ChatContext  `json:"contexts"`
	LatencyMs      int64          `json:"latency_ms"`
	PromptTokens   *int           `json:"prompt_tokens,omitempty"`
	ResponseTokens *int           `json:"response_tokens,omitempty"`
}

package entity

import "time"

type DocType string

const (
	DocTypeSummary DocType = "summary"
	DocTypeRows    DocType = "rows"
)

// DocMetadata addresses a RagDocument back to its source. RowStart/RowEnd are
// inclusive 1-based data-row indices and are set only for rows documents.
type DocMetadata struct {
	DatasetID       string    `json:"dataset_id"`
	DocType         DocType   `json:"doc_type"`
	RowStart        *int      `json:"row_start"`
	RowEnd          *int      `json:"row_end"`
	ColumnsIncluded []string  `json:"columns_included"`
	CreatedAt       time.Time `json:"created_at"`
}

// RagDocument is one retrievable chunk: the human-readable serialization of a
// dataset summary or a contiguous row range.
type RagDocument struct {
	Text     string      `json:"text"`
	Metadata DocMetadata `json:"metadata"`
}

// RecordPayload is what the vector index stores alongside each vector.
type RecordPayload struct {
	Text string `json:"text"`
	DocMetadata
}

// VectorRecord is one addressable point in the vector index. ID is the
// deterministic "{dataset_id}:{sequence}" identifier.
type VectorRecord struct {
	ID      string        `json:"id"`
	Vector  []float64     `json:"vector"`
	Payload RecordPayload `json:"payload"`
}

// VectorHit is one ranked search result.
type VectorHit struct {
	Score   float64       `json:"score"`
	Payload RecordPayload `json:"payload"`
}

// IndexParams are the resolved build parameters of one index run.
type IndexParams struct {
	Columns    []string `json:"columns"`
	MaxRows    int      `json:"max_rows"`
	RowsPerDoc int      `json:"rows_per_doc"`
	Reindex    bool     `json:"reindex"`
}

// IndexMetadata records a completed index build. Its presence in storage is
// the sole signal that a dataset is searchable.
type IndexMetadata struct {
	DatasetID      string      `json:"dataset_id"`
	EmbeddingModel string      `json:"embedding_model"`
	VectorStore    string      `json:"vector_store"`
	Collection     string      `json:"collection"`
	NbDocs         int         `json:"nb_docs"`
	Params         IndexParams `json:"params"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
}

type DatasetIndexRequest struct {
	Columns    []string `json:"columns,omitempty"`
	MaxRows    *int     `json:"max_rows,omitempty"`
	RowsPerDoc *int     `json:"rows_per_doc,omitempty"`
	Reindex    bool     `json:"reindex"`
}

type DatasetIndexResponse struct {
	DatasetID       string `json:"dataset_id"`
	NbDocs          int    `json:"nb_docs"`
	VectorsUpserted int    `json:"vectors_upserted"`
	DurationMs      int64  `json:"duration_ms"`
}

// SearchSource identifies where a retrieved chunk came from.
type SearchSource struct {
	DatasetID string  `json:"dataset_id"`
	DocType   DocType `json:"doc_type"`
	RowStart  *int    `json:"row_start"`
	RowEnd    *int    `json:"row_end"`
}

type DatasetSearchRequest struct {
	Query    string   `json:"query"`
	TopK     int      `json:"top_k,omitempty"`
	DocTypes []string `json:"doc_types,omitempty"`
}

type DatasetSearchResult struct {
	Score    float64      `json:"score"`
	Text     string       `json:"text"`
	Source   SearchSource `json:"source"`
	Citation string       `json:"citation"`
}

type DatasetSearchResponse struct {
	DatasetID string                `json:"dataset_id"`
	Results   []DatasetSearchResult `json:"results"`
}

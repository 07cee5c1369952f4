package rag

import (
	"testing"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetadata() *entity.DatasetMetadata {
	pk := "id"
	return &entity.DatasetMetadata{
		DatasetID: "ds-1",
		Filename:  "sales.csv",
		NbRows:    5,
		NbColumns: 2,
		Columns:   []string{"id", "country"},
		Dtypes:    map[string]string{"id": "int64", "country": "object"},
		MissingValuesCount: map[string]int{
			"id": 0, "country": 1,
		},
		NumericColumnsSummary: map[string]entity.NumericColumnSummary{
			"id": {Min: 1, Max: 5, Mean: 3},
		},
		TopValues: map[string][]entity.TopValue{
			"country": {{Value: "FR", Count: 3}, {Value: "US", Count: 1}},
		},
		InferredPrimaryKey: &pk,
	}
}

func testFrame() *entity.Frame {
	return &entity.Frame{
		Columns: []string{"id", "country"},
		Rows: [][]entity.Cell{
			{{Value: "1"}, {Value: "FR"}},
			{{Value: "2"}, {Value: "US"}},
			{{Value: "3"}, {Null: true}},
			{{Value: "4"}, {Value: "FR"}},
			{{Value: "5"}, {Value: "FR"}},
		},
	}
}

func TestBuildDocumentsSummaryFirst(t *testing.T) {
	docs := BuildDocuments(testMetadata(), testFrame(), []string{"id", "country"}, 2, time.Now())

	require.Len(t, docs, 4)
	summary := docs[0]
	assert.Equal(t, entity.DocTypeSummary, summary.Metadata.DocType)
	assert.Contains(t, summary.Text, "dataset=sales.csv")
	assert.Contains(t, summary.Text, "rows=5")
	assert.Contains(t, summary.Text, "column id type=int64 min=1 max=5 mean=3")
	assert.Contains(t, summary.Text, "top_values=FR,US")
	assert.Contains(t, summary.Text, "primary_key_candidate=id")
	assert.Nil(t, summary.Metadata.RowStart)
}

func TestBuildDocumentsRowWindows(t *testing.T) {
	docs := BuildDocuments(testMetadata(), testFrame(), []string{"id", "country"}, 2, time.Now())

	first := docs[1]
	require.NotNil(t, first.Metadata.RowStart)
	assert.Equal(t, 1, *first.Metadata.RowStart)
	assert.Equal(t, 2, *first.Metadata.RowEnd)
	assert.Equal(t, "row_index=1 | id=1 | country=FR\nrow_index=2 | id=2 | country=US", first.Text)

	second := docs[2]
	assert.Contains(t, second.Text, "country=null")

	last := docs[3]
	assert.Equal(t, 5, *last.Metadata.RowStart)
	assert.Equal(t, 5, *last.Metadata.RowEnd)
}

func TestBuildDocumentsColumnSubset(t *testing.T) {
	docs := BuildDocuments(testMetadata(), testFrame(), []string{"country"}, 10, time.Now())

	require.Len(t, docs, 2)
	assert.NotContains(t, docs[1].Text, "id=")
	assert.Contains(t, docs[1].Text, "country=FR")
	assert.Equal(t, []string{"country"}, docs[1].Metadata.ColumnsIncluded)
}

func TestCitation(t *testing.T) {
	start, end := 3, 4
	assert.Equal(t, "dataset:ds-1 rows:3-4", Citation("ds-1", entity.DocTypeRows, &start, &end))
	assert.Equal(t, "dataset:ds-1", Citation("ds-1", entity.DocTypeSummary, nil, nil))
}

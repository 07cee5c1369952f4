// Package rag builds the retrievable documents of a dataset: one summary
// document describing the schema and one document per contiguous row window.
package rag

import (
	"fmt"
	"strings"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

// BuildDocuments serializes the dataset into RAG documents. The summary
// document always comes first, followed by row documents covering rowsPerDoc
// rows each. Row indices are 1-based and inclusive.
func BuildDocuments(meta *entity.DatasetMetadata, frame *entity.Frame, columns []string, rowsPerDoc int, now time.Time) []entity.RagDocument {
	docs := []entity.RagDocument{summaryDocument(meta, now)}

	colIdx := make([]int, 0, len(columns))
	for _, col := range columns {
		if idx := frame.ColumnIndex(col); idx >= 0 {
			colIdx = append(colIdx, idx)
		}
	}

	for start := 0; start < frame.NumRows(); start += rowsPerDoc {
		end := start + rowsPerDoc
		if end > frame.NumRows() {
			end = frame.NumRows()
		}

		var sb strings.Builder
		for r := start; r < end; r++ {
			if r > start {
				sb.WriteByte('\n')
			}
			sb.WriteString(fmt.Sprintf("row_index=%d", r+1))
			for _, idx := range colIdx {
				cell := frame.Rows[r][idx]
				value := cell.Value
				if cell.Null {
					value = "null"
				}
				sb.WriteString(fmt.Sprintf(" | %s=%s", frame.Columns[idx], value))
			}
		}

		rowStart, rowEnd := start+1, end
		docs = append(docs, entity.RagDocument{
			Text: sb.String(),
			Metadata: entity.DocMetadata{
				DatasetID:       meta.DatasetID,
				DocType:         entity.DocTypeRows,
				RowStart:        &rowStart,
				RowEnd:          &rowEnd,
				ColumnsIncluded: columns,
				CreatedAt:       now.UTC(),
			},
		})
	}
	return docs
}

// summaryDocument is a compact pipe-delimited description of the dataset:
// name, shape, columns with dtypes, missing counts and numeric ranges.
func summaryDocument(meta *entity.DatasetMetadata, now time.Time) entity.RagDocument {
	var parts []string
	parts = append(parts, fmt.Sprintf("dataset=%s", meta.Filename))
	parts = append(parts, fmt.Sprintf("rows=%d", meta.NbRows))
	parts = append(parts, fmt.Sprintf("columns=%d", meta.NbColumns))

	for _, col := range meta.Columns {
		desc := fmt.Sprintf("column %s type=%s", col, meta.Dtypes[col])
		if missing := meta.MissingValuesCount[col]; missing > 0 {
			desc += fmt.Sprintf(" missing=%d", missing)
		}
		if summary, ok := meta.NumericColumnsSummary[col]; ok {
			desc += fmt.Sprintf(" min=%g max=%g mean=%g", summary.Min, summary.Max, summary.Mean)
		}
		if top := meta.TopValues[col]; len(top) > 0 {
			values := make([]string, 0, len(top))
			for _, tv := range top {
				values = append(values, tv.Value)
			}
			desc += fmt.Sprintf(" top_values=%s", strings.Join(values, ","))
		}
		parts = append(parts, desc)
	}

	if meta.InferredPrimaryKey != nil {
		parts = append(parts, fmt.Sprintf("primary_key_candidate=%s", *meta.InferredPrimaryKey))
	}

	return entity.RagDocument{
		Text: strings.Join(parts, " | "),
		Metadata: entity.DocMetadata{
			DatasetID:       meta.DatasetID,
			DocType:         entity.DocTypeSummary,
			ColumnsIncluded: meta.Columns,
			CreatedAt:       now.UTC(),
		},
	}
}

// Citation renders the verifiable reference of a retrieved chunk.
func Citation(datasetID string, docType entity.DocType, rowStart, rowEnd *int) string {
	if docType == entity.DocTypeRows && rowStart != nil && rowEnd != nil {
		return fmt.Sprintf("dataset:%s rows:%d-%d", datasetID, *rowStart, *rowEnd)
	}
	return fmt.Sprintf("dataset:%s", datasetID)
}

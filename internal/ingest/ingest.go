// Package ingest turns an uploaded CSV into dataset metadata: encoding and
// delimiter detection, header normalization, a single streaming pass over the
// rows, and lightweight type inference on a bounded sample.
package ingest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

const (
	dtypeInt    = "int64"
	dtypeFloat  = "float64"
	dtypeObject = "object"

	topValuesLimit     = 5
	pkUniqueRatio      = 0.95
	missingWarnPercent = 0.5
)

type Ingestor struct {
	sampleRows int
}

func NewIngestor(cfg config.IngestConfig) *Ingestor {
	return &Ingestor{sampleRows: cfg.SampleRows}
}

// Ingest analyzes raw upload bytes and produces the dataset metadata.
// Encoding and delimiter detection run on a bounded leading sample; a
// non-empty delimiter override bypasses sniffing. Row and missing counts
// cover the whole file; dtype inference, numeric summaries, top values and
// primary key detection run on the leading sample.
func (ing *Ingestor) Ingest(raw []byte, datasetID, filename, delimiterOverride string, now time.Time) (*entity.DatasetMetadata, error) {
	sample := DetectionSample(raw)
	encoding, warnings := DetectEncoding(sample)
	text := DecodeAs(raw, encoding)

	var delimiter rune
	if delimiterOverride != "" {
		delimiter = []rune(delimiterOverride)[0]
	} else {
		sniffed, delimWarnings := SniffDelimiter(DecodeAs(sample, encoding))
		delimiter = sniffed
		warnings = append(warnings, delimWarnings...)
	}

	res, err := stream(strings.NewReader(text), delimiter, ing.sampleRows)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, res.Warnings...)

	dtypes := make(map[string]string, len(res.Columns))
	numericSummaries := make(map[string]entity.NumericColumnSummary)
	topValues := make(map[string][]entity.TopValue)

	for i, col := range res.Columns {
		values := columnValues(res.Sample, i)
		dtype := inferDtype(values)
		dtypes[col] = dtype

		switch dtype {
		case dtypeInt, dtypeFloat:
			if summary, ok := numericSummary(values); ok {
				numericSummaries[col] = summary
			}
		default:
			if top := topValueCounts(values, topValuesLimit); len(top) > 0 {
				topValues[col] = top
			}
		}

		if float64(res.Missing[i]) > missingWarnPercent*float64(res.TotalRows) {
			warnings = append(warnings, fmt.Sprintf("column %q has more than 50%% missing values", col))
		}
	}

	missing := make(map[string]int, len(res.Columns))
	for i, col := range res.Columns {
		missing[col] = res.Missing[i]
	}

	meta := &entity.DatasetMetadata{
		DatasetID:             datasetID,
		Filename:              filename,
		FileSizeBytes:         int64(len(raw)),
		CreatedAt:             now.UTC(),
		NbRows:                res.TotalRows,
		NbColumns:             len(res.Columns),
		Columns:               res.Columns,
		Dtypes:                dtypes,
		Preview:               Records(res.Columns, res.Preview, dtypes),
		Delimiter:             string(delimiter),
		Encoding:              encoding,
		MissingValuesCount:    missing,
		NumericColumnsSummary: numericSummaries,
		TopValues:             topValues,
		InferredPrimaryKey:    inferPrimaryKey(res.Sample),
		Warnings:              warnings,
	}
	return meta, nil
}

// columnValues extracts the non-null raw strings of one sample column.
func columnValues(frame *entity.Frame, idx int) []string {
	values := make([]string, 0, len(frame.Rows))
	for _, row := range frame.Rows {
		if !row[idx].Null {
			values = append(values, row[idx].Value)
		}
	}
	return values
}

// inferDtype classifies a column as int64, float64 or object from its
// non-null sample values. Columns with no values stay object.
func inferDtype(values []string) string {
	if len(values) == 0 {
		return dtypeObject
	}
	allInt, allFloat := true, true
	for _, v := range values {
		v = strings.TrimSpace(v)
		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allFloat = false
			}
		}
		if !allInt && !allFloat {
			return dtypeObject
		}
	}
	if allInt {
		return dtypeInt
	}
	return dtypeFloat
}

func numericSummary(values []string) (entity.NumericColumnSummary, bool) {
	var min, max, sum float64
	n := 0
	for _, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		if n == 0 || f < min {
			min = f
		}
		if n == 0 || f > max {
			max = f
		}
		sum += f
		n++
	}
	if n == 0 {
		return entity.NumericColumnSummary{}, false
	}
	return entity.NumericColumnSummary{Min: min, Max: max, Mean: sum / float64(n)}, true
}

// topValueCounts returns the most frequent values, count descending, value
// ascending on ties so output is deterministic.
func topValueCounts(values []string, limit int) []entity.TopValue {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	top := make([]entity.TopValue, 0, len(counts))
	for v, c := range counts {
		top = append(top, entity.TopValue{Value: v, Count: c})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Value < top[j].Value
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

// inferPrimaryKey returns the first sampled column with no nulls and a
// near-unique value set, or nil. Only the sample counts: a null past the
// sample window does not disqualify a candidate.
func inferPrimaryKey(sample *entity.Frame) *string {
	if sample.NumRows() == 0 {
		return nil
	}
	for i, col := range sample.Columns {
		hasNull := false
		distinct := make(map[string]struct{}, sample.NumRows())
		for _, row := range sample.Rows {
			if row[i].Null {
				hasNull = true
				break
			}
			distinct[row[i].Value] = struct{}{}
		}
		if hasNull {
			continue
		}
		if float64(len(distinct)) >= pkUniqueRatio*float64(sample.NumRows()) {
			name := col
			return &name
		}
	}
	return nil
}

// Records converts rows into JSON-friendly records, typing
// cells according to the inferred column dtypes.
func Records(columns []string, rows [][]entity.Cell, dtypes map[string]string) []map[string]any {
	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(columns))
		for i, col := range columns {
			record[col] = TypedValue(row[i], dtypes[col])
		}
		records = append(records, record)
	}
	return records
}

func TypedValue(cell entity.Cell, dtype string) any {
	if cell.Null {
		return nil
	}
	switch dtype {
	case dtypeInt:
		if n, err := strconv.ParseInt(strings.TrimSpace(cell.Value), 10, 64); err == nil {
			return n
		}
	case dtypeFloat:
		if f, err := strconv.ParseFloat(strings.TrimSpace(cell.Value), 64); err == nil {
			return f
		}
	}
	return cell.Value
}

package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

// previewRows is the number of leading rows embedded in dataset metadata.
const previewRows = 5

// streamResult accumulates a single pass over the CSV body. The full file is
// counted; only the first sampleRows rows are materialized.
type streamResult struct {
	Columns   []string
	TotalRows int
	Missing   []int
	Preview   [][]entity.Cell
	Sample    *entity.Frame
	Warnings  []string
}

// stream reads the whole CSV once, accumulating row count and per-column
// missing counts while keeping a bounded sample for type inference. Short
// rows are padded with nulls; rows longer than the header fail the ingest.
func stream(r io.Reader, delimiter rune, sampleRows int) (*streamResult, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, entity.ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrIngestFailed, err)
	}
	if !HasHeader(header) {
		return nil, entity.ErrMissingHeader
	}

	columns, warnings, err := NormalizeColumns(header)
	if err != nil {
		return nil, err
	}

	res := &streamResult{
		Columns:  columns,
		Missing:  make([]int, len(columns)),
		Sample:   &entity.Frame{Columns: columns},
		Warnings: warnings,
	}

	padded := false
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", entity.ErrIngestFailed, res.TotalRows+2, err)
		}
		if len(record) > len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d",
				entity.ErrIngestFailed, res.TotalRows+2, len(record), len(columns))
		}
		if len(record) < len(columns) {
			padded = true
		}

		cells := make([]entity.Cell, len(columns))
		for i := range columns {
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				cells[i] = entity.Cell{Null: true}
				res.Missing[i]++
				continue
			}
			cells[i] = entity.Cell{Value: record[i]}
		}

		res.TotalRows++
		if len(res.Preview) < previewRows {
			res.Preview = append(res.Preview, cells)
		}
		if len(res.Sample.Rows) < sampleRows {
			res.Sample.Rows = append(res.Sample.Rows, cells)
		}
	}

	if res.TotalRows == 0 {
		return nil, entity.ErrEmptyDataset
	}
	if padded {
		res.Warnings = append(res.Warnings, "some rows have fewer fields than the header, padded with nulls")
	}
	return res, nil
}

// ReadFrame re-reads a stored dataset into a Frame using the delimiter and
// encoding recorded at upload time. maxRows <= 0 means all rows. Column names
// go through the same normalization as the original ingest, so they always
// match the stored metadata.
func ReadFrame(raw []byte, delimiter string, maxRows int) (*entity.Frame, error) {
	text, _, _ := DecodeText(raw)
	delim := ','
	if delimiter != "" {
		delim = []rune(delimiter)[0]
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, entity.ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrIngestFailed, err)
	}
	columns, _, err := NormalizeColumns(header)
	if err != nil {
		return nil, err
	}

	frame := &entity.Frame{Columns: columns}
	for {
		if maxRows > 0 && len(frame.Rows) >= maxRows {
			break
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", entity.ErrIngestFailed, len(frame.Rows)+2, err)
		}

		cells := make([]entity.Cell, len(columns))
		for i := range columns {
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				cells[i] = entity.Cell{Null: true}
				continue
			}
			cells[i] = entity.Cell{Value: record[i]}
		}
		frame.Rows = append(frame.Rows, cells)
	}
	return frame, nil
}

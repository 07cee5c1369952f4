package ingest

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngestor() *Ingestor {
	return NewIngestor(config.IngestConfig{SampleRows: 10000})
}

func TestIngestSemicolonCSV(t *testing.T) {
	raw := []byte("col1;col2;country\n1;2;FR\n3;;US\n4;5;FR\n")

	meta, err := newTestIngestor().Ingest(raw, "ds-1", "data.csv", "", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 3, meta.NbRows)
	assert.Equal(t, 3, meta.NbColumns)
	assert.Equal(t, []string{"col1", "col2", "country"}, meta.Columns)
	assert.Equal(t, ";", meta.Delimiter)
	assert.Equal(t, "utf-8", meta.Encoding)

	assert.Equal(t, 0, meta.MissingValuesCount["col1"])
	assert.Equal(t, 1, meta.MissingValuesCount["col2"])
	assert.Equal(t, 0, meta.MissingValuesCount["country"])

	assert.Equal(t, "int64", meta.Dtypes["col1"])
	assert.Equal(t, "int64", meta.Dtypes["col2"])
	assert.Equal(t, "object", meta.Dtypes["country"])

	col1 := meta.NumericColumnsSummary["col1"]
	assert.Equal(t, 1.0, col1.Min)
	assert.Equal(t, 4.0, col1.Max)
	assert.InDelta(t, 8.0/3.0, col1.Mean, 1e-9)

	require.Len(t, meta.TopValues["country"], 2)
	assert.Equal(t, entity.TopValue{Value: "FR", Count: 2}, meta.TopValues["country"][0])

	require.NotNil(t, meta.InferredPrimaryKey)
	assert.Equal(t, "col1", *meta.InferredPrimaryKey)
}

func TestIngestPreviewIsTyped(t *testing.T) {
	raw := []byte("id,price,label\n1,2.5,a\n2,,b\n")

	meta, err := newTestIngestor().Ingest(raw, "ds-1", "data.csv", "", time.Now())
	require.NoError(t, err)

	require.Len(t, meta.Preview, 2)
	assert.Equal(t, int64(1), meta.Preview[0]["id"])
	assert.Equal(t, 2.5, meta.Preview[0]["price"])
	assert.Equal(t, "a", meta.Preview[0]["label"])
	assert.Nil(t, meta.Preview[1]["price"])
}

func TestIngestMissingHeader(t *testing.T) {
	raw := []byte("1,2,3\n4,5,6\n")

	_, err := newTestIngestor().Ingest(raw, "ds-1", "data.csv", "", time.Now())
	assert.ErrorIs(t, err, entity.ErrMissingHeader)
}

func TestIngestEmptyFile(t *testing.T) {
	_, err := newTestIngestor().Ingest(nil, "ds-1", "data.csv", "", time.Now())
	assert.ErrorIs(t, err, entity.ErrEmptyDataset)

	_, err = newTestIngestor().Ingest([]byte("a,b\n"), "ds-1", "data.csv", "", time.Now())
	assert.ErrorIs(t, err, entity.ErrEmptyDataset)
}

func TestIngestLatin1Fallback(t *testing.T) {
	raw := []byte("name,city\nJos\xe9,Paris\n")

	meta, err := newTestIngestor().Ingest(raw, "ds-1", "data.csv", "", time.Now())
	require.NoError(t, err)

	assert.Equal(t, "latin-1", meta.Encoding)
	assert.Contains(t, meta.Warnings[0], "latin-1")
	assert.Equal(t, "José", meta.Preview[0]["name"])
}

func TestIngestDuplicateColumns(t *testing.T) {
	raw := []byte("a,a,b,a\nx,y,z,w\nq,r,s,t\n")

	meta, err := newTestIngestor().Ingest(raw, "ds-1", "data.csv", "", time.Now())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a_dup1", "b", "a_dup2"}, meta.Columns)
	warned := 0
	for _, w := range meta.Warnings {
		if strings.HasPrefix(w, "duplicate column") {
			warned++
		}
	}
	assert.Equal(t, 2, warned)
}

func TestIngestHighMissingWarning(t *testing.T) {
	raw := []byte("id,v\n1,\n2,\n3,x\n")

	meta, err := newTestIngestor().Ingest(raw, "ds-1", "data.csv", "", time.Now())
	require.NoError(t, err)

	found := false
	for _, w := range meta.Warnings {
		if w == `column "v" has more than 50% missing values` {
			found = true
		}
	}
	assert.True(t, found)
}

func TestIngestShortRowsPadded(t *testing.T) {
	raw := []byte("a,b,c\n1,2,3\n4,5\n")

	meta, err := newTestIngestor().Ingest(raw, "ds-1", "data.csv", "", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 2, meta.NbRows)
	assert.Equal(t, 1, meta.MissingValuesCount["c"])
}

func TestIngestLongRowFails(t *testing.T) {
	raw := []byte("a,b\n1,2,3\n")

	_, err := newTestIngestor().Ingest(raw, "ds-1", "data.csv", "", time.Now())
	assert.ErrorIs(t, err, entity.ErrIngestFailed)
}

func TestIngestExplicitDelimiter(t *testing.T) {
	// Ambiguous file: one comma and one semicolon per line. Sniffing settles
	// on the comma; the explicit override keeps the semicolon split.
	raw := []byte("x;y,z\n1;2,3\n4;5,6\n")

	sniffed, err := newTestIngestor().Ingest(raw, "ds-1", "data.csv", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"x;y", "z"}, sniffed.Columns)

	meta, err := newTestIngestor().Ingest(raw, "ds-2", "data.csv", ";", time.Now())
	require.NoError(t, err)
	assert.Equal(t, ";", meta.Delimiter)
	assert.Equal(t, []string{"x", "y,z"}, meta.Columns)
	assert.Equal(t, 2, meta.NbRows)
}

func TestIngestPrimaryKeyUsesSampleOnly(t *testing.T) {
	// The null in the third row sits past the two-row sample window, so it
	// must not disqualify the id column.
	ingestor := NewIngestor(config.IngestConfig{SampleRows: 2})
	raw := []byte("id,v\n1,a\n2,b\n,c\n")

	meta, err := ingestor.Ingest(raw, "ds-1", "data.csv", "", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 3, meta.NbRows)
	assert.Equal(t, 1, meta.MissingValuesCount["id"])
	require.NotNil(t, meta.InferredPrimaryKey)
	assert.Equal(t, "id", *meta.InferredPrimaryKey)
}

func TestIngestEmptyColumnName(t *testing.T) {
	raw := []byte("a,,c\nx,y,z\n")

	_, err := newTestIngestor().Ingest(raw, "ds-1", "data.csv", "", time.Now())
	assert.ErrorIs(t, err, entity.ErrInvalidColumnName)
	assert.NotErrorIs(t, err, entity.ErrMissingHeader)
}

func TestDetectionSampleKeepsRuneBoundary(t *testing.T) {
	// A two-byte rune straddling the sample cap must not push a valid UTF-8
	// file into the latin-1 fallback.
	raw := append(bytes.Repeat([]byte("a"), detectSampleBytes-1), []byte("é more text")...)

	sample := DetectionSample(raw)
	assert.LessOrEqual(t, len(sample), detectSampleBytes)

	encoding, warnings := DetectEncoding(sample)
	assert.Equal(t, EncodingUTF8, encoding)
	assert.Empty(t, warnings)
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want rune
	}{
		{name: "comma", text: "a,b\n1,2\n", want: ','},
		{name: "semicolon", text: "a;b\n1;2\n", want: ';'},
		{name: "tab", text: "a\tb\n1\t2\n", want: '\t'},
		{name: "semicolon beats comma in values", text: "a;b\n1,5;2,7\n", want: ';'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := SniffDelimiter(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSniffDelimiterDefaultsToComma(t *testing.T) {
	got, warnings := SniffDelimiter("justonecolumn\nvalue\n")
	assert.Equal(t, ',', got)
	assert.NotEmpty(t, warnings)
}

func TestReadFrame(t *testing.T) {
	raw := []byte("a;b\n1;x\n2;\n3;z\n")

	frame, err := ReadFrame(raw, ";", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, frame.Columns)
	require.Equal(t, 2, frame.NumRows())
	assert.Equal(t, "1", frame.Rows[0][0].Value)
	assert.True(t, frame.Rows[1][1].Null)
}

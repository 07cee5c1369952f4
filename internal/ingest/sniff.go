package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"golang.org/x/text/encoding/charmap"
)

const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"

	// detectSampleBytes bounds the leading sample used for encoding and
	// delimiter detection.
	detectSampleBytes = 64 << 10
)

var delimiterCandidates = []rune{',', ';', '\t'}

// DetectionSample returns the leading bytes used for encoding and delimiter
// detection. A multi-byte rune split by the size cap is dropped so truncation
// never fakes an encoding failure.
func DetectionSample(raw []byte) []byte {
	if len(raw) <= detectSampleBytes {
		return raw
	}
	sample := raw[:detectSampleBytes]
	for i := 0; i < utf8.UTFMax-1 && len(sample) > 0; i++ {
		r, size := utf8.DecodeLastRune(sample)
		if r != utf8.RuneError || size > 1 {
			break
		}
		sample = sample[:len(sample)-1]
	}
	return sample
}

// DetectEncoding classifies a byte sample as UTF-8 or latin-1. Latin-1 maps
// every byte, so detection never fails; the fallback is reported as a
// warning, not an error.
func DetectEncoding(sample []byte) (encoding string, warnings []string) {
	if utf8.Valid(sample) {
		return EncodingUTF8, nil
	}
	return EncodingLatin1, []string{"file is not valid UTF-8, decoded as latin-1"}
}

// DecodeAs decodes raw bytes to text using a detected encoding label.
func DecodeAs(raw []byte, encoding string) string {
	if encoding == EncodingUTF8 {
		return string(raw)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// ISO8859_1 decodes any byte sequence; keep the raw bytes if the
		// decoder still refuses.
		return string(raw)
	}
	return string(decoded)
}

// DecodeText detects the encoding over the full input and decodes it. Used
// when re-reading stored datasets, where exact full-file detection is cheap.
func DecodeText(raw []byte) (text string, encoding string, warnings []string) {
	encoding, warnings = DetectEncoding(raw)
	return DecodeAs(raw, encoding), encoding, warnings
}

// SniffDelimiter picks the separator among comma, semicolon and tab by
// looking at up to the first ten lines. A candidate wins when it occurs the
// same non-zero number of times on every sampled line; among several such
// candidates the most frequent one wins. When nothing qualifies the comma is
// assumed and a warning is returned.
func SniffDelimiter(text string) (delimiter rune, warnings []string) {
	lines := sampleLines(text, 10)
	if len(lines) == 0 {
		return ',', []string{"could not detect delimiter, assuming ','"}
	}

	best := rune(0)
	bestCount := 0
	for _, cand := range delimiterCandidates {
		count := strings.Count(lines[0], string(cand))
		if count == 0 {
			continue
		}
		consistent := true
		for _, line := range lines[1:] {
			if strings.Count(line, string(cand)) != count {
				consistent = false
				break
			}
		}
		if consistent && count > bestCount {
			best = cand
			bestCount = count
		}
	}
	if best != 0 {
		return best, nil
	}

	// Fall back to the most frequent candidate on the first line.
	for _, cand := range delimiterCandidates {
		if count := strings.Count(lines[0], string(cand)); count > bestCount {
			best = cand
			bestCount = count
		}
	}
	if best != 0 {
		return best, []string{fmt.Sprintf("delimiter detection is ambiguous, using %q", string(best))}
	}
	return ',', []string{"could not detect delimiter, assuming ','"}
}

// HasHeader reports whether the first record looks like a header row. Cells
// that parse as numbers indicate data, not column names; empty cells carry no
// vote, they are rejected later as invalid column names. Ambiguous files are
// treated as having a header.
func HasHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	for _, cell := range record {
		trimmed := strings.TrimSpace(cell)
		if trimmed == "" {
			continue
		}
		if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return false
		}
	}
	return true
}

// NormalizeColumns trims column names and deduplicates repeats with a
// _dup{n} suffix, reporting every rename as a warning. An empty name after
// trimming fails the whole ingestion.
func NormalizeColumns(raw []string) (columns []string, warnings []string, err error) {
	columns = make([]string, len(raw))
	seen := make(map[string]int, len(raw))

	for i, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, nil, fmt.Errorf("%w: header column %d is empty", entity.ErrInvalidColumnName, i+1)
		}
		if n, dup := seen[name]; dup {
			renamed := fmt.Sprintf("%s_dup%d", name, n)
			for {
				if _, taken := seen[renamed]; !taken {
					break
				}
				n++
				renamed = fmt.Sprintf("%s_dup%d", name, n)
			}
			warnings = append(warnings, fmt.Sprintf("duplicate column %q renamed to %q", name, renamed))
			seen[name] = n + 1
			name = renamed
		}
		if _, ok := seen[name]; !ok {
			seen[name] = 1
		}
		columns[i] = name
	}
	return columns, warnings, nil
}

func sampleLines(text string, max int) []string {
	var lines []string
	for _, line := range strings.SplitN(text, "\n", max+1) {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == max {
			break
		}
	}
	return lines
}

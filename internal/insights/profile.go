// Package insights profiles an ingested dataset: per-column typing and
// statistics, anomaly detection and deterministic recommendations, plus the
// rule-based chart suggestion engine.
package insights

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/stats"
)

const (
	// datetimeProbeRows bounds how many leading non-null values are parsed
	// when deciding whether a column is a datetime column.
	datetimeProbeRows = 1000
	datetimeMinRate   = 0.8

	categoricalMaxUniqueRate  = 0.2
	categoricalMaxUniqueCount = 20

	profileTopValues = 5

	// cellOverheadBytes approximates per-cell bookkeeping in the memory
	// estimate on top of the raw value bytes.
	cellOverheadBytes = 8
)

var datetimeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
}

// columnStats is the working state of one profiled column.
type columnStats struct {
	Name        string
	Profile     entity.ColumnProfile
	Numbers     []float64 // parsed values, numeric columns only
	NumberRows  []int     // 1-based row index of each parsed value
	InvalidDate float64   // invalid parse rate, datetime columns only
	LongestText string    // longest raw value, text columns only
}

// profileColumns classifies every column and computes its type-specific
// statistics. Typing follows a fixed precedence: numeric, then datetime, then
// categorical, then text.
func profileColumns(frame *entity.Frame) []*columnStats {
	profiles := make([]*columnStats, 0, len(frame.Columns))
	rows := frame.NumRows()

	for idx, name := range frame.Columns {
		cs := &columnStats{Name: name}

		var values []string
		var valueRows []int
		longest := ""
		for r, row := range frame.Rows {
			cell := row[idx]
			if cell.Null {
				continue
			}
			values = append(values, cell.Value)
			valueRows = append(valueRows, r+1)
			if len(cell.Value) > len(longest) {
				longest = cell.Value
			}
		}

		missing := rows - len(values)
		cs.Profile.MissingRate = rate(missing, rows)

		distinct := make(map[string]struct{}, len(values))
		for _, v := range values {
			distinct[v] = struct{}{}
		}
		cs.Profile.UniqueCount = len(distinct)
		cs.Profile.UniqueRate = rate(len(distinct), len(values))

		switch {
		case isNumericColumn(values):
			cs.Profile.Type = entity.ColumnTypeNumeric
			cs.Numbers, cs.NumberRows = parseNumbers(values, valueRows)
			cs.Profile.NumericSummary = numericSummary(cs.Numbers)
		case isDatetimeColumn(values):
			cs.Profile.Type = entity.ColumnTypeDatetime
			cs.InvalidDate = datetimeInvalidRate(values)
		case isCategoricalColumn(len(distinct), len(values)):
			cs.Profile.Type = entity.ColumnTypeCategorical
			cs.Profile.TopValues = topValueCounts(values, profileTopValues)
		default:
			cs.Profile.Type = entity.ColumnTypeText
			cs.LongestText = longest
		}

		profiles = append(profiles, cs)
	}
	return profiles
}

func overview(frame *entity.Frame, totalRows int, profiles []*columnStats) entity.DatasetOverview {
	var missingSum float64
	for _, cs := range profiles {
		missingSum += cs.Profile.MissingRate
	}
	global := 0.0
	if len(profiles) > 0 {
		global = missingSum / float64(len(profiles))
	}

	return entity.DatasetOverview{
		Rows:              totalRows,
		Cols:              len(frame.Columns),
		MemoryEstimate:    memoryEstimate(frame, totalRows),
		MissingRateGlobal: global,
	}
}

// memoryEstimate extrapolates the sampled cell bytes to the full row count.
func memoryEstimate(frame *entity.Frame, totalRows int) int64 {
	if frame.NumRows() == 0 {
		return 0
	}
	var sampleBytes int64
	for _, row := range frame.Rows {
		for _, cell := range row {
			sampleBytes += int64(len(cell.Value)) + cellOverheadBytes
		}
	}
	perRow := float64(sampleBytes) / float64(frame.NumRows())
	return int64(perRow * float64(totalRows))
}

func isNumericColumn(values []string) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return false
		}
	}
	return true
}

// isDatetimeColumn probes the leading non-null values and requires at least
// 80% of them to parse with one of the known layouts.
func isDatetimeColumn(values []string) bool {
	probe := values
	if len(probe) > datetimeProbeRows {
		probe = probe[:datetimeProbeRows]
	}
	if len(probe) == 0 {
		return false
	}
	parsed := 0
	for _, v := range probe {
		if parseDatetime(v) {
			parsed++
		}
	}
	return float64(parsed) >= datetimeMinRate*float64(len(probe))
}

func isCategoricalColumn(uniqueCount, nonNull int) bool {
	if nonNull == 0 {
		return false
	}
	return rate(uniqueCount, nonNull) <= categoricalMaxUniqueRate ||
		uniqueCount <= categoricalMaxUniqueCount
}

func parseDatetime(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func datetimeInvalidRate(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	invalid := 0
	for _, v := range values {
		if !parseDatetime(v) {
			invalid++
		}
	}
	return rate(invalid, len(values))
}

func parseNumbers(values []string, valueRows []int) ([]float64, []int) {
	numbers := make([]float64, 0, len(values))
	rows := make([]int, 0, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		numbers = append(numbers, f)
		rows = append(rows, valueRows[i])
	}
	return numbers, rows
}

func numericSummary(numbers []float64) *entity.NumericSummary {
	if len(numbers) == 0 {
		return nil
	}
	return &entity.NumericSummary{
		Min:  stats.Min(numbers),
		Max:  stats.Max(numbers),
		Mean: stats.Mean(numbers),
		Std:  stats.PopStd(numbers),
		P50:  stats.Quantile(numbers, 0.5),
		P95:  stats.Quantile(numbers, 0.95),
	}
}

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

func rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

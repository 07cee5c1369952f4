package insights

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

const histogramMaxBins = 10

// Suggester proposes chart specifications from a sampled frame using
// deterministic rules. No chart state is ever persisted.
type Suggester struct {
	maxCharts int
	maxPoints int
}

func NewSuggester(cfg config.ChartsConfig) *Suggester {
	return &Suggester{maxCharts: cfg.MaxCharts, maxPoints: cfg.MaxPoints}
}

// Suggest returns up to maxCharts chart specs. When a question is given, its
// first matching keyword rule selects one chart family tried first; remaining
// slots are backfilled in a fixed order (line, bar, scatter, histogram).
// Duplicate specs, keyed by type, axes and aggregation, are suppressed.
func (s *Suggester) Suggest(frame *entity.Frame, question *string, maxCharts int) []entity.ChartSpec {
	if maxCharts < 1 || maxCharts > s.maxCharts {
		maxCharts = s.maxCharts
	}

	profiles := profileColumns(frame)
	builders := map[entity.ChartType]func() *entity.ChartSpec{
		entity.ChartTypeLine:      func() *entity.ChartSpec { return s.buildLine(frame, profiles) },
		entity.ChartTypeBar:       func() *entity.ChartSpec { return s.buildBar(frame, profiles) },
		entity.ChartTypePie:       func() *entity.ChartSpec { return s.buildPie(frame, profiles) },
		entity.ChartTypeScatter:   func() *entity.ChartSpec { return s.buildScatter(frame, profiles) },
		entity.ChartTypeHistogram: func() *entity.ChartSpec { return s.buildHistogram(frame, profiles) },
	}

	var order []entity.ChartType
	if question != nil {
		if questionType, ok := questionChartType(*question); ok {
			order = append(order, questionType)
		}
	}
	order = append(order, entity.ChartTypeLine, entity.ChartTypeBar, entity.ChartTypeScatter, entity.ChartTypeHistogram)

	charts := []entity.ChartSpec{}
	seen := make(map[string]struct{})
	for _, chartType := range order {
		if len(charts) == maxCharts {
			break
		}
		spec := builders[chartType]()
		if spec == nil {
			continue
		}
		key := dedupKey(*spec)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		charts = append(charts, *spec)
	}
	return charts
}

// questionChartType maps a free-text question to at most one chart family.
// Rules are checked in priority order and only the first match applies, even
// when keywords of several families occur in the same question.
func questionChartType(question string) (entity.ChartType, bool) {
	q := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	switch {
	case containsAny(q, "evolution", "trend", "over time", "time"):
		return entity.ChartTypeLine, true
	case containsAny(q, "distribution", "histogram", "repartition"):
		return entity.ChartTypeHistogram, true
	case containsAny(q, "compare", "comparison", "top"):
		return entity.ChartTypeBar, true
	case containsAny(q, "share", "ratio", "percentage", "proportion"):
		return entity.ChartTypePie, true
	}
	return "", false
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func dedupKey(spec entity.ChartSpec) string {
	x, y, agg := "", "", ""
	if spec.X != nil {
		x = *spec.X
	}
	if spec.Y != nil {
		y = *spec.Y
	}
	if spec.Aggregation != nil {
		agg = string(*spec.Aggregation)
	}
	return fmt.Sprintf("%s|%s|%s|%s", spec.Type, x, y, agg)
}

// buildLine charts the first numeric column averaged per calendar day of the
// first datetime column. Without a numeric column it falls back to row counts
// per day.
func (s *Suggester) buildLine(frame *entity.Frame, profiles []*columnStats) *entity.ChartSpec {
	dateCol := firstOfType(profiles, entity.ColumnTypeDatetime)
	if dateCol == nil {
		return nil
	}
	numCol := firstOfType(profiles, entity.ColumnTypeNumeric)

	groups := groupByDay(frame, dateCol.Name, numCol)
	if len(groups) == 0 {
		return nil
	}
	// Day keys are ISO formatted, so lexical order is chronological.
	sort.Slice(groups, func(i, j int) bool { return groups[i].key < groups[j].key })
	if len(groups) > s.maxPoints {
		groups = groups[:s.maxPoints]
	}

	xs, ys := make([]any, 0, len(groups)), make([]any, 0, len(groups))
	if numCol != nil {
		for _, g := range groups {
			xs = append(xs, g.key)
			ys = append(ys, g.avg())
		}
		agg := entity.AggregationAvg
		return &entity.ChartSpec{
			Title:       fmt.Sprintf("%s over %s", numCol.Name, dateCol.Name),
			Type:        entity.ChartTypeLine,
			X:           &dateCol.Name,
			Y:           &numCol.Name,
			Aggregation: &agg,
			DataPreview: map[string][]any{"x": xs, "y": ys},
			Notes:       fmt.Sprintf("Average %s per day of %s.", numCol.Name, dateCol.Name),
		}
	}

	for _, g := range groups {
		xs = append(xs, g.key)
		ys = append(ys, g.count)
	}
	agg := entity.AggregationCount
	return &entity.ChartSpec{
		Title:       fmt.Sprintf("Count over time (%s)", dateCol.Name),
		Type:        entity.ChartTypeLine,
		X:           &dateCol.Name,
		Aggregation: &agg,
		DataPreview: map[string][]any{"x": xs, "y": ys},
		Notes:       fmt.Sprintf("Row count per day of %s.", dateCol.Name),
	}
}

// buildBar charts the first numeric column averaged per category, or plain
// category counts when no numeric column exists.
func (s *Suggester) buildBar(frame *entity.Frame, profiles []*columnStats) *entity.ChartSpec {
	catCol := firstOfType(profiles, entity.ColumnTypeCategorical)
	if catCol == nil {
		return nil
	}

	numCol := firstOfType(profiles, entity.ColumnTypeNumeric)
	if numCol != nil {
		groups := groupAvg(frame, catCol.Name, numCol.Name)
		if len(groups) == 0 {
			return nil
		}
		sortGroupsByValue(groups)
		if len(groups) > s.maxPoints {
			groups = groups[:s.maxPoints]
		}
		xs, ys := make([]any, 0, len(groups)), make([]any, 0, len(groups))
		for _, g := range groups {
			xs = append(xs, g.key)
			ys = append(ys, g.avg())
		}
		agg := entity.AggregationAvg
		return &entity.ChartSpec{
			Title:       fmt.Sprintf("%s by %s", numCol.Name, catCol.Name),
			Type:        entity.ChartTypeBar,
			X:           &catCol.Name,
			Y:           &numCol.Name,
			Aggregation: &agg,
			DataPreview: map[string][]any{"x": xs, "y": ys},
			Notes:       fmt.Sprintf("Average %s per %s.", numCol.Name, catCol.Name),
		}
	}

	counts := topValueCounts(columnStrings(frame, catCol.Name), s.maxPoints)
	if len(counts) == 0 {
		return nil
	}
	xs, ys := make([]any, 0, len(counts)), make([]any, 0, len(counts))
	for _, tv := range counts {
		xs = append(xs, tv.Value)
		ys = append(ys, tv.Count)
	}
	agg := entity.AggregationCount
	return &entity.ChartSpec{
		Title:       fmt.Sprintf("Count by %s", catCol.Name),
		Type:        entity.ChartTypeBar,
		X:           &catCol.Name,
		Aggregation: &agg,
		DataPreview: map[string][]any{"x": xs, "y": ys},
		Notes:       fmt.Sprintf("Row count per %s.", catCol.Name),
	}
}

// buildPie shows the share of each value of the primary categorical column,
// top maxPoints slices.
func (s *Suggester) buildPie(frame *entity.Frame, profiles []*columnStats) *entity.ChartSpec {
	catCol := firstOfType(profiles, entity.ColumnTypeCategorical)
	if catCol == nil {
		return nil
	}

	counts := topValueCounts(columnStrings(frame, catCol.Name), s.maxPoints)
	if len(counts) == 0 {
		return nil
	}
	labels, values := make([]any, 0, len(counts)), make([]any, 0, len(counts))
	for _, tv := range counts {
		labels = append(labels, tv.Value)
		values = append(values, tv.Count)
	}
	agg := entity.AggregationCount
	return &entity.ChartSpec{
		Title:       fmt.Sprintf("Share of %s", catCol.Name),
		Type:        entity.ChartTypePie,
		X:           &catCol.Name,
		Aggregation: &agg,
		DataPreview: map[string][]any{"labels": labels, "values": values},
		Notes:       fmt.Sprintf("Share of rows per %s.", catCol.Name),
	}
}

// buildScatter plots the first two numeric columns against each other.
func (s *Suggester) buildScatter(frame *entity.Frame, profiles []*columnStats) *entity.ChartSpec {
	var xCol, yCol *columnStats
	for _, cs := range profiles {
		if cs.Profile.Type != entity.ColumnTypeNumeric {
			continue
		}
		if xCol == nil {
			xCol = cs
		} else {
			yCol = cs
			break
		}
	}
	if xCol == nil || yCol == nil {
		return nil
	}

	xIdx, yIdx := frame.ColumnIndex(xCol.Name), frame.ColumnIndex(yCol.Name)
	xs, ys := []any{}, []any{}
	for _, row := range frame.Rows {
		if row[xIdx].Null || row[yIdx].Null {
			continue
		}
		x, xOK := parseFloatValue(row[xIdx].Value)
		y, yOK := parseFloatValue(row[yIdx].Value)
		if !xOK || !yOK {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
		if len(xs) == s.maxPoints {
			break
		}
	}
	if len(xs) == 0 {
		return nil
	}

	return &entity.ChartSpec{
		Title:       fmt.Sprintf("%s vs %s", yCol.Name, xCol.Name),
		Type:        entity.ChartTypeScatter,
		X:           &xCol.Name,
		Y:           &yCol.Name,
		DataPreview: map[string][]any{"x": xs, "y": ys},
		Notes:       fmt.Sprintf("Each point is one row of %s against %s.", yCol.Name, xCol.Name),
	}
}

// buildHistogram bins the first numeric column. The bin count is bounded by
// the point budget and the column's cardinality, with a floor of two.
func (s *Suggester) buildHistogram(frame *entity.Frame, profiles []*columnStats) *entity.ChartSpec {
	numCol := firstOfType(profiles, entity.ColumnTypeNumeric)
	if numCol == nil || len(numCol.Numbers) == 0 {
		return nil
	}

	bins := histogramMaxBins
	if s.maxPoints < bins {
		bins = s.maxPoints
	}
	if c := max(2, numCol.Profile.UniqueCount); c < bins {
		bins = c
	}

	minV, maxV := numCol.Numbers[0], numCol.Numbers[0]
	for _, v := range numCol.Numbers {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	width := (maxV - minV) / float64(bins)
	if width == 0 {
		width = 1
		bins = 1
	}

	counts := make([]int, bins)
	for _, v := range numCol.Numbers {
		b := int((v - minV) / width)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}

	labels, values := make([]any, 0, bins), make([]any, 0, bins)
	for b := 0; b < bins; b++ {
		lo := minV + float64(b)*width
		labels = append(labels, fmt.Sprintf("%.4g-%.4g", lo, lo+width))
		values = append(values, counts[b])
	}

	return &entity.ChartSpec{
		Title:       fmt.Sprintf("Distribution of %s", numCol.Name),
		Type:        entity.ChartTypeHistogram,
		X:           &numCol.Name,
		DataPreview: map[string][]any{"bins": labels, "counts": values},
		Notes:       fmt.Sprintf("Value distribution of %s in %d bins.", numCol.Name, bins),
	}
}

type group struct {
	key   string
	sum   float64
	count int
}

func (g *group) avg() float64 {
	return g.sum / float64(g.count)
}

// groupAvg averages yCol per distinct xCol value, skipping rows where either
// side is null or non-numeric.
func groupAvg(frame *entity.Frame, xCol, yCol string) []*group {
	xIdx, yIdx := frame.ColumnIndex(xCol), frame.ColumnIndex(yCol)
	if xIdx < 0 || yIdx < 0 {
		return nil
	}

	byKey := make(map[string]*group)
	var groups []*group
	for _, row := range frame.Rows {
		if row[xIdx].Null || row[yIdx].Null {
			continue
		}
		y, ok := parseFloatValue(row[yIdx].Value)
		if !ok {
			continue
		}
		key := row[xIdx].Value
		g, exists := byKey[key]
		if !exists {
			g = &group{key: key}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.sum += y
		g.count++
	}
	return groups
}

// sortGroupsByValue orders mean-aggregated groups by value descending, key
// ascending on ties, so truncation keeps the largest categories.
func sortGroupsByValue(groups []*group) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].avg() != groups[j].avg() {
			return groups[i].avg() > groups[j].avg()
		}
		return groups[i].key < groups[j].key
	})
}

// groupByDay buckets rows by the calendar day of the datetime column. With a
// numeric column the bucket accumulates its values for averaging, otherwise
// it only counts rows. Null or unparseable cells are skipped.
func groupByDay(frame *entity.Frame, dateCol string, numCol *columnStats) []*group {
	dateIdx := frame.ColumnIndex(dateCol)
	if dateIdx < 0 {
		return nil
	}
	numIdx := -1
	if numCol != nil {
		numIdx = frame.ColumnIndex(numCol.Name)
	}

	byKey := make(map[string]*group)
	var groups []*group
	for _, row := range frame.Rows {
		if row[dateIdx].Null {
			continue
		}
		t, ok := parseDatetimeValue(row[dateIdx].Value)
		if !ok {
			continue
		}
		var y float64
		if numIdx >= 0 {
			if row[numIdx].Null {
				continue
			}
			v, ok := parseFloatValue(row[numIdx].Value)
			if !ok {
				continue
			}
			y = v
		}
		key := t.UTC().Format("2006-01-02")
		g, exists := byKey[key]
		if !exists {
			g = &group{key: key}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.sum += y
		g.count++
	}
	return groups
}

func firstOfType(profiles []*columnStats, t entity.ColumnType) *columnStats {
	for _, cs := range profiles {
		if cs.Profile.Type == t {
			return cs
		}
	}
	return nil
}

func columnStrings(frame *entity.Frame, name string) []string {
	idx := frame.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	var values []string
	for _, row := range frame.Rows {
		if !row[idx].Null {
			values = append(values, row[idx].Value)
		}
	}
	return values
}

func parseDatetimeValue(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloatValue(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f, err == nil
}

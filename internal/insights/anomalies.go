package insights

import (
	"fmt"
	"math"
	"strings"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/stats"
)

const (
	OutlierMethodIQR    = "iqr"
	OutlierMethodZScore = "zscore"

	zscoreThreshold = 3.0

	// outlierIndexLimit caps reported outlier row indices per column.
	outlierIndexLimit = 20

	suspectTextLength  = 200
	suspectExampleLen  = 120
	suspectInvalidRate = 0.2
)

// detectAnomalies runs the three detectors over the profiled columns.
// Outlier indices are 1-based data-row positions in the analyzed sample,
// ascending, capped at outlierIndexLimit.
func detectAnomalies(profiles []*columnStats, missingThreshold float64, outlierMethod string) entity.InsightsAnomalies {
	anomalies := entity.InsightsAnomalies{
		MissingColumns: []entity.MissingColumnAnomaly{},
		Outliers:       []entity.OutlierAnomaly{},
		SuspectValues:  []entity.SuspectValueAnomaly{},
	}

	for _, cs := range profiles {
		if cs.Profile.MissingRate > missingThreshold {
			anomalies.MissingColumns = append(anomalies.MissingColumns, entity.MissingColumnAnomaly{
				Column:      cs.Name,
				MissingRate: cs.Profile.MissingRate,
			})
		}

		if cs.Profile.Type == entity.ColumnTypeNumeric {
			if indices := outlierIndices(cs, outlierMethod); len(indices) > 0 {
				anomalies.Outliers = append(anomalies.Outliers, entity.OutlierAnomaly{
					Column:  cs.Name,
					Method:  outlierMethod,
					Indices: indices,
				})
			}
		}

		if suspect, ok := suspectValue(cs); ok {
			anomalies.SuspectValues = append(anomalies.SuspectValues, suspect)
		}
	}
	return anomalies
}

// outlierIndices flags rows outside the z-score or Tukey fences. Degenerate
// distributions (zero spread) report nothing rather than everything.
func outlierIndices(cs *columnStats, method string) []int {
	if len(cs.Numbers) < 2 {
		return nil
	}

	var isOutlier func(v float64) bool
	switch method {
	case OutlierMethodZScore:
		mean := stats.Mean(cs.Numbers)
		std := stats.PopStd(cs.Numbers)
		if std == 0 {
			return nil
		}
		isOutlier = func(v float64) bool {
			return math.Abs((v-mean)/std) > zscoreThreshold
		}
	default:
		lower, upper, iqr := stats.IQRBounds(cs.Numbers)
		if iqr == 0 {
			return nil
		}
		isOutlier = func(v float64) bool {
			return v < lower || v > upper
		}
	}

	var indices []int
	for i, v := range cs.Numbers {
		if isOutlier(v) {
			indices = append(indices, cs.NumberRows[i])
			if len(indices) == outlierIndexLimit {
				break
			}
		}
	}
	return indices
}

func suspectValue(cs *columnStats) (entity.SuspectValueAnomaly, bool) {
	switch cs.Profile.Type {
	case entity.ColumnTypeText:
		if len(cs.LongestText) > suspectTextLength {
			example := cs.LongestText
			if len(example) > suspectExampleLen {
				example = example[:suspectExampleLen]
			}
			return entity.SuspectValueAnomaly{
				Column:  cs.Name,
				Issue:   fmt.Sprintf("values longer than %d characters", suspectTextLength),
				Example: example,
			}, true
		}
	case entity.ColumnTypeDatetime:
		if cs.InvalidDate > suspectInvalidRate {
			return entity.SuspectValueAnomaly{
				Column: cs.Name,
				Issue:  fmt.Sprintf("%.0f%% of values do not parse as dates", cs.InvalidDate*100),
			}, true
		}
	}
	return entity.SuspectValueAnomaly{}, false
}

// recommendations derives one next-step sentence per non-empty anomaly
// category, in the order missing, outliers, suspect values.
func recommendations(anomalies entity.InsightsAnomalies) []string {
	recs := []string{}

	if len(anomalies.MissingColumns) > 0 {
		columns := make([]string, len(anomalies.MissingColumns))
		for i, mc := range anomalies.MissingColumns {
			columns[i] = mc.Column
		}
		recs = append(recs, fmt.Sprintf("Review missing data for columns: %s.", strings.Join(columns, ", ")))
	}
	if len(anomalies.Outliers) > 0 {
		columns := make([]string, len(anomalies.Outliers))
		for i, out := range anomalies.Outliers {
			columns[i] = out.Column
		}
		recs = append(recs, fmt.Sprintf("Inspect outliers in numeric columns: %s.", strings.Join(columns, ", ")))
	}
	if len(anomalies.SuspectValues) > 0 {
		columns := make([]string, len(anomalies.SuspectValues))
		for i, sv := range anomalies.SuspectValues {
			columns[i] = sv.Column
		}
		recs = append(recs, fmt.Sprintf("Validate suspect values in columns: %s.", strings.Join(columns, ", ")))
	}

	if len(recs) == 0 {
		recs = append(recs, "No major issues detected in the sampled data.")
	}
	return recs
}

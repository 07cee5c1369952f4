package insights

import (
	"fmt"
	"strings"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

// templateReport renders the deterministic markdown report from metadata and
// computed insights.
func templateReport(meta *entity.DatasetMetadata, result *entity.InsightsResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Dataset Report: %s\n\n", meta.Filename))
	sb.WriteString("## Overview\n\n")
	sb.WriteString(fmt.Sprintf("- Rows: %d\n", result.DatasetOverview.Rows))
	sb.WriteString(fmt.Sprintf("- Columns: %d\n", result.DatasetOverview.Cols))
	sb.WriteString(fmt.Sprintf("- Global missing rate: %.1f%%\n", result.DatasetOverview.MissingRateGlobal*100))
	sb.WriteString(fmt.Sprintf("- Analyzed sample: %d rows\n\n", result.SampleRowsUsed))

	sb.WriteString("## Columns\n\n")
	sb.WriteString("| Column | Type | Missing | Unique |\n")
	sb.WriteString("|--------|------|---------|--------|\n")
	for _, col := range meta.Columns {
		profile, ok := result.ColumnProfiles[col]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %.1f%% | %d |\n",
			col, profile.Type, profile.MissingRate*100, profile.UniqueCount))
	}
	sb.WriteString("\n")

	if hasAnomalies(result.Anomalies) {
		sb.WriteString("## Anomalies\n\n")
		for _, mc := range result.Anomalies.MissingColumns {
			sb.WriteString(fmt.Sprintf("- Missing values: column `%s` is %.1f%% empty\n",
				mc.Column, mc.MissingRate*100))
		}
		for _, out := range result.Anomalies.Outliers {
			sb.WriteString(fmt.Sprintf("- Outliers: column `%s` has %d flagged rows (%s)\n",
				out.Column, len(out.Indices), out.Method))
		}
		for _, sv := range result.Anomalies.SuspectValues {
			sb.WriteString(fmt.Sprintf("- Suspect values: column `%s`, %s\n", sv.Column, sv.Issue))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Recommendations\n\n")
	for _, rec := range result.Recommendations {
		sb.WriteString(fmt.Sprintf("- %s\n", rec))
	}

	return sb.String()
}

func hasAnomalies(a entity.InsightsAnomalies) bool {
	return len(a.MissingColumns) > 0 || len(a.Outliers) > 0 || len(a.SuspectValues) > 0
}

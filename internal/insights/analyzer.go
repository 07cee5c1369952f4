package insights

import (
	"fmt"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

// Analyzer runs the profiling pipeline over a sampled frame.
type Analyzer struct {
	sampleMax        int
	missingThreshold float64
	outlierMethod    string
}

func NewAnalyzer(cfg config.InsightsConfig) *Analyzer {
	return &Analyzer{
		sampleMax:        cfg.SampleMax,
		missingThreshold: cfg.MissingThreshold,
		outlierMethod:    cfg.OutlierMethod,
	}
}

// Analyze profiles the given frame, which is the leading sample of the
// dataset. totalRows is the full-file row count used for extrapolation;
// targetColumn, when set, must name an existing column.
func (a *Analyzer) Analyze(frame *entity.Frame, datasetID string, totalRows int, targetColumn *string, now time.Time) (*entity.InsightsResult, error) {
	if targetColumn != nil && frame.ColumnIndex(*targetColumn) < 0 {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownColumn, *targetColumn)
	}

	profiles := profileColumns(frame)

	columnProfiles := make(map[string]entity.ColumnProfile, len(profiles))
	for _, cs := range profiles {
		columnProfiles[cs.Name] = cs.Profile
	}

	anomalies := detectAnomalies(profiles, a.missingThreshold, a.outlierMethod)

	return &entity.InsightsResult{
		DatasetID:       datasetID,
		GeneratedAt:     now.UTC(),
		SampleRowsUsed:  frame.NumRows(),
		TargetColumn:    targetColumn,
		DatasetOverview: overview(frame, totalRows, profiles),
		ColumnProfiles:  columnProfiles,
		Anomalies:       anomalies,
		Recommendations: recommendations(anomalies),
	}, nil
}

// SampleLimit resolves the requested sample size against the configured cap.
// An explicit non-positive request is a validation error, not a silent
// default.
func (a *Analyzer) SampleLimit(requested *int) (int, error) {
	if requested == nil {
		return a.sampleMax, nil
	}
	if *requested < 1 {
		return 0, fmt.Errorf("%w: sample_rows must be positive, got %d", entity.ErrInvalidParameter, *requested)
	}
	if *requested > a.sampleMax {
		return a.sampleMax, nil
	}
	return *requested, nil
}

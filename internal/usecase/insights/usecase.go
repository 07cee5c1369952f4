// Package insights implements the profiling, chart suggestion and report
// operations on top of the analysis engine.
package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/ingest"
	"github.com/Ziad-epi/ai-data-copilot/internal/insights"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/validator"
	"github.com/Ziad-epi/ai-data-copilot/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// InsightsUsecase computes and caches dataset insights. Results live in two
// layers: a TTL memory cache for hot reads and the artifact store for
// durability across restarts.
type InsightsUsecase struct {
	store     repository.Store
	analyzer  *insights.Analyzer
	suggester *insights.Suggester
	generator Generator
	cache     *gocache.Cache
	logger    *zap.Logger
}

func NewUsecase(
	store repository.Store,
	analyzer *insights.Analyzer,
	suggester *insights.Suggester,
	generator Generator,
	cfg config.InsightsConfig,
	logger *zap.Logger,
) *InsightsUsecase {
	return &InsightsUsecase{
		store:     store,
		analyzer:  analyzer,
		suggester: suggester,
		generator: generator,
		cache:     gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:    logger,
	}
}

// Compute returns the dataset insights, preferring the memory cache, then the
// stored artifact, then a fresh computation. force_recompute and any explicit
// parameters bypass both caches.
func (uc *InsightsUsecase) Compute(ctx context.Context, datasetID string, req *entity.InsightsRequest) (*entity.InsightsResult, error) {
	if err := validator.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}

	useCache := !req.ForceRecompute && req.SampleRows == nil && req.TargetColumn == nil
	if useCache {
		if cached, ok := uc.cache.Get(datasetID); ok {
			ctxzap.Debug(ctx, "insights served from memory cache", zap.String("dataset_id", datasetID))
			return cached.(*entity.InsightsResult), nil
		}
		if stored, err := uc.store.GetInsights(ctx, datasetID); err == nil {
			uc.cache.SetDefault(datasetID, stored)
			return stored, nil
		}
	}

	meta, err := uc.store.GetMetadata(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	frame, err := uc.readSample(ctx, meta, req.SampleRows)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := uc.analyzer.Analyze(frame, datasetID, meta.NbRows, req.TargetColumn, time.Now())
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "insights computed",
		zap.String("dataset_id", datasetID),
		zap.Int("sample_rows", result.SampleRowsUsed),
		zap.Duration("duration", time.Since(started)),
	)

	// Only parameterless runs are cached, so cached reads are never
	// polluted by a custom sample size or target column.
	if req.SampleRows == nil && req.TargetColumn == nil {
		if err := uc.store.SaveInsights(ctx, result); err != nil {
			return nil, fmt.Errorf("save insights: %w", err)
		}
		uc.cache.SetDefault(datasetID, result)
	}
	return result, nil
}

// SuggestCharts proposes chart specs for the dataset. Nothing is persisted.
func (uc *InsightsUsecase) SuggestCharts(ctx context.Context, datasetID string, req *entity.ChartsSuggestRequest) (*entity.ChartsSuggestResponse, error) {
	if err := validator.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	meta, err := uc.store.GetMetadata(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	frame, err := uc.readSample(ctx, meta, nil)
	if err != nil {
		return nil, err
	}

	charts := uc.suggester.Suggest(frame, req.Question, req.MaxCharts)
	ctxzap.Info(ctx, "charts suggested",
		zap.String("dataset_id", datasetID), zap.Int("count", len(charts)))

	return &entity.ChartsSuggestResponse{DatasetID: datasetID, Charts: charts}, nil
}

// Report builds the executive report. The deterministic template always
// works; when an LLM is configured its narrative replaces the template, with
// fallback to the template on any provider failure.
func (uc *InsightsUsecase) Report(ctx context.Context, datasetID string) (*entity.ReportResponse, error) {
	result, err := uc.Compute(ctx, datasetID, &entity.InsightsRequest{})
	if err != nil {
		return nil, err
	}
	meta, err := uc.store.GetMetadata(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	markdown := templateReport(meta, result)
	usedLLM := false

	if uc.generator.Configured() {
		enhanced, genErr := uc.generateNarrative(ctx, markdown)
		if genErr != nil {
			ctxzap.Warn(ctx, "report generation failed, using template",
				zap.String("dataset_id", datasetID), zap.Error(genErr))
		} else {
			markdown = enhanced
			usedLLM = true
		}
	}

	if err := uc.store.SaveReport(ctx, datasetID, []byte(markdown)); err != nil {
		ctxzap.Warn(ctx, "failed to persist report", zap.String("dataset_id", datasetID), zap.Error(err))
	}

	return &entity.ReportResponse{
		DatasetID:      datasetID,
		ReportMarkdown: markdown,
		UsedLLM:        usedLLM,
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

func (uc *InsightsUsecase) generateNarrative(ctx context.Context, template string) (string, error) {
	messages := []entity.ChatMessage{
		{
			Role: "system",
			Content: "You are a data analyst. Rewrite the following dataset report as a concise " +
				"executive summary in Markdown. Keep every number exactly as given; do not invent values.",
		},
		{Role: "user", Content: template},
	}
	result, err := uc.generator.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	if result.Text == "" {
		return "", fmt.Errorf("empty report narrative")
	}
	return result.Text, nil
}

func (uc *InsightsUsecase) readSample(ctx context.Context, meta *entity.DatasetMetadata, sampleRows *int) (*entity.Frame, error) {
	limit, err := uc.analyzer.SampleLimit(sampleRows)
	if err != nil {
		return nil, err
	}
	raw, err := uc.store.ReadRaw(ctx, meta.DatasetID)
	if err != nil {
		return nil, err
	}
	return ingest.ReadFrame(raw, meta.Delimiter, limit)
}

// Invalidate drops the cached insights of one dataset, memory layer only.
// The stored artifact is overwritten on the next computation.
func (uc *InsightsUsecase) Invalidate(datasetID string) {
	uc.cache.Delete(datasetID)
}

// Package rag implements dataset indexing and semantic search over the
// vector store.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/ingest"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/validator"
	"github.com/Ziad-epi/ai-data-copilot/internal/rag"
	"github.com/Ziad-epi/ai-data-copilot/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// RagUsecase builds and queries the retrieval index of a dataset.
type RagUsecase struct {
	store    repository.Store
	embedder Embedder
	vectors  VectorStore
	cfg      config.RagConfig
	logger   *zap.Logger
}

func NewUsecase(
	store repository.Store,
	embedder Embedder,
	vectors VectorStore,
	cfg config.RagConfig,
	logger *zap.Logger,
) *RagUsecase {
	return &RagUsecase{
		store:    store,
		embedder: embedder,
		vectors:  vectors,
		cfg:      cfg,
		logger:   logger,
	}
}

// Index builds the dataset's retrieval index: summary plus row documents,
// embedded in batches and upserted with deterministic IDs. Any previous index
// is removed first so the new one fully replaces it. Index metadata is
// written last; its presence is what makes the dataset searchable.
func (uc *RagUsecase) Index(ctx context.Context, datasetID string, req *entity.DatasetIndexRequest) (*entity.DatasetIndexResponse, error) {
	if err := validator.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}

	meta, err := uc.store.GetMetadata(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	columns, err := uc.resolveColumns(meta, req.Columns)
	if err != nil {
		return nil, err
	}
	maxRows, err := resolveBound("max_rows", req.MaxRows, uc.cfg.MaxRowsToIndex)
	if err != nil {
		return nil, err
	}
	rowsPerDoc, err := resolveDefault("rows_per_doc", req.RowsPerDoc, uc.cfg.RowsPerDoc)
	if err != nil {
		return nil, err
	}
	params := entity.IndexParams{
		Columns:    columns,
		MaxRows:    maxRows,
		RowsPerDoc: rowsPerDoc,
		Reindex:    req.Reindex,
	}

	started := time.Now()

	// Drop any previous index first. Deterministic IDs would overwrite
	// matching documents, but a shorter rebuild must not leave stale tails.
	if err := uc.store.DeleteIndexMetadata(ctx, datasetID); err != nil {
		return nil, err
	}
	if err := uc.vectors.DeleteDataset(ctx, uc.cfg.Collection, datasetID); err != nil {
		return nil, err
	}

	raw, err := uc.store.ReadRaw(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	frame, err := ingest.ReadFrame(raw, meta.Delimiter, params.MaxRows)
	if err != nil {
		return nil, err
	}

	docs := rag.BuildDocuments(meta, frame, columns, params.RowsPerDoc, time.Now())

	upserted := 0
	for batchStart := 0; batchStart < len(docs); batchStart += uc.cfg.EmbedBatchSize {
		batchEnd := batchStart + uc.cfg.EmbedBatchSize
		if batchEnd > len(docs) {
			batchEnd = len(docs)
		}
		batch := docs[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Text
		}
		vectors, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed batch starting at doc %d: %w", batchStart, err)
		}

		records := make([]entity.VectorRecord, len(batch))
		for i, doc := range batch {
			records[i] = entity.VectorRecord{
				ID:     fmt.Sprintf("%s:%d", datasetID, batchStart+i),
				Vector: vectors[i],
				Payload: entity.RecordPayload{
					Text:        doc.Text,
					DocMetadata: doc.Metadata,
				},
			}
		}
		if err := uc.vectors.Upsert(ctx, uc.cfg.Collection, records); err != nil {
			return nil, err
		}
		upserted += len(records)
	}

	indexMeta := &entity.IndexMetadata{
		DatasetID:      datasetID,
		EmbeddingModel: uc.embedder.Model(),
		VectorStore:    uc.vectors.Name(),
		Collection:     uc.cfg.Collection,
		NbDocs:         len(docs),
		Params:         params,
		Status:         "ready",
		CreatedAt:      time.Now().UTC(),
	}
	if err := uc.store.SaveIndexMetadata(ctx, indexMeta); err != nil {
		return nil, fmt.Errorf("save index metadata: %w", err)
	}

	duration := time.Since(started)
	ctxzap.Info(ctx, "dataset indexed",
		zap.String("dataset_id", datasetID),
		zap.Int("nb_docs", len(docs)),
		zap.Int("vectors_upserted", upserted),
		zap.String("vector_store", uc.vectors.Name()),
		zap.Duration("duration", duration),
	)

	return &entity.DatasetIndexResponse{
		DatasetID:       datasetID,
		NbDocs:          len(docs),
		VectorsUpserted: upserted,
		DurationMs:      duration.Milliseconds(),
	}, nil
}

// Search embeds the query and returns ranked chunks with citations. The
// dataset must have been indexed.
func (uc *RagUsecase) Search(ctx context.Context, datasetID string, req *entity.DatasetSearchRequest) (*entity.DatasetSearchResponse, error) {
	if err := validator.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query", entity.ErrMissingField)
	}
	if err := validator.ValidateDocTypes(req.DocTypes); err != nil {
		return nil, err
	}
	if _, err := uc.store.GetIndexMetadata(ctx, datasetID); err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK < 1 {
		topK = uc.cfg.DefaultTopK
	}
	if topK > uc.cfg.MaxTopK {
		topK = uc.cfg.MaxTopK
	}

	hits, err := uc.Retrieve(ctx, datasetID, req.Query, topK, req.DocTypes)
	if err != nil {
		return nil, err
	}

	results := make([]entity.DatasetSearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, entity.DatasetSearchResult{
			Score: hit.Score,
			Text:  hit.Payload.Text,
			Source: entity.SearchSource{
				DatasetID: hit.Payload.DatasetID,
				DocType:   hit.Payload.DocType,
				RowStart:  hit.Payload.RowStart,
				RowEnd:    hit.Payload.RowEnd,
			},
			Citation: rag.Citation(hit.Payload.DatasetID, hit.Payload.DocType, hit.Payload.RowStart, hit.Payload.RowEnd),
		})
	}

	ctxzap.Info(ctx, "dataset searched",
		zap.String("dataset_id", datasetID),
		zap.Int("top_k", topK),
		zap.Int("results", len(results)),
	)
	return &entity.DatasetSearchResponse{DatasetID: datasetID, Results: results}, nil
}

// Retrieve embeds the query and runs the raw vector search. Chat reuses it
// to share one retrieval path.
func (uc *RagUsecase) Retrieve(ctx context.Context, datasetID, query string, topK int, docTypes []string) ([]entity.VectorHit, error) {
	vectors, err := uc.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return uc.vectors.Search(ctx, uc.cfg.Collection, datasetID, vectors[0], topK, docTypes)
}

// Indexed reports whether the dataset has a ready retrieval index.
func (uc *RagUsecase) Indexed(ctx context.Context, datasetID string) error {
	_, err := uc.store.GetIndexMetadata(ctx, datasetID)
	return err
}

func (uc *RagUsecase) resolveColumns(meta *entity.DatasetMetadata, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return meta.Columns, nil
	}
	for _, col := range requested {
		found := false
		for _, known := range meta.Columns {
			if known == col {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", entity.ErrUnknownColumn, col)
		}
	}
	return requested, nil
}

// resolveBound caps a requested value at max; max is also the default. An
// explicit non-positive request is a validation error.
func resolveBound(name string, requested *int, max int) (int, error) {
	if requested == nil {
		return max, nil
	}
	if *requested < 1 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", entity.ErrInvalidParameter, name, *requested)
	}
	if *requested > max {
		return max, nil
	}
	return *requested, nil
}

// resolveDefault returns the requested value, def when absent. The requested
// value may exceed def but must be positive.
func resolveDefault(name string, requested *int, def int) (int, error) {
	if requested == nil {
		return def, nil
	}
	if *requested < 1 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", entity.ErrInvalidParameter, name, *requested)
	}
	return *requested, nil
}

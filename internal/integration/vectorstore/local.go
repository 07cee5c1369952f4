// Package vectorstore provides the two vector index backends: an embedded
// file-backed store with cosine similarity and a Qdrant REST connector.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// LocalStore keeps one JSON file per collection on disk and searches with
// exact cosine similarity. It is the default backend when no Qdrant URL is
// configured; fine for the bounded document counts produced per dataset.
type LocalStore struct {
	dir    string
	logger *zap.Logger

	mu          sync.Mutex
	collections map[string][]entity.VectorRecord
}

func NewLocalStore(dir string, logger *zap.Logger) *LocalStore {
	return &LocalStore{
		dir:         dir,
		logger:      logger,
		collections: make(map[string][]entity.VectorRecord),
	}
}

func (s *LocalStore) Name() string {
	return "local"
}

// Upsert inserts or replaces records by ID. The vector dimension of a
// non-empty collection is fixed by its existing records; mismatching vectors
// fail the whole batch.
func (s *LocalStore) Upsert(ctx context.Context, collection string, records []entity.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadLocked(collection)
	if err != nil {
		return err
	}

	dim := 0
	if len(existing) > 0 {
		dim = len(existing[0].Vector)
	} else {
		dim = len(records[0].Vector)
	}
	for _, rec := range records {
		if len(rec.Vector) != dim {
			return fmt.Errorf("%w: collection %q expects dimension %d, got %d",
				entity.ErrVectorSizeMismatch, collection, dim, len(rec.Vector))
		}
	}

	byID := make(map[string]int, len(existing))
	for i, rec := range existing {
		byID[rec.ID] = i
	}
	for _, rec := range records {
		if i, ok := byID[rec.ID]; ok {
			existing[i] = rec
			continue
		}
		byID[rec.ID] = len(existing)
		existing = append(existing, rec)
	}

	if err := s.persistLocked(collection, existing); err != nil {
		return err
	}
	s.collections[collection] = existing

	ctxzap.Debug(ctx, "vectors upserted",
		zap.String("collection", collection), zap.Int("count", len(records)))
	return nil
}

// Search ranks records of one dataset by cosine similarity. docTypes filters
// results when non-empty.
func (s *LocalStore) Search(ctx context.Context, collection, datasetID string, vector []float64, topK int, docTypes []string) ([]entity.VectorHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked(collection)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 && len(vector) != len(records[0].Vector) {
		return nil, fmt.Errorf("%w: query dimension %d, collection %q has %d",
			entity.ErrVectorSizeMismatch, len(vector), collection, len(records[0].Vector))
	}

	allowed := make(map[string]struct{}, len(docTypes))
	for _, dt := range docTypes {
		allowed[dt] = struct{}{}
	}

	hits := make([]entity.VectorHit, 0, topK)
	for _, rec := range records {
		if rec.Payload.DatasetID != datasetID {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[string(rec.Payload.DocType)]; !ok {
				continue
			}
		}
		hits = append(hits, entity.VectorHit{
			Score:   cosine(vector, rec.Vector),
			Payload: rec.Payload,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteDataset removes every record of one dataset from the collection.
func (s *LocalStore) DeleteDataset(ctx context.Context, collection, datasetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked(collection)
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, rec := range records {
		if rec.Payload.DatasetID != datasetID {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return nil
	}

	if err := s.persistLocked(collection, kept); err != nil {
		return err
	}
	s.collections[collection] = kept

	ctxzap.Debug(ctx, "dataset vectors deleted",
		zap.String("collection", collection), zap.String("dataset_id", datasetID))
	return nil
}

func (s *LocalStore) loadLocked(collection string) ([]entity.VectorRecord, error) {
	if records, ok := s.collections[collection]; ok {
		return records, nil
	}

	raw, err := os.ReadFile(s.collectionPath(collection))
	if os.IsNotExist(err) {
		s.collections[collection] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection %q: %w", collection, err)
	}

	var records []entity.VectorRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode collection %q: %w", collection, err)
	}
	s.collections[collection] = records
	return records, nil
}

func (s *LocalStore) persistLocked(collection string, records []entity.VectorRecord) error {
	path := s.collectionPath(collection)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create vector dir: %w", err)
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode collection %q: %w", collection, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write collection %q: %w", collection, err)
	}
	return os.Rename(tmp, path)
}

func (s *LocalStore) collectionPath(collection string) string {
	return filepath.Join(s.dir, "vectors", collection+".json")
}

func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

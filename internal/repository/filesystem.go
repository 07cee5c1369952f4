package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

const (
	rawFilename      = "raw.csv"
	metadataFilename = "metadata.json"
	insightsFilename = "insights.json"
	reportFilename   = "report.md"
	indexFilename    = "index_metadata.json"
)

var _ Store = &FilesystemStore{}

// FilesystemStore keeps one directory per dataset under a root directory.
// The presence of index_metadata.json is the searchable signal, so deleting
// it atomically un-indexes a dataset.
type FilesystemStore struct {
	dir string
}

func NewFilesystemStore(dir string) *FilesystemStore {
	return &FilesystemStore{dir: dir}
}

func (s *FilesystemStore) SaveRaw(ctx context.Context, datasetID string, raw []byte) error {
	if err := os.MkdirAll(s.datasetDir(datasetID), 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	return writeAtomic(filepath.Join(s.datasetDir(datasetID), rawFilename), raw)
}

func (s *FilesystemStore) ReadRaw(ctx context.Context, datasetID string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(s.datasetDir(datasetID), rawFilename))
	if os.IsNotExist(err) {
		return nil, entity.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read raw dataset: %w", err)
	}
	return raw, nil
}

func (s *FilesystemStore) SaveMetadata(ctx context.Context, meta *entity.DatasetMetadata) error {
	return s.writeJSON(meta.DatasetID, metadataFilename, meta)
}

func (s *FilesystemStore) GetMetadata(ctx context.Context, datasetID string) (*entity.DatasetMetadata, error) {
	var meta entity.DatasetMetadata
	if err := s.readJSON(datasetID, metadataFilename, &meta, entity.ErrDatasetNotFound); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *FilesystemStore) ListMetadata(ctx context.Context) ([]*entity.DatasetMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}

	var metas []*entity.DatasetMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.GetMetadata(ctx, e.Name())
		if err != nil {
			// Directories without metadata (interrupted uploads) are skipped.
			continue
		}
		metas = append(metas, meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

func (s *FilesystemStore) SaveInsights(ctx context.Context, insights *entity.InsightsResult) error {
	return s.writeJSON(insights.DatasetID, insightsFilename, insights)
}

func (s *FilesystemStore) GetInsights(ctx context.Context, datasetID string) (*entity.InsightsResult, error) {
	var insights entity.InsightsResult
	if err := s.readJSON(datasetID, insightsFilename, &insights, entity.ErrInsightsNotFound); err != nil {
		return nil, err
	}
	return &insights, nil
}

func (s *FilesystemStore) SaveReport(ctx context.Context, datasetID string, markdown []byte) error {
	if err := os.MkdirAll(s.datasetDir(datasetID), 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	return writeAtomic(filepath.Join(s.datasetDir(datasetID), reportFilename), markdown)
}

func (s *FilesystemStore) SaveIndexMetadata(ctx context.Context, meta *entity.IndexMetadata) error {
	return s.writeJSON(meta.DatasetID, indexFilename, meta)
}

func (s *FilesystemStore) GetIndexMetadata(ctx context.Context, datasetID string) (*entity.IndexMetadata, error) {
	var meta entity.IndexMetadata
	if err := s.readJSON(datasetID, indexFilename, &meta, entity.ErrNotIndexed); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *FilesystemStore) DeleteIndexMetadata(ctx context.Context, datasetID string) error {
	err := os.Remove(filepath.Join(s.datasetDir(datasetID), indexFilename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete index metadata: %w", err)
	}
	return nil
}

func (s *FilesystemStore) DeleteDataset(ctx context.Context, datasetID string) error {
	if _, err := os.Stat(s.datasetDir(datasetID)); os.IsNotExist(err) {
		return entity.ErrDatasetNotFound
	}
	if err := os.RemoveAll(s.datasetDir(datasetID)); err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	return nil
}

func (s *FilesystemStore) datasetDir(datasetID string) string {
	return filepath.Join(s.dir, datasetID)
}

func (s *FilesystemStore) writeJSON(datasetID, filename string, v any) error {
	if err := os.MkdirAll(s.datasetDir(datasetID), 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filename, err)
	}
	return writeAtomic(filepath.Join(s.datasetDir(datasetID), filename), raw)
}

func (s *FilesystemStore) readJSON(datasetID, filename string, v any, notFound error) error {
	raw, err := os.ReadFile(filepath.Join(s.datasetDir(datasetID), filename))
	if os.IsNotExist(err) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", filename, err)
	}
	return nil
}

func writeAtomic(path string, raw []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

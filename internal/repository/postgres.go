package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	kindMetadata = "metadata"
	kindInsights = "insights"
	kindIndex    = "index_metadata"
)

var _ Store = &PostgresStore{}

// PostgresStore keeps JSON artifacts in a single keyed table and delegates
// raw CSV bytes to a filesystem store so downstream reads stay streamable.
type PostgresStore struct {
	db  *pgxpool.Pool
	raw *FilesystemStore
}

func NewPostgresStore(db *pgxpool.Pool, rawDir string) *PostgresStore {
	return &PostgresStore{
		db:  db,
		raw: NewFilesystemStore(rawDir),
	}
}

// NewPool builds the pgx pool from the storage configuration.
func NewPool(ctx context.Context, cfg config.StorageConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	poolCfg.MinConns = int32(cfg.DBMinConns)
	poolCfg.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.DBHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (s *PostgresStore) SaveRaw(ctx context.Context, datasetID string, raw []byte) error {
	return s.raw.SaveRaw(ctx, datasetID, raw)
}

func (s *PostgresStore) ReadRaw(ctx context.Context, datasetID string) ([]byte, error) {
	return s.raw.ReadRaw(ctx, datasetID)
}

func (s *PostgresStore) SaveMetadata(ctx context.Context, meta *entity.DatasetMetadata) error {
	return s.upsertArtifact(ctx, meta.DatasetID, kindMetadata, meta)
}

func (s *PostgresStore) GetMetadata(ctx context.Context, datasetID string) (*entity.DatasetMetadata, error) {
	var meta entity.DatasetMetadata
	if err := s.getArtifact(ctx, datasetID, kindMetadata, &meta, entity.ErrDatasetNotFound); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *PostgresStore) ListMetadata(ctx context.Context) ([]*entity.DatasetMetadata, error) {
	rows, err := s.db.Query(ctx,
		`SELECT payload FROM dataset_artifacts WHERE kind = $1 ORDER BY created_at DESC`,
		kindMetadata)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer rows.Close()

	var metas []*entity.DatasetMetadata
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		var meta entity.DatasetMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		metas = append(metas, &meta)
	}
	return metas, rows.Err()
}

func (s *PostgresStore) SaveInsights(ctx context.Context, insights *entity.InsightsResult) error {
	return s.upsertArtifact(ctx, insights.DatasetID, kindInsights, insights)
}

func (s *PostgresStore) GetInsights(ctx context.Context, datasetID string) (*entity.InsightsResult, error) {
	var insights entity.InsightsResult
	if err := s.getArtifact(ctx, datasetID, kindInsights, &insights, entity.ErrInsightsNotFound); err != nil {
		return nil, err
	}
	return &insights, nil
}

// SaveReport keeps the rendered markdown next to the raw CSV on disk; it is
// a derived artifact, not a queryable one.
func (s *PostgresStore) SaveReport(ctx context.Context, datasetID string, markdown []byte) error {
	return s.raw.SaveReport(ctx, datasetID, markdown)
}

func (s *PostgresStore) SaveIndexMetadata(ctx context.Context, meta *entity.IndexMetadata) error {
	return s.upsertArtifact(ctx, meta.DatasetID, kindIndex, meta)
}

func (s *PostgresStore) GetIndexMetadata(ctx context.Context, datasetID string) (*entity.IndexMetadata, error) {
	var meta entity.IndexMetadata
	if err := s.getArtifact(ctx, datasetID, kindIndex, &meta, entity.ErrNotIndexed); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *PostgresStore) DeleteIndexMetadata(ctx context.Context, datasetID string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM dataset_artifacts WHERE dataset_id = $1 AND kind = $2`,
		datasetID, kindIndex)
	if err != nil {
		return fmt.Errorf("delete index metadata: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteDataset(ctx context.Context, datasetID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM dataset_artifacts WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return fmt.Errorf("delete dataset artifacts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrDatasetNotFound
	}
	return s.raw.DeleteDataset(ctx, datasetID)
}

func (s *PostgresStore) upsertArtifact(ctx context.Context, datasetID, kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO dataset_artifacts (dataset_id, kind, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (dataset_id, kind)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		datasetID, kind, payload)
	if err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}
	return nil
}

func (s *PostgresStore) getArtifact(ctx context.Context, datasetID, kind string, v any, notFound error) error {
	var payload []byte
	err := s.db.QueryRow(ctx,
		`SELECT payload FROM dataset_artifacts WHERE dataset_id = $1 AND kind = $2`,
		datasetID, kind).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", kind, err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}

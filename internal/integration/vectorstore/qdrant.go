package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/integration/common"
	pkghttp "github.com/Ziad-epi/ai-data-copilot/pkg/http"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// pointNamespace makes wire-level point IDs deterministic: Qdrant only
// accepts integers or UUIDs, so the logical "{dataset_id}:{seq}" identifier
// is mapped to UUIDv5 and kept verbatim in the payload.
var pointNamespace = uuid.MustParse("9f2c0a66-4c3e-4cf5-9c3b-2b3f6e5d8a10")

// QdrantConnector stores vectors in a Qdrant instance over its REST API.
type QdrantConnector struct {
	config    config.QdrantConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewQdrantConnector(
	cfg config.QdrantConfig,
	logger *zap.Logger,
) *QdrantConnector {
	return &QdrantConnector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

func (c *QdrantConnector) Name() string {
	return "qdrant"
}

type qdrantPoint struct {
	ID      string               `json:"id"`
	Vector  []float64            `json:"vector"`
	Payload entity.RecordPayload `json:"payload"`
}

type qdrantUpsertRequest struct {
	Points []qdrantPoint `json:"points"`
}

type qdrantCreateCollectionRequest struct {
	Vectors qdrantVectorParams `json:"vectors"`
}

type qdrantVectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type qdrantCollectionInfoResponse struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors qdrantVectorParams `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

type qdrantFieldMatch struct {
	Key   string `json:"key"`
	Match struct {
		Value any `json:"value"`
	} `json:"match"`
}

type qdrantFilter struct {
	Must   []any `json:"must,omitempty"`
	Should []any `json:"should,omitempty"`
}

type qdrantSearchRequest struct {
	Vector      []float64     `json:"vector"`
	Limit       int           `json:"limit"`
	Filter      *qdrantFilter `json:"filter,omitempty"`
	WithPayload bool          `json:"with_payload"`
}

type qdrantSearchResponse struct {
	Result []struct {
		Score   float64              `json:"score"`
		Payload entity.RecordPayload `json:"payload"`
	} `json:"result"`
}

type qdrantDeleteRequest struct {
	Filter qdrantFilter `json:"filter"`
}

// Upsert writes records into the collection, creating it with the batch's
// vector size on first use. An existing collection with a different size
// rejects the batch.
func (c *QdrantConnector) Upsert(ctx context.Context, collection string, records []entity.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	dim := len(records[0].Vector)
	for _, rec := range records {
		if len(rec.Vector) != dim {
			return fmt.Errorf("%w: mixed dimensions %d and %d in one batch",
				entity.ErrVectorSizeMismatch, dim, len(rec.Vector))
		}
	}
	if err := c.ensureCollection(ctx, collection, dim); err != nil {
		return err
	}

	points := make([]qdrantPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, qdrantPoint{
			ID:      uuid.NewSHA1(pointNamespace, []byte(rec.ID)).String(),
			Vector:  rec.Vector,
			Payload: rec.Payload,
		})
	}

	endpoint := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	if err := c.connector.DoRequest(ctx, http.MethodPut, endpoint, qdrantUpsertRequest{Points: points}, nil); err != nil {
		return fmt.Errorf("%w: qdrant upsert: %v", entity.ErrUpstream, err)
	}

	ctxzap.Debug(ctx, "vectors upserted",
		zap.String("collection", collection), zap.Int("count", len(points)))
	return nil
}

// Search ranks one dataset's points by cosine similarity, optionally
// restricted to given doc types.
func (c *QdrantConnector) Search(ctx context.Context, collection, datasetID string, vector []float64, topK int, docTypes []string) ([]entity.VectorHit, error) {
	filter := &qdrantFilter{}
	datasetMatch := qdrantFieldMatch{Key: "dataset_id"}
	datasetMatch.Match.Value = datasetID
	filter.Must = append(filter.Must, datasetMatch)

	for _, dt := range docTypes {
		typeMatch := qdrantFieldMatch{Key: "doc_type"}
		typeMatch.Match.Value = dt
		filter.Should = append(filter.Should, typeMatch)
	}

	req := qdrantSearchRequest{
		Vector:      vector,
		Limit:       topK,
		Filter:      filter,
		WithPayload: true,
	}

	var resp qdrantSearchResponse
	endpoint := fmt.Sprintf("/collections/%s/points/search", collection)
	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		var httpErr *pkghttp.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: qdrant search: %v", entity.ErrUpstream, err)
	}

	hits := make([]entity.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, entity.VectorHit{Score: r.Score, Payload: r.Payload})
	}
	return hits, nil
}

// DeleteDataset drops every point of one dataset from the collection.
func (c *QdrantConnector) DeleteDataset(ctx context.Context, collection, datasetID string) error {
	filter := qdrantFilter{}
	datasetMatch := qdrantFieldMatch{Key: "dataset_id"}
	datasetMatch.Match.Value = datasetID
	filter.Must = append(filter.Must, datasetMatch)

	endpoint := fmt.Sprintf("/collections/%s/points/delete?wait=true", collection)
	err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, qdrantDeleteRequest{Filter: filter}, nil)
	if err != nil {
		var httpErr *pkghttp.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("%w: qdrant delete: %v", entity.ErrUpstream, err)
	}
	return nil
}

// ensureCollection creates the collection when missing and validates the
// vector size when it already exists.
func (c *QdrantConnector) ensureCollection(ctx context.Context, collection string, dim int) error {
	var info qdrantCollectionInfoResponse
	endpoint := "/collections/" + collection
	err := c.connector.DoRequest(ctx, http.MethodGet, endpoint, nil, &info)
	if err == nil {
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != dim {
			return fmt.Errorf("%w: collection %q expects dimension %d, got %d",
				entity.ErrVectorSizeMismatch, collection, size, dim)
		}
		return nil
	}

	var httpErr *pkghttp.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: qdrant collection info: %v", entity.ErrUpstream, err)
	}

	createReq := qdrantCreateCollectionRequest{
		Vectors: qdrantVectorParams{Size: dim, Distance: "Cosine"},
	}
	if err := c.connector.DoRequest(ctx, http.MethodPut, endpoint, createReq, nil); err != nil {
		return fmt.Errorf("%w: qdrant create collection: %v", entity.ErrUpstream, err)
	}

	ctxzap.Info(ctx, "qdrant collection created",
		zap.String("collection", collection), zap.Int("dimension", dim))
	return nil
}

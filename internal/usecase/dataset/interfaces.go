package dataset

import "context"

// Deindexer removes a dataset's vectors when the dataset itself is deleted.
type Deindexer interface {
	DeleteDataset(ctx context.Context, collection, datasetID string) error
}

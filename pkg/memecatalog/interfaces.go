package memecatalog

import "context"

// BlobStore is the object storage capability used for asset payloads.
// Implementations return an error matching ErrBlobNotFound for missing keys.
type BlobStore interface {
	// Put writes data under key, replacing any existing object
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error

	// Get reads the full object into memory
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Delete removes the object
	Delete(ctx context.Context, bucket, key string) error
}

// Repository is the metadata store for assets. It owns identity assignment
// and enforces name uniqueness: CreateAsset and UpdateAssetName return an
// error matching ErrDuplicateName on collision. Lookups that find nothing
// return an error matching ErrAssetNotFound.
type Repository interface {
	FindIDByName(ctx context.Context, name string) (int64, error)
	GetAsset(ctx context.Context, id int64) (*Asset, error)
	// ListAssets returns every asset in insertion order
	ListAssets(ctx context.Context) ([]*Asset, error)
	CreateAsset(ctx context.Context, name, blobKey string) (*Asset, error)
	UpdateAssetName(ctx context.Context, asset *Asset, name string) (*Asset, error)
	// DeleteAsset removes the row and returns the deleted snapshot
	DeleteAsset(ctx context.Context, asset *Asset) (*Asset, error)
}

// Observer receives coordinator outcomes, typically for metrics
type Observer interface {
	// RecordOperation is called once per Service call
	RecordOperation(op, outcome string, seconds float64)

	// RecordCompensation is called after a blob cleanup attempt that follows
	// a failed metadata insert; outcome is "removed" or "orphaned"
	RecordCompensation(outcome string)
}

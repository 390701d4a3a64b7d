package memecatalog

import "context"

// Service is the asset coordinator exposed to the request layer
type Service interface {
	// ListAssets returns asset metadata in insertion order; no payloads are fetched
	ListAssets(ctx context.Context) ([]*Asset, error)

	// GetAssetPayload returns the payload of an asset
	GetAssetPayload(ctx context.Context, id int64) (*Payload, error)

	// CreateAsset stores the payload and registers a new asset
	CreateAsset(ctx context.Context, req CreateAssetRequest) (*Asset, error)

	// UpdateAssetName renames an asset; the payload is untouched
	UpdateAssetName(ctx context.Context, req UpdateAssetNameRequest) (*Asset, error)

	// DeleteAsset removes the payload and then the asset, returning the deleted snapshot
	DeleteAsset(ctx context.Context, id int64) (*Asset, error)
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tendant/meme-catalog/pkg/memecatalog"
)

// Repository implements memecatalog.Repository using in-memory storage.
// Ids come from a sequence that is never rewound, so deleted ids are not reused.
type Repository struct {
	mu       sync.RWMutex
	nextID   int64
	assets   map[int64]*memecatalog.Asset
	order    []int64          // insertion order
	byName   map[string]int64 // name -> id
	blobKeys map[string]int64 // blob_key -> id
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		assets:   make(map[int64]*memecatalog.Asset),
		byName:   make(map[string]int64),
		blobKeys: make(map[string]int64),
	}
}

func (r *Repository) FindIDByName(ctx context.Context, name string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return 0, memecatalog.ErrAssetNotFound
	}
	return id, nil
}

func (r *Repository) GetAsset(ctx context.Context, id int64) (*memecatalog.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[id]
	if !ok {
		return nil, memecatalog.ErrAssetNotFound
	}
	// Return a copy to prevent external modifications
	assetCopy := *asset
	return &assetCopy, nil
}

func (r *Repository) ListAssets(ctx context.Context) ([]*memecatalog.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*memecatalog.Asset, 0, len(r.order))
	for _, id := range r.order {
		assetCopy := *r.assets[id]
		result = append(result, &assetCopy)
	}
	return result, nil
}

func (r *Repository) CreateAsset(ctx context.Context, name, blobKey string) (*memecatalog.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[name]; taken {
		return nil, memecatalog.ErrDuplicateName
	}
	if _, taken := r.blobKeys[blobKey]; taken {
		return nil, fmt.Errorf("blob key %q already referenced", blobKey)
	}

	r.nextID++
	now := time.Now().UTC()
	asset := &memecatalog.Asset{
		ID:        r.nextID,
		Name:      name,
		BlobKey:   blobKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.assets[asset.ID] = asset
	r.order = append(r.order, asset.ID)
	r.byName[name] = asset.ID
	r.blobKeys[blobKey] = asset.ID

	assetCopy := *asset
	return &assetCopy, nil
}

func (r *Repository) UpdateAssetName(ctx context.Context, asset *memecatalog.Asset, name string) (*memecatalog.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.assets[asset.ID]
	if !ok {
		return nil, memecatalog.ErrAssetNotFound
	}
	if owner, taken := r.byName[name]; taken && owner != asset.ID {
		return nil, memecatalog.ErrDuplicateName
	}

	delete(r.byName, stored.Name)
	stored.Name = name
	stored.UpdatedAt = time.Now().UTC()
	r.byName[name] = stored.ID

	assetCopy := *stored
	return &assetCopy, nil
}

func (r *Repository) DeleteAsset(ctx context.Context, asset *memecatalog.Asset) (*memecatalog.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.assets[asset.ID]
	if !ok {
		return nil, memecatalog.ErrAssetNotFound
	}

	delete(r.assets, stored.ID)
	delete(r.byName, stored.Name)
	// blobKeys keeps the entry so a key can never be bound to another asset
	for i, id := range r.order {
		if id == stored.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return stored, nil
}

var _ memecatalog.Repository = (*Repository)(nil)

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tendant/meme-catalog/pkg/memecatalog"
)

type object struct {
	data        []byte
	contentType string
}

// Backend is an in-memory implementation of the memecatalog.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	buckets map[string]map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		buckets: make(map[string]map[string]object),
	}
}

// Put stores a copy of data under key, replacing any existing object
func (b *Backend) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if key == "" {
		return fmt.Errorf("object key is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	objects, ok := b.buckets[bucket]
	if !ok {
		objects = make(map[string]object)
		b.buckets[bucket] = objects
	}
	objects[key] = object{
		data:        append([]byte(nil), data...),
		contentType: contentType,
	}
	return nil
}

// Get returns a copy of the object data
func (b *Backend) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, memecatalog.ErrBlobNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

// Delete removes the object. A missing key reports ErrBlobNotFound like S3 HeadObject does.
func (b *Backend) Delete(ctx context.Context, bucket, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.buckets[bucket][key]; !ok {
		return fmt.Errorf("%s/%s: %w", bucket, key, memecatalog.ErrBlobNotFound)
	}
	delete(b.buckets[bucket], key)
	return nil
}

// ContentType returns the stored content type of an object
func (b *Backend) ContentType(bucket, key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.buckets[bucket][key]
	return obj.contentType, ok
}

// Keys lists the object keys in a bucket in sorted order
func (b *Backend) Keys(bucket string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.buckets[bucket]))
	for k := range b.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ memecatalog.BlobStore = (*Backend)(nil)

package memecatalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBucket is the bucket used when WithBlobStore is given an empty name
const DefaultBucket = "getmeme"

// Operation outcomes reported to the Observer
const (
	OutcomeOK            = "ok"
	OutcomeValidation    = "validation"
	OutcomeNotFound      = "not_found"
	OutcomeDuplicate     = "duplicate"
	OutcomeUpstreamError = "upstream_error"
)

// Compensation outcomes reported to the Observer
const (
	CompensationRemoved  = "removed"
	CompensationOrphaned = "orphaned"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	bucket     string
	logger     *slog.Logger
	observer   Observer
	tracer     trace.Tracer
	newKey     func() string
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob store and the bucket payloads are written to
func WithBlobStore(bucket string, store BlobStore) Option {
	return func(s *service) {
		if bucket != "" {
			s.bucket = bucket
		}
		s.blobStore = store
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets the observer that receives operation outcomes
func WithObserver(observer Observer) Option {
	return func(s *service) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithTracer overrides the tracer taken from the global otel provider
func WithTracer(tracer trace.Tracer) Option {
	return func(s *service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithKeyGenerator overrides blob key generation. Generated keys must be
// unique for the life of the catalog.
func WithKeyGenerator(fn func() string) Option {
	return func(s *service) {
		if fn != nil {
			s.newKey = fn
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		bucket:   DefaultBucket,
		logger:   slog.Default(),
		observer: NoopObserver{},
		tracer:   otel.Tracer("github.com/tendant/meme-catalog/pkg/memecatalog"),
		newKey:   NewBlobKey,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	return s, nil
}

// begin detaches the store calls from caller cancellation and opens a span.
// The returned finish func must be called with the operation's final error.
func (s *service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "memecatalog."+op, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		outcome := outcomeOf(err)
		if err != nil {
			span.RecordError(err)
			if outcome == OutcomeUpstreamError {
				span.SetStatus(codes.Error, err.Error())
			}
		}
		span.SetAttributes(attribute.String("outcome", outcome))
		span.End()
		s.observer.RecordOperation(op, outcome, time.Since(start).Seconds())
	}
}

// step marks a store call on the operation span
func step(ctx context.Context, name string) {
	trace.SpanFromContext(ctx).AddEvent(name)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrValidation):
		return OutcomeValidation
	case errors.Is(err, ErrUpstreamStore):
		return OutcomeUpstreamError
	case errors.Is(err, ErrAssetNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrDuplicateName):
		return OutcomeDuplicate
	default:
		return OutcomeUpstreamError
	}
}

// Asset operations

func (s *service) ListAssets(ctx context.Context) (assets []*Asset, err error) {
	ctx, finish := s.begin(ctx, "list")
	defer func() { finish(err) }()

	step(ctx, "repository.list")
	assets, err = s.repository.ListAssets(ctx)
	if err != nil {
		return nil, &RepositoryError{Op: "list", Err: err}
	}
	return assets, nil
}

func (s *service) GetAssetPayload(ctx context.Context, id int64) (payload *Payload, err error) {
	ctx, finish := s.begin(ctx, "get", attribute.Int64("asset.id", id))
	defer func() { finish(err) }()

	step(ctx, "repository.get")
	asset, err := s.repository.GetAsset(ctx, id)
	if err != nil {
		return nil, &AssetError{ID: id, Op: "get", Err: wrapRepositoryError("get", err)}
	}
	if asset.BlobKey == "" {
		return nil, &AssetError{ID: id, Name: asset.Name, Op: "get", Err: &StorageError{
			Bucket: s.bucket,
			Op:     "get",
			Err:    errors.New("asset has no blob key"),
		}}
	}

	step(ctx, "blob.get")
	data, err := s.blobStore.Get(ctx, s.bucket, asset.BlobKey)
	if err != nil {
		// A missing blob behind a live row is an integrity failure, not a 404.
		return nil, &AssetError{ID: id, Name: asset.Name, Op: "get", Err: &StorageError{
			Bucket: s.bucket,
			Key:    asset.BlobKey,
			Op:     "get",
			Err:    err,
		}}
	}

	return &Payload{
		AssetID:  asset.ID,
		Name:     asset.Name,
		FileName: FileNameHint(asset.BlobKey),
		Data:     data,
	}, nil
}

func (s *service) CreateAsset(ctx context.Context, req CreateAssetRequest) (asset *Asset, err error) {
	ctx, finish := s.begin(ctx, "create", attribute.String("asset.name", req.Name))
	defer func() { finish(err) }()

	if err := ValidateName(req.Name); err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, req.Name, 0); err != nil {
		return nil, &AssetError{Name: req.Name, Op: "create", Err: err}
	}

	key := s.newKey()
	step(ctx, "blob.put")
	if err := s.blobStore.Put(ctx, s.bucket, key, req.Data, req.ContentType); err != nil {
		return nil, &AssetError{Name: req.Name, Op: "create", Err: &StorageError{
			Bucket: s.bucket,
			Key:    key,
			Op:     "put",
			Err:    err,
		}}
	}

	step(ctx, "repository.insert")
	asset, err = s.repository.CreateAsset(ctx, req.Name, key)
	if err != nil {
		s.discardBlob(ctx, key, err)
		return nil, &AssetError{Name: req.Name, Op: "create", Err: wrapRepositoryError("create", err)}
	}

	s.logger.InfoContext(ctx, "asset created", "id", asset.ID, "name", asset.Name, "blob_key", key)
	return asset, nil
}

// discardBlob removes a blob written by a create whose metadata insert failed.
// A cleanup failure leaves an orphan blob; it is logged and never surfaces to
// the caller, who sees the original insert error.
func (s *service) discardBlob(ctx context.Context, key string, cause error) {
	step(ctx, "blob.compensate")
	if err := s.blobStore.Delete(ctx, s.bucket, key); err != nil && !errors.Is(err, ErrBlobNotFound) {
		s.logger.ErrorContext(ctx, "orphaned blob after failed asset insert",
			"bucket", s.bucket,
			"blob_key", key,
			"insert_error", cause,
			"cleanup_error", err)
		s.observer.RecordCompensation(CompensationOrphaned)
		return
	}
	s.logger.WarnContext(ctx, "removed blob after failed asset insert",
		"bucket", s.bucket,
		"blob_key", key,
		"insert_error", cause)
	s.observer.RecordCompensation(CompensationRemoved)
}

// ensureNameFree reports ErrDuplicateName when name belongs to an asset other
// than self. The repository constraint remains the authority under races.
func (s *service) ensureNameFree(ctx context.Context, name string, self int64) error {
	step(ctx, "repository.find_by_name")
	id, err := s.repository.FindIDByName(ctx, name)
	switch {
	case errors.Is(err, ErrAssetNotFound):
		return nil
	case err != nil:
		return &RepositoryError{Op: "find_by_name", Err: err}
	case id != self:
		return ErrDuplicateName
	default:
		return nil
	}
}

func (s *service) UpdateAssetName(ctx context.Context, req UpdateAssetNameRequest) (asset *Asset, err error) {
	ctx, finish := s.begin(ctx, "update",
		attribute.Int64("asset.id", req.ID),
		attribute.String("asset.name", req.Name))
	defer func() { finish(err) }()

	if err := ValidateName(req.Name); err != nil {
		return nil, err
	}

	step(ctx, "repository.get")
	current, err := s.repository.GetAsset(ctx, req.ID)
	if err != nil {
		return nil, &AssetError{ID: req.ID, Op: "update", Err: wrapRepositoryError("get", err)}
	}
	if current.Name == req.Name {
		return current, nil
	}

	if err := s.ensureNameFree(ctx, req.Name, req.ID); err != nil {
		return nil, &AssetError{ID: req.ID, Name: req.Name, Op: "update", Err: err}
	}

	step(ctx, "repository.update_name")
	asset, err = s.repository.UpdateAssetName(ctx, current, req.Name)
	if err != nil {
		return nil, &AssetError{ID: req.ID, Name: req.Name, Op: "update", Err: wrapRepositoryError("update", err)}
	}

	s.logger.InfoContext(ctx, "asset renamed", "id", asset.ID, "old_name", current.Name, "name", asset.Name)
	return asset, nil
}

func (s *service) DeleteAsset(ctx context.Context, id int64) (deleted *Asset, err error) {
	ctx, finish := s.begin(ctx, "delete", attribute.Int64("asset.id", id))
	defer func() { finish(err) }()

	step(ctx, "repository.get")
	asset, err := s.repository.GetAsset(ctx, id)
	if err != nil {
		return nil, &AssetError{ID: id, Op: "delete", Err: wrapRepositoryError("get", err)}
	}

	if asset.BlobKey != "" {
		step(ctx, "blob.delete")
		err := s.blobStore.Delete(ctx, s.bucket, asset.BlobKey)
		switch {
		case errors.Is(err, ErrBlobNotFound):
			s.logger.WarnContext(ctx, "blob already missing on delete", "id", id, "blob_key", asset.BlobKey)
		case err != nil:
			return nil, &AssetError{ID: id, Name: asset.Name, Op: "delete", Err: &StorageError{
				Bucket: s.bucket,
				Key:    asset.BlobKey,
				Op:     "delete",
				Err:    err,
			}}
		}
	}

	step(ctx, "repository.remove")
	deleted, err = s.repository.DeleteAsset(ctx, asset)
	if err != nil {
		// The blob is already gone; the row now violates blob existence until
		// the caller retries the delete, which tolerates the missing blob.
		s.logger.ErrorContext(ctx, "asset row left without blob", "id", id, "blob_key", asset.BlobKey, "error", err)
		return nil, &AssetError{ID: id, Name: asset.Name, Op: "delete", Err: wrapRepositoryError("delete", err)}
	}

	s.logger.InfoContext(ctx, "asset deleted", "id", deleted.ID, "name", deleted.Name)
	return deleted, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
)

const (
	constraintNameUnique    = "meme_name_unique"
	constraintBlobKeyUnique = "meme_blob_key_unique"

	// DefaultQueryTimeout bounds each statement when no Option overrides it
	DefaultQueryTimeout = 5 * time.Second
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements memecatalog.Repository using PostgreSQL
type Repository struct {
	db           DBTX
	queryTimeout time.Duration
}

// Option configures a Repository
type Option func(*Repository)

// WithQueryTimeout bounds every statement; zero disables the bound
func WithQueryTimeout(d time.Duration) Option {
	return func(r *Repository) {
		r.queryTimeout = d
	}
}

// New creates a new PostgreSQL repository
func New(db DBTX, opts ...Option) *Repository {
	r := &Repository{db: db, queryTimeout: DefaultQueryTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool, opts ...Option) *Repository {
	return New(pool, opts...)
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return memecatalog.ErrAssetNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if pgErr.ConstraintName == constraintNameUnique {
				return memecatalog.ErrDuplicateName
			}
			return fmt.Errorf("duplicate entry on %s in %s: %w", pgErr.ConstraintName, operation, err)
		case "23514": // check_violation
			return &memecatalog.ValidationError{Field: "name", Reason: pgErr.Message}
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required: %w", err)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s): %w", operation, pgErr.Message, pgErr.Code, err)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const assetColumns = "id, name, blob_key, created_at, updated_at"

func scanAsset(row pgx.Row) (*memecatalog.Asset, error) {
	var asset memecatalog.Asset
	if err := row.Scan(&asset.ID, &asset.Name, &asset.BlobKey, &asset.CreatedAt, &asset.UpdatedAt); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *Repository) FindIDByName(ctx context.Context, name string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM meme WHERE name = $1`, name).Scan(&id)
	if err != nil {
		return 0, r.handlePostgresError("find by name", err)
	}
	return id, nil
}

func (r *Repository) GetAsset(ctx context.Context, id int64) (*memecatalog.Asset, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + assetColumns + ` FROM meme WHERE id = $1`
	asset, err := scanAsset(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get asset", err)
	}
	return asset, nil
}

func (r *Repository) ListAssets(ctx context.Context) ([]*memecatalog.Asset, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + assetColumns + ` FROM meme ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list assets", err)
	}
	defer rows.Close()

	assets := []*memecatalog.Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan asset", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list assets", err)
	}
	return assets, nil
}

func (r *Repository) CreateAsset(ctx context.Context, name, blobKey string) (*memecatalog.Asset, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO meme (name, blob_key)
		VALUES ($1, $2)
		RETURNING ` + assetColumns

	asset, err := scanAsset(r.db.QueryRow(ctx, query, name, blobKey))
	if err != nil {
		return nil, r.handlePostgresError("create asset", err)
	}
	return asset, nil
}

func (r *Repository) UpdateAssetName(ctx context.Context, asset *memecatalog.Asset, name string) (*memecatalog.Asset, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE meme SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + assetColumns

	updated, err := scanAsset(r.db.QueryRow(ctx, query, asset.ID, name))
	if err != nil {
		return nil, r.handlePostgresError("update asset name", err)
	}
	return updated, nil
}

func (r *Repository) DeleteAsset(ctx context.Context, asset *memecatalog.Asset) (*memecatalog.Asset, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `DELETE FROM meme WHERE id = $1 RETURNING ` + assetColumns
	deleted, err := scanAsset(r.db.QueryRow(ctx, query, asset.ID))
	if err != nil {
		return nil, r.handlePostgresError("delete asset", err)
	}
	return deleted, nil
}

var _ memecatalog.Repository = (*Repository)(nil)

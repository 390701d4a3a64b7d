package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
)

func TestHandlePostgresError(t *testing.T) {
	r := &Repository{}

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{name: "no rows", err: pgx.ErrNoRows, target: memecatalog.ErrAssetNotFound},
		{
			name:   "name unique violation",
			err:    &pgconn.PgError{Code: "23505", ConstraintName: constraintNameUnique},
			target: memecatalog.ErrDuplicateName,
		},
		{
			name:   "check violation",
			err:    &pgconn.PgError{Code: "23514", Message: "violates check constraint"},
			target: memecatalog.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, r.handlePostgresError("op", tt.err), tt.target)
		})
	}

	t.Run("blob key violation is not a duplicate name", func(t *testing.T) {
		err := r.handlePostgresError("op", &pgconn.PgError{Code: "23505", ConstraintName: constraintBlobKeyUnique})
		assert.NotErrorIs(t, err, memecatalog.ErrDuplicateName)
		assert.Contains(t, err.Error(), constraintBlobKeyUnique)
	})

	t.Run("other errors keep their cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := r.handlePostgresError("list assets", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "list assets")
	})
}

func TestRepository_CRUD(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cat, err := repo.CreateAsset(ctx, "cat", "key-cat")
	require.NoError(t, err)
	assert.Positive(t, cat.ID)
	assert.Equal(t, "key-cat", cat.BlobKey)

	id, err := repo.FindIDByName(ctx, "cat")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, id)

	got, err := repo.GetAsset(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat", got.Name)

	renamed, err := repo.UpdateAssetName(ctx, got, "dog")
	require.NoError(t, err)
	assert.Equal(t, "dog", renamed.Name)
	assert.Equal(t, "key-cat", renamed.BlobKey)
	assert.False(t, renamed.UpdatedAt.Before(cat.UpdatedAt))

	deleted, err := repo.DeleteAsset(ctx, renamed)
	require.NoError(t, err)
	assert.Equal(t, "dog", deleted.Name)

	_, err = repo.GetAsset(ctx, cat.ID)
	assert.ErrorIs(t, err, memecatalog.ErrAssetNotFound)
	_, err = repo.DeleteAsset(ctx, renamed)
	assert.ErrorIs(t, err, memecatalog.ErrAssetNotFound)
	_, err = repo.UpdateAssetName(ctx, renamed, "x")
	assert.ErrorIs(t, err, memecatalog.ErrAssetNotFound)
}

func TestRepository_Constraints(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.CreateAsset(ctx, "cat", "k1")
	require.NoError(t, err)
	second, err := repo.CreateAsset(ctx, "dog", "k2")
	require.NoError(t, err)

	_, err = repo.CreateAsset(ctx, "cat", "k3")
	assert.ErrorIs(t, err, memecatalog.ErrDuplicateName)

	_, err = repo.UpdateAssetName(ctx, second, "cat")
	assert.ErrorIs(t, err, memecatalog.ErrDuplicateName)

	_, err = repo.CreateAsset(ctx, "bird", "k1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, memecatalog.ErrDuplicateName)

	_, err = repo.CreateAsset(ctx, strings.Repeat("a", 101), "k4")
	assert.Error(t, err)

	// ids are not reused after delete
	_, err = repo.DeleteAsset(ctx, second)
	require.NoError(t, err)
	third, err := repo.CreateAsset(ctx, "dog", "k5")
	require.NoError(t, err)
	assert.Greater(t, third.ID, second.ID)
	assert.Greater(t, second.ID, first.ID)
}

func TestRepository_ListInsertionOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	empty, err := repo.ListAssets(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, name := range []string{"c", "a", "b"} {
		_, err := repo.CreateAsset(ctx, name, "key-"+name)
		require.NoError(t, err)
	}

	list, err := repo.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestRepository_FindIDByNameMissing(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.FindIDByName(ctx, "ghost")
	assert.ErrorIs(t, err, memecatalog.ErrAssetNotFound)
}

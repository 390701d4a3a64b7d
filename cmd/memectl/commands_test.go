package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
	"github.com/tendant/meme-catalog/pkg/memecatalog/repo/memory"
	memorystorage "github.com/tendant/meme-catalog/pkg/memecatalog/storage/memory"
)

func newTestService(t *testing.T) memecatalog.Service {
	t.Helper()
	svc, err := memecatalog.New(
		memecatalog.WithRepository(memory.New()),
		memecatalog.WithBlobStore("memes", memorystorage.New()),
	)
	require.NoError(t, err)
	return svc
}

func execute(t *testing.T, svc memecatalog.Service, args ...string) (string, error) {
	t.Helper()

	opened, closed := false, false
	root, a := newRootCmd(func(context.Context) (memecatalog.Service, func(), error) {
		opened = true
		return svc, func() { closed = true }, nil
	})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	a.close()
	assert.Equal(t, opened, closed, "an opened catalog should be released after the command")
	return out.String(), err
}

func TestMemectl_Lifecycle(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "cat.png")
	require.NoError(t, os.WriteFile(src, []byte{0x01, 0x02}, 0o644))

	out, err := execute(t, svc, "create", "cat", src)
	require.NoError(t, err)
	assert.Contains(t, out, "created meme 1 (cat)")

	out, err = execute(t, svc, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "cat")

	out, err = execute(t, svc, "rename", "1", "dog")
	require.NoError(t, err)
	assert.Contains(t, out, "renamed meme 1 to dog")

	dst := filepath.Join(dir, "out.bin")
	_, err = execute(t, svc, "get", "1", "-o", dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, data)

	out, err = execute(t, svc, "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted meme 1 (dog)")

	_, err = execute(t, svc, "get", "1", "-o", "-")
	assert.ErrorIs(t, err, memecatalog.ErrAssetNotFound)
}

func TestMemectl_Errors(t *testing.T) {
	svc := newTestService(t)

	_, err := execute(t, svc, "get", "abc")
	assert.Error(t, err)

	_, err = execute(t, svc, "create", "cat", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	_, err = execute(t, svc, "rename", "9", "x")
	assert.ErrorIs(t, err, memecatalog.ErrAssetNotFound)

	_, err = execute(t, svc, "delete")
	assert.Error(t, err)
}

func TestMemectl_GetToStdout(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateAsset(context.Background(), memecatalog.CreateAssetRequest{Name: "cat", Data: []byte("meow")})
	require.NoError(t, err)

	out, err := execute(t, svc, "get", "1", "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, "meow", out)
}

func TestMemectl_ReleasesCatalogOnFailure(t *testing.T) {
	svc := newTestService(t)

	closed := false
	root, a := newRootCmd(func(context.Context) (memecatalog.Service, func(), error) {
		return svc, func() { closed = true }, nil
	})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"rename", "42", "dog"})

	err := root.ExecuteContext(context.Background())
	require.ErrorIs(t, err, memecatalog.ErrAssetNotFound)
	a.close()
	assert.True(t, closed)
}

func TestMemectl_Env(t *testing.T) {
	out, err := execute(t, nil, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "DATABASE_URL")
}

package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(filepath.Join(t.TempDir(), "artifacts"), nil)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "report.sarif")
	require.NoError(t, os.WriteFile(src, []byte(`{"version":"2.1.0"}`), 0o644))

	url, err := store.UploadAndCleanup(ctx, src, "acme/a1/report.sarif")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.NoFileExists(t, src)

	rc, err := store.Open(ctx, "acme/a1/report.sarif")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"version":"2.1.0"}`, string(data))

	_, err = store.Open(ctx, "acme/a1/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir(), nil)
	require.NoError(t, err)
	_, err = store.Open(context.Background(), "../etc/passwd")
	assert.Error(t, err)
	_, err = store.Upload(context.Background(), "/does/not/matter", "/abs")
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("x.sarif"))
	assert.Equal(t, "application/msgpack", contentType("snapshot.msgpack"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))
}

func TestLocalStoreCheck(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	store, err := NewLocal(dir, nil)
	require.NoError(t, err)
	assert.NoError(t, store.Check(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, store.Check(context.Background()))
}

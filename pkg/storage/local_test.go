package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArchive(t *testing.T) {
	ctx := context.Background()
	a, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	userID, stmtID := uuid.New(), uuid.New()

	info, err := a.Put(ctx, userID, stmtID, "/home/john/Downloads/nov:2024.pdf", strings.NewReader("%PDF-1.4 body"))
	require.NoError(t, err)
	assert.Equal(t, "nov:2024.pdf", info.Name)
	assert.Equal(t, int64(13), info.Size)
	assert.Len(t, info.SHA256, 64)
	assert.NotContains(t, info.Path, ":")

	t.Run("open returns the stored content", func(t *testing.T) {
		rc, got, err := a.Open(ctx, userID, stmtID)
		require.NoError(t, err)
		defer rc.Close()
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 body", string(body))
		assert.Equal(t, info.SHA256, got.SHA256)
	})

	t.Run("put replaces an earlier copy", func(t *testing.T) {
		_, err := a.Put(ctx, userID, stmtID, "nov-2024.pdf", strings.NewReader("v2"))
		require.NoError(t, err)
		files, err := a.List(ctx, userID)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, int64(2), files[0].Size)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, a.Delete(ctx, userID, stmtID))
		require.NoError(t, a.Delete(ctx, userID, stmtID))
		_, _, err := a.Open(ctx, userID, stmtID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown user lists nothing", func(t *testing.T) {
		files, err := a.List(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestNew_EmptyDirDisablesArchive(t *testing.T) {
	a, err := New("")
	require.NoError(t, err)
	assert.IsType(t, Nop{}, a)

	info, err := a.Put(context.Background(), uuid.New(), uuid.New(), "x.pdf", strings.NewReader("x"))
	assert.NoError(t, err)
	assert.Nil(t, info)
}

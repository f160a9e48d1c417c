package assetstore_test

import (
	"io"
	"strings"
	"testing"

	"github.com/dmarkin/storefront/internal/adapter/assetstore"
	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore(t *testing.T) {

	t.Run("PutGetDelete", func(t *testing.T) {
		store, err := assetstore.NewFSStore(t.TempDir())
		require.NoError(t, err)

		key := "abc-guide.pdf"
		err = store.Put(t.Context(), key, strings.NewReader("file content"))
		require.NoError(t, err)

		rc, err := store.Get(t.Context(), key)
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "file content", string(content))

		err = store.Delete(t.Context(), key)
		require.NoError(t, err)

		_, err = store.Get(t.Context(), key)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("GetUnknownKey", func(t *testing.T) {
		store, err := assetstore.NewFSStore(t.TempDir())
		require.NoError(t, err)

		_, err = store.Get(t.Context(), "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("DeleteUnknownKey", func(t *testing.T) {
		store, err := assetstore.NewFSStore(t.TempDir())
		require.NoError(t, err)

		err = store.Delete(t.Context(), "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("KeyCannotEscapeRoot", func(t *testing.T) {
		root := t.TempDir()
		store, err := assetstore.NewFSStore(root)
		require.NoError(t, err)

		err = store.Put(
			t.Context(), "../escape.txt", strings.NewReader("content"),
		)
		require.NoError(t, err)

		rc, err := store.Get(t.Context(), "escape.txt")
		require.NoError(t, err)
		require.NoError(t, rc.Close())
	})
}

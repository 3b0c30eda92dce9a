package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir(), BaseURL: "http://localhost:8080/files/"})
	require.NoError(t, err)
	return s
}

func TestLocalStorage_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)
	key := ChartKey("abc.png")

	require.NoError(t, s.Put(ctx, key, strings.NewReader("png-bytes"), PutOptions{ContentType: "image/png"}))

	rc, info, err := s.Get(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))
	assert.Equal(t, int64(9), info.Size)
	assert.Equal(t, "image/png", info.ContentType)

	require.NoError(t, s.Delete(ctx, key))
	_, _, err = s.Get(ctx, key)
	assert.True(t, IsNotFound(err))

	// deleting again is fine
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocalStorage_PutRespectsOverwrite(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)
	key := ChartKey("dup.png")

	require.NoError(t, s.Put(ctx, key, strings.NewReader("one"), PutOptions{}))
	err := s.Put(ctx, key, strings.NewReader("two"), PutOptions{})
	assert.ErrorIs(t, err, ErrKeyExists)

	require.NoError(t, s.Put(ctx, key, strings.NewReader("two"), PutOptions{Overwrite: true}))
	rc, _, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "two", string(body))
}

func TestLocalStorage_PutTooLarge(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)
	key := ChartKey("big.png")

	err := s.Put(ctx, key, bytes.NewReader(make([]byte, 11)), PutOptions{MaxSize: 10})
	assert.True(t, IsTooLarge(err))

	_, _, err = s.Get(ctx, key)
	assert.True(t, IsNotFound(err), "oversized object must not be left behind")

	assert.NoError(t, s.Put(ctx, key, bytes.NewReader(make([]byte, 10)), PutOptions{MaxSize: 10}))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	for _, key := range []string{"", "../etc/passwd", "/abs/path", "charts/../../x"} {
		err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStorage_URL(t *testing.T) {
	s := newLocal(t)
	u, err := s.URL(context.Background(), "articles/art_1.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/articles/art_1.png", u)
}

func TestKeys(t *testing.T) {
	name := NewChartFilename("PNG")
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.Len(t, name, 36+4)
	assert.Equal(t, "charts/"+name, ChartKey(name))

	art := ArticleImageKey(".png")
	assert.True(t, strings.HasPrefix(art, "articles/art_"))
	assert.True(t, strings.HasSuffix(art, ".png"))
}

package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_UploadDownload(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	err := s.Upload(ctx, "group/a/0/file.txt", strings.NewReader("hello"), 5, "text/plain")
	require.NoError(t, err)

	rc, size, err := s.Download(ctx, "group/a/0/file.txt")
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, int64(5), size)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))

	_, _, err = s.Download(ctx, "group/a/0/missing.txt")
	require.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStorage_CopyAndFirstKey(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "initial/a/source.docx", strings.NewReader("content"), 7, ""))
	require.NoError(t, s.Copy(ctx, "initial/a/source.docx", "group/a/0/copy.docx"))

	k, err := s.FirstKey(ctx, "group/a/0/")
	require.NoError(t, err)
	require.Equal(t, "group/a/0/copy.docx", k)

	_, err = s.FirstKey(ctx, "group/a/1/")
	require.ErrorIs(t, err, ErrObjectNotFound)

	require.ErrorIs(t, s.Copy(ctx, "initial/a/missing", "x"), ErrObjectNotFound)
}

func TestMemoryStorage_DeletePrefix(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "group/a/0/f1", strings.NewReader("1"), 1, ""))
	require.NoError(t, s.Upload(ctx, "group/a/1/f2", strings.NewReader("2"), 1, ""))
	require.NoError(t, s.Upload(ctx, "group/b/0/f3", strings.NewReader("3"), 1, ""))

	require.NoError(t, s.DeletePrefix(ctx, "group/a/"))

	_, err := s.FirstKey(ctx, "group/a/")
	require.ErrorIs(t, err, ErrObjectNotFound)
	_, err = s.FirstKey(ctx, "group/b/")
	require.NoError(t, err)
}

func TestValidArea(t *testing.T) {
	require.True(t, ValidArea(AreaGroup))
	require.True(t, ValidArea(AreaInitial))
	require.True(t, ValidArea(AreaTemplates))
	require.False(t, ValidArea("draft"))
}

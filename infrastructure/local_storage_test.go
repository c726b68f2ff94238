package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitovidale/video-catalog-service/domain"
)

func TestLocalStorageStoreAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())
	r := domain.NewResource([]byte("raw video"), "video/mp4", "video.mp4")

	require.NoError(t, s.Store(ctx, "videoId-1/type-VIDEO", r))

	got, err := s.Get(ctx, "videoId-1/type-VIDEO")
	require.NoError(t, err)
	assert.Equal(t, r, *got)
}

func TestLocalStorageGetWithoutMetadataRecomputesChecksum(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	require.NoError(t, s.Store(ctx, "videoId-1/type-BANNER", domain.NewResource([]byte("png"), "image/png", "b.png")))
	require.NoError(t, os.Remove(filepath.Join(dir, "videoId-1", "type-BANNER"+metaSuffix)))

	got, err := s.Get(ctx, "videoId-1/type-BANNER")
	require.NoError(t, err)
	assert.Equal(t, domain.Checksum([]byte("png")), got.Checksum)
	assert.Empty(t, got.Name)
}

func TestLocalStorageGetCorruptMetadata(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	require.NoError(t, s.Store(ctx, "videoId-1/type-BANNER", domain.NewResource([]byte("png"), "image/png", "b.png")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "videoId-1", "type-BANNER"+metaSuffix), []byte("{not json"), 0o644))

	_, err := s.Get(ctx, "videoId-1/type-BANNER")
	require.ErrorIs(t, err, domain.ErrStorageFailure)
	var serr *domain.StorageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "get", serr.Op)
}

func TestLocalStorageGetMissing(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	_, err := s.Get(context.Background(), "videoId-1/type-VIDEO")
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	err := s.Store(context.Background(), "../outside", domain.NewResource([]byte("x"), "", "x"))
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
}

func TestLocalStorageListAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())
	for _, p := range []string{"videoId-1/type-VIDEO", "videoId-1/type-BANNER", "videoId-2/type-VIDEO"} {
		require.NoError(t, s.Store(ctx, p, domain.NewResource([]byte(p), "", p)))
	}

	paths, err := s.List(ctx, "videoId-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"videoId-1/type-BANNER", "videoId-1/type-VIDEO"}, paths)

	require.NoError(t, s.DeleteAll(ctx, append(paths, "videoId-1/type-TRAILER")))

	paths, err = s.List(ctx, "videoId-1")
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = s.Get(ctx, "videoId-2/type-VIDEO")
	assert.NoError(t, err)
}

func TestLocalStorageListOnMissingDir(t *testing.T) {
	s := NewLocalStorage(t.TempDir() + "/missing")

	paths, err := s.List(context.Background(), "videoId-1")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestMediaResourceGatewayPaths(t *testing.T) {
	g := NewMediaResourceGateway(NewLocalStorage(t.TempDir()), "", "")

	assert.Equal(t, "videoId-123", g.Folder("123"))
	assert.Equal(t, "type-THUMBNAIL_HALF", g.Filename(domain.MediaTypeThumbnailHalf))
	assert.Equal(t, "videoId-123/type-VIDEO", g.Filepath("123", domain.MediaTypeVideo))

	custom := NewMediaResourceGateway(nil, "media/{videoId}", "{type}.bin")
	assert.Equal(t, "media/abc/TRAILER.bin", custom.Filepath("abc", domain.MediaTypeTrailer))
}

func TestMediaResourceGatewayStoresMedia(t *testing.T) {
	ctx := context.Background()
	g := NewMediaResourceGateway(NewLocalStorage(t.TempDir()), "", "")
	id := domain.VideoID("123")

	video, err := g.StoreAudioVideo(ctx, id, domain.VideoResource{
		Type:     domain.MediaTypeVideo,
		Resource: domain.NewResource([]byte("video"), "video/mp4", "video.mp4"),
	})
	require.NoError(t, err)
	assert.Equal(t, "videoId-123/type-VIDEO", video.RawLocation())
	assert.Equal(t, domain.MediaStatusPending, video.Status())
	assert.Equal(t, domain.Checksum([]byte("video")), video.Checksum())
	assert.Equal(t, "video.mp4", video.Name())
	assert.NotEmpty(t, video.ID())

	banner, err := g.StoreImage(ctx, id, domain.VideoResource{
		Type:     domain.MediaTypeBanner,
		Resource: domain.NewResource([]byte("banner"), "image/png", "banner.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "videoId-123/type-BANNER", banner.Location())

	got, err := g.GetResource(ctx, id, domain.MediaTypeBanner)
	require.NoError(t, err)
	assert.Equal(t, []byte("banner"), got.Content)
	assert.Equal(t, "image/png", got.ContentType)

	_, err = g.GetResource(ctx, id, domain.MediaTypeTrailer)
	assert.True(t, errors.Is(err, domain.ErrResourceNotFound))

	require.NoError(t, g.ClearResources(ctx, id))
	_, err = g.GetResource(ctx, id, domain.MediaTypeVideo)
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestMediaResourceGatewayClearKeepsOtherVideos(t *testing.T) {
	ctx := context.Background()
	g := NewMediaResourceGateway(NewLocalStorage(t.TempDir()), "", "")
	banner := domain.VideoResource{
		Type:     domain.MediaTypeBanner,
		Resource: domain.NewResource([]byte("banner"), "image/png", "banner.png"),
	}
	for _, id := range []domain.VideoID{"12", "123"} {
		_, err := g.StoreImage(ctx, id, banner)
		require.NoError(t, err)
	}

	require.NoError(t, g.ClearResources(ctx, "12"))

	_, err := g.GetResource(ctx, "12", domain.MediaTypeBanner)
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
	_, err = g.GetResource(ctx, "123", domain.MediaTypeBanner)
	assert.NoError(t, err)
}

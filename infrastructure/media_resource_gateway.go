// infrastructure/media_resource_gateway.go
package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"github.com/vitovidale/video-catalog-service/domain"
)

const (
	DefaultLocationPattern = "videoId-{videoId}"
	DefaultFilenamePattern = "type-{type}"
)

// MediaResourceGateway derives blob paths from the video id and media type,
// so re-uploading a type overwrites the same path.
type MediaResourceGateway struct {
	Storage         domain.StorageService
	LocationPattern string
	FilenamePattern string
}

func NewMediaResourceGateway(storage domain.StorageService, locationPattern, filenamePattern string) *MediaResourceGateway {
	if locationPattern == "" {
		locationPattern = DefaultLocationPattern
	}
	if filenamePattern == "" {
		filenamePattern = DefaultFilenamePattern
	}
	return &MediaResourceGateway{
		Storage:         storage,
		LocationPattern: locationPattern,
		FilenamePattern: filenamePattern,
	}
}

func (g *MediaResourceGateway) StoreAudioVideo(ctx context.Context, id domain.VideoID, r domain.VideoResource) (*domain.AudioVideoMedia, error) {
	path, err := g.store(ctx, id, r)
	if err != nil {
		return nil, err
	}
	return domain.NewAudioVideoMedia(r.Resource.Checksum, r.Resource.Name, path), nil
}

func (g *MediaResourceGateway) StoreImage(ctx context.Context, id domain.VideoID, r domain.VideoResource) (*domain.ImageMedia, error) {
	path, err := g.store(ctx, id, r)
	if err != nil {
		return nil, err
	}
	return domain.NewImageMedia(r.Resource.Checksum, r.Resource.Name, path), nil
}

func (g *MediaResourceGateway) GetResource(ctx context.Context, id domain.VideoID, mediaType domain.VideoMediaType) (*domain.Resource, error) {
	return g.Storage.Get(ctx, g.Filepath(id, mediaType))
}

// ClearResources deletes every blob under the video's folder.
func (g *MediaResourceGateway) ClearResources(ctx context.Context, id domain.VideoID) error {
	paths, err := g.Storage.List(ctx, g.Folder(id)+"/")
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}
	return g.Storage.DeleteAll(ctx, paths)
}

func (g *MediaResourceGateway) Folder(id domain.VideoID) string {
	return strings.ReplaceAll(g.LocationPattern, "{videoId}", id.String())
}

func (g *MediaResourceGateway) Filename(mediaType domain.VideoMediaType) string {
	return strings.ReplaceAll(g.FilenamePattern, "{type}", mediaType.String())
}

func (g *MediaResourceGateway) Filepath(id domain.VideoID, mediaType domain.VideoMediaType) string {
	return g.Folder(id) + "/" + g.Filename(mediaType)
}

func (g *MediaResourceGateway) store(ctx context.Context, id domain.VideoID, r domain.VideoResource) (string, error) {
	if !r.Type.Valid() {
		return "", fmt.Errorf("unknown media type %q", r.Type)
	}
	path := g.Filepath(id, r.Type)
	if err := g.Storage.Store(ctx, path, r.Resource); err != nil {
		return "", err
	}
	return path, nil
}

var _ domain.MediaResourceGateway = (*MediaResourceGateway)(nil)

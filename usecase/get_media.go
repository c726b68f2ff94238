// usecase/get_media.go
package usecase

import (
	"context"
	"fmt"

	"github.com/vitovidale/video-catalog-service/domain"
)

type GetMediaInput struct {
	VideoID   domain.VideoID
	MediaType domain.VideoMediaType
}

type GetMediaOutput struct {
	Content     []byte
	ContentType string
	Name        string
	Checksum    string
}

type GetMediaUseCase struct {
	Media domain.MediaResourceGateway
}

func (uc *GetMediaUseCase) Execute(ctx context.Context, input GetMediaInput) (*GetMediaOutput, error) {
	if !input.MediaType.Valid() {
		return nil, fmt.Errorf("unknown media type %q: %w", input.MediaType, domain.ErrResourceNotFound)
	}
	r, err := uc.Media.GetResource(ctx, input.VideoID, input.MediaType)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s media of video %s: %w", input.MediaType, input.VideoID, err)
	}
	return &GetMediaOutput{
		Content:     r.Content,
		ContentType: r.ContentType,
		Name:        r.Name,
		Checksum:    r.Checksum,
	}, nil
}

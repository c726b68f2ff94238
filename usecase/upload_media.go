// usecase/upload_media.go
package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vitovidale/video-catalog-service/domain"
)

type UploadMediaInput struct {
	VideoID   domain.VideoID
	Resources []domain.VideoResource
}

type UploadMediaOutput struct {
	VideoID    domain.VideoID
	MediaTypes []domain.VideoMediaType
}

type UploadMediaUseCase struct {
	Videos domain.VideoGateway
	Media  domain.MediaResourceGateway
	Logger logrus.FieldLogger
}

// Execute stores the raw bytes, attaches the media and saves the video,
// in that order. Nothing is rolled back: the blob path is derived from the
// video id and type, so it may have held media the video still references.
func (uc *UploadMediaUseCase) Execute(ctx context.Context, input UploadMediaInput) (*UploadMediaOutput, error) {
	n := domain.NewNotification()
	if len(input.Resources) == 0 {
		n.AppendMessage("at least one media resource is required")
	}
	types := make([]domain.VideoMediaType, 0, len(input.Resources))
	validateResources(n, input.Resources)
	for _, r := range input.Resources {
		types = append(types, r.Type)
	}
	if err := n.Err("could not upload media"); err != nil {
		return nil, err
	}

	video, err := uc.Videos.FindByID(ctx, input.VideoID)
	if err != nil {
		return nil, err
	}

	log := uc.Logger.WithFields(logrus.Fields{"video_id": video.ID(), "media_types": types})
	if err := attachResources(ctx, uc.Media, video, input.Resources); err != nil {
		return nil, err
	}

	if err := uc.Videos.Save(ctx, video); err != nil {
		log.WithError(err).Warn("media stored but the video could not be saved; blobs may be orphaned")
		return nil, fmt.Errorf("failed to save video %s: %w", video.ID(), err)
	}

	log.Info("media uploaded")
	return &UploadMediaOutput{VideoID: video.ID(), MediaTypes: types}, nil
}

// usecase/delete_video.go
package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vitovidale/video-catalog-service/domain"
)

type DeleteVideoUseCase struct {
	Videos domain.VideoGateway
	Media  domain.MediaResourceGateway
	Logger logrus.FieldLogger
}

// Execute removes the video row first and its blobs second. Deleting an
// unknown id succeeds.
func (uc *DeleteVideoUseCase) Execute(ctx context.Context, id domain.VideoID) error {
	if err := uc.Videos.DeleteByID(ctx, id); err != nil {
		return err
	}
	if err := uc.Media.ClearResources(ctx, id); err != nil {
		return fmt.Errorf("video %s deleted but its media could not be cleared: %w", id, err)
	}
	uc.Logger.WithField("video_id", id).Info("video deleted")
	return nil
}

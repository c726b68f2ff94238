// usecase/update_video.go
package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vitovidale/video-catalog-service/domain"
)

type UpdateVideoInput struct {
	ID domain.VideoID
	VideoInput
}

type UpdateVideoOutput struct {
	ID domain.VideoID
}

type UpdateVideoUseCase struct {
	Videos     domain.VideoGateway
	References References
	Logger     logrus.FieldLogger
}

func (uc *UpdateVideoUseCase) Execute(ctx context.Context, input UpdateVideoInput) (*UpdateVideoOutput, error) {
	video, err := uc.Videos.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	b := input.builder()
	n := domain.NewNotification()
	if err := uc.References.Validate(ctx, n, b.Categories, b.Genres, b.CastMembers); err != nil {
		return nil, err
	}
	if n.HasErrors() {
		// Field errors are reported alongside the reference errors without
		// touching the loaded video.
		candidate := domain.RestoreVideo(video.Snapshot())
		n.Append(candidate.Update(b))
		return nil, n.Err("could not update aggregate Video")
	}
	if err := video.Update(b); err != nil {
		return nil, err
	}

	if err := uc.Videos.Save(ctx, video); err != nil {
		return nil, fmt.Errorf("failed to save video %s: %w", video.ID(), err)
	}
	uc.Logger.WithField("video_id", video.ID()).Info("video updated")
	return &UpdateVideoOutput{ID: video.ID()}, nil
}

// usecase/get_video.go
package usecase

import (
	"context"

	"github.com/vitovidale/video-catalog-service/domain"
)

type GetVideoUseCase struct {
	Videos domain.VideoGateway
}

func (uc *GetVideoUseCase) Execute(ctx context.Context, id domain.VideoID) (*VideoOutput, error) {
	video, err := uc.Videos.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewVideoOutput(video), nil
}

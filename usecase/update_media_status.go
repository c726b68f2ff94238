// usecase/update_media_status.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vitovidale/video-catalog-service/domain"
)

const defaultSaveAttempts = 3

// UpdateMediaStatusCommand is an encoder result addressed to one media.
type UpdateMediaStatusCommand struct {
	Status     domain.MediaStatus
	VideoID    domain.VideoID
	ResourceID string
	Folder     string
	Filename   string
}

type UpdateMediaStatusOutput struct {
	Applied   bool
	MediaType domain.VideoMediaType
	Reason    string
}

// UpdateMediaStatusUseCase reconciles encoder results onto the owning video.
// Unknown videos and media are no-ops. The resulting status and encoded
// location depend only on the command, so replays converge.
type UpdateMediaStatusUseCase struct {
	Videos       domain.VideoGateway
	Logger       logrus.FieldLogger
	SaveAttempts int
}

func (uc *UpdateMediaStatusUseCase) Execute(ctx context.Context, cmd UpdateMediaStatusCommand) (*UpdateMediaStatusOutput, error) {
	attempts := uc.SaveAttempts
	if attempts <= 0 {
		attempts = defaultSaveAttempts
	}

	log := uc.Logger.WithFields(logrus.Fields{
		"video_id":    cmd.VideoID,
		"resource_id": cmd.ResourceID,
		"status":      cmd.Status,
	})
	for attempt := 1; ; attempt++ {
		out, err := uc.apply(ctx, cmd, log)
		if err != nil && errors.Is(err, domain.ErrConcurrentModification) && attempt < attempts {
			log.WithField("attempt", attempt).Debug("video changed while reconciling, reloading")
			continue
		}
		return out, err
	}
}

func (uc *UpdateMediaStatusUseCase) apply(ctx context.Context, cmd UpdateMediaStatusCommand, log logrus.FieldLogger) (*UpdateMediaStatusOutput, error) {
	video, err := uc.Videos.FindByID(ctx, cmd.VideoID)
	if errors.Is(err, domain.ErrVideoNotFound) {
		log.Warn("encoder result for unknown video ignored")
		return &UpdateMediaStatusOutput{Reason: "video not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	slot, ok := video.FindAudioVideoSlot(cmd.ResourceID)
	if !ok {
		log.Info("encoder result matches no media of the video, ignored")
		return &UpdateMediaStatusOutput{Reason: "no matching media"}, nil
	}
	if cmd.Status == domain.MediaStatusPending {
		return &UpdateMediaStatusOutput{MediaType: slot, Reason: "pending status"}, nil
	}

	if err := video.ApplyMediaStatus(slot, cmd.Status, encodedLocation(cmd)); err != nil {
		return nil, err
	}
	if err := uc.Videos.Save(ctx, video); err != nil {
		return nil, fmt.Errorf("failed to save %s status of video %s: %w", slot, video.ID(), err)
	}

	log.WithField("media_type", slot).Info("media status updated")
	return &UpdateMediaStatusOutput{Applied: true, MediaType: slot}, nil
}

func encodedLocation(cmd UpdateMediaStatusCommand) string {
	if cmd.Status != domain.MediaStatusCompleted || cmd.Folder == "" {
		return ""
	}
	return cmd.Folder + "/" + cmd.Filename
}

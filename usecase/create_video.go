// usecase/create_video.go
package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vitovidale/video-catalog-service/domain"
)

// VideoInput holds the descriptive fields shared by create and update.
type VideoInput struct {
	Title            string
	Description      string
	LaunchedAt       int
	Duration         float64
	ReleaseStatus    string
	PublishingStatus string
	Rating           string
	Categories       []string
	Genres           []string
	CastMembers      []string
}

func (in VideoInput) builder() domain.VideoBuilder {
	return domain.VideoBuilder{
		Title:            in.Title,
		Description:      in.Description,
		LaunchedAt:       in.LaunchedAt,
		Duration:         in.Duration,
		ReleaseStatus:    domain.ReleaseStatus(in.ReleaseStatus),
		PublishingStatus: domain.PublishingStatus(in.PublishingStatus),
		Rating:           domain.Rating(in.Rating),
		Categories:       toIDs[domain.CategoryID](in.Categories),
		Genres:           toIDs[domain.GenreID](in.Genres),
		CastMembers:      toIDs[domain.CastMemberID](in.CastMembers),
	}
}

type CreateVideoInput struct {
	VideoInput
	Resources []domain.VideoResource
}

type CreateVideoOutput struct {
	ID domain.VideoID
}

type CreateVideoUseCase struct {
	Videos     domain.VideoGateway
	Media      domain.MediaResourceGateway
	References References
	Logger     logrus.FieldLogger
}

// Execute validates references and fields together, stores any initial
// media, then persists the video once. Blobs already written are cleared
// when a later step fails.
func (uc *CreateVideoUseCase) Execute(ctx context.Context, input CreateVideoInput) (*CreateVideoOutput, error) {
	b := input.builder()

	n := domain.NewNotification()
	if err := uc.References.Validate(ctx, n, b.Categories, b.Genres, b.CastMembers); err != nil {
		return nil, err
	}
	video, err := domain.NewVideo(b)
	n.Append(err)
	validateResources(n, input.Resources)
	if err := n.Err("could not create aggregate Video"); err != nil {
		return nil, err
	}

	log := uc.Logger.WithField("video_id", video.ID())
	if len(input.Resources) > 0 {
		if err := attachResources(ctx, uc.Media, video, input.Resources); err != nil {
			uc.clearResources(ctx, video.ID(), log)
			return nil, fmt.Errorf("an error on create video was observed [videoId:%s]: %w", video.ID(), err)
		}
	}

	if err := uc.Videos.Save(ctx, video); err != nil {
		if video.Version() == 0 && len(input.Resources) > 0 {
			uc.clearResources(ctx, video.ID(), log)
		}
		return nil, fmt.Errorf("failed to save video %s: %w", video.ID(), err)
	}

	log.WithField("media_count", len(input.Resources)).Info("video created")
	return &CreateVideoOutput{ID: video.ID()}, nil
}

func (uc *CreateVideoUseCase) clearResources(ctx context.Context, id domain.VideoID, log logrus.FieldLogger) {
	if err := uc.Media.ClearResources(ctx, id); err != nil {
		log.WithError(err).Error("failed to clear resources of a video that was not created")
	}
}

// validateResources records the problems that must stop a resource before
// any bytes are stored.
func validateResources(n *domain.Notification, resources []domain.VideoResource) {
	for _, r := range resources {
		if !r.Type.Valid() {
			n.AppendMessage(fmt.Sprintf("unknown media type %q", r.Type))
		}
		if len(r.Resource.Content) == 0 {
			n.AppendMessage(fmt.Sprintf("'%s' media should not be empty", r.Type))
		}
	}
}

// attachResources stores each resource and attaches the resulting media.
func attachResources(ctx context.Context, media domain.MediaResourceGateway, video *domain.Video, resources []domain.VideoResource) error {
	for _, r := range resources {
		var (
			m   domain.Media
			err error
		)
		if r.Type.Transcodable() {
			m, err = media.StoreAudioVideo(ctx, video.ID(), r)
		} else {
			m, err = media.StoreImage(ctx, video.ID(), r)
		}
		if err != nil {
			return fmt.Errorf("failed to store %s media: %w", r.Type, err)
		}
		if err := video.AttachMedia(r.Type, m); err != nil {
			return err
		}
	}
	return nil
}

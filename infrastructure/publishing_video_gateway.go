// infrastructure/publishing_video_gateway.go
package infrastructure

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vitovidale/video-catalog-service/domain"
)

// PublishingVideoGateway persists through Videos and, only once the write has
// succeeded, publishes the events the aggregate accumulated. Events that
// could not be published stay pending on the aggregate.
type PublishingVideoGateway struct {
	Videos    domain.VideoGateway
	Publisher domain.EventPublisher
	Logger    logrus.FieldLogger
	Metrics   *Metrics
}

func NewPublishingVideoGateway(videos domain.VideoGateway, publisher domain.EventPublisher, logger logrus.FieldLogger, metrics *Metrics) *PublishingVideoGateway {
	return &PublishingVideoGateway{Videos: videos, Publisher: publisher, Logger: logger, Metrics: metrics}
}

func (g *PublishingVideoGateway) Save(ctx context.Context, video *domain.Video) error {
	if err := g.Videos.Save(ctx, video); err != nil {
		return err
	}

	events := video.PullEvents()
	for i, event := range events {
		if err := g.Publisher.Publish(ctx, event); err != nil {
			g.Metrics.eventPublished(event.EventType(), "failed")
			for _, rest := range events[i:] {
				video.RecordEvent(rest)
			}
			g.Logger.WithFields(logrus.Fields{
				"video_id":   video.ID(),
				"event_type": event.EventType(),
				"pending":    len(events) - i,
			}).WithError(err).Error("video saved but its events could not be published")
			return fmt.Errorf("failed to publish %s for video %s: %w", event.EventType(), video.ID(), err)
		}
		g.Metrics.eventPublished(event.EventType(), "published")
		g.Logger.WithFields(logrus.Fields{
			"video_id":   video.ID(),
			"event_type": event.EventType(),
		}).Debug("event published")
	}
	return nil
}

func (g *PublishingVideoGateway) FindByID(ctx context.Context, id domain.VideoID) (*domain.Video, error) {
	return g.Videos.FindByID(ctx, id)
}

func (g *PublishingVideoGateway) DeleteByID(ctx context.Context, id domain.VideoID) error {
	return g.Videos.DeleteByID(ctx, id)
}

var _ domain.VideoGateway = (*PublishingVideoGateway)(nil)

// domain/events.go
package domain

import "time"

const EventMediaCreated = "video.media.created"

type DomainEvent interface {
	EventType() string
	OccurredOn() time.Time
}

// MediaCreated announces raw transcodable media waiting for the encoder.
// Only ResourceID and FilePath travel on the wire.
type MediaCreated struct {
	ResourceID string `json:"resource_id"`
	FilePath   string `json:"file_path"`
	occurredOn time.Time
}

func NewMediaCreated(resourceID, filePath string) MediaCreated {
	return MediaCreated{
		ResourceID: resourceID,
		FilePath:   filePath,
		occurredOn: time.Now().UTC(),
	}
}

func (e MediaCreated) EventType() string     { return EventMediaCreated }
func (e MediaCreated) OccurredOn() time.Time { return e.occurredOn }

// domain/interfaces.go
package domain

import "context"

// VideoGateway persists the Video aggregate. Save inserts when Version is 0
// and otherwise updates only if the stored version still matches, returning
// ErrConcurrentModification when it does not. FindByID returns
// ErrVideoNotFound for unknown ids.
type VideoGateway interface {
	Save(ctx context.Context, video *Video) error
	FindByID(ctx context.Context, id VideoID) (*Video, error)
	DeleteByID(ctx context.Context, id VideoID) error
}

// ReferenceChecker returns the subset of ids that exist.
type ReferenceChecker interface {
	ExistsByIDs(ctx context.Context, ids []string) ([]string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// StorageService is a flat blob store addressed by path.
type StorageService interface {
	Store(ctx context.Context, path string, resource Resource) error
	Get(ctx context.Context, path string) (*Resource, error)
	List(ctx context.Context, prefix string) ([]string, error)
	DeleteAll(ctx context.Context, paths []string) error
}

// MediaResourceGateway stores media of a video at paths derived from the
// video id and the media type.
type MediaResourceGateway interface {
	StoreAudioVideo(ctx context.Context, id VideoID, resource VideoResource) (*AudioVideoMedia, error)
	StoreImage(ctx context.Context, id VideoID, resource VideoResource) (*ImageMedia, error)
	GetResource(ctx context.Context, id VideoID, mediaType VideoMediaType) (*Resource, error)
	ClearResources(ctx context.Context, id VideoID) error
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/vitovidale/video-catalog-service/domain"
)

func nullLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// memoryVideos stores snapshots and enforces the version check of Save.
type memoryVideos struct {
	mu        sync.Mutex
	rows      map[domain.VideoID]domain.VideoSnapshot
	saves     int
	saveErr   error
	conflicts int
	lastSaved *domain.Video
	deleted   []domain.VideoID
}

func newMemoryVideos(videos ...*domain.Video) *memoryVideos {
	m := &memoryVideos{rows: make(map[domain.VideoID]domain.VideoSnapshot)}
	for _, v := range videos {
		if err := m.Save(context.Background(), v); err != nil {
			panic(err)
		}
	}
	m.saves = 0
	return m
}

func (m *memoryVideos) Save(ctx context.Context, v *domain.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	if m.conflicts > 0 {
		m.conflicts--
		return fmt.Errorf("injected: %w", domain.ErrConcurrentModification)
	}
	stored, exists := m.rows[v.ID()]
	switch {
	case v.Version() == 0 && exists:
		return errors.New("duplicate video")
	case v.Version() != 0 && (!exists || stored.Version != v.Version()):
		return domain.ErrConcurrentModification
	}
	v.SetVersion(v.Version() + 1)
	m.rows[v.ID()] = v.Snapshot()
	m.saves++
	m.lastSaved = v
	return nil
}

func (m *memoryVideos) FindByID(ctx context.Context, id domain.VideoID) (*domain.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("video %s: %w", id, domain.ErrVideoNotFound)
	}
	return domain.RestoreVideo(s), nil
}

func (m *memoryVideos) DeleteByID(ctx context.Context, id domain.VideoID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memoryVideos) get(id domain.VideoID) *domain.Video {
	v, err := m.FindByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return v
}

type fakeChecker struct {
	existing map[string]bool
	err      error
	calls    int
}

func checkerOf(ids ...string) *fakeChecker {
	c := &fakeChecker{existing: make(map[string]bool)}
	for _, id := range ids {
		c.existing[id] = true
	}
	return c
}

func (c *fakeChecker) ExistsByIDs(ctx context.Context, ids []string) ([]string, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	var found []string
	for _, id := range ids {
		if c.existing[id] {
			found = append(found, id)
		}
	}
	return found, nil
}

// fakeMedia mimics the path derivation of the real gateway.
type fakeMedia struct {
	blobs    map[string]domain.Resource
	storeErr error
	cleared  []domain.VideoID
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{blobs: make(map[string]domain.Resource)}
}

func (f *fakeMedia) path(id domain.VideoID, t domain.VideoMediaType) string {
	return "videoId-" + id.String() + "/type-" + t.String()
}

func (f *fakeMedia) StoreAudioVideo(ctx context.Context, id domain.VideoID, r domain.VideoResource) (*domain.AudioVideoMedia, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	p := f.path(id, r.Type)
	f.blobs[p] = r.Resource
	return domain.NewAudioVideoMedia(r.Resource.Checksum, r.Resource.Name, p), nil
}

func (f *fakeMedia) StoreImage(ctx context.Context, id domain.VideoID, r domain.VideoResource) (*domain.ImageMedia, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	p := f.path(id, r.Type)
	f.blobs[p] = r.Resource
	return domain.NewImageMedia(r.Resource.Checksum, r.Resource.Name, p), nil
}

func (f *fakeMedia) GetResource(ctx context.Context, id domain.VideoID, t domain.VideoMediaType) (*domain.Resource, error) {
	r, ok := f.blobs[f.path(id, t)]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return &r, nil
}

func (f *fakeMedia) ClearResources(ctx context.Context, id domain.VideoID) error {
	f.cleared = append(f.cleared, id)
	prefix := "videoId-" + id.String() + "/"
	for p := range f.blobs {
		if len(p) >= len(prefix) && p[:len(prefix)] == prefix {
			delete(f.blobs, p)
		}
	}
	return nil
}

func videoInput() VideoInput {
	return VideoInput{
		Title:       "Microservices in practice",
		Description: "From monolith to services",
		LaunchedAt:  2023,
		Duration:    90,
		Rating:      "14",
		Categories:  []string{"cat-1"},
		Genres:      []string{"gen-1"},
		CastMembers: []string{"cast-1"},
	}
}

func existingVideo() *domain.Video {
	v, err := domain.NewVideo(videoInput().builder())
	if err != nil {
		panic(err)
	}
	return v
}

func resource(t domain.VideoMediaType, content string) domain.VideoResource {
	return domain.VideoResource{
		Type:     t,
		Resource: domain.NewResource([]byte(content), "application/octet-stream", content),
	}
}

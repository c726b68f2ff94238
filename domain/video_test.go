package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBuilder() VideoBuilder {
	return VideoBuilder{
		Title:            "System Design Interviews",
		Description:      "A walkthrough of common system design questions",
		LaunchedAt:       2022,
		Duration:         120.10,
		ReleaseStatus:    Released,
		PublishingStatus: NotPublished,
		Rating:           RatingL,
		Categories:       []CategoryID{"c2", "c1", "c1"},
		Genres:           []GenreID{"g1"},
		CastMembers:      []CastMemberID{"m1"},
	}
}

func newVideo(t *testing.T) *Video {
	t.Helper()
	v, err := NewVideo(validBuilder())
	require.NoError(t, err)
	return v
}

func TestNewVideo(t *testing.T) {
	v := newVideo(t)

	assert.NotEmpty(t, v.ID())
	assert.Len(t, v.ID().String(), 32)
	assert.Equal(t, v.CreatedAt(), v.UpdatedAt())
	assert.Equal(t, "System Design Interviews", v.Title())
	assert.Equal(t, []CategoryID{"c1", "c2"}, v.Categories())
	assert.Equal(t, Released, v.ReleaseStatus())
	assert.Equal(t, int64(0), v.Version())
	assert.Empty(t, v.PendingEvents())
	assert.Empty(t, v.Medias())

	other := newVideo(t)
	assert.NotEqual(t, v.ID(), other.ID())
}

func TestNewVideoDefaultsStatuses(t *testing.T) {
	b := validBuilder()
	b.ReleaseStatus = ""
	b.PublishingStatus = ""

	v, err := NewVideo(b)
	require.NoError(t, err)
	assert.Equal(t, NotReleased, v.ReleaseStatus())
	assert.Equal(t, NotPublished, v.PublishingStatus())
}

func TestNewVideoReportsEveryViolation(t *testing.T) {
	b := VideoBuilder{
		Title:       " ",
		Description: strings.Repeat("a", 4001),
		Duration:    -1,
		Rating:      "PG",
	}

	v, err := NewVideo(b)
	assert.Nil(t, v)
	require.ErrorIs(t, err, ErrValidationFailed)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []Error{
		{Message: "'title' should not be empty"},
		{Message: "'description' must be between 1 and 4000 characters"},
		{Message: "'launchedAt' should not be null"},
		{Message: "'duration' should not be negative"},
		{Message: `'rating' is invalid: "PG"`},
	}, verr.Errors)
}

func TestNewVideoRequiresRating(t *testing.T) {
	b := validBuilder()
	b.Rating = ""

	_, err := NewVideo(b)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "'rating' should not be null", verr.Errors[0].Message)
}

func TestNewVideoFieldRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *VideoBuilder)
		message string
	}{
		{"title counts runes", func(b *VideoBuilder) { b.Title = strings.Repeat("é", 256) }, "'title' must be between 1 and 255 characters"},
		{"empty description", func(b *VideoBuilder) { b.Description = "  " }, "'description' should not be empty"},
		{"unknown release status", func(b *VideoBuilder) { b.ReleaseStatus = "SOON" }, `'releaseStatus' is invalid: "SOON"`},
		{"unknown publishing status", func(b *VideoBuilder) { b.PublishingStatus = "DRAFT" }, `'publishingStatus' is invalid: "DRAFT"`},
		{"negative launch year", func(b *VideoBuilder) { b.LaunchedAt = -1 }, "'launchedAt' should not be null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBuilder()
			tt.mutate(&b)

			_, err := NewVideo(b)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, []Error{{Message: tt.message}}, verr.Errors)
		})
	}

	b := validBuilder()
	b.Title = strings.Repeat("é", 255)
	_, err := NewVideo(b)
	assert.NoError(t, err)
}

func TestUpdateVideo(t *testing.T) {
	v := newVideo(t)
	createdAt := v.CreatedAt()
	previous := v.UpdatedAt()

	b := validBuilder()
	b.Title = "New title"
	b.Categories = []CategoryID{"c3"}
	b.Genres = nil
	require.NoError(t, v.Update(b))

	assert.Equal(t, "New title", v.Title())
	assert.Equal(t, []CategoryID{"c3"}, v.Categories())
	assert.Empty(t, v.Genres())
	assert.Equal(t, createdAt, v.CreatedAt())
	assert.True(t, v.UpdatedAt().After(previous))
}

func TestUpdateVideoAlwaysAdvancesUpdatedAt(t *testing.T) {
	v := newVideo(t)
	for i := 0; i < 50; i++ {
		previous := v.UpdatedAt()
		require.NoError(t, v.Update(validBuilder()))
		require.True(t, v.UpdatedAt().After(previous))
	}
	assert.True(t, !v.UpdatedAt().Before(v.CreatedAt()))
}

func TestUpdateVideoWithInvalidFieldsLeavesVideoUntouched(t *testing.T) {
	v := newVideo(t)
	before := v.Snapshot()

	b := validBuilder()
	b.Title = ""
	err := v.Update(b)

	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, before, v.Snapshot())
}

func TestAttachAudioVideoMediaRegistersEvent(t *testing.T) {
	for _, slot := range []VideoMediaType{MediaTypeVideo, MediaTypeTrailer} {
		t.Run(slot.String(), func(t *testing.T) {
			v := newVideo(t)
			previous := v.UpdatedAt()
			media := NewAudioVideoMedia("abc", "video.mp4", "videoId-1/type-"+slot.String())

			require.NoError(t, v.AttachMedia(slot, media))

			assert.Same(t, media, v.AudioVideo(slot))
			assert.True(t, v.UpdatedAt().After(previous))
			events := v.PendingEvents()
			require.Len(t, events, 1)
			created, ok := events[0].(MediaCreated)
			require.True(t, ok)
			assert.Equal(t, media.ID(), created.ResourceID)
			assert.Equal(t, media.RawLocation(), created.FilePath)
			assert.Equal(t, EventMediaCreated, created.EventType())
			assert.False(t, created.OccurredOn().IsZero())
		})
	}
}

func TestAttachImageMediaRegistersNoEvent(t *testing.T) {
	v := newVideo(t)
	for _, slot := range []VideoMediaType{MediaTypeBanner, MediaTypeThumbnail, MediaTypeThumbnailHalf} {
		require.NoError(t, v.AttachMedia(slot, NewImageMedia("abc", "image.png", "videoId-1/type-"+slot.String())))
	}
	assert.Empty(t, v.PendingEvents())
	assert.Len(t, v.Medias(), 3)
	assert.Equal(t, "image.png", v.Image(MediaTypeBanner).Name())
}

func TestEventsAccumulateUntilPulled(t *testing.T) {
	v := newVideo(t)
	require.NoError(t, v.AttachMedia(MediaTypeVideo, NewAudioVideoMedia("a", "v.mp4", "p/v")))
	require.NoError(t, v.AttachMedia(MediaTypeBanner, NewImageMedia("b", "b.png", "p/b")))
	require.NoError(t, v.AttachMedia(MediaTypeTrailer, NewAudioVideoMedia("c", "t.mp4", "p/t")))

	events := v.PullEvents()
	assert.Len(t, events, 2)
	assert.Empty(t, v.PullEvents())
}

func TestAttachMediaReplacesSlot(t *testing.T) {
	v := newVideo(t)
	first := NewAudioVideoMedia("a", "v1.mp4", "p/v")
	second := NewAudioVideoMedia("b", "v2.mp4", "p/v")
	require.NoError(t, v.AttachMedia(MediaTypeVideo, first))
	require.NoError(t, v.AttachMedia(MediaTypeVideo, second))

	assert.Equal(t, second.ID(), v.AudioVideo(MediaTypeVideo).ID())
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestAttachMediaRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		slot  VideoMediaType
		media Media
	}{
		{name: "imageInVideoSlot", slot: MediaTypeVideo, media: NewImageMedia("a", "b", "c")},
		{name: "videoInBannerSlot", slot: MediaTypeBanner, media: NewAudioVideoMedia("a", "b", "c")},
		{name: "unknownSlot", slot: "POSTER", media: NewImageMedia("a", "b", "c")},
		{name: "nilMedia", slot: MediaTypeThumbnail, media: nil},
		{name: "typedNilMedia", slot: MediaTypeVideo, media: (*AudioVideoMedia)(nil)},
		{name: "emptyChecksum", slot: MediaTypeTrailer, media: NewAudioVideoMedia("", "b", "c")},
		{name: "emptyLocation", slot: MediaTypeBanner, media: NewImageMedia("a", "b", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVideo(t)
			before := v.Snapshot()

			err := v.AttachMedia(tt.slot, tt.media)

			require.ErrorIs(t, err, ErrValidationFailed)
			assert.Equal(t, before, v.Snapshot())
			assert.Empty(t, v.PendingEvents())
		})
	}
}

func TestAttachNonPendingMediaRegistersNoEvent(t *testing.T) {
	v := newVideo(t)
	done := NewAudioVideoMedia("a", "v.mp4", "p/v").Completed("enc/v")

	require.NoError(t, v.AttachMedia(MediaTypeVideo, done))
	assert.Empty(t, v.PendingEvents())
}

func TestApplyMediaStatus(t *testing.T) {
	v := newVideo(t)
	media := NewAudioVideoMedia("a", "v.mp4", "videoId-1/type-VIDEO")
	require.NoError(t, v.AttachMedia(MediaTypeVideo, media))
	v.PullEvents()

	require.NoError(t, v.ApplyMediaStatus(MediaTypeVideo, MediaStatusProcessing, ""))
	got := v.AudioVideo(MediaTypeVideo)
	assert.Equal(t, MediaStatusProcessing, got.Status())
	assert.Empty(t, got.EncodedLocation())
	assert.Equal(t, media.ID(), got.ID())

	require.NoError(t, v.ApplyMediaStatus(MediaTypeVideo, MediaStatusCompleted, "out/videoId-1/type-VIDEO"))
	got = v.AudioVideo(MediaTypeVideo)
	assert.Equal(t, MediaStatusCompleted, got.Status())
	assert.Equal(t, "out/videoId-1/type-VIDEO", got.EncodedLocation())
	assert.Equal(t, media.RawLocation(), got.RawLocation())

	require.NoError(t, v.ApplyMediaStatus(MediaTypeVideo, MediaStatusError, ""))
	assert.Equal(t, MediaStatusError, v.AudioVideo(MediaTypeVideo).Status())
	assert.Empty(t, v.AudioVideo(MediaTypeVideo).EncodedLocation())

	assert.Empty(t, v.PendingEvents())
	assert.Equal(t, MediaStatusPending, media.Status(), "value objects are not mutated in place")
}

func TestApplyMediaStatusOnEmptySlot(t *testing.T) {
	v := newVideo(t)
	err := v.ApplyMediaStatus(MediaTypeTrailer, MediaStatusCompleted, "x")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestFindAudioVideoSlot(t *testing.T) {
	v := newVideo(t)
	video := NewAudioVideoMedia("a", "v.mp4", "p/v")
	trailer := NewAudioVideoMedia("b", "t.mp4", "p/t")
	require.NoError(t, v.AttachMedia(MediaTypeVideo, video))
	require.NoError(t, v.AttachMedia(MediaTypeTrailer, trailer))

	slot, ok := v.FindAudioVideoSlot(trailer.ID())
	assert.True(t, ok)
	assert.Equal(t, MediaTypeTrailer, slot)

	slot, ok = v.FindAudioVideoSlot(video.ID())
	assert.True(t, ok)
	assert.Equal(t, MediaTypeVideo, slot)

	_, ok = v.FindAudioVideoSlot("unknown")
	assert.False(t, ok)
}

func TestRestoreVideoRoundTripsSnapshot(t *testing.T) {
	v := newVideo(t)
	require.NoError(t, v.AttachMedia(MediaTypeVideo, NewAudioVideoMedia("a", "v.mp4", "p/v")))
	v.SetVersion(4)

	restored := RestoreVideo(v.Snapshot())

	assert.Equal(t, v.Snapshot(), restored.Snapshot())
	assert.Empty(t, restored.PendingEvents())

	n := NewNotification()
	restored.Validate(n)
	assert.False(t, n.HasErrors())
}

func TestParseMediaType(t *testing.T) {
	mt, ok := ParseMediaType("thumbnail_half")
	assert.True(t, ok)
	assert.Equal(t, MediaTypeThumbnailHalf, mt)

	_, ok = ParseMediaType("poster")
	assert.False(t, ok)
}

func TestNewResourceComputesChecksum(t *testing.T) {
	r := NewResource([]byte("hello"), "text/plain", "hello.txt")
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", r.Checksum)
	assert.Equal(t, Checksum([]byte("hello")), r.Checksum)
}

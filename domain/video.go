// domain/video.go
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type (
	VideoID      string
	CategoryID   string
	GenreID      string
	CastMemberID string
)

// NewIdentifier returns a random 32 character lowercase hex id.
func NewIdentifier() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (id VideoID) String() string { return string(id) }

type Rating string

const (
	RatingER    Rating = "ER"
	RatingL     Rating = "L"
	RatingAge10 Rating = "10"
	RatingAge12 Rating = "12"
	RatingAge14 Rating = "14"
	RatingAge16 Rating = "16"
	RatingAge18 Rating = "18"
)

func AllRatings() []Rating {
	return []Rating{RatingER, RatingL, RatingAge10, RatingAge12, RatingAge14, RatingAge16, RatingAge18}
}

func (r Rating) Valid() bool {
	for _, v := range AllRatings() {
		if v == r {
			return true
		}
	}
	return false
}

type ReleaseStatus string

const (
	Released    ReleaseStatus = "RELEASED"
	NotReleased ReleaseStatus = "NOT_RELEASED"
)

type PublishingStatus string

const (
	Published    PublishingStatus = "PUBLISHED"
	NotPublished PublishingStatus = "NOT_PUBLISHED"
)

// VideoBuilder carries the descriptive fields accepted by NewVideo and Update.
// Empty release and publishing statuses default to the NOT_ variants.
type VideoBuilder struct {
	Title            string           `json:"title" validate:"required,max=255"`
	Description      string           `json:"description" validate:"required,max=4000"`
	LaunchedAt       int              `json:"launchedAt" validate:"gt=0"`
	Duration         float64          `json:"duration" validate:"gte=0"`
	Rating           Rating           `json:"rating" validate:"required,oneof=ER L 10 12 14 16 18"`
	ReleaseStatus    ReleaseStatus    `json:"releaseStatus" validate:"oneof=RELEASED NOT_RELEASED"`
	PublishingStatus PublishingStatus `json:"publishingStatus" validate:"oneof=PUBLISHED NOT_PUBLISHED"`
	Categories       []CategoryID     `json:"categories"`
	Genres           []GenreID        `json:"genres"`
	CastMembers      []CastMemberID   `json:"castMembers"`
}

// Video is the aggregate root of the catalog. Media slots are keyed by
// VideoMediaType; domain events raised by mutations stay pending until
// drained with PullEvents after persistence.
type Video struct {
	id               VideoID
	title            string
	description      string
	launchedAt       int
	duration         float64
	releaseStatus    ReleaseStatus
	publishingStatus PublishingStatus
	rating           Rating
	categories       []CategoryID
	genres           []GenreID
	castMembers      []CastMemberID
	medias           map[VideoMediaType]Media
	createdAt        time.Time
	updatedAt        time.Time
	version          int64
	events           []DomainEvent
}

// NewVideo validates b and returns a fresh video. No event is raised.
func NewVideo(b VideoBuilder) (*Video, error) {
	b = b.normalized()
	n := NewNotification()
	b.validate(n)
	if err := n.Err("could not create aggregate Video"); err != nil {
		return nil, err
	}

	now := clock()
	v := &Video{
		id:        VideoID(NewIdentifier()),
		medias:    make(map[VideoMediaType]Media),
		createdAt: now,
		updatedAt: now,
	}
	v.apply(b)
	return v, nil
}

// Update replaces the descriptive fields and the reference sets. On a
// validation failure the video is left untouched.
func (v *Video) Update(b VideoBuilder) error {
	b = b.normalized()
	n := NewNotification()
	b.validate(n)
	if err := n.Err("could not update aggregate Video"); err != nil {
		return err
	}
	v.apply(b)
	v.touch()
	return nil
}

// Validate re-checks the current state of the aggregate.
func (v *Video) Validate(n *Notification) {
	v.builder().validate(n)
	for slot, m := range v.medias {
		validateSlot(n, slot, m)
	}
}

// AttachMedia replaces the media of slot. PENDING media in a transcodable
// slot raises MediaCreated.
func (v *Video) AttachMedia(slot VideoMediaType, media Media) error {
	n := NewNotification()
	validateSlot(n, slot, media)
	if err := n.Err(fmt.Sprintf("could not attach %s media", slot)); err != nil {
		return err
	}

	v.medias[slot] = media
	v.touch()
	if av, ok := media.(*AudioVideoMedia); ok && av.IsPendingEncode() {
		v.RecordEvent(NewMediaCreated(av.ID(), av.RawLocation()))
	}
	return nil
}

// ApplyMediaStatus moves the media in a transcodable slot to status. It never
// raises events. PENDING is ignored.
func (v *Video) ApplyMediaStatus(slot VideoMediaType, status MediaStatus, encodedLocation string) error {
	current := v.AudioVideo(slot)
	if current == nil {
		return fmt.Errorf("video %s has no %s media: %w", v.id, slot, ErrResourceNotFound)
	}

	var next *AudioVideoMedia
	switch status {
	case MediaStatusPending:
		return nil
	case MediaStatusProcessing:
		next = current.Processing()
	case MediaStatusCompleted:
		next = current.Completed(encodedLocation)
	case MediaStatusError:
		next = current.Failed()
	default:
		n := NewNotification().AppendMessage(fmt.Sprintf("'status' of media is invalid: %q", status))
		return n.Err("could not update media status")
	}
	v.medias[slot] = next
	v.touch()
	return nil
}

// FindAudioVideoSlot returns the transcodable slot whose media id equals resourceID.
func (v *Video) FindAudioVideoSlot(resourceID string) (VideoMediaType, bool) {
	for _, slot := range []VideoMediaType{MediaTypeVideo, MediaTypeTrailer} {
		if m := v.AudioVideo(slot); m != nil && m.ID() == resourceID {
			return slot, true
		}
	}
	return "", false
}

func (v *Video) Media(slot VideoMediaType) Media {
	return v.medias[slot]
}

func (v *Video) AudioVideo(slot VideoMediaType) *AudioVideoMedia {
	m, _ := v.medias[slot].(*AudioVideoMedia)
	return m
}

func (v *Video) Image(slot VideoMediaType) *ImageMedia {
	m, _ := v.medias[slot].(*ImageMedia)
	return m
}

// Medias returns a copy of the occupied slots.
func (v *Video) Medias() map[VideoMediaType]Media {
	out := make(map[VideoMediaType]Media, len(v.medias))
	for k, m := range v.medias {
		out[k] = m
	}
	return out
}

func (v *Video) RecordEvent(e DomainEvent) {
	v.events = append(v.events, e)
}

// PullEvents returns and clears the pending events.
func (v *Video) PullEvents() []DomainEvent {
	events := v.events
	v.events = nil
	return events
}

func (v *Video) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(v.events))
	copy(out, v.events)
	return out
}

func (v *Video) ID() VideoID                        { return v.id }
func (v *Video) Title() string                      { return v.title }
func (v *Video) Description() string                { return v.description }
func (v *Video) LaunchedAt() int                    { return v.launchedAt }
func (v *Video) Duration() float64                  { return v.duration }
func (v *Video) ReleaseStatus() ReleaseStatus       { return v.releaseStatus }
func (v *Video) PublishingStatus() PublishingStatus { return v.publishingStatus }
func (v *Video) Rating() Rating                     { return v.rating }
func (v *Video) CreatedAt() time.Time               { return v.createdAt }
func (v *Video) UpdatedAt() time.Time               { return v.updatedAt }
func (v *Video) Version() int64                     { return v.version }

// SetVersion is called by repositories after a successful write.
func (v *Video) SetVersion(version int64) { v.version = version }

func (v *Video) Categories() []CategoryID {
	return append([]CategoryID(nil), v.categories...)
}

func (v *Video) Genres() []GenreID {
	return append([]GenreID(nil), v.genres...)
}

func (v *Video) CastMembers() []CastMemberID {
	return append([]CastMemberID(nil), v.castMembers...)
}

// VideoSnapshot is the persisted form of a Video, used to rebuild it.
type VideoSnapshot struct {
	ID               VideoID
	Title            string
	Description      string
	LaunchedAt       int
	Duration         float64
	ReleaseStatus    ReleaseStatus
	PublishingStatus PublishingStatus
	Rating           Rating
	Categories       []CategoryID
	Genres           []GenreID
	CastMembers      []CastMemberID
	Medias           map[VideoMediaType]Media
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
}

// RestoreVideo rebuilds a video without validation or events.
func RestoreVideo(s VideoSnapshot) *Video {
	v := &Video{
		id:               s.ID,
		title:            s.Title,
		description:      s.Description,
		launchedAt:       s.LaunchedAt,
		duration:         s.Duration,
		releaseStatus:    s.ReleaseStatus,
		publishingStatus: s.PublishingStatus,
		rating:           s.Rating,
		categories:       idSet(s.Categories),
		genres:           idSet(s.Genres),
		castMembers:      idSet(s.CastMembers),
		medias:           make(map[VideoMediaType]Media, len(s.Medias)),
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
		version:          s.Version,
	}
	for k, m := range s.Medias {
		if m != nil {
			v.medias[k] = m
		}
	}
	return v
}

func (v *Video) Snapshot() VideoSnapshot {
	return VideoSnapshot{
		ID:               v.id,
		Title:            v.title,
		Description:      v.description,
		LaunchedAt:       v.launchedAt,
		Duration:         v.duration,
		ReleaseStatus:    v.releaseStatus,
		PublishingStatus: v.publishingStatus,
		Rating:           v.rating,
		Categories:       v.Categories(),
		Genres:           v.Genres(),
		CastMembers:      v.CastMembers(),
		Medias:           v.Medias(),
		CreatedAt:        v.createdAt,
		UpdatedAt:        v.updatedAt,
		Version:          v.version,
	}
}

func (v *Video) apply(b VideoBuilder) {
	v.title = b.Title
	v.description = b.Description
	v.launchedAt = b.LaunchedAt
	v.duration = b.Duration
	v.releaseStatus = b.ReleaseStatus
	v.publishingStatus = b.PublishingStatus
	v.rating = b.Rating
	v.categories = idSet(b.Categories)
	v.genres = idSet(b.Genres)
	v.castMembers = idSet(b.CastMembers)
}

func (v *Video) builder() VideoBuilder {
	return VideoBuilder{
		Title:            v.title,
		Description:      v.description,
		LaunchedAt:       v.launchedAt,
		Duration:         v.duration,
		ReleaseStatus:    v.releaseStatus,
		PublishingStatus: v.publishingStatus,
		Rating:           v.rating,
	}
}

// touch keeps updatedAt strictly increasing even when the clock has not
// advanced past the stored microsecond.
func (v *Video) touch() {
	now := clock()
	if !now.After(v.updatedAt) {
		now = v.updatedAt.Add(time.Microsecond)
	}
	v.updatedAt = now
}

func clock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (b VideoBuilder) normalized() VideoBuilder {
	b.Title = strings.TrimSpace(b.Title)
	b.Description = strings.TrimSpace(b.Description)
	if b.ReleaseStatus == "" {
		b.ReleaseStatus = NotReleased
	}
	if b.PublishingStatus == "" {
		b.PublishingStatus = NotPublished
	}
	return b
}

func (b VideoBuilder) validate(n *Notification) {
	err := fieldValidator.Struct(b)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		n.Append(err)
		return
	}
	for _, fe := range fieldErrs {
		n.AppendMessage(fieldMessage(fe))
	}
}

func validateSlot(n *Notification, slot VideoMediaType, media Media) {
	if !slot.Valid() {
		n.AppendMessage(fmt.Sprintf("unknown media type %q", slot))
		return
	}
	if media == nil {
		n.AppendMessage(fmt.Sprintf("'%s' media should not be null", slot))
		return
	}
	switch m := media.(type) {
	case *AudioVideoMedia:
		if m == nil || !slot.Transcodable() {
			n.AppendMessage(fmt.Sprintf("%s slot does not accept audio/video media", slot))
			return
		}
	case *ImageMedia:
		if m == nil || slot.Transcodable() {
			n.AppendMessage(fmt.Sprintf("%s slot does not accept image media", slot))
			return
		}
	default:
		n.AppendMessage(fmt.Sprintf("unsupported media %T", media))
		return
	}
	media.validate(n)
}

func idSet[T ~string](ids []T) []T {
	seen := make(map[T]struct{}, len(ids))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		id = T(strings.TrimSpace(string(id)))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

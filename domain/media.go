// domain/media.go
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// VideoMediaType names one of the five media slots of a Video.
type VideoMediaType string

const (
	MediaTypeVideo         VideoMediaType = "VIDEO"
	MediaTypeTrailer       VideoMediaType = "TRAILER"
	MediaTypeBanner        VideoMediaType = "BANNER"
	MediaTypeThumbnail     VideoMediaType = "THUMBNAIL"
	MediaTypeThumbnailHalf VideoMediaType = "THUMBNAIL_HALF"
)

func AllMediaTypes() []VideoMediaType {
	return []VideoMediaType{
		MediaTypeVideo, MediaTypeTrailer, MediaTypeBanner, MediaTypeThumbnail, MediaTypeThumbnailHalf,
	}
}

// ParseMediaType accepts the type name in any case.
func ParseMediaType(s string) (VideoMediaType, bool) {
	t := VideoMediaType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

func (t VideoMediaType) Valid() bool {
	for _, v := range AllMediaTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// Transcodable reports whether media in this slot is sent to the encoder.
func (t VideoMediaType) Transcodable() bool {
	return t == MediaTypeVideo || t == MediaTypeTrailer
}

func (t VideoMediaType) String() string { return string(t) }

// MediaStatus is the encoding state of an AudioVideoMedia.
type MediaStatus string

const (
	MediaStatusPending    MediaStatus = "PENDING"
	MediaStatusProcessing MediaStatus = "PROCESSING"
	MediaStatusCompleted  MediaStatus = "COMPLETED"
	MediaStatusError      MediaStatus = "ERROR"
)

func ParseMediaStatus(s string) (MediaStatus, bool) {
	st := MediaStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case MediaStatusPending, MediaStatusProcessing, MediaStatusCompleted, MediaStatusError:
		return st, true
	}
	return "", false
}

// Media is what a slot holds: either *AudioVideoMedia or *ImageMedia.
type Media interface {
	Checksum() string
	Name() string
	Location() string
	validate(n *Notification)
}

// AudioVideoMedia describes a transcodable asset. The value is immutable;
// status transitions return a new value with the same id.
type AudioVideoMedia struct {
	id              string
	checksum        string
	name            string
	rawLocation     string
	encodedLocation string
	status          MediaStatus
}

// NewAudioVideoMedia creates a PENDING media with a fresh id.
func NewAudioVideoMedia(checksum, name, rawLocation string) *AudioVideoMedia {
	return &AudioVideoMedia{
		id:          NewIdentifier(),
		checksum:    checksum,
		name:        name,
		rawLocation: rawLocation,
		status:      MediaStatusPending,
	}
}

// RestoreAudioVideoMedia rebuilds a media from persisted fields.
func RestoreAudioVideoMedia(id, checksum, name, rawLocation, encodedLocation string, status MediaStatus) *AudioVideoMedia {
	return &AudioVideoMedia{
		id:              id,
		checksum:        checksum,
		name:            name,
		rawLocation:     rawLocation,
		encodedLocation: encodedLocation,
		status:          status,
	}
}

func (m *AudioVideoMedia) ID() string              { return m.id }
func (m *AudioVideoMedia) Checksum() string        { return m.checksum }
func (m *AudioVideoMedia) Name() string            { return m.name }
func (m *AudioVideoMedia) RawLocation() string     { return m.rawLocation }
func (m *AudioVideoMedia) EncodedLocation() string { return m.encodedLocation }
func (m *AudioVideoMedia) Status() MediaStatus     { return m.status }
func (m *AudioVideoMedia) Location() string        { return m.rawLocation }

func (m *AudioVideoMedia) IsPendingEncode() bool {
	return m.status == MediaStatusPending
}

func (m *AudioVideoMedia) Processing() *AudioVideoMedia {
	return m.with(MediaStatusProcessing, "")
}

func (m *AudioVideoMedia) Completed(encodedLocation string) *AudioVideoMedia {
	return m.with(MediaStatusCompleted, encodedLocation)
}

func (m *AudioVideoMedia) Failed() *AudioVideoMedia {
	return m.with(MediaStatusError, "")
}

func (m *AudioVideoMedia) with(status MediaStatus, encodedLocation string) *AudioVideoMedia {
	c := *m
	c.status = status
	c.encodedLocation = encodedLocation
	return &c
}

func (m *AudioVideoMedia) validate(n *Notification) {
	if strings.TrimSpace(m.id) == "" {
		n.AppendMessage("'id' of media should not be empty")
	}
	validateMediaFields(n, m.checksum, m.name, m.rawLocation)
	if _, ok := ParseMediaStatus(string(m.status)); !ok {
		n.AppendMessage(fmt.Sprintf("'status' of media is invalid: %q", m.status))
	}
}

// ImageMedia describes a static asset. It has no processing step.
type ImageMedia struct {
	checksum string
	name     string
	location string
}

func NewImageMedia(checksum, name, location string) *ImageMedia {
	return &ImageMedia{checksum: checksum, name: name, location: location}
}

func (m *ImageMedia) Checksum() string { return m.checksum }
func (m *ImageMedia) Name() string     { return m.name }
func (m *ImageMedia) Location() string { return m.location }

func (m *ImageMedia) validate(n *Notification) {
	validateMediaFields(n, m.checksum, m.name, m.location)
}

func validateMediaFields(n *Notification, checksum, name, location string) {
	if strings.TrimSpace(checksum) == "" {
		n.AppendMessage("'checksum' of media should not be empty")
	}
	if strings.TrimSpace(name) == "" {
		n.AppendMessage("'name' of media should not be empty")
	}
	if strings.TrimSpace(location) == "" {
		n.AppendMessage("'location' of media should not be empty")
	}
}

// Resource is a blob of raw bytes plus the metadata stored alongside it.
type Resource struct {
	Checksum    string
	Content     []byte
	ContentType string
	Name        string
}

// NewResource computes the checksum from content.
func NewResource(content []byte, contentType, name string) Resource {
	return Resource{
		Checksum:    Checksum(content),
		Content:     content,
		ContentType: contentType,
		Name:        name,
	}
}

// Checksum is the hex SHA-256 of content.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// VideoResource is a Resource destined for one media slot.
type VideoResource struct {
	Type     VideoMediaType
	Resource Resource
}

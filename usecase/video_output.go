// usecase/video_output.go
package usecase

import (
	"time"

	"github.com/vitovidale/video-catalog-service/domain"
)

type AudioVideoMediaOutput struct {
	ID              string `json:"id"`
	Checksum        string `json:"checksum"`
	Name            string `json:"name"`
	RawLocation     string `json:"raw_location"`
	EncodedLocation string `json:"encoded_location"`
	Status          string `json:"status"`
}

type ImageMediaOutput struct {
	Checksum string `json:"checksum"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type VideoOutput struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	LaunchedAt       int                    `json:"year_launched"`
	Duration         float64                `json:"duration"`
	ReleaseStatus    string                 `json:"release_status"`
	PublishingStatus string                 `json:"publishing_status"`
	Rating           string                 `json:"rating"`
	Categories       []string               `json:"categories_id"`
	Genres           []string               `json:"genres_id"`
	CastMembers      []string               `json:"cast_members_id"`
	Video            *AudioVideoMediaOutput `json:"video,omitempty"`
	Trailer          *AudioVideoMediaOutput `json:"trailer,omitempty"`
	Banner           *ImageMediaOutput      `json:"banner,omitempty"`
	Thumbnail        *ImageMediaOutput      `json:"thumbnail,omitempty"`
	ThumbnailHalf    *ImageMediaOutput      `json:"thumbnail_half,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func NewVideoOutput(v *domain.Video) *VideoOutput {
	return &VideoOutput{
		ID:               v.ID().String(),
		Title:            v.Title(),
		Description:      v.Description(),
		LaunchedAt:       v.LaunchedAt(),
		Duration:         v.Duration(),
		ReleaseStatus:    string(v.ReleaseStatus()),
		PublishingStatus: string(v.PublishingStatus()),
		Rating:           string(v.Rating()),
		Categories:       uniqueStrings(v.Categories()),
		Genres:           uniqueStrings(v.Genres()),
		CastMembers:      uniqueStrings(v.CastMembers()),
		Video:            audioVideoOutput(v.AudioVideo(domain.MediaTypeVideo)),
		Trailer:          audioVideoOutput(v.AudioVideo(domain.MediaTypeTrailer)),
		Banner:           imageOutput(v.Image(domain.MediaTypeBanner)),
		Thumbnail:        imageOutput(v.Image(domain.MediaTypeThumbnail)),
		ThumbnailHalf:    imageOutput(v.Image(domain.MediaTypeThumbnailHalf)),
		CreatedAt:        v.CreatedAt(),
		UpdatedAt:        v.UpdatedAt(),
	}
}

func audioVideoOutput(m *domain.AudioVideoMedia) *AudioVideoMediaOutput {
	if m == nil {
		return nil
	}
	return &AudioVideoMediaOutput{
		ID:              m.ID(),
		Checksum:        m.Checksum(),
		Name:            m.Name(),
		RawLocation:     m.RawLocation(),
		EncodedLocation: m.EncodedLocation(),
		Status:          string(m.Status()),
	}
}

func imageOutput(m *domain.ImageMedia) *ImageMediaOutput {
	if m == nil {
		return nil
	}
	return &ImageMediaOutput{Checksum: m.Checksum(), Name: m.Name(), Location: m.Location()}
}

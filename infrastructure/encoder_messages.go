// infrastructure/encoder_messages.go
package infrastructure

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/vitovidale/video-catalog-service/domain"
	"github.com/vitovidale/video-catalog-service/usecase"
)

var videoIDPattern = regexp.MustCompile(`videoId-([^/]+)`)

type encoderMedia struct {
	EncodedVideoFolder string `json:"encoded_video_folder"`
	ResourceID         string `json:"resource_id"`
	FilePath           string `json:"file_path"`
}

// encoderResult covers both shapes the encoder posts back. A success carries
// "video"; a failure carries "message" and a non-empty error.
type encoderResult struct {
	JobID            string        `json:"job_id"`
	OutputBucketPath string        `json:"output_bucket_path"`
	Status           string        `json:"status"`
	Video            *encoderMedia `json:"video"`
	Message          *encoderMedia `json:"message"`
	Error            string        `json:"error"`
}

func (r encoderResult) failed() bool {
	return strings.EqualFold(r.Status, string(domain.MediaStatusError)) || r.Message != nil || r.Error != ""
}

// DecodeEncoderResult turns an encoder callback body into a status command.
// Malformed bodies return an error wrapping domain.ErrPoisonMessage.
func DecodeEncoderResult(body []byte) (usecase.UpdateMediaStatusCommand, error) {
	var r encoderResult
	if err := json.Unmarshal(body, &r); err != nil {
		return usecase.UpdateMediaStatusCommand{}, fmt.Errorf("invalid encoder result: %v: %w", err, domain.ErrPoisonMessage)
	}

	var (
		media  *encoderMedia
		status domain.MediaStatus
	)
	switch {
	case r.failed():
		media = r.Message
		if media == nil {
			media = r.Video
		}
		status = domain.MediaStatusError
	case strings.EqualFold(r.Status, string(domain.MediaStatusProcessing)):
		media, status = r.Video, domain.MediaStatusProcessing
	case r.Status == "" || strings.EqualFold(r.Status, string(domain.MediaStatusCompleted)):
		media, status = r.Video, domain.MediaStatusCompleted
	default:
		return usecase.UpdateMediaStatusCommand{}, fmt.Errorf("unknown encoder status %q: %w", r.Status, domain.ErrPoisonMessage)
	}
	if media == nil || media.ResourceID == "" {
		return usecase.UpdateMediaStatusCommand{}, fmt.Errorf("encoder result without resource id: %w", domain.ErrPoisonMessage)
	}

	videoID, err := ExtractVideoID(media.FilePath)
	if err != nil {
		return usecase.UpdateMediaStatusCommand{}, err
	}
	cmd := usecase.UpdateMediaStatusCommand{
		Status:     status,
		VideoID:    videoID,
		ResourceID: media.ResourceID,
		Filename:   media.FilePath,
	}
	if status == domain.MediaStatusCompleted {
		cmd.Folder = media.EncodedVideoFolder
	}
	return cmd, nil
}

// ExtractVideoID reads the video id out of a "videoId-{id}/type-{TYPE}" path.
func ExtractVideoID(filePath string) (domain.VideoID, error) {
	m := videoIDPattern.FindStringSubmatch(filePath)
	if m == nil {
		return "", fmt.Errorf("no video id in file path %q: %w", filePath, domain.ErrPoisonMessage)
	}
	return domain.VideoID(m[1]), nil
}

// infrastructure/gin_handlers.go
package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/vitovidale/video-catalog-service/domain"
	"github.com/vitovidale/video-catalog-service/usecase"
)

const (
	mediaFileField    = "media_file"
	videoMetadataForm = "metadata"
)

type VideoHandlers struct {
	CreateVideoUC *usecase.CreateVideoUseCase
	UpdateVideoUC *usecase.UpdateVideoUseCase
	GetVideoUC    *usecase.GetVideoUseCase
	DeleteVideoUC *usecase.DeleteVideoUseCase
	UploadMediaUC *usecase.UploadMediaUseCase
	GetMediaUC    *usecase.GetMediaUseCase
	Logger        logrus.FieldLogger
	Metrics       *Metrics
	// MaxUploadBytes caps multipart request bodies. Zero means no cap.
	MaxUploadBytes int64
}

// videoRequest is the body of create and update.
type videoRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	YearLaunched     int      `json:"year_launched"`
	Duration         float64  `json:"duration"`
	ReleaseStatus    string   `json:"release_status"`
	PublishingStatus string   `json:"publishing_status"`
	Rating           string   `json:"rating"`
	CategoriesID     []string `json:"categories_id"`
	GenresID         []string `json:"genres_id"`
	CastMembersID    []string `json:"cast_members_id"`
}

func (r videoRequest) input() usecase.VideoInput {
	return usecase.VideoInput{
		Title:            r.Title,
		Description:      r.Description,
		LaunchedAt:       r.YearLaunched,
		Duration:         r.Duration,
		ReleaseStatus:    r.ReleaseStatus,
		PublishingStatus: r.PublishingStatus,
		Rating:           r.Rating,
		Categories:       r.CategoriesID,
		Genres:           r.GenresID,
		CastMembers:      r.CastMembersID,
	}
}

// CreateVideoHandler accepts either a JSON body or a multipart form whose
// "metadata" field holds the JSON and whose file fields are named after the
// media type (video, trailer, banner, thumbnail, thumbnail_half).
func (h *VideoHandlers) CreateVideoHandler(c *gin.Context) {
	var (
		req       videoRequest
		resources []domain.VideoResource
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.limitBody(c)
		if _, err := c.MultipartForm(); err != nil {
			h.rejectUpload(c, err)
			return
		}
		if err := json.Unmarshal([]byte(c.PostForm(videoMetadataForm)), &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("invalid %s field: %v", videoMetadataForm, err)})
			return
		}
		var err error
		if resources, err = formResources(c); err != nil {
			h.rejectUpload(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	out, err := h.CreateVideoUC.Execute(c.Request.Context(), usecase.CreateVideoInput{
		VideoInput: req.input(),
		Resources:  resources,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": out.ID})
}

func (h *VideoHandlers) UpdateVideoHandler(c *gin.Context) {
	var req videoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	out, err := h.UpdateVideoUC.Execute(c.Request.Context(), usecase.UpdateVideoInput{
		ID:         domain.VideoID(c.Param("id")),
		VideoInput: req.input(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": out.ID})
}

func (h *VideoHandlers) GetVideoHandler(c *gin.Context) {
	out, err := h.GetVideoUC.Execute(c.Request.Context(), domain.VideoID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *VideoHandlers) DeleteVideoHandler(c *gin.Context) {
	if err := h.DeleteVideoUC.Execute(c.Request.Context(), domain.VideoID(c.Param("id"))); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *VideoHandlers) UploadMediaHandler(c *gin.Context) {
	mediaType := mediaTypeParam(c)
	h.limitBody(c)
	fileHeader, err := c.FormFile(mediaFileField)
	if err != nil {
		h.rejectUpload(c, fmt.Errorf("Failed to get %s file: %w", mediaFileField, err))
		return
	}
	r, err := readResource(mediaType, fileHeader)
	if err != nil {
		h.rejectUpload(c, err)
		return
	}

	out, err := h.UploadMediaUC.Execute(c.Request.Context(), usecase.UploadMediaInput{
		VideoID:   domain.VideoID(c.Param("id")),
		Resources: []domain.VideoResource{r},
	})
	label := mediaType.String()
	if !mediaType.Valid() {
		label = "unknown"
	}
	if err != nil {
		h.Metrics.mediaUpload(label, "failed")
		h.respondError(c, err)
		return
	}
	h.Metrics.mediaUpload(label, "stored")
	c.JSON(http.StatusCreated, gin.H{"video_id": out.VideoID, "media_types": out.MediaTypes})
}

func (h *VideoHandlers) GetMediaHandler(c *gin.Context) {
	out, err := h.GetMediaUC.Execute(c.Request.Context(), usecase.GetMediaInput{
		VideoID:   domain.VideoID(c.Param("id")),
		MediaType: mediaTypeParam(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	contentType := out.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Name))
	c.Header("ETag", strconv.Quote(out.Checksum))
	c.Data(http.StatusOK, contentType, out.Content)
}

// respondError maps use case errors onto status codes.
func (h *VideoHandlers) respondError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": verr.Message, "errors": verr.Errors})
	case errors.Is(err, domain.ErrVideoNotFound), errors.Is(err, domain.ErrResourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		h.Logger.WithError(err).WithField("route", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

func (h *VideoHandlers) limitBody(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
}

// rejectUpload answers 413 when the body went over MaxUploadBytes and 400
// for any other unreadable upload.
func (h *VideoHandlers) rejectUpload(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": fmt.Sprintf("upload exceeds the limit of %d bytes", tooLarge.Limit)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
}

func mediaTypeParam(c *gin.Context) domain.VideoMediaType {
	raw := c.Param("type")
	if t, ok := domain.ParseMediaType(raw); ok {
		return t
	}
	return domain.VideoMediaType(raw)
}

func formResources(c *gin.Context) ([]domain.VideoResource, error) {
	var resources []domain.VideoResource
	for _, t := range domain.AllMediaTypes() {
		fileHeader, err := c.FormFile(strings.ToLower(t.String()))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("Failed to get %s file: %w", strings.ToLower(t.String()), err)
		}
		r, err := readResource(t, fileHeader)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	return resources, nil
}

func readResource(t domain.VideoMediaType, fileHeader *multipart.FileHeader) (domain.VideoResource, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return domain.VideoResource{}, fmt.Errorf("Failed to open uploaded file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return domain.VideoResource{}, fmt.Errorf("Failed to read uploaded file: %w", err)
	}
	contentType := fileHeader.Header.Get("Content-Type")
	return domain.VideoResource{
		Type:     t,
		Resource: domain.NewResource(content, contentType, fileHeader.Filename),
	}, nil
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Broker is satisfied by *amqp.Connection and *RabbitMQEventPublisher.
type Broker interface {
	IsClosed() bool
}

type HealthHandler struct {
	DB     Pinger
	Broker Broker
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := h.DB.PingContext(ctx); err != nil {
		dbStatus = fmt.Sprintf("error: %v", err)
	}
	rabbitMQStatus := "connected"
	if h.Broker == nil || h.Broker.IsClosed() {
		rabbitMQStatus = "disconnected"
	}

	status, code := "UP", http.StatusOK
	if dbStatus != "connected" || rabbitMQStatus != "connected" {
		status, code = "DOWN", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":   status,
		"database": dbStatus,
		"rabbitmq": rabbitMQStatus,
	})
}

// requestLogger logs one line per request and feeds the HTTP metrics.
func requestLogger(logger logrus.FieldLogger, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		metrics.observeHTTP(c.Request.Method, route, strconv.Itoa(status), elapsed)

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"route":   route,
			"status":  status,
			"latency": elapsed.String(),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("request served")
		} else {
			entry.Debug("request served")
		}
	}
}

// NewRouter registers the API, the health check and the metrics endpoint.
func NewRouter(h *VideoHandlers, health *HealthHandler, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.Logger, h.Metrics))

	router.GET("/health", health.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Video Catalog Service is running!"})
	})

	videos := router.Group("/videos")
	{
		videos.POST("", h.CreateVideoHandler)
		videos.GET("/:id", h.GetVideoHandler)
		videos.PUT("/:id", h.UpdateVideoHandler)
		videos.DELETE("/:id", h.DeleteVideoHandler)
		videos.POST("/:id/medias/:type", h.UploadMediaHandler)
		videos.GET("/:id/medias/:type", h.GetMediaHandler)
	}
	return router
}

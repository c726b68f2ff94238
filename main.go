package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/vitovidale/video-catalog-service/config"
	"github.com/vitovidale/video-catalog-service/domain"
	"github.com/vitovidale/video-catalog-service/infrastructure"
	"github.com/vitovidale/video-catalog-service/logging"
	"github.com/vitovidale/video-catalog-service/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	base, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize logging")
	}
	defer logCloser.Close()
	logger := logging.Service(base)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("video catalog service stopped")
	}
}

func run(cfg *config.Config, logger *logrus.Entry) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDB(ctx, cfg.DB, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := infrastructure.EnsureSchema(ctx, db); err != nil {
		return err
	}

	topology := infrastructure.AMQPTopology{
		Exchange:          cfg.RabbitMQ.Exchange,
		CreatedQueue:      cfg.RabbitMQ.CreatedQueue,
		CreatedRoutingKey: cfg.RabbitMQ.CreatedRoutingKey,
		EncodedQueue:      cfg.RabbitMQ.EncodedQueue,
		EncodedRoutingKey: cfg.RabbitMQ.EncodedRoutingKey,
	}
	dialRabbitMQ := func(ctx context.Context) (*amqp.Connection, error) {
		return infrastructure.ConnectRabbitMQ(ctx, cfg.RabbitMQ.URL(), cfg.RabbitMQ.ConnectAttempts, cfg.RabbitMQ.ConnectDelay, logger)
	}
	publisher := infrastructure.NewRabbitMQEventPublisher(dialRabbitMQ, topology)
	defer publisher.Close()
	if err := publisher.Connect(ctx); err != nil {
		return err
	}

	storage, storageCloser, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer storageCloser.Close()
	media := infrastructure.NewMediaResourceGateway(storage, cfg.Storage.LocationPattern, cfg.Storage.FilenamePattern)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := infrastructure.NewMetrics(registry)

	videos := infrastructure.NewPublishingVideoGateway(infrastructure.NewPostgresVideoRepository(db), publisher, logger, metrics)
	references := usecase.References{
		Categories:  infrastructure.NewCategoryChecker(db),
		Genres:      infrastructure.NewGenreChecker(db),
		CastMembers: infrastructure.NewCastMemberChecker(db),
	}

	handlers := &infrastructure.VideoHandlers{
		CreateVideoUC: &usecase.CreateVideoUseCase{Videos: videos, Media: media, References: references, Logger: logger},
		UpdateVideoUC: &usecase.UpdateVideoUseCase{Videos: videos, References: references, Logger: logger},
		GetVideoUC:    &usecase.GetVideoUseCase{Videos: videos},
		DeleteVideoUC: &usecase.DeleteVideoUseCase{Videos: videos, Media: media, Logger: logger},
		UploadMediaUC: &usecase.UploadMediaUseCase{Videos: videos, Media: media, Logger: logger},
		GetMediaUC:    &usecase.GetMediaUseCase{Media: media},
		Logger:        logger,
		Metrics:       metrics,

		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	}
	consumer := &infrastructure.EncoderResultConsumer{
		Dial:           dialRabbitMQ,
		Topology:       topology,
		Workers:        cfg.RabbitMQ.ConsumerWorkers,
		Prefetch:       cfg.RabbitMQ.ConsumerPrefetch,
		ReconnectDelay: cfg.RabbitMQ.ConnectDelay,
		Updater:        &usecase.UpdateMediaStatusUseCase{Videos: videos, Logger: logger},
		Logger:         logger.WithField("component", "encoder-consumer"),
		Metrics:        metrics,
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := infrastructure.NewRouter(handlers, &infrastructure.HealthHandler{DB: db, Broker: publisher}, registry)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Run(ctx); err != nil {
			logger.WithError(err).Error("encoder result consumer failed")
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("Video Catalog Service listening on port :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("http server failed: %w", err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http server did not shut down cleanly")
	}
	wg.Wait()
	return nil
}

// initDB opens Postgres and waits until it answers a ping.
func initDB(ctx context.Context, cfg config.DBConfig, logger logrus.FieldLogger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	for i := 0; i < cfg.ConnectAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Info("connected to PostgreSQL")
			return db, nil
		}
		logger.WithError(err).Warnf("retrying database connection in %s (%d/%d)", cfg.ConnectDelay, i+1, cfg.ConnectAttempts)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.ConnectDelay):
		}
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to the database after %d attempts: %w", cfg.ConnectAttempts, err)
}

func newStorage(ctx context.Context, cfg config.StorageConfig) (domain.StorageService, io.Closer, error) {
	switch cfg.Provider {
	case "gcs":
		s, err := infrastructure.NewGCSStorage(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		s := infrastructure.NewLocalStorage(cfg.LocalDir)
		if err := s.EnsureDirectories(); err != nil {
			return nil, nil, err
		}
		return s, io.NopCloser(nil), nil
	}
}

// infrastructure/postgres_video_repository.go
package infrastructure

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/vitovidale/video-catalog-service/domain"
)

//go:embed schema.sql
var schema string

// EnsureSchema creates the tables used by the repositories when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

type PostgresVideoRepository struct {
	DB *sql.DB
}

func NewPostgresVideoRepository(db *sql.DB) *PostgresVideoRepository {
	return &PostgresVideoRepository{DB: db}
}

// Save writes the video row and replaces its media rows in one transaction.
// Updates are guarded by the version column.
func (r *PostgresVideoRepository) Save(ctx context.Context, video *domain.Video) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	next, err := r.writeVideo(ctx, tx, video)
	if err != nil {
		return err
	}
	if err := r.writeMedias(ctx, tx, video); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit video %s: %w", video.ID(), err)
	}
	video.SetVersion(next)
	return nil
}

func (r *PostgresVideoRepository) writeVideo(ctx context.Context, tx *sql.Tx, v *domain.Video) (int64, error) {
	if v.Version() == 0 {
		query := `INSERT INTO videos (id, title, description, year_launched, duration, release_status, publishing_status, rating, categories, genres, cast_members, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)`
		_, err := tx.ExecContext(ctx, query,
			v.ID(), v.Title(), v.Description(), v.LaunchedAt(), v.Duration(),
			v.ReleaseStatus(), v.PublishingStatus(), v.Rating(),
			pq.Array(toStrings(v.Categories())), pq.Array(toStrings(v.Genres())), pq.Array(toStrings(v.CastMembers())),
			v.CreatedAt(), v.UpdatedAt(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert video %s: %w", v.ID(), err)
		}
		return 1, nil
	}

	query := `UPDATE videos SET title = $1, description = $2, year_launched = $3, duration = $4, release_status = $5, publishing_status = $6, rating = $7,
		categories = $8, genres = $9, cast_members = $10, updated_at = $11, version = version + 1
		WHERE id = $12 AND version = $13`
	res, err := tx.ExecContext(ctx, query,
		v.Title(), v.Description(), v.LaunchedAt(), v.Duration(),
		v.ReleaseStatus(), v.PublishingStatus(), v.Rating(),
		pq.Array(toStrings(v.Categories())), pq.Array(toStrings(v.Genres())), pq.Array(toStrings(v.CastMembers())),
		v.UpdatedAt(), v.ID(), v.Version(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update video %s: %w", v.ID(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to update video %s: %w", v.ID(), err)
	}
	if n == 0 {
		return 0, fmt.Errorf("video %s at version %d: %w", v.ID(), v.Version(), domain.ErrConcurrentModification)
	}
	return v.Version() + 1, nil
}

func (r *PostgresVideoRepository) writeMedias(ctx context.Context, tx *sql.Tx, v *domain.Video) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM video_media WHERE video_id = $1`, v.ID()); err != nil {
		return fmt.Errorf("failed to clear media of video %s: %w", v.ID(), err)
	}

	query := `INSERT INTO video_media (video_id, media_type, media_id, checksum, name, location, encoded_location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, mediaType := range domain.AllMediaTypes() {
		var mediaID, encoded, status sql.NullString
		m := v.Media(mediaType)
		if m == nil {
			continue
		}
		if av, ok := m.(*domain.AudioVideoMedia); ok {
			mediaID = sql.NullString{String: av.ID(), Valid: true}
			encoded = sql.NullString{String: av.EncodedLocation(), Valid: true}
			status = sql.NullString{String: string(av.Status()), Valid: true}
		}
		_, err := tx.ExecContext(ctx, query, v.ID(), mediaType, mediaID, m.Checksum(), m.Name(), m.Location(), encoded, status)
		if err != nil {
			return fmt.Errorf("failed to save %s media of video %s: %w", mediaType, v.ID(), err)
		}
	}
	return nil
}

func (r *PostgresVideoRepository) FindByID(ctx context.Context, id domain.VideoID) (*domain.Video, error) {
	var (
		s                                 domain.VideoSnapshot
		categories, genres, castMembers   pq.StringArray
		releaseStatus, publishing, rating string
	)
	query := `SELECT id, title, description, year_launched, duration, release_status, publishing_status, rating, categories, genres, cast_members, version, created_at, updated_at
		FROM videos WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Title, &s.Description, &s.LaunchedAt, &s.Duration,
		&releaseStatus, &publishing, &rating,
		&categories, &genres, &castMembers,
		&s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video %s: %w", id, domain.ErrVideoNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query video %s: %w", id, err)
	}
	s.ReleaseStatus = domain.ReleaseStatus(releaseStatus)
	s.PublishingStatus = domain.PublishingStatus(publishing)
	s.Rating = domain.Rating(rating)
	s.Categories = fromStrings[domain.CategoryID](categories)
	s.Genres = fromStrings[domain.GenreID](genres)
	s.CastMembers = fromStrings[domain.CastMemberID](castMembers)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()

	s.Medias, err = r.findMedias(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.RestoreVideo(s), nil
}

func (r *PostgresVideoRepository) findMedias(ctx context.Context, id domain.VideoID) (map[domain.VideoMediaType]domain.Media, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT media_type, media_id, checksum, name, location, encoded_location, status FROM video_media WHERE video_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query media of video %s: %w", id, err)
	}
	defer rows.Close()

	medias := make(map[domain.VideoMediaType]domain.Media)
	for rows.Next() {
		var (
			mediaType, checksum, name, location string
			mediaID, encoded, status            sql.NullString
		)
		if err := rows.Scan(&mediaType, &mediaID, &checksum, &name, &location, &encoded, &status); err != nil {
			return nil, fmt.Errorf("failed to scan media of video %s: %w", id, err)
		}
		t := domain.VideoMediaType(mediaType)
		if t.Transcodable() {
			medias[t] = domain.RestoreAudioVideoMedia(mediaID.String, checksum, name, location, encoded.String, domain.MediaStatus(status.String))
		} else {
			medias[t] = domain.NewImageMedia(checksum, name, location)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over media of video %s: %w", id, err)
	}
	return medias, nil
}

// DeleteByID is idempotent; media rows go with the video through the
// foreign key cascade.
func (r *PostgresVideoRepository) DeleteByID(ctx context.Context, id domain.VideoID) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete video %s: %w", id, err)
	}
	return nil
}

func toStrings[T ~string](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func fromStrings[T ~string](ids []string) []T {
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = T(id)
	}
	return out
}

var _ domain.VideoGateway = (*PostgresVideoRepository)(nil)

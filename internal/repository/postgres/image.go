package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"siteforge/internal/domain"
	"siteforge/internal/domain/models"
	"siteforge/internal/domain/repositories"
)

// PostgresImageRepository implements the ImageRepository interface
type PostgresImageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewImageRepository creates a new image repository
func NewImageRepository(config *RepositoryConfig) repositories.ImageRepository {
	return &PostgresImageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create stores an uploaded prompt image
func (r *PostgresImageRepository) Create(ctx context.Context, img *models.UserImage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, site_id, mime, data)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, r.tables.UserImages)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		img.ID,
		img.SiteID,
		img.Mime,
		img.Data,
	).Scan(&img.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("site %s: %w", img.SiteID, domain.ErrNotFound)
		}
		return fmt.Errorf("create user image: %w", err)
	}

	return nil
}

// GetByID retrieves an image with its bytes
func (r *PostgresImageRepository) GetByID(ctx context.Context, id string) (*models.UserImage, error) {
	query := fmt.Sprintf(`
		SELECT id, site_id, mime, data, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.UserImages)

	executor := GetExecutor(ctx, r.pool)
	var img models.UserImage
	err := executor.QueryRow(ctx, query, id).Scan(
		&img.ID,
		&img.SiteID,
		&img.Mime,
		&img.Data,
		&img.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("image %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user image: %w", err)
	}

	return &img, nil
}

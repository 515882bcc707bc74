package repositories

import (
	"context"

	"siteforge/internal/domain/models"
)

// ImageRepository stores uploaded prompt images.
type ImageRepository interface {
	Create(ctx context.Context, img *models.UserImage) error
	GetByID(ctx context.Context, id string) (*models.UserImage, error)
}

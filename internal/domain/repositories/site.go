package repositories

import (
	"context"

	"siteforge/internal/domain/models"
)

// SiteRepository manages site rows and the reference data linked to them.
type SiteRepository interface {
	Create(ctx context.Context, site *models.Site) error
	GetByID(ctx context.Context, id, userID string) (*models.Site, error)
	GetBySlug(ctx context.Context, slug string) (*models.Site, error)
	ListByUser(ctx context.Context, userID string) ([]models.Site, error)
	Update(ctx context.Context, site *models.Site) error
	Delete(ctx context.Context, id, userID string) error

	// Reference data for context assembly.
	GetAuthor(ctx context.Context, userID string) (*models.Author, error)
	ListBooks(ctx context.Context, siteID string) ([]models.Book, error)
}

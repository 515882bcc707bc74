package repositories

import (
	"context"

	"siteforge/internal/domain/models"
)

// MessageRepository manages the chat transcript for a site. Messages are
// append-only except for soft deletion; the restore engine removes rows by
// correlation id.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListBySite(ctx context.Context, siteID string) ([]models.ChatMessage, error)
	// ListRecent returns up to limit non-deleted messages for the site,
	// oldest-first.
	ListRecent(ctx context.Context, siteID string, limit int) ([]models.ChatMessage, error)
	// LastPair returns the most recent {user, assistant} message pair for the
	// site, or domain.ErrNotFound when the transcript is empty.
	LastPair(ctx context.Context, siteID string) (user, assistant *models.ChatMessage, err error)
	DeleteByCorrelationIDs(ctx context.Context, siteID string, correlationIDs []string) error
	DeleteAllBySite(ctx context.Context, siteID string) error
}

package image

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"siteforge/internal/domain"
	"siteforge/internal/domain/models"
	"siteforge/internal/domain/repositories"
)

// MaxImageBytes caps uploaded prompt images.
const MaxImageBytes = 5 << 20

var allowedMimes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Service stores and serves prompt images attached to chat turns.
type Service struct {
	siteRepo  repositories.SiteRepository
	imageRepo repositories.ImageRepository
	logger    *slog.Logger
}

// NewService creates a new image service
func NewService(siteRepo repositories.SiteRepository, imageRepo repositories.ImageRepository, logger *slog.Logger) *Service {
	return &Service{siteRepo: siteRepo, imageRepo: imageRepo, logger: logger}
}

// Upload stores an image for a site the caller owns and returns its record.
func (s *Service) Upload(ctx context.Context, siteID, userID, mime string, data []byte) (*models.UserImage, error) {
	if _, err := s.siteRepo.GetByID(ctx, siteID, userID); err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrValidation)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrValidation, MaxImageBytes)
	}
	if !allowedMimes[mime] {
		return nil, fmt.Errorf("%w: unsupported image type %q", domain.ErrValidation, mime)
	}

	img := &models.UserImage{
		ID:     uuid.NewString(),
		SiteID: siteID,
		Mime:   mime,
		Data:   data,
	}
	if err := s.imageRepo.Create(ctx, img); err != nil {
		return nil, err
	}

	s.logger.Info("image uploaded",
		"site_id", siteID,
		"image_id", img.ID,
		"bytes", len(data),
	)

	return img, nil
}

// Get retrieves an image by id for public serving.
func (s *Service) Get(ctx context.Context, id string) (*models.UserImage, error) {
	return s.imageRepo.GetByID(ctx, id)
}

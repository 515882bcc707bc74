package site

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"siteforge/internal/domain"
	"siteforge/internal/domain/models"
	"siteforge/internal/domain/repositories"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Service handles site CRUD. The interesting site behavior (chat, files,
// undo) lives in the chat and sitefile services; this is the plumbing around
// the tenant record itself.
type Service struct {
	siteRepo  repositories.SiteRepository
	msgRepo   repositories.MessageRepository
	fileRepo  repositories.FileRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewService creates a new site service
func NewService(
	siteRepo repositories.SiteRepository,
	msgRepo repositories.MessageRepository,
	fileRepo repositories.FileRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *Service {
	return &Service{
		siteRepo:  siteRepo,
		msgRepo:   msgRepo,
		fileRepo:  fileRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// CreateSiteRequest is the site creation contract.
type CreateSiteRequest struct {
	UserID        string  `json:"-"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	PrimaryBookID *string `json:"primary_book_id,omitempty"`
}

func (s *Service) validateCreateSiteRequest(req *CreateSiteRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&req.Slug, validation.Required, validation.Length(1, 80), validation.Match(slugPattern)),
	)
}

// CreateSite creates a new site
func (s *Service) CreateSite(ctx context.Context, req *CreateSiteRequest) (*models.Site, error) {
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if err := s.validateCreateSiteRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	site := &models.Site{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		Name:          strings.TrimSpace(req.Name),
		Slug:          req.Slug,
		PrimaryBookID: req.PrimaryBookID,
	}

	if err := s.siteRepo.Create(ctx, site); err != nil {
		return nil, err
	}

	s.logger.Info("site created",
		"id", site.ID,
		"slug", site.Slug,
		"user_id", site.UserID,
	)

	return site, nil
}

// GetSite retrieves a site scoped to its owner
func (s *Service) GetSite(ctx context.Context, siteID, userID string) (*models.Site, error) {
	return s.siteRepo.GetByID(ctx, siteID, userID)
}

// ListSites lists the caller's sites
func (s *Service) ListSites(ctx context.Context, userID string) ([]models.Site, error) {
	return s.siteRepo.ListByUser(ctx, userID)
}

// UpdateSiteRequest is the site update contract. Nil fields are unchanged.
type UpdateSiteRequest struct {
	Name          *string `json:"name,omitempty"`
	Slug          *string `json:"slug,omitempty"`
	PrimaryBookID *string `json:"primary_book_id,omitempty"`
}

// UpdateSite updates a site's mutable fields
func (s *Service) UpdateSite(ctx context.Context, siteID, userID string, req *UpdateSiteRequest) (*models.Site, error) {
	site, err := s.siteRepo.GetByID(ctx, siteID, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 120 {
			return nil, fmt.Errorf("%w: invalid site name", domain.ErrValidation)
		}
		site.Name = name
	}
	if req.Slug != nil {
		slug := strings.ToLower(strings.TrimSpace(*req.Slug))
		if !slugPattern.MatchString(slug) {
			return nil, fmt.Errorf("%w: invalid slug %q", domain.ErrValidation, *req.Slug)
		}
		site.Slug = slug
	}
	if req.PrimaryBookID != nil {
		site.PrimaryBookID = req.PrimaryBookID
	}

	if err := s.siteRepo.Update(ctx, site); err != nil {
		return nil, err
	}

	s.logger.Info("site updated", "id", site.ID, "user_id", userID)

	return site, nil
}

// DeleteSite removes a site with its transcript and file history in one
// transaction.
func (s *Service) DeleteSite(ctx context.Context, siteID, userID string) error {
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.fileRepo.DeleteAllBySite(txCtx, siteID); err != nil {
			return err
		}
		if err := s.msgRepo.DeleteAllBySite(txCtx, siteID); err != nil {
			return err
		}
		return s.siteRepo.Delete(txCtx, siteID, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("site deleted", "id", siteID, "user_id", userID)
	return nil
}

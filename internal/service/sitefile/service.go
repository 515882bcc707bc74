package sitefile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"siteforge/internal/domain"
	"siteforge/internal/domain/models"
	"siteforge/internal/domain/repositories"
	"siteforge/internal/policy"
)

// Service exposes the file-facing operations of a site: listing the current
// tree, saving an edited file out-of-band, and resolving preview requests.
// Every path goes through the same normalization and versioning rules as the
// chat mutation executor.
type Service struct {
	siteRepo  repositories.SiteRepository
	fileRepo  repositories.FileRepository
	txManager repositories.TransactionManager
	policy    *policy.Registry
	logger    *slog.Logger
}

// NewService creates a new site file service
func NewService(
	siteRepo repositories.SiteRepository,
	fileRepo repositories.FileRepository,
	txManager repositories.TransactionManager,
	policyRegistry *policy.Registry,
	logger *slog.Logger,
) *Service {
	return &Service{
		siteRepo:  siteRepo,
		fileRepo:  fileRepo,
		txManager: txManager,
		policy:    policyRegistry,
		logger:    logger,
	}
}

// ListFiles returns the latest-active file tree for a site, ordered by folder
// then filename.
func (s *Service) ListFiles(ctx context.Context, siteID, userID string) ([]models.FileVersion, error) {
	if _, err := s.siteRepo.GetByID(ctx, siteID, userID); err != nil {
		return nil, err
	}
	return s.fileRepo.LatestActiveFiles(ctx, siteID)
}

// SaveFileRequest is the out-of-band editor save contract.
type SaveFileRequest struct {
	SiteID   string `json:"-"`
	UserID   string `json:"-"`
	Folder   string `json:"folder"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

func (s *Service) validateSaveFileRequest(req *SaveFileRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Filename, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Content, validation.Length(0, 2_000_000)),
	)
}

// SaveFile appends one new active version for a path, bypassing the LLM. It
// reuses the executor's NextVersion/CreateVersion path so manual edits and
// model writes share one versioning scheme. Blocked extensions are rejected
// here too: the editor must not be a side door around the security gate.
func (s *Service) SaveFile(ctx context.Context, req *SaveFileRequest) (*models.FileVersion, error) {
	if err := s.validateSaveFileRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.siteRepo.GetByID(ctx, req.SiteID, req.UserID); err != nil {
		return nil, err
	}

	filename := strings.TrimSpace(req.Filename)
	if !ValidFilename(filename) {
		return nil, fmt.Errorf("%w: invalid filename %q", domain.ErrValidation, req.Filename)
	}

	if s.policy.IsBlockedExtension(models.Filetype(filename)) {
		return nil, fmt.Errorf("%w: file type not allowed", domain.ErrForbidden)
	}

	fv := &models.FileVersion{
		SiteID:   req.SiteID,
		Folder:   NormalizeFolder(req.Folder),
		Filename: filename,
		Filetype: models.Filetype(filename),
		Content:  req.Content,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		version, err := s.fileRepo.NextVersion(txCtx, fv.SiteID, fv.Folder, fv.Filename)
		if err != nil {
			return err
		}
		fv.Version = version
		return s.fileRepo.CreateVersion(txCtx, fv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file saved",
		"site_id", req.SiteID,
		"path", JoinPath(fv.Folder, fv.Filename),
		"version", fv.Version,
	)

	return fv, nil
}

// PreviewFile is a resolved preview response.
type PreviewFile struct {
	Content     string
	ContentType string
	ModifiedAt  time.Time
}

// ResolvePreview maps a public slug and request path to the latest-active file
// content with a Content-Type derived from the extension. Bare "/" serves
// index.html.
func (s *Service) ResolvePreview(ctx context.Context, slug, requestPath string) (*PreviewFile, error) {
	site, err := s.siteRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if requestPath == "" || requestPath == "/" {
		requestPath = "/index.html"
	}

	folder, filename, ok := SplitRequestPath(requestPath)
	if !ok {
		return nil, fmt.Errorf("preview path %q: %w", requestPath, domain.ErrNotFound)
	}

	fv, err := s.fileRepo.FindLatestActive(ctx, site.ID, folder, filename)
	if err != nil {
		return nil, err
	}

	return &PreviewFile{
		Content:     fv.Content,
		ContentType: s.policy.MimeType(fv.Filetype),
		ModifiedAt:  fv.CreatedAt,
	}, nil
}

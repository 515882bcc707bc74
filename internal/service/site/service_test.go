package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"siteforge/internal/domain"
	"siteforge/internal/domain/models"
	"siteforge/internal/domain/repositories"
)

type stubSiteRepo struct {
	sites map[string]*models.Site
}

func newStubSiteRepo() *stubSiteRepo {
	return &stubSiteRepo{sites: make(map[string]*models.Site)}
}

func (s *stubSiteRepo) Create(ctx context.Context, site *models.Site) error {
	for _, existing := range s.sites {
		if existing.Slug == site.Slug {
			return fmt.Errorf("site slug '%s' %w", site.Slug, domain.ErrConflict)
		}
	}
	s.sites[site.ID] = site
	return nil
}

func (s *stubSiteRepo) GetByID(ctx context.Context, id, userID string) (*models.Site, error) {
	site, ok := s.sites[id]
	if !ok || site.UserID != userID {
		return nil, fmt.Errorf("site %s: %w", id, domain.ErrNotFound)
	}
	return site, nil
}

func (s *stubSiteRepo) GetBySlug(ctx context.Context, slug string) (*models.Site, error) {
	for _, site := range s.sites {
		if site.Slug == slug {
			return site, nil
		}
	}
	return nil, fmt.Errorf("site '%s': %w", slug, domain.ErrNotFound)
}

func (s *stubSiteRepo) ListByUser(ctx context.Context, userID string) ([]models.Site, error) {
	var out []models.Site
	for _, site := range s.sites {
		if site.UserID == userID {
			out = append(out, *site)
		}
	}
	return out, nil
}

func (s *stubSiteRepo) Update(ctx context.Context, site *models.Site) error {
	s.sites[site.ID] = site
	return nil
}

func (s *stubSiteRepo) Delete(ctx context.Context, id, userID string) error {
	site, ok := s.sites[id]
	if !ok || site.UserID != userID {
		return fmt.Errorf("site %s: %w", id, domain.ErrNotFound)
	}
	delete(s.sites, id)
	return nil
}

func (s *stubSiteRepo) GetAuthor(ctx context.Context, userID string) (*models.Author, error) {
	return nil, fmt.Errorf("author %s: %w", userID, domain.ErrNotFound)
}

func (s *stubSiteRepo) ListBooks(ctx context.Context, siteID string) ([]models.Book, error) {
	return nil, nil
}

type stubMsgRepo struct{ deletedSites []string }

func (s *stubMsgRepo) Create(ctx context.Context, msg *models.ChatMessage) error { return nil }
func (s *stubMsgRepo) ListBySite(ctx context.Context, siteID string) ([]models.ChatMessage, error) {
	return nil, nil
}
func (s *stubMsgRepo) ListRecent(ctx context.Context, siteID string, limit int) ([]models.ChatMessage, error) {
	return nil, nil
}
func (s *stubMsgRepo) LastPair(ctx context.Context, siteID string) (*models.ChatMessage, *models.ChatMessage, error) {
	return nil, nil, domain.ErrNotFound
}
func (s *stubMsgRepo) DeleteByCorrelationIDs(ctx context.Context, siteID string, correlationIDs []string) error {
	return nil
}
func (s *stubMsgRepo) DeleteAllBySite(ctx context.Context, siteID string) error {
	s.deletedSites = append(s.deletedSites, siteID)
	return nil
}

type stubFileRepo struct{ deletedSites []string }

func (s *stubFileRepo) LatestActiveFiles(ctx context.Context, siteID string) ([]models.FileVersion, error) {
	return nil, nil
}
func (s *stubFileRepo) FindLatestActive(ctx context.Context, siteID, folder, filename string) (*models.FileVersion, error) {
	return nil, domain.ErrNotFound
}
func (s *stubFileRepo) NextVersion(ctx context.Context, siteID, folder, filename string) (int, error) {
	return 1, nil
}
func (s *stubFileRepo) CreateVersion(ctx context.Context, fv *models.FileVersion) error { return nil }
func (s *stubFileRepo) LinkMessagePair(ctx context.Context, versionIDs []int64, correlationIDs []string) error {
	return nil
}
func (s *stubFileRepo) FindByCorrelationID(ctx context.Context, siteID, correlationID string) ([]models.FileVersion, error) {
	return nil, nil
}
func (s *stubFileRepo) DeleteByCorrelationID(ctx context.Context, siteID, correlationID string) (int64, error) {
	return 0, nil
}
func (s *stubFileRepo) DeleteAllBySite(ctx context.Context, siteID string) error {
	s.deletedSites = append(s.deletedSites, siteID)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
func (passthroughTx) LockSite(ctx context.Context, siteID string) error { return nil }

func newTestService() (*Service, *stubSiteRepo, *stubMsgRepo, *stubFileRepo) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	siteRepo := newStubSiteRepo()
	msgRepo := &stubMsgRepo{}
	fileRepo := &stubFileRepo{}
	svc := NewService(siteRepo, msgRepo, fileRepo, passthroughTx{}, logger)
	return svc, siteRepo, msgRepo, fileRepo
}

func TestCreateSiteNormalizesSlug(t *testing.T) {
	svc, _, _, _ := newTestService()

	site, err := svc.CreateSite(context.Background(), &CreateSiteRequest{
		UserID: "user-1",
		Name:   "  My Site  ",
		Slug:   "  My-Site  ",
	})
	if err != nil {
		t.Fatalf("CreateSite failed: %v", err)
	}

	if site.Slug != "my-site" {
		t.Errorf("slug = %q, want lowercased my-site", site.Slug)
	}
	if site.Name != "My Site" {
		t.Errorf("name = %q, want trimmed", site.Name)
	}
	if site.ID == "" {
		t.Error("site id must be generated")
	}
}

func TestCreateSiteInvalidSlug(t *testing.T) {
	svc, _, _, _ := newTestService()

	for _, slug := range []string{"has space", "trailing-", "-leading", "under_score", ""} {
		_, err := svc.CreateSite(context.Background(), &CreateSiteRequest{
			UserID: "user-1",
			Name:   "Site",
			Slug:   slug,
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("slug %q: expected ErrValidation, got %v", slug, err)
		}
	}
}

func TestCreateSiteDuplicateSlug(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateSite(context.Background(), &CreateSiteRequest{
		UserID: "user-1", Name: "One", Slug: "taken",
	})
	if err != nil {
		t.Fatalf("first CreateSite failed: %v", err)
	}

	_, err = svc.CreateSite(context.Background(), &CreateSiteRequest{
		UserID: "user-2", Name: "Two", Slug: "taken",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate slug, got %v", err)
	}
}

func TestUpdateSitePartialFields(t *testing.T) {
	svc, _, _, _ := newTestService()

	site, err := svc.CreateSite(context.Background(), &CreateSiteRequest{
		UserID: "user-1", Name: "Original", Slug: "original",
	})
	if err != nil {
		t.Fatalf("CreateSite failed: %v", err)
	}

	newName := "Renamed"
	updated, err := svc.UpdateSite(context.Background(), site.ID, "user-1", &UpdateSiteRequest{
		Name: &newName,
	})
	if err != nil {
		t.Fatalf("UpdateSite failed: %v", err)
	}

	if updated.Name != "Renamed" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.Slug != "original" {
		t.Errorf("slug changed unexpectedly to %q", updated.Slug)
	}
}

func TestUpdateSiteInvalidSlug(t *testing.T) {
	svc, _, _, _ := newTestService()

	site, _ := svc.CreateSite(context.Background(), &CreateSiteRequest{
		UserID: "user-1", Name: "Site", Slug: "fine",
	})

	bad := "not ok"
	_, err := svc.UpdateSite(context.Background(), site.ID, "user-1", &UpdateSiteRequest{Slug: &bad})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteSiteCascades(t *testing.T) {
	svc, siteRepo, msgRepo, fileRepo := newTestService()

	site, _ := svc.CreateSite(context.Background(), &CreateSiteRequest{
		UserID: "user-1", Name: "Site", Slug: "doomed",
	})

	if err := svc.DeleteSite(context.Background(), site.ID, "user-1"); err != nil {
		t.Fatalf("DeleteSite failed: %v", err)
	}

	if len(siteRepo.sites) != 0 {
		t.Error("site row survived deletion")
	}
	if len(msgRepo.deletedSites) != 1 || msgRepo.deletedSites[0] != site.ID {
		t.Errorf("messages not purged: %v", msgRepo.deletedSites)
	}
	if len(fileRepo.deletedSites) != 1 || fileRepo.deletedSites[0] != site.ID {
		t.Errorf("file versions not purged: %v", fileRepo.deletedSites)
	}
}

func TestDeleteSiteUnauthorized(t *testing.T) {
	svc, _, _, _ := newTestService()

	site, _ := svc.CreateSite(context.Background(), &CreateSiteRequest{
		UserID: "user-1", Name: "Site", Slug: "mine",
	})

	err := svc.DeleteSite(context.Background(), site.ID, "intruder")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-owner, got %v", err)
	}
}

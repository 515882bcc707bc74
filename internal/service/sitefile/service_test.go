package sitefile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"

	"siteforge/internal/domain"
	"siteforge/internal/domain/models"
	"siteforge/internal/domain/repositories"
	"siteforge/internal/policy"
)

type stubSiteRepo struct {
	site *models.Site
}

func (s *stubSiteRepo) Create(ctx context.Context, site *models.Site) error { return nil }

func (s *stubSiteRepo) GetByID(ctx context.Context, id, userID string) (*models.Site, error) {
	if s.site == nil || s.site.ID != id || s.site.UserID != userID {
		return nil, fmt.Errorf("site %s: %w", id, domain.ErrNotFound)
	}
	return s.site, nil
}

func (s *stubSiteRepo) GetBySlug(ctx context.Context, slug string) (*models.Site, error) {
	if s.site == nil || s.site.Slug != slug {
		return nil, fmt.Errorf("site '%s': %w", slug, domain.ErrNotFound)
	}
	return s.site, nil
}

func (s *stubSiteRepo) ListByUser(ctx context.Context, userID string) ([]models.Site, error) {
	return nil, nil
}
func (s *stubSiteRepo) Update(ctx context.Context, site *models.Site) error { return nil }
func (s *stubSiteRepo) Delete(ctx context.Context, id, userID string) error { return nil }
func (s *stubSiteRepo) GetAuthor(ctx context.Context, userID string) (*models.Author, error) {
	return nil, fmt.Errorf("author %s: %w", userID, domain.ErrNotFound)
}
func (s *stubSiteRepo) ListBooks(ctx context.Context, siteID string) ([]models.Book, error) {
	return nil, nil
}

type memFileRepo struct {
	nextID   int64
	versions []models.FileVersion
}

func (m *memFileRepo) LatestActiveFiles(ctx context.Context, siteID string) ([]models.FileVersion, error) {
	latest := make(map[string]models.FileVersion)
	for _, fv := range m.versions {
		if fv.SiteID != siteID {
			continue
		}
		key := fv.Folder + "\x00" + fv.Filename
		if cur, ok := latest[key]; !ok || fv.Version > cur.Version {
			latest[key] = fv
		}
	}
	var out []models.FileVersion
	for _, fv := range latest {
		if !fv.IsDeleted {
			out = append(out, fv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Folder != out[j].Folder {
			return out[i].Folder < out[j].Folder
		}
		return out[i].Filename < out[j].Filename
	})
	return out, nil
}

func (m *memFileRepo) FindLatestActive(ctx context.Context, siteID, folder, filename string) (*models.FileVersion, error) {
	var found *models.FileVersion
	for i := range m.versions {
		fv := &m.versions[i]
		if fv.SiteID == siteID && fv.Folder == folder && fv.Filename == filename {
			if found == nil || fv.Version > found.Version {
				found = fv
			}
		}
	}
	if found == nil || found.IsDeleted {
		return nil, fmt.Errorf("file %s/%s: %w", folder, filename, domain.ErrNotFound)
	}
	out := *found
	return &out, nil
}

func (m *memFileRepo) NextVersion(ctx context.Context, siteID, folder, filename string) (int, error) {
	max := 0
	for _, fv := range m.versions {
		if fv.SiteID == siteID && fv.Folder == folder && fv.Filename == filename && fv.Version > max {
			max = fv.Version
		}
	}
	return max + 1, nil
}

func (m *memFileRepo) CreateVersion(ctx context.Context, fv *models.FileVersion) error {
	m.nextID++
	fv.ID = m.nextID
	m.versions = append(m.versions, *fv)
	return nil
}

func (m *memFileRepo) LinkMessagePair(ctx context.Context, versionIDs []int64, correlationIDs []string) error {
	return nil
}
func (m *memFileRepo) FindByCorrelationID(ctx context.Context, siteID, correlationID string) ([]models.FileVersion, error) {
	return nil, nil
}
func (m *memFileRepo) DeleteByCorrelationID(ctx context.Context, siteID, correlationID string) (int64, error) {
	return 0, nil
}
func (m *memFileRepo) DeleteAllBySite(ctx context.Context, siteID string) error { return nil }

type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
func (passthroughTx) LockSite(ctx context.Context, siteID string) error { return nil }

func newTestService(t *testing.T) (*Service, *stubSiteRepo, *memFileRepo) {
	t.Helper()
	registry, err := policy.NewRegistry()
	if err != nil {
		t.Fatalf("load policy registry: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	siteRepo := &stubSiteRepo{site: &models.Site{
		ID:     "site-1",
		UserID: "user-1",
		Slug:   "demo",
	}}
	fileRepo := &memFileRepo{}
	svc := NewService(siteRepo, fileRepo, passthroughTx{}, registry, logger)
	return svc, siteRepo, fileRepo
}

func TestSaveFileAppendsVersion(t *testing.T) {
	svc, _, fileRepo := newTestService(t)

	fv, err := svc.SaveFile(context.Background(), &SaveFileRequest{
		SiteID:   "site-1",
		UserID:   "user-1",
		Folder:   "css/",
		Filename: "style.css",
		Content:  "body{}",
	})
	if err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	if fv.Version != 1 {
		t.Errorf("version = %d, want 1", fv.Version)
	}
	if fv.Folder != "/css" {
		t.Errorf("folder = %q, want normalized /css", fv.Folder)
	}
	if fv.Filetype != "css" {
		t.Errorf("filetype = %q, want css", fv.Filetype)
	}

	// A second save continues the history.
	fv2, err := svc.SaveFile(context.Background(), &SaveFileRequest{
		SiteID:   "site-1",
		UserID:   "user-1",
		Folder:   "/css",
		Filename: "style.css",
		Content:  "body{color:blue}",
	})
	if err != nil {
		t.Fatalf("second SaveFile failed: %v", err)
	}
	if fv2.Version != 2 {
		t.Errorf("second version = %d, want 2", fv2.Version)
	}
	if len(fileRepo.versions) != 2 {
		t.Errorf("version log has %d rows, want 2", len(fileRepo.versions))
	}
}

func TestSaveFileRejectsBlockedExtension(t *testing.T) {
	svc, _, fileRepo := newTestService(t)

	_, err := svc.SaveFile(context.Background(), &SaveFileRequest{
		SiteID:   "site-1",
		UserID:   "user-1",
		Folder:   "/",
		Filename: "shell.php",
		Content:  "<?php ?>",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if len(fileRepo.versions) != 0 {
		t.Errorf("blocked save wrote %d versions", len(fileRepo.versions))
	}
}

func TestSaveFileRejectsInvalidFilename(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SaveFile(context.Background(), &SaveFileRequest{
		SiteID:   "site-1",
		UserID:   "user-1",
		Folder:   "/",
		Filename: "a/b.html",
		Content:  "x",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestSaveFileUnauthorized(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SaveFile(context.Background(), &SaveFileRequest{
		SiteID:   "site-1",
		UserID:   "intruder",
		Folder:   "/",
		Filename: "index.html",
		Content:  "x",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-owner, got %v", err)
	}
}

func TestResolvePreviewServesLatestActive(t *testing.T) {
	svc, _, fileRepo := newTestService(t)
	fileRepo.CreateVersion(context.Background(), &models.FileVersion{
		SiteID: "site-1", Folder: "/", Filename: "index.html", Filetype: "html",
		Version: 1, Content: "<h1>old</h1>",
	})
	fileRepo.CreateVersion(context.Background(), &models.FileVersion{
		SiteID: "site-1", Folder: "/", Filename: "index.html", Filetype: "html",
		Version: 2, Content: "<h1>new</h1>",
	})

	file, err := svc.ResolvePreview(context.Background(), "demo", "/index.html")
	if err != nil {
		t.Fatalf("ResolvePreview failed: %v", err)
	}
	if file.Content != "<h1>new</h1>" {
		t.Errorf("content = %q, want the newest version", file.Content)
	}
	if file.ContentType != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", file.ContentType)
	}
}

func TestResolvePreviewRootServesIndex(t *testing.T) {
	svc, _, fileRepo := newTestService(t)
	fileRepo.CreateVersion(context.Background(), &models.FileVersion{
		SiteID: "site-1", Folder: "/", Filename: "index.html", Filetype: "html",
		Version: 1, Content: "<h1>home</h1>",
	})

	for _, path := range []string{"", "/"} {
		file, err := svc.ResolvePreview(context.Background(), "demo", path)
		if err != nil {
			t.Fatalf("ResolvePreview(%q) failed: %v", path, err)
		}
		if file.Content != "<h1>home</h1>" {
			t.Errorf("ResolvePreview(%q) content = %q", path, file.Content)
		}
	}
}

func TestResolvePreviewTombstonedPathIsNotFound(t *testing.T) {
	svc, _, fileRepo := newTestService(t)
	fileRepo.CreateVersion(context.Background(), &models.FileVersion{
		SiteID: "site-1", Folder: "/", Filename: "gone.html", Filetype: "html",
		Version: 1, Content: "x",
	})
	fileRepo.CreateVersion(context.Background(), &models.FileVersion{
		SiteID: "site-1", Folder: "/", Filename: "gone.html", Filetype: "html",
		Version: 2, Content: "x", IsDeleted: true,
	})

	_, err := svc.ResolvePreview(context.Background(), "demo", "/gone.html")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for tombstoned path, got %v", err)
	}
}

func TestResolvePreviewUnknownSlug(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ResolvePreview(context.Background(), "missing", "/index.html")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown slug, got %v", err)
	}
}

func TestListFilesUnauthorized(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ListFiles(context.Background(), "site-1", "intruder")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-owner, got %v", err)
	}
}

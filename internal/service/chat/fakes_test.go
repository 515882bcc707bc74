package chat

import (
	"context"
	"fmt"
	"slices"

	"siteforge/internal/domain"
	"siteforge/internal/domain/models"
	"siteforge/internal/domain/repositories"
	"siteforge/internal/llm"
)

// In-memory doubles for the repository and gateway boundaries. The file
// repository double lives in executor_test.go.

type fakeSiteRepo struct {
	sites  map[string]*models.Site
	author *models.Author
	books  []models.Book
}

func newFakeSiteRepo() *fakeSiteRepo {
	return &fakeSiteRepo{sites: make(map[string]*models.Site)}
}

func (f *fakeSiteRepo) Create(ctx context.Context, site *models.Site) error {
	f.sites[site.ID] = site
	return nil
}

func (f *fakeSiteRepo) GetByID(ctx context.Context, id, userID string) (*models.Site, error) {
	site, ok := f.sites[id]
	if !ok || site.UserID != userID {
		return nil, fmt.Errorf("site %s: %w", id, domain.ErrNotFound)
	}
	return site, nil
}

func (f *fakeSiteRepo) GetBySlug(ctx context.Context, slug string) (*models.Site, error) {
	for _, site := range f.sites {
		if site.Slug == slug {
			return site, nil
		}
	}
	return nil, fmt.Errorf("site '%s': %w", slug, domain.ErrNotFound)
}

func (f *fakeSiteRepo) ListByUser(ctx context.Context, userID string) ([]models.Site, error) {
	var out []models.Site
	for _, site := range f.sites {
		if site.UserID == userID {
			out = append(out, *site)
		}
	}
	return out, nil
}

func (f *fakeSiteRepo) Update(ctx context.Context, site *models.Site) error {
	f.sites[site.ID] = site
	return nil
}

func (f *fakeSiteRepo) Delete(ctx context.Context, id, userID string) error {
	delete(f.sites, id)
	return nil
}

func (f *fakeSiteRepo) GetAuthor(ctx context.Context, userID string) (*models.Author, error) {
	if f.author == nil || f.author.UserID != userID {
		return nil, fmt.Errorf("author %s: %w", userID, domain.ErrNotFound)
	}
	return f.author, nil
}

func (f *fakeSiteRepo) ListBooks(ctx context.Context, siteID string) ([]models.Book, error) {
	return f.books, nil
}

type fakeMsgRepo struct {
	nextID   int64
	messages []models.ChatMessage
}

func newFakeMsgRepo() *fakeMsgRepo {
	return &fakeMsgRepo{}
}

func (f *fakeMsgRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	f.nextID++
	msg.ID = f.nextID
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMsgRepo) ListBySite(ctx context.Context, siteID string) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for _, msg := range f.messages {
		if msg.SiteID == siteID && !msg.IsDeleted {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeMsgRepo) ListRecent(ctx context.Context, siteID string, limit int) ([]models.ChatMessage, error) {
	all, _ := f.ListBySite(ctx, siteID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (f *fakeMsgRepo) LastPair(ctx context.Context, siteID string) (*models.ChatMessage, *models.ChatMessage, error) {
	all, _ := f.ListBySite(ctx, siteID)
	if len(all) < 2 {
		return nil, nil, fmt.Errorf("transcript for site %s: %w", siteID, domain.ErrNotFound)
	}
	user := all[len(all)-2]
	assistant := all[len(all)-1]
	if user.Role != models.RoleUser || assistant.Role != models.RoleAssistant {
		return nil, nil, fmt.Errorf("transcript for site %s is not paired: %w", siteID, domain.ErrConflict)
	}
	return &user, &assistant, nil
}

func (f *fakeMsgRepo) DeleteByCorrelationIDs(ctx context.Context, siteID string, correlationIDs []string) error {
	var kept []models.ChatMessage
	for _, msg := range f.messages {
		if msg.SiteID == siteID && slices.Contains(correlationIDs, msg.CorrelationID) {
			continue
		}
		kept = append(kept, msg)
	}
	f.messages = kept
	return nil
}

func (f *fakeMsgRepo) DeleteAllBySite(ctx context.Context, siteID string) error {
	var kept []models.ChatMessage
	for _, msg := range f.messages {
		if msg.SiteID != siteID {
			kept = append(kept, msg)
		}
	}
	f.messages = kept
	return nil
}

// fakeTxManager runs the transaction body directly; LockSite records calls.
type fakeTxManager struct {
	lockCalls int
	execErr   error
}

func (f *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if f.execErr != nil {
		return f.execErr
	}
	return fn(ctx)
}

func (f *fakeTxManager) LockSite(ctx context.Context, siteID string) error {
	f.lockCalls++
	return nil
}

// fakeCompleter returns a canned gateway result and records the request.
type fakeCompleter struct {
	result       *llm.Result
	lastMessages []llm.Message
	lastModel    string
	lastSystem   string
}

func (f *fakeCompleter) Complete(ctx context.Context, model, systemPrompt string, messages []llm.Message) *llm.Result {
	f.lastModel = model
	f.lastSystem = systemPrompt
	f.lastMessages = messages
	return f.result
}

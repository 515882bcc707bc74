package chat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"siteforge/internal/domain/models"
	"siteforge/internal/llm"
)

func newTestBuilder(siteRepo *fakeSiteRepo, fileRepo *fakeFileRepo, msgRepo *fakeMsgRepo) *ContextBuilder {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewContextBuilder(siteRepo, fileRepo, msgRepo, logger)
}

func seedSite(siteRepo *fakeSiteRepo) *models.Site {
	site := &models.Site{
		ID:     "site-1",
		UserID: "user-1",
		Name:   "Test Site",
		Slug:   "test-site",
	}
	siteRepo.sites[site.ID] = site
	return site
}

func TestBuildPreambleContainsReferenceAndTree(t *testing.T) {
	siteRepo := newFakeSiteRepo()
	fileRepo := newFakeFileRepo()
	msgRepo := newFakeMsgRepo()
	site := seedSite(siteRepo)

	bookID := "book-1"
	site.PrimaryBookID = &bookID
	siteRepo.author = &models.Author{UserID: "user-1", DisplayName: "Avery Quill", Bio: "Writes mysteries."}
	siteRepo.books = []models.Book{
		{ID: bookID, Title: "The Hollow Lighthouse", Hook: "The keeper vanished."},
		{ID: "book-2", Title: "Second Tide"},
	}
	fileRepo.seed(t, site.ID, "/", "index.html", "<h1>Home</h1>")

	builder := newTestBuilder(siteRepo, fileRepo, msgRepo)
	messages, err := builder.Build(context.Background(), site, "make it blue", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Preamble, no history, current message.
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	preamble, ok := messages[0].Content.(string)
	if !ok {
		t.Fatalf("preamble content is %T, want string", messages[0].Content)
	}
	if messages[0].Role != models.RoleUser {
		t.Errorf("preamble role = %q, want user", messages[0].Role)
	}

	for _, want := range []string{
		"Avery Quill",
		"Writes mysteries.",
		"The Hollow Lighthouse (primary)",
		"Second Tide",
		"The keeper vanished.",
		"## Current site files",
		"/index.html",
		"<h1>Home</h1>",
	} {
		if !strings.Contains(preamble, want) {
			t.Errorf("preamble missing %q", want)
		}
	}

	if messages[1].Content != "make it blue" {
		t.Errorf("current message = %v", messages[1].Content)
	}
}

func TestBuildMissingAuthorTolerated(t *testing.T) {
	siteRepo := newFakeSiteRepo()
	fileRepo := newFakeFileRepo()
	msgRepo := newFakeMsgRepo()
	site := seedSite(siteRepo)

	builder := newTestBuilder(siteRepo, fileRepo, msgRepo)
	messages, err := builder.Build(context.Background(), site, "hello", nil)
	if err != nil {
		t.Fatalf("Build failed with missing author: %v", err)
	}

	preamble := messages[0].Content.(string)
	if !strings.Contains(preamble, "(no files yet)") {
		t.Errorf("empty tree should render placeholder, got: %q", preamble)
	}
}

func TestBuildTruncatesHistory(t *testing.T) {
	siteRepo := newFakeSiteRepo()
	fileRepo := newFakeFileRepo()
	msgRepo := newFakeMsgRepo()
	site := seedSite(siteRepo)

	for i := 0; i < 10; i++ {
		msgRepo.Create(context.Background(), &models.ChatMessage{
			SiteID: site.ID, Role: models.RoleUser, Content: fmt.Sprintf("question %d", i),
		})
		msgRepo.Create(context.Background(), &models.ChatMessage{
			SiteID: site.ID, Role: models.RoleAssistant, Content: fmt.Sprintf("answer %d", i),
		})
	}

	builder := newTestBuilder(siteRepo, fileRepo, msgRepo)
	messages, err := builder.Build(context.Background(), site, "latest ask", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Preamble + HistoryLimit + current message.
	if len(messages) != HistoryLimit+2 {
		t.Fatalf("expected %d messages, got %d", HistoryLimit+2, len(messages))
	}

	// Oldest retained history entry is "question 4": 20 messages, last 12 kept.
	first := messages[1]
	if first.Content != "question 4" {
		t.Errorf("oldest history message = %v, want question 4", first.Content)
	}
	last := messages[len(messages)-1]
	if last.Content != "latest ask" {
		t.Errorf("final message = %v, want the pending user message", last.Content)
	}
}

func TestBuildWithImage(t *testing.T) {
	siteRepo := newFakeSiteRepo()
	fileRepo := newFakeFileRepo()
	msgRepo := newFakeMsgRepo()
	site := seedSite(siteRepo)

	image := &models.UserImage{
		ID:     "img-1",
		SiteID: site.ID,
		Mime:   "image/png",
		Data:   []byte{0x89, 0x50, 0x4e, 0x47},
	}

	builder := newTestBuilder(siteRepo, fileRepo, msgRepo)
	messages, err := builder.Build(context.Background(), site, "use my photo", image)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	preamble := messages[0].Content.(string)
	if !strings.Contains(preamble, image.PublicURL()) {
		t.Errorf("preamble missing image URL %q", image.PublicURL())
	}
	if !strings.Contains(preamble, `<img src="/api/images/img-1" alt="...">`) {
		t.Errorf("preamble missing exact img tag instruction: %q", preamble)
	}

	last := messages[len(messages)-1]
	parts, ok := last.Content.([]llm.ContentPart)
	if !ok {
		t.Fatalf("final message content is %T, want multi-part", last.Content)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 content parts, got %d", len(parts))
	}
	if parts[0].Type != "text" || parts[0].Text != "use my photo" {
		t.Errorf("text part = %+v", parts[0])
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL == nil {
		t.Fatalf("image part = %+v", parts[1])
	}
	if !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("image URL is not a data URI: %q", parts[1].ImageURL.URL)
	}
}

func TestBuildWithoutImageOmitsInstructions(t *testing.T) {
	siteRepo := newFakeSiteRepo()
	fileRepo := newFakeFileRepo()
	msgRepo := newFakeMsgRepo()
	site := seedSite(siteRepo)

	builder := newTestBuilder(siteRepo, fileRepo, msgRepo)
	messages, err := builder.Build(context.Background(), site, "hello", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	preamble := messages[0].Content.(string)
	if strings.Contains(preamble, "Uploaded image") {
		t.Errorf("preamble contains image instructions without an image")
	}
}

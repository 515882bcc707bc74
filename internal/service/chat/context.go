package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"siteforge/internal/domain/models"
	"siteforge/internal/domain/repositories"
	"siteforge/internal/llm"
	"siteforge/internal/service/sitefile"
)

// HistoryLimit is the hard cap on prior messages included in model context.
const HistoryLimit = 12

// imageURLToken is the placeholder under which the attached image's public URL
// is handed to the model.
const imageURLToken = "UPLOADED_IMAGE_URL"

// ContextBuilder assembles the ordered message list for one chat turn:
// reference data about the author and their books, optional image
// instructions, the full latest-active file tree, truncated history, and the
// pending user message last.
type ContextBuilder struct {
	siteRepo repositories.SiteRepository
	fileRepo repositories.FileRepository
	msgRepo  repositories.MessageRepository
	logger   *slog.Logger
}

// NewContextBuilder creates a new context builder
func NewContextBuilder(
	siteRepo repositories.SiteRepository,
	fileRepo repositories.FileRepository,
	msgRepo repositories.MessageRepository,
	logger *slog.Logger,
) *ContextBuilder {
	return &ContextBuilder{
		siteRepo: siteRepo,
		fileRepo: fileRepo,
		msgRepo:  msgRepo,
		logger:   logger,
	}
}

// Build produces the gateway message list for the pending user message. The
// returned list does not include the system prompt; the gateway prepends it.
func (b *ContextBuilder) Build(ctx context.Context, site *models.Site, userText string, image *models.UserImage) ([]llm.Message, error) {
	var preamble strings.Builder

	reference, err := b.renderReference(ctx, site)
	if err != nil {
		return nil, err
	}
	preamble.WriteString(reference)

	if image != nil {
		preamble.WriteString(renderImageInstructions(image))
	}

	tree, err := b.renderFileTree(ctx, site.ID)
	if err != nil {
		return nil, err
	}
	preamble.WriteString(tree)

	messages := []llm.Message{llm.TextMessage(models.RoleUser, preamble.String())}

	history, err := b.msgRepo.ListRecent(ctx, site.ID, HistoryLimit)
	if err != nil {
		return nil, err
	}
	for _, msg := range history {
		messages = append(messages, llm.TextMessage(msg.Role, msg.Content))
	}

	if image != nil {
		dataURI := fmt.Sprintf("data:%s;base64,%s", image.Mime, base64.StdEncoding.EncodeToString(image.Data))
		messages = append(messages, llm.MultiPartMessage(models.RoleUser, userText, dataURI))
	} else {
		messages = append(messages, llm.TextMessage(models.RoleUser, userText))
	}

	b.logger.Debug("context assembled",
		"site_id", site.ID,
		"history_messages", len(history),
		"prompt_tokens_estimate", llm.EstimateTokens(preamble.String())+llm.EstimateTokens(userText),
		"has_image", image != nil,
	)

	return messages, nil
}

// renderReference builds the author/book reference block. Missing author
// profiles are tolerated; the block simply shrinks.
func (b *ContextBuilder) renderReference(ctx context.Context, site *models.Site) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Reference data\n\n")

	author, err := b.siteRepo.GetAuthor(ctx, site.UserID)
	if err == nil {
		sb.WriteString(fmt.Sprintf("Author: %s\n", author.DisplayName))
		if author.Bio != "" {
			sb.WriteString(fmt.Sprintf("Bio: %s\n", author.Bio))
		}
		if author.PhotoURL != nil && *author.PhotoURL != "" {
			sb.WriteString(fmt.Sprintf("Profile photo URL: %s\n", *author.PhotoURL))
		}
		sb.WriteString("\n")
	}

	books, err := b.siteRepo.ListBooks(ctx, site.ID)
	if err != nil {
		return "", err
	}
	for _, book := range books {
		if site.PrimaryBookID != nil && book.ID == *site.PrimaryBookID {
			sb.WriteString(fmt.Sprintf("### Book: %s (primary)\n", book.Title))
		} else {
			sb.WriteString(fmt.Sprintf("### Book: %s\n", book.Title))
		}
		if book.Subtitle != "" {
			sb.WriteString(fmt.Sprintf("Subtitle: %s\n", book.Subtitle))
		}
		if book.CoverURL != nil && *book.CoverURL != "" {
			sb.WriteString(fmt.Sprintf("Cover URL: %s\n", *book.CoverURL))
		}
		if book.Hook != "" {
			sb.WriteString(fmt.Sprintf("Hook: %s\n", book.Hook))
		}
		if book.About != "" {
			sb.WriteString(fmt.Sprintf("About: %s\n", book.About))
		}
		for _, link := range book.Links {
			sb.WriteString(fmt.Sprintf("Link: %s\n", link))
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// renderImageInstructions tells the model how, and how exclusively, the
// uploaded image may be used.
func renderImageInstructions(image *models.UserImage) string {
	var sb strings.Builder
	sb.WriteString("## Uploaded image\n\n")
	sb.WriteString(fmt.Sprintf("%s = %s\n\n", imageURLToken, image.PublicURL()))
	sb.WriteString("The user attached an image. If and only if the user's message asks for the image to be used on the site, embed it with exactly this tag:\n\n")
	sb.WriteString(fmt.Sprintf("<img src=\"%s\" alt=\"...\">\n\n", image.PublicURL()))
	sb.WriteString("Write descriptive alt text derived from the user's message. Do not use any other image URL anywhere, and do not invent image URLs.\n\n")
	return sb.String()
}

// renderFileTree concatenates the latest-active tree, each file as
// "path\ncontent".
func (b *ContextBuilder) renderFileTree(ctx context.Context, siteID string) (string, error) {
	files, err := b.fileRepo.LatestActiveFiles(ctx, siteID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("## Current site files\n\n")
	if len(files) == 0 {
		sb.WriteString("(no files yet)\n\n")
		return sb.String(), nil
	}

	for _, file := range files {
		sb.WriteString(sitefile.JoinPath(file.Folder, file.Filename))
		sb.WriteString("\n")
		sb.WriteString(file.Content)
		sb.WriteString("\n\n")
	}

	return sb.String(), nil
}

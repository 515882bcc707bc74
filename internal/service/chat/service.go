package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"siteforge/internal/domain"
	"siteforge/internal/domain/models"
	"siteforge/internal/domain/repositories"
	"siteforge/internal/llm"
)

// gatewayApology prefixes the assistant message persisted when the provider
// call fails. The internal error detail is appended after it.
const gatewayApology = "Sorry, I couldn't process that request. "

// fallbackErrorMessage is persisted best-effort when the turn transaction
// itself fails, so the transcript never silently loses the user's turn.
const fallbackErrorMessage = "Sorry, something went wrong while saving the changes for this request. Please try again."

// Completer is the gateway contract the turn service depends on.
type Completer interface {
	Complete(ctx context.Context, model, systemPrompt string, messages []llm.Message) *llm.Result
}

// TurnRequest is one chat submission.
type TurnRequest struct {
	SiteID  string `json:"-"`
	UserID  string `json:"-"`
	Message string `json:"message"`
	ImageID string `json:"image_id,omitempty"`
}

// TurnResult is the outcome of one processed chat turn.
type TurnResult struct {
	Reply                  string               `json:"reply"`
	FilesUpdated           bool                 `json:"files_updated"`
	UserCorrelationID      string               `json:"user_correlation_id"`
	AssistantCorrelationID string               `json:"assistant_correlation_id"`
	Files                  []models.FileVersion `json:"files,omitempty"`
}

// Service orchestrates one chat turn: authorize, assemble context, call the
// gateway, parse the response protocol, screen the batch, and apply mutations
// together with the message pair in a single transaction.
type Service struct {
	siteRepo     repositories.SiteRepository
	msgRepo      repositories.MessageRepository
	fileRepo     repositories.FileRepository
	imageRepo    repositories.ImageRepository
	txManager    repositories.TransactionManager
	builder      *ContextBuilder
	gateway      Completer
	gate         *Gate
	executor     *Executor
	model        string
	systemPrompt string
	logger       *slog.Logger
}

// NewService creates the turn orchestration service
func NewService(
	siteRepo repositories.SiteRepository,
	msgRepo repositories.MessageRepository,
	fileRepo repositories.FileRepository,
	imageRepo repositories.ImageRepository,
	txManager repositories.TransactionManager,
	builder *ContextBuilder,
	gateway Completer,
	gate *Gate,
	executor *Executor,
	model string,
	systemPrompt string,
	logger *slog.Logger,
) *Service {
	return &Service{
		siteRepo:     siteRepo,
		msgRepo:      msgRepo,
		fileRepo:     fileRepo,
		imageRepo:    imageRepo,
		txManager:    txManager,
		builder:      builder,
		gateway:      gateway,
		gate:         gate,
		executor:     executor,
		model:        model,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

func (s *Service) validateTurnRequest(req *TurnRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Message, validation.Required, validation.Length(1, 20000)),
		validation.Field(&req.ImageID, validation.When(req.ImageID != "", validation.Length(36, 36))),
	)
}

// ProcessTurn runs one synchronous chat turn. Gateway failures, security
// rejections, and successful batches all end with a persisted message pair;
// only an authorization failure leaves the transcript untouched.
func (s *Service) ProcessTurn(ctx context.Context, req *TurnRequest) (*TurnResult, error) {
	if err := s.validateTurnRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Authorization happens before any processing; a non-owner gets nothing
	// persisted.
	site, err := s.siteRepo.GetByID(ctx, req.SiteID, req.UserID)
	if err != nil {
		return nil, err
	}

	var image *models.UserImage
	var imageIDs []string
	if req.ImageID != "" {
		image, err = s.imageRepo.GetByID(ctx, req.ImageID)
		if err != nil {
			return nil, err
		}
		if image.SiteID != site.ID {
			return nil, fmt.Errorf("image %s: %w", req.ImageID, domain.ErrForbidden)
		}
		imageIDs = []string{image.ID}
	}

	messages, err := s.builder.Build(ctx, site, req.Message, image)
	if err != nil {
		return nil, err
	}

	// One attempt per turn. Retry is the user resubmitting.
	completion := s.gateway.Complete(ctx, s.model, s.systemPrompt, messages)

	userMsg := &models.ChatMessage{
		SiteID:         site.ID,
		Role:           models.RoleUser,
		Content:        req.Message,
		PromptImageIDs: imageIDs,
		CorrelationID:  uuid.NewString(),
	}
	assistantMsg := &models.ChatMessage{
		SiteID:        site.ID,
		Role:          models.RoleAssistant,
		CorrelationID: uuid.NewString(),
	}

	result := &TurnResult{
		UserCorrelationID:      userMsg.CorrelationID,
		AssistantCorrelationID: assistantMsg.CorrelationID,
	}

	if completion.IsError() {
		// No mutation is attempted; the pair is still recorded so the
		// transcript keeps the user's turn.
		detail := strings.TrimPrefix(completion.Content, llm.ErrorPrefix)
		assistantMsg.Content = gatewayApology + "(" + detail + ")"
		if err := s.persistPair(ctx, site.ID, userMsg, assistantMsg); err != nil {
			return nil, err
		}
		result.Reply = assistantMsg.Content
		return result, nil
	}

	parsed := ParseResponse(completion.Content)
	screened := s.gate.Screen(site.ID, parsed.Ops)

	if screened.Rejected {
		assistantMsg.Content = joinReply(parsed.Reply, screened.Reason)
		if err := s.persistPair(ctx, site.ID, userMsg, assistantMsg); err != nil {
			return nil, err
		}
		result.Reply = assistantMsg.Content
		return result, nil
	}

	assistantMsg.Content = parsed.Reply
	if assistantMsg.Content == "" {
		assistantMsg.Content = "Done."
	}

	var createdVersions []int64
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.txManager.LockSite(txCtx, site.ID); err != nil {
			return err
		}
		if err := s.msgRepo.Create(txCtx, userMsg); err != nil {
			return err
		}
		if err := s.msgRepo.Create(txCtx, assistantMsg); err != nil {
			return err
		}

		createdVersions, err = s.executor.Apply(txCtx, site.ID, screened.Ops)
		if err != nil {
			return err
		}

		return s.fileRepo.LinkMessagePair(txCtx, createdVersions, []string{
			userMsg.CorrelationID,
			assistantMsg.CorrelationID,
		})
	})
	if err != nil {
		s.logger.Error("turn transaction failed",
			"site_id", site.ID,
			"error", err,
		)
		// Best effort, outside the rolled-back transaction: keep the user's
		// turn visible with a minimal assistant error reply.
		assistantMsg.Content = fallbackErrorMessage
		if persistErr := s.persistPair(ctx, site.ID, userMsg, assistantMsg); persistErr != nil {
			s.logger.Error("fallback message persistence failed",
				"site_id", site.ID,
				"error", persistErr,
			)
		}
		return nil, err
	}

	result.Reply = assistantMsg.Content
	result.FilesUpdated = len(createdVersions) > 0

	if result.FilesUpdated {
		files, err := s.fileRepo.LatestActiveFiles(ctx, site.ID)
		if err != nil {
			return nil, err
		}
		result.Files = files
	}

	s.logger.Info("turn processed",
		"site_id", site.ID,
		"operations", len(screened.Ops),
		"versions_created", len(createdVersions),
		"files_updated", result.FilesUpdated,
	)

	return result, nil
}

// ListMessages returns the visible transcript for a site.
func (s *Service) ListMessages(ctx context.Context, siteID, userID string) ([]models.ChatMessage, error) {
	if _, err := s.siteRepo.GetByID(ctx, siteID, userID); err != nil {
		return nil, err
	}
	return s.msgRepo.ListBySite(ctx, siteID)
}

// persistPair records a user/assistant pair atomically with no file activity.
func (s *Service) persistPair(ctx context.Context, siteID string, user, assistant *models.ChatMessage) error {
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.txManager.LockSite(txCtx, siteID); err != nil {
			return err
		}
		if err := s.msgRepo.Create(txCtx, user); err != nil {
			return err
		}
		return s.msgRepo.Create(txCtx, assistant)
	})
}

func joinReply(prose, notice string) string {
	if prose == "" {
		return notice
	}
	return prose + "\n\n" + notice
}

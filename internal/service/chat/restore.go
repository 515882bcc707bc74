package chat

import (
	"context"
	"log/slog"

	"siteforge/internal/domain/repositories"
)

// RestoreResult reports what one undo call removed.
type RestoreResult struct {
	RevertedMessageIDs  []string `json:"reverted_message_ids"`
	FileVersionsDropped int64    `json:"file_versions_dropped"`
}

// RestoreService reverts the most recent chat turn: it hard-deletes every file
// version the turn created and removes the turn's message pair. Calling it
// again walks one turn further back; it is not a point-in-time rollback. A
// turn that produced no file versions (plain reply or a rejected batch) is
// still undone - the last message pair always goes.
type RestoreService struct {
	siteRepo  repositories.SiteRepository
	msgRepo   repositories.MessageRepository
	fileRepo  repositories.FileRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewRestoreService creates a new restore service
func NewRestoreService(
	siteRepo repositories.SiteRepository,
	msgRepo repositories.MessageRepository,
	fileRepo repositories.FileRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *RestoreService {
	return &RestoreService{
		siteRepo:  siteRepo,
		msgRepo:   msgRepo,
		fileRepo:  fileRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// RestoreLastTurn removes the most recent message pair and the file versions
// linked to it. Returns the removed correlation ids so the caller can
// reconcile a displayed transcript.
func (s *RestoreService) RestoreLastTurn(ctx context.Context, siteID, userID string) (*RestoreResult, error) {
	if _, err := s.siteRepo.GetByID(ctx, siteID, userID); err != nil {
		return nil, err
	}

	result := &RestoreResult{}
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.txManager.LockSite(txCtx, siteID); err != nil {
			return err
		}

		user, assistant, err := s.msgRepo.LastPair(txCtx, siteID)
		if err != nil {
			return err
		}

		// Versions are stamped with both correlation ids; either matches.
		dropped, err := s.fileRepo.DeleteByCorrelationID(txCtx, siteID, assistant.CorrelationID)
		if err != nil {
			return err
		}

		correlationIDs := []string{user.CorrelationID, assistant.CorrelationID}
		if err := s.msgRepo.DeleteByCorrelationIDs(txCtx, siteID, correlationIDs); err != nil {
			return err
		}

		result.RevertedMessageIDs = correlationIDs
		result.FileVersionsDropped = dropped
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("last turn restored",
		"site_id", siteID,
		"reverted_message_ids", result.RevertedMessageIDs,
		"file_versions_dropped", result.FileVersionsDropped,
	)

	return result, nil
}

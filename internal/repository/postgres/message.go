package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"siteforge/internal/domain"
	"siteforge/internal/domain/models"
	"siteforge/internal/domain/repositories"
)

// PostgresMessageRepository implements the MessageRepository interface
type PostgresMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(config *RepositoryConfig) repositories.MessageRepository {
	return &PostgresMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends a chat message to the transcript
func (r *PostgresMessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (site_id, role, content, prompt_image_ids, correlation_id, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.ChatMessages)

	if msg.PromptImageIDs == nil {
		msg.PromptImageIDs = []string{}
	}

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		msg.SiteID,
		msg.Role,
		msg.Content,
		msg.PromptImageIDs,
		msg.CorrelationID,
		msg.IsDeleted,
	).Scan(&msg.ID, &msg.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("site %s: %w", msg.SiteID, domain.ErrNotFound)
		}
		return fmt.Errorf("create chat message: %w", err)
	}

	return nil
}

// ListBySite returns the full non-deleted transcript for a site, oldest-first
func (r *PostgresMessageRepository) ListBySite(ctx context.Context, siteID string) ([]models.ChatMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, site_id, role, content, prompt_image_ids, correlation_id, is_deleted, created_at
		FROM %s
		WHERE site_id = $1 AND is_deleted = FALSE
		ORDER BY id ASC
	`, r.tables.ChatMessages)

	return r.queryMessages(ctx, query, siteID)
}

// ListRecent returns up to limit non-deleted messages, oldest-first. The
// window is anchored at the newest messages: select newest-first, limit, then
// flip the order.
func (r *PostgresMessageRepository) ListRecent(ctx context.Context, siteID string, limit int) ([]models.ChatMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, site_id, role, content, prompt_image_ids, correlation_id, is_deleted, created_at
		FROM (
			SELECT id, site_id, role, content, prompt_image_ids, correlation_id, is_deleted, created_at
			FROM %s
			WHERE site_id = $1 AND is_deleted = FALSE
			ORDER BY id DESC
			LIMIT $2
		) recent
		ORDER BY id ASC
	`, r.tables.ChatMessages)

	return r.queryMessages(ctx, query, siteID, limit)
}

// LastPair returns the most recent {user, assistant} message pair.
func (r *PostgresMessageRepository) LastPair(ctx context.Context, siteID string) (*models.ChatMessage, *models.ChatMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, site_id, role, content, prompt_image_ids, correlation_id, is_deleted, created_at
		FROM %s
		WHERE site_id = $1 AND is_deleted = FALSE
		ORDER BY id DESC
		LIMIT 2
	`, r.tables.ChatMessages)

	msgs, err := r.queryMessages(ctx, query, siteID)
	if err != nil {
		return nil, nil, err
	}
	if len(msgs) < 2 {
		return nil, nil, fmt.Errorf("last message pair for site %s: %w", siteID, domain.ErrNotFound)
	}

	// Newest-first: msgs[0] is the assistant reply, msgs[1] the user prompt.
	assistant, user := &msgs[0], &msgs[1]
	if user.Role != models.RoleUser || assistant.Role != models.RoleAssistant {
		return nil, nil, fmt.Errorf("last messages for site %s do not form a user/assistant pair: %w", siteID, domain.ErrNotFound)
	}

	return user, assistant, nil
}

// DeleteByCorrelationIDs hard-deletes messages by correlation id.
func (r *PostgresMessageRepository) DeleteByCorrelationIDs(ctx context.Context, siteID string, correlationIDs []string) error {
	if len(correlationIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE site_id = $1 AND correlation_id = ANY($2)
	`, r.tables.ChatMessages)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, siteID, correlationIDs); err != nil {
		return fmt.Errorf("delete messages by correlation id: %w", err)
	}

	return nil
}

// DeleteAllBySite removes the whole transcript for a site.
func (r *PostgresMessageRepository) DeleteAllBySite(ctx context.Context, siteID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE site_id = $1`, r.tables.ChatMessages)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, siteID); err != nil {
		return fmt.Errorf("delete all messages: %w", err)
	}

	return nil
}

func (r *PostgresMessageRepository) queryMessages(ctx context.Context, query string, args ...interface{}) ([]models.ChatMessage, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		err := rows.Scan(
			&msg.ID,
			&msg.SiteID,
			&msg.Role,
			&msg.Content,
			&msg.PromptImageIDs,
			&msg.CorrelationID,
			&msg.IsDeleted,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	return messages, nil
}

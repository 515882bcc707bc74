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

// PostgresSiteRepository implements the SiteRepository interface
type PostgresSiteRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSiteRepository creates a new site repository
func NewSiteRepository(config *RepositoryConfig) repositories.SiteRepository {
	return &PostgresSiteRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new site
func (r *PostgresSiteRepository) Create(ctx context.Context, site *models.Site) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, name, slug, primary_book_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, r.tables.Sites)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		site.ID,
		site.UserID,
		site.Name,
		site.Slug,
		site.PrimaryBookID,
	).Scan(&site.CreatedAt, &site.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("site slug '%s' %w", site.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("create site: %w", err)
	}

	return nil
}

// GetByID retrieves a site by ID, scoped to its owner
func (r *PostgresSiteRepository) GetByID(ctx context.Context, id, userID string) (*models.Site, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, slug, primary_book_id, created_at, updated_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Sites)

	executor := GetExecutor(ctx, r.pool)
	site, err := scanSite(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("site %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get site: %w", err)
	}

	return site, nil
}

// GetBySlug retrieves a site by its public slug (no owner scope - used by the
// preview server)
func (r *PostgresSiteRepository) GetBySlug(ctx context.Context, slug string) (*models.Site, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, slug, primary_book_id, created_at, updated_at
		FROM %s
		WHERE slug = $1
	`, r.tables.Sites)

	executor := GetExecutor(ctx, r.pool)
	site, err := scanSite(executor.QueryRow(ctx, query, slug))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("site '%s': %w", slug, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get site by slug: %w", err)
	}

	return site, nil
}

// ListByUser lists sites owned by a user
func (r *PostgresSiteRepository) ListByUser(ctx context.Context, userID string) ([]models.Site, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, slug, primary_book_id, created_at, updated_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, r.tables.Sites)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, *site)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sites: %w", err)
	}

	return sites, nil
}

// Update updates a site's mutable fields
func (r *PostgresSiteRepository) Update(ctx context.Context, site *models.Site) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, slug = $2, primary_book_id = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
	`, r.tables.Sites)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		site.Name,
		site.Slug,
		site.PrimaryBookID,
		site.ID,
		site.UserID,
	)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("site slug '%s' %w", site.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("update site: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("site %s: %w", site.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a site. File versions and chat messages cascade via FK.
func (r *PostgresSiteRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Sites)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("site %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// GetAuthor retrieves the author profile for a user
func (r *PostgresSiteRepository) GetAuthor(ctx context.Context, userID string) (*models.Author, error) {
	query := fmt.Sprintf(`
		SELECT user_id, display_name, bio, photo_url
		FROM %s
		WHERE user_id = $1
	`, r.tables.Authors)

	executor := GetExecutor(ctx, r.pool)
	var author models.Author
	err := executor.QueryRow(ctx, query, userID).Scan(
		&author.UserID,
		&author.DisplayName,
		&author.Bio,
		&author.PhotoURL,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("author %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get author: %w", err)
	}

	return &author, nil
}

// ListBooks returns the books linked to a site (primary plus featured).
// The primary book sorts first.
func (r *PostgresSiteRepository) ListBooks(ctx context.Context, siteID string) ([]models.Book, error) {
	query := fmt.Sprintf(`
		SELECT b.id, b.user_id, b.title, b.subtitle, b.cover_url, b.hook, b.about, b.links
		FROM %s b
		JOIN %s sb ON sb.book_id = b.id
		JOIN %s s ON s.id = sb.site_id
		WHERE sb.site_id = $1
		ORDER BY (b.id = s.primary_book_id) DESC, b.title ASC
	`, r.tables.Books, r.tables.SiteBooks, r.tables.Sites)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("list site books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		err := rows.Scan(
			&book.ID,
			&book.UserID,
			&book.Title,
			&book.Subtitle,
			&book.CoverURL,
			&book.Hook,
			&book.About,
			&book.Links,
		)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}

	return books, nil
}

func scanSite(row scanner) (*models.Site, error) {
	var site models.Site
	err := row.Scan(
		&site.ID,
		&site.UserID,
		&site.Name,
		&site.Slug,
		&site.PrimaryBookID,
		&site.CreatedAt,
		&site.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &site, nil
}

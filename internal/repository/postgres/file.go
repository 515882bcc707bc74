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

// PostgresFileRepository implements the FileRepository interface over the
// append-only file_versions log.
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// LatestActiveFiles returns the highest version per (folder, filename),
// filtered to non-tombstones. A single window-function query: ranking versions
// per path descending and keeping rank 1 avoids both N+1 lookups and a
// separate mutable "current files" table.
func (r *PostgresFileRepository) LatestActiveFiles(ctx context.Context, siteID string) ([]models.FileVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, site_id, folder, filename, filetype, version, content, is_deleted, message_correlation_ids, created_at, updated_at
		FROM (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY folder, filename ORDER BY version DESC) AS rn
			FROM %s
			WHERE site_id = $1
		) ranked
		WHERE rn = 1 AND is_deleted = FALSE
		ORDER BY folder ASC, filename ASC
	`, r.tables.FileVersions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("list latest active files: %w", err)
	}
	defer rows.Close()

	var files []models.FileVersion
	for rows.Next() {
		fv, err := scanFileVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file version: %w", err)
		}
		files = append(files, *fv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file versions: %w", err)
	}

	return files, nil
}

// FindLatestActive returns the latest-active version at a path. A tombstoned
// latest version means the path is absent from the current tree.
func (r *PostgresFileRepository) FindLatestActive(ctx context.Context, siteID, folder, filename string) (*models.FileVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, site_id, folder, filename, filetype, version, content, is_deleted, message_correlation_ids, created_at, updated_at
		FROM %s
		WHERE site_id = $1 AND folder = $2 AND filename = $3
		ORDER BY version DESC
		LIMIT 1
	`, r.tables.FileVersions)

	executor := GetExecutor(ctx, r.pool)
	fv, err := scanFileVersion(executor.QueryRow(ctx, query, siteID, folder, filename))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", fullPath(folder, filename), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find latest file version: %w", err)
	}

	if fv.IsDeleted {
		return nil, fmt.Errorf("file %s: %w", fullPath(folder, filename), domain.ErrNotFound)
	}

	return fv, nil
}

// NextVersion returns max(version)+1 for the path, or 1 when the path has no
// history. Tombstones are counted so a resurrected path continues numbering
// after its tombstone.
func (r *PostgresFileRepository) NextVersion(ctx context.Context, siteID, folder, filename string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(version), 0) + 1
		FROM %s
		WHERE site_id = $1 AND folder = $2 AND filename = $3
	`, r.tables.FileVersions)

	executor := GetExecutor(ctx, r.pool)
	var next int
	if err := executor.QueryRow(ctx, query, siteID, folder, filename).Scan(&next); err != nil {
		return 0, fmt.Errorf("next file version: %w", err)
	}

	return next, nil
}

// CreateVersion appends a version row to the log.
func (r *PostgresFileRepository) CreateVersion(ctx context.Context, fv *models.FileVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (site_id, folder, filename, filetype, version, content, is_deleted, message_correlation_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.FileVersions)

	if fv.MessageCorrelationIDs == nil {
		fv.MessageCorrelationIDs = []string{}
	}

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		fv.SiteID,
		fv.Folder,
		fv.Filename,
		fv.Filetype,
		fv.Version,
		fv.Content,
		fv.IsDeleted,
		fv.MessageCorrelationIDs,
	).Scan(&fv.ID, &fv.CreatedAt, &fv.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("file version %s v%d: %w", fullPath(fv.Folder, fv.Filename), fv.Version, domain.ErrConflict)
		}
		return fmt.Errorf("create file version: %w", err)
	}

	return nil
}

// LinkMessagePair stamps the given version rows with the correlation ids of
// the message pair that produced them.
func (r *PostgresFileRepository) LinkMessagePair(ctx context.Context, versionIDs []int64, correlationIDs []string) error {
	if len(versionIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET message_correlation_ids = $1, updated_at = NOW()
		WHERE id = ANY($2)
	`, r.tables.FileVersions)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, correlationIDs, versionIDs); err != nil {
		return fmt.Errorf("link message pair: %w", err)
	}

	return nil
}

// FindByCorrelationID returns every version whose correlation-id set includes
// the given id.
func (r *PostgresFileRepository) FindByCorrelationID(ctx context.Context, siteID, correlationID string) ([]models.FileVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, site_id, folder, filename, filetype, version, content, is_deleted, message_correlation_ids, created_at, updated_at
		FROM %s
		WHERE site_id = $1 AND $2 = ANY(message_correlation_ids)
		ORDER BY id ASC
	`, r.tables.FileVersions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, siteID, correlationID)
	if err != nil {
		return nil, fmt.Errorf("find versions by correlation id: %w", err)
	}
	defer rows.Close()

	var files []models.FileVersion
	for rows.Next() {
		fv, err := scanFileVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file version: %w", err)
		}
		files = append(files, *fv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file versions: %w", err)
	}

	return files, nil
}

// DeleteByCorrelationID hard-deletes the versions created by a message pair.
// This is the only physical delete against the version log; it is used
// exclusively by the restore engine.
func (r *PostgresFileRepository) DeleteByCorrelationID(ctx context.Context, siteID, correlationID string) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE site_id = $1 AND $2 = ANY(message_correlation_ids)
	`, r.tables.FileVersions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, siteID, correlationID)
	if err != nil {
		return 0, fmt.Errorf("delete versions by correlation id: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteAllBySite removes the whole version log for a site.
func (r *PostgresFileRepository) DeleteAllBySite(ctx context.Context, siteID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE site_id = $1`, r.tables.FileVersions)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, siteID); err != nil {
		return fmt.Errorf("delete all file versions: %w", err)
	}

	return nil
}

// fullPath renders a stored (folder, filename) pair for error detail. Folders
// are kept in leading-slash form with root as "/", so only root needs no
// separator.
func fullPath(folder, filename string) string {
	if folder == "/" {
		return "/" + filename
	}
	return folder + "/" + filename
}

// scanner defines the interface for row scanning (implemented by both pgx.Row and pgx.Rows)
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFileVersion(row scanner) (*models.FileVersion, error) {
	var fv models.FileVersion
	err := row.Scan(
		&fv.ID,
		&fv.SiteID,
		&fv.Folder,
		&fv.Filename,
		&fv.Filetype,
		&fv.Version,
		&fv.Content,
		&fv.IsDeleted,
		&fv.MessageCorrelationIDs,
		&fv.CreatedAt,
		&fv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &fv, nil
}

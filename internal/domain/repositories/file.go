package repositories

import (
	"context"

	"siteforge/internal/domain/models"
)

// FileRepository is the append-only versioned file store. Current file state is
// always a derived view over the version log: max version per (folder,
// filename), filtered to non-tombstones.
type FileRepository interface {
	// LatestActiveFiles returns, for every distinct (folder, filename) under
	// the site, the version with the maximum version number, filtered to
	// is_deleted=false and ordered by folder then filename. Implementations
	// must resolve this with a single max-version-per-group query.
	LatestActiveFiles(ctx context.Context, siteID string) ([]models.FileVersion, error)

	// FindLatestActive returns the latest-active version at a path, or
	// domain.ErrNotFound when the path is absent or its latest version is a
	// tombstone.
	FindLatestActive(ctx context.Context, siteID, folder, filename string) (*models.FileVersion, error)

	// NextVersion returns max(version)+1 for the path, or 1 if the path has no
	// versions. Tombstones count: a previously deleted path resumes numbering
	// after its tombstone.
	NextVersion(ctx context.Context, siteID, folder, filename string) (int, error)

	// CreateVersion appends a version row. It never fails on duplicate paths,
	// only on a duplicate (site, folder, filename, version).
	CreateVersion(ctx context.Context, fv *models.FileVersion) error

	// LinkMessagePair stamps every version row in ids with the correlation ids
	// of the message pair that produced it.
	LinkMessagePair(ctx context.Context, versionIDs []int64, correlationIDs []string) error

	// FindByCorrelationID returns all versions whose correlation-id set
	// includes the given id.
	FindByCorrelationID(ctx context.Context, siteID, correlationID string) ([]models.FileVersion, error)

	// DeleteByCorrelationID hard-deletes every version produced by the given
	// message pair. Used only by the restore engine.
	DeleteByCorrelationID(ctx context.Context, siteID, correlationID string) (int64, error)

	DeleteAllBySite(ctx context.Context, siteID string) error
}

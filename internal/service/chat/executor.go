package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"siteforge/internal/domain"
	"siteforge/internal/domain/models"
	"siteforge/internal/domain/repositories"
	"siteforge/internal/service/sitefile"
)

// Executor applies an approved operation batch to the file store. It must run
// inside the turn transaction so the message pair and every version row commit
// or roll back together.
type Executor struct {
	fileRepo repositories.FileRepository
	logger   *slog.Logger
}

// NewExecutor creates a new mutation executor
func NewExecutor(fileRepo repositories.FileRepository, logger *slog.Logger) *Executor {
	return &Executor{fileRepo: fileRepo, logger: logger}
}

// batchState tracks version numbers already issued for paths touched earlier
// in the same batch, so a rename followed by a write to the vacated path never
// re-reads a stale MAX(version).
type batchState struct {
	issued map[string]int
}

func (b *batchState) key(folder, filename string) string {
	return folder + "\x00" + filename
}

func (b *batchState) record(folder, filename string, version int) {
	b.issued[b.key(folder, filename)] = version
}

// Apply executes the operations in batch order (renames, deletes, writes) and
// returns the IDs of every version row created. Lookups of absent paths are
// no-ops, not errors.
func (e *Executor) Apply(ctx context.Context, siteID string, ops []FileOp) ([]int64, error) {
	state := &batchState{issued: make(map[string]int)}

	var created []int64
	for _, op := range ops {
		ids, err := e.applyOne(ctx, siteID, op, state)
		if err != nil {
			return nil, err
		}
		created = append(created, ids...)
	}

	return created, nil
}

func (e *Executor) applyOne(ctx context.Context, siteID string, op FileOp, state *batchState) ([]int64, error) {
	switch op.Kind {
	case OpRename:
		return e.applyRename(ctx, siteID, op, state)
	case OpDelete:
		return e.applyDelete(ctx, siteID, op, state)
	case OpWrite:
		return e.applyWrite(ctx, siteID, op, state)
	default:
		return nil, fmt.Errorf("apply operation: unknown kind %q", op.Kind)
	}
}

// applyRename tombstones the old path and re-creates the content at the new
// path. The destination starts a fresh version history rather than carrying
// the source's numbering forward.
func (e *Executor) applyRename(ctx context.Context, siteID string, op FileOp, state *batchState) ([]int64, error) {
	current, err := e.fileRepo.FindLatestActive(ctx, siteID, op.FromFolder, op.FromFilename)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	tombstone, err := e.appendVersion(ctx, siteID, op.FromFolder, op.FromFilename, current.Content, true, state)
	if err != nil {
		return nil, err
	}

	moved, err := e.appendVersion(ctx, siteID, op.ToFolder, op.ToFilename, current.Content, false, state)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("file renamed",
		"site_id", siteID,
		"from", sitefile.JoinPath(op.FromFolder, op.FromFilename),
		"to", sitefile.JoinPath(op.ToFolder, op.ToFilename),
	)

	return []int64{tombstone.ID, moved.ID}, nil
}

// applyDelete appends a tombstone carrying the prior content forward. History
// stays intact; only the derived current tree loses the path.
func (e *Executor) applyDelete(ctx context.Context, siteID string, op FileOp, state *batchState) ([]int64, error) {
	current, err := e.fileRepo.FindLatestActive(ctx, siteID, op.Folder, op.Filename)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	tombstone, err := e.appendVersion(ctx, siteID, op.Folder, op.Filename, current.Content, true, state)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("file deleted",
		"site_id", siteID,
		"path", sitefile.JoinPath(op.Folder, op.Filename),
		"version", tombstone.Version,
	)

	return []int64{tombstone.ID}, nil
}

// applyWrite appends a new active version. Version numbering ignores the
// deleted state of prior versions, so a write resurrects a tombstoned path at
// the next number after its tombstone.
func (e *Executor) applyWrite(ctx context.Context, siteID string, op FileOp, state *batchState) ([]int64, error) {
	fv, err := e.appendVersion(ctx, siteID, op.Folder, op.Filename, op.Content, false, state)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("file written",
		"site_id", siteID,
		"path", sitefile.JoinPath(op.Folder, op.Filename),
		"version", fv.Version,
	)

	return []int64{fv.ID}, nil
}

func (e *Executor) appendVersion(ctx context.Context, siteID, folder, filename, content string, isDeleted bool, state *batchState) (*models.FileVersion, error) {
	version, err := e.nextVersion(ctx, siteID, folder, filename, state)
	if err != nil {
		return nil, err
	}

	fv := &models.FileVersion{
		SiteID:    siteID,
		Folder:    folder,
		Filename:  filename,
		Filetype:  models.Filetype(filename),
		Version:   version,
		Content:   content,
		IsDeleted: isDeleted,
	}
	if err := e.fileRepo.CreateVersion(ctx, fv); err != nil {
		return nil, err
	}

	state.record(folder, filename, version)
	return fv, nil
}

func (e *Executor) nextVersion(ctx context.Context, siteID, folder, filename string, state *batchState) (int, error) {
	if last, ok := state.issued[state.key(folder, filename)]; ok {
		return last + 1, nil
	}
	return e.fileRepo.NextVersion(ctx, siteID, folder, filename)
}

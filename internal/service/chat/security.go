package chat

import (
	"fmt"
	"log/slog"

	"siteforge/internal/domain/models"
	"siteforge/internal/policy"
	"siteforge/internal/service/sitefile"
)

// SecurityNotice is appended to the assistant's visible reply when a batch is
// rejected. The wording is fixed; tests and clients match on it.
const SecurityNotice = "Note: the requested file changes were blocked because they would create a server-executable file. No files were changed."

// Gate validates a pending-operation batch against the file policy before any
// mutation happens. Two failure modes with deliberately different blast radii:
//
//   - policy violation (a write targeting a server-executable file type)
//     rejects the whole batch atomically;
//   - shape violation (bad folder or filename on one operation) silently drops
//     just that operation and the batch continues.
type Gate struct {
	policy *policy.Registry
	logger *slog.Logger
}

// NewGate creates a security gate over the file policy
func NewGate(policyRegistry *policy.Registry, logger *slog.Logger) *Gate {
	return &Gate{policy: policyRegistry, logger: logger}
}

// GateResult is the outcome of screening one batch.
type GateResult struct {
	// Rejected is true when any write targeted a blocked file type. No
	// operation from the batch may be applied.
	Rejected bool

	// Reason carries the fixed notice for the visible reply when rejected.
	Reason string

	// Ops are the surviving operations, paths normalized, in the original
	// batch order.
	Ops []FileOp
}

// Screen evaluates the batch. Policy is checked across every pending write
// first; shape validation runs per-operation afterwards.
func (g *Gate) Screen(siteID string, ops []FileOp) *GateResult {
	for _, op := range ops {
		if op.Kind != OpWrite {
			continue
		}
		if ext := models.Filetype(op.Filename); g.policy.IsBlockedExtension(ext) {
			g.logger.Warn("batch rejected by security policy",
				"site_id", siteID,
				"filename", op.Filename,
				"filetype", ext,
			)
			return &GateResult{Rejected: true, Reason: SecurityNotice}
		}
	}

	result := &GateResult{}
	for _, op := range ops {
		normalized, err := normalizeOp(op)
		if err != nil {
			// Shape violations skip the single operation; the user sees no
			// difference from the model simply not touching that file.
			g.logger.Warn("skipping malformed file operation",
				"site_id", siteID,
				"kind", op.Kind,
				"error", err,
			)
			continue
		}
		result.Ops = append(result.Ops, normalized)
	}

	return result
}

func normalizeOp(op FileOp) (FileOp, error) {
	switch op.Kind {
	case OpRename:
		if !sitefile.ValidFilename(op.FromFilename) {
			return op, fmt.Errorf("invalid source filename %q", op.FromFilename)
		}
		if !sitefile.ValidFilename(op.ToFilename) {
			return op, fmt.Errorf("invalid target filename %q", op.ToFilename)
		}
		op.FromFolder = sitefile.NormalizeFolder(op.FromFolder)
		op.ToFolder = sitefile.NormalizeFolder(op.ToFolder)
		return op, nil

	case OpDelete, OpWrite:
		if !sitefile.ValidFilename(op.Filename) {
			return op, fmt.Errorf("invalid filename %q", op.Filename)
		}
		op.Folder = sitefile.NormalizeFolder(op.Folder)
		return op, nil

	default:
		return op, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

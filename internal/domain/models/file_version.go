package models

import (
	"strings"
	"time"
)

// FileVersion is a single version of one generated file path. Current state is
// always derived from the append-only version log: the latest-active file for a
// path is the highest version with IsDeleted=false. A version with
// IsDeleted=true is a tombstone marking the path as removed while keeping
// history. Rows are never mutated; only the restore engine hard-deletes them.
type FileVersion struct {
	ID                    int64     `json:"id"`
	SiteID                string    `json:"-"`
	Folder                string    `json:"folder"`
	Filename              string    `json:"filename"`
	Filetype              string    `json:"filetype"`
	Version               int       `json:"version"`
	Content               string    `json:"content"`
	IsDeleted             bool      `json:"-"`
	MessageCorrelationIDs []string  `json:"-"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Filetype derives the lowercase extension for a filename, without the dot.
// Returns "" when there is no extension.
func Filetype(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

package models

import "time"

// Upload states of a file record. A row is created as pending before the
// payload hits the disk and confirmed afterwards; rows stuck in pending are
// reclaimed by the sweeper.
const (
	FileStatusPending = "pending"
	FileStatusActive  = "active"
)

// File is the metadata record for one stored payload.
//
// Path is the canonical slash-normalized path relative to the owner's root
// directory; (UserID, Path) is unique. The physical location is always
// <data dir>/<UserID>/<Path>.
type File struct {
	ID        string
	Name      string
	Path      string
	Size      int64
	Extension string
	Status    string
	UserID    string
	CreatedAt time.Time
}

// FileFilter is the typed search filter. Zero-valued fields are dropped from
// the query; whatever remains is ANDed together with the forced owner
// constraint.
type FileFilter struct {
	// PathContains matches records whose path contains the substring.
	PathContains string
	// Extension matches exactly.
	Extension string
	// OrderBy names the ordering column; see files.Repository for the
	// accepted values. Empty means creation-time order.
	OrderBy string
	// Limit caps the number of rows; 0 means no limit.
	Limit int
}

// Package storage maps user-supplied logical paths to physical locations
// under per-user root directories and performs the offloaded disk writes.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mpavlovs/filestore/internal/common"
)

// Target is the outcome of resolving a logical path for one owner.
//
// Canonical is the slash-normalized path stored in the metadata record,
// relative to the owner's root. Dir is the absolute directory that was
// created for the write. Name is the explicit filename taken from the last
// path segment, or empty when the path named only directories; then the
// caller must supply a filename via WithName before the write. Location is
// the absolute file location and is empty until a filename is known.
type Target struct {
	Canonical string
	Dir       string
	Name      string
	Location  string
}

// WithName returns a copy of the target with the display name appended to
// both the canonical path and the physical location. The name must be a
// single plain segment under the same rules Resolve applies: separators and
// the "." and ".." segments would place the write outside Dir and fail with
// common.ErrInvalidPath. Calling it on a target that already has an explicit
// filename is a caller bug.
func (t Target) WithName(name string) (Target, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return Target{}, fmt.Errorf("filename %q: %w", name, common.ErrInvalidPath)
	}
	t.Name = name
	t.Canonical = t.Canonical + "/" + name
	t.Location = filepath.Join(t.Dir, name)
	return t, nil
}

// Resolver maps (owner id, raw path) pairs onto the data directory.
// The owner's root is keyed by the immutable user id so that renaming a user
// can never move or orphan stored files.
type Resolver struct {
	baseDir string
}

// NewResolver creates a resolver rooted at baseDir.
func NewResolver(baseDir string) *Resolver {
	return &Resolver{baseDir: baseDir}
}

// UserRoot returns the owner's physical root directory.
func (r *Resolver) UserRoot(userID string) string {
	return filepath.Join(r.baseDir, userID)
}

// Locate maps a stored canonical path back to its absolute location.
func (r *Resolver) Locate(userID, canonical string) string {
	return filepath.Join(r.UserRoot(userID), filepath.FromSlash(canonical))
}

// Resolve normalizes rawPath and prepares the write target:
//
//   - splits on "/" and drops empty segments, so leading, trailing and
//     duplicated slashes are all tolerated;
//   - fails with common.ErrInvalidPath when nothing remains;
//   - treats a last segment containing a "." as the explicit filename,
//     otherwise the whole path is a directory chain;
//   - creates the directory chain under the owner's root (idempotent).
func (r *Resolver) Resolve(userID, rawPath string) (Target, error) {

	segments := splitPath(rawPath)
	if len(segments) == 0 {
		return Target{}, fmt.Errorf("path %q: %w", rawPath, common.ErrInvalidPath)
	}
	for _, s := range segments {
		// "." and ".." would escape the owner's root once joined.
		if s == "." || s == ".." {
			return Target{}, fmt.Errorf("path %q: %w", rawPath, common.ErrInvalidPath)
		}
	}

	var name string
	dirSegments := segments
	if strings.Contains(segments[len(segments)-1], ".") {
		name = segments[len(segments)-1]
		dirSegments = segments[:len(segments)-1]
	}

	dir := filepath.Join(append([]string{r.UserRoot(userID)}, dirSegments...)...)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return Target{}, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	target := Target{
		Canonical: strings.Join(segments, "/"),
		Dir:       dir,
		Name:      name,
	}
	if name != "" {
		target.Location = filepath.Join(dir, name)
	}
	return target, nil
}

// splitPath breaks rawPath on slashes and discards empty segments.
func splitPath(rawPath string) []string {
	parts := strings.Split(rawPath, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// Extension returns the substring after the last dot of the filename, or an
// empty string when the filename has no dot.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}

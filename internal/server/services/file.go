package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mpavlovs/filestore/internal/common"
	"github.com/mpavlovs/filestore/internal/logging"
	"github.com/mpavlovs/filestore/internal/server/cache"
	"github.com/mpavlovs/filestore/internal/server/models"
	"github.com/mpavlovs/filestore/internal/server/repositories/repomanager"
	"github.com/mpavlovs/filestore/internal/server/storage"
)

// FileContent is what a download returns: the stored payload plus the display
// name the client should save it under.
type FileContent struct {
	Name    string
	Payload []byte
}

// cacheEntry is the value stored under download cache keys. It carries just
// enough of the metadata record to locate the payload on disk without a
// database round trip.
type cacheEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// FileService orchestrates uploads, downloads and metadata search.
//
// An upload runs in two phases: the metadata row is inserted in the pending
// state before the disk write and only confirmed active after the write
// succeeds. A crash between the phases leaves a pending row (and possibly a
// file) that the sweeper collects later, so readers never see a record whose
// payload might be missing.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	resolver    *storage.Resolver
	writer      *storage.Writer
	cache       cache.Cache
	cacheTTL    time.Duration
	log         logging.Logger
}

// NewFileService constructs a FileService. Pass cache.Noop{} when no cache
// backend is configured.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager, resolver *storage.Resolver,
	writer *storage.Writer, c cache.Cache, cacheTTL time.Duration, log logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		resolver:    resolver,
		writer:      writer,
		cache:       c,
		cacheTTL:    cacheTTL,
		log:         log,
	}
}

// Upload stores the payload under the owner's logical path and records its
// metadata. When rawPath names only directories, uploadName (the name the
// client sent the file as) becomes the filename. The returned record is
// active.
func (s *FileService) Upload(ctx context.Context, userID, rawPath, uploadName string, payload []byte) (*models.File, error) {
	target, err := s.resolver.Resolve(userID, rawPath)
	if err != nil {
		return nil, err
	}
	if target.Name == "" {
		if uploadName == "" {
			return nil, fmt.Errorf("no filename in path and none supplied: %w", common.ErrInvalidPath)
		}
		target, err = target.WithName(uploadName)
		if err != nil {
			return nil, err
		}
	}

	repo := s.repomanager.Files(s.db)
	record, err := repo.Create(ctx, &models.File{
		Name:      target.Name,
		Path:      target.Canonical,
		Size:      int64(len(payload)),
		Extension: storage.Extension(target.Name),
		UserID:    userID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.writer.Write(ctx, target.Location, payload); err != nil {
		// Roll the pending row back so the path frees up immediately. If even
		// that fails the sweeper will collect the row later.
		if delErr := repo.Delete(ctx, record.ID); delErr != nil {
			s.log.Error(ctx, "failed to roll back pending record after write failure",
				"file_id", record.ID, "error", delErr)
		}
		return nil, err
	}

	if err := repo.MarkActive(ctx, record.ID); err != nil {
		return nil, fmt.Errorf("error confirming record %s: %w", record.ID, err)
	}
	record.Status = models.FileStatusActive

	return record, nil
}

// Download returns the payload and display name for one of the owner's files.
// When both path and id are supplied, path wins; when neither is supplied the
// request is rejected. Lookups are cache-aside: a hit skips the metadata
// store entirely.
func (s *FileService) Download(ctx context.Context, userID, path, id string) (*FileContent, error) {
	switch {
	case path != "":
		return s.downloadByPath(ctx, userID, path)
	case id != "":
		return s.downloadByID(ctx, userID, id)
	default:
		return nil, fmt.Errorf("either path or id is required: %w", common.ErrorBadRequest)
	}
}

func (s *FileService) downloadByPath(ctx context.Context, userID, path string) (*FileContent, error) {
	key := "path:" + userID + ":" + path
	if entry, ok := s.cacheLookup(ctx, key); ok {
		return s.readContent(ctx, userID, entry)
	}

	file, err := s.repomanager.Files(s.db).GetByPath(ctx, userID, path)
	if err != nil {
		return nil, err
	}

	entry := cacheEntry{Name: file.Name, Path: file.Path}
	s.cacheStore(ctx, key, entry)
	return s.readContent(ctx, userID, entry)
}

func (s *FileService) downloadByID(ctx context.Context, userID, id string) (*FileContent, error) {
	// Ids are uuid columns; a malformed id cannot match anything and would
	// only produce a db error.
	if err := uuid.Validate(id); err != nil {
		return nil, fmt.Errorf("malformed id %q: %w", id, common.ErrorNotFound)
	}

	key := "id:" + id
	if entry, ok := s.cacheLookup(ctx, key); ok {
		return s.readContent(ctx, userID, entry)
	}

	file, err := s.repomanager.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Records are global by id; the payload is not. A foreign id must look
	// exactly like a missing one.
	if file.UserID != userID {
		return nil, common.ErrorNotFound
	}

	entry := cacheEntry{Name: file.Name, Path: file.Path}
	s.cacheStore(ctx, key, entry)
	return s.readContent(ctx, userID, entry)
}

// readContent loads the payload from the owner's root. The caller has already
// established ownership, so the entry's path is joined under userID only.
func (s *FileService) readContent(ctx context.Context, userID string, entry cacheEntry) (*FileContent, error) {
	location := s.resolver.Locate(userID, entry.Path)
	payload, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("payload missing at %s: %w", location, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error reading %s: %w", location, err)
	}
	return &FileContent{Name: entry.Name, Payload: payload}, nil
}

// cacheLookup is best-effort: backend failures and undecodable values degrade
// to a miss.
func (s *FileService) cacheLookup(ctx context.Context, key string) (cacheEntry, bool) {
	value, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "cache lookup failed", "key", key, "error", err)
		return cacheEntry{}, false
	}
	if !ok {
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(value, &entry); err != nil {
		s.log.Warn(ctx, "discarding undecodable cache entry", "key", key, "error", err)
		return cacheEntry{}, false
	}
	return entry, true
}

func (s *FileService) cacheStore(ctx context.Context, key string, entry cacheEntry) {
	value, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.log.Warn(ctx, "cache store failed", "key", key, "error", err)
	}
}

// Search returns the owner's active records matching the filter.
func (s *FileService) Search(ctx context.Context, userID string, filter models.FileFilter) ([]*models.File, error) {
	results, err := s.repomanager.Files(s.db).Search(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("error searching files: %w", err)
	}
	return results, nil
}

// ListByUser returns all of the owner's active records.
func (s *FileService) ListByUser(ctx context.Context, userID string) ([]*models.File, error) {
	results, err := s.repomanager.Files(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	return results, nil
}

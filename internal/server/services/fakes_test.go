package services

// Hand-written fakes used by the service tests. Each fake records enough of
// the calls it receives to let tests assert on orchestration order without a
// database.

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mpavlovs/filestore/internal/common"
	"github.com/mpavlovs/filestore/internal/dbx"
	"github.com/mpavlovs/filestore/internal/logging"
	"github.com/mpavlovs/filestore/internal/server/models"
	"github.com/mpavlovs/filestore/internal/server/repositories/files"
	"github.com/mpavlovs/filestore/internal/server/repositories/refreshtokens"
	"github.com/mpavlovs/filestore/internal/server/repositories/users"
)

type fakeRepoManager struct {
	users         users.Repository
	refreshTokens refreshtokens.Repository
	files         files.Repository
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                  { return m.users }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository  { return m.refreshTokens }
func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository                  { return m.files }

type fakeUserRepo struct {
	byLogin   map[string]*models.User
	byID      map[string]*models.User
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byLogin: map[string]*models.User{},
		byID:    map[string]*models.User{},
	}
}

func (r *fakeUserRepo) add(u *models.User) {
	r.byLogin[u.Username] = u
	r.byID[u.ID] = u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.byLogin[user.Username]; ok {
		return nil, common.ErrorUserExists
	}
	created := &models.User{
		ID:           "u-" + user.Username,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now(),
	}
	r.add(created)
	return created, nil
}

func (r *fakeUserRepo) GetByLogin(ctx context.Context, username string) (*models.User, error) {
	u, ok := r.byLogin[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeRefreshTokenRepo struct {
	mu      sync.Mutex
	tokens  map[string]*models.RefreshToken
	deleted []string
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: map[string]*models.RefreshToken{}}
}

func (r *fakeRefreshTokenRepo) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = &models.RefreshToken{
		UserID:  userID,
		Token:   token,
		Expires: time.Now().Add(validity),
	}
	return nil
}

func (r *fakeRefreshTokenRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (r *fakeRefreshTokenRepo) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	r.deleted = append(r.deleted, token)
	return nil
}

type fakeFileRepo struct {
	mu         sync.Mutex
	byID       map[string]*models.File
	byPath     map[string]*models.File
	createErr  error
	markErr    error
	deleteErr  error
	deletedIDs []string
	getCalls   int
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{
		byID:   map[string]*models.File{},
		byPath: map[string]*models.File{},
	}
}

func (r *fakeFileRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.byPath[file.UserID+"/"+file.Path]; ok {
		return nil, common.ErrorBadRequest
	}
	created := &models.File{
		ID:        uuid.NewString(),
		Name:      file.Name,
		Path:      file.Path,
		Size:      file.Size,
		Extension: file.Extension,
		Status:    models.FileStatusPending,
		UserID:    file.UserID,
		CreatedAt: time.Now(),
	}
	r.byID[created.ID] = created
	r.byPath[created.UserID+"/"+created.Path] = created
	return created, nil
}

func (r *fakeFileRepo) MarkActive(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	f, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.Status = models.FileStatusActive
	return nil
}

func (r *fakeFileRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedIDs = append(r.deletedIDs, id)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	f, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byPath, f.UserID+"/"+f.Path)
	delete(r.byID, id)
	return nil
}

func (r *fakeFileRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	f, ok := r.byID[id]
	if !ok || f.Status != models.FileStatusActive {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *fakeFileRepo) GetByPath(ctx context.Context, userID, path string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	f, ok := r.byPath[userID+"/"+path]
	if !ok || f.Status != models.FileStatusActive {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *fakeFileRepo) Search(ctx context.Context, userID string, filter models.FileFilter) ([]*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.File
	for _, f := range r.byID {
		if f.UserID == userID && f.Status == models.FileStatusActive {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) ListByUser(ctx context.Context, userID string) ([]*models.File, error) {
	return r.Search(ctx, userID, models.FileFilter{})
}

func (r *fakeFileRepo) SelectStalePending(ctx context.Context, cutoff time.Time) ([]*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.File
	for _, f := range r.byID {
		if f.Status == models.FileStatusPending && f.CreatedAt.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out, nil
}

// spyCache wraps a map and counts calls so tests can assert the metadata
// store was skipped on a hit.
type spyCache struct {
	mu     sync.Mutex
	values map[string][]byte
	gets   int
	sets   int
	getErr error
}

func newSpyCache() *spyCache {
	return &spyCache{values: map[string][]byte{}}
}

func (c *spyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *spyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.values[key] = value
	return nil
}

func (c *spyCache) Close() error { return nil }

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (nopLogger) With(args ...any) logging.Logger                    { return nopLogger{} }

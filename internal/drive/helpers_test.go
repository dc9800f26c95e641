package drive_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rohits-web03/sharedrive/internal/cache"
	"github.com/rohits-web03/sharedrive/internal/drive"
	"github.com/rohits-web03/sharedrive/internal/models"
	"github.com/rohits-web03/sharedrive/internal/repositories"
	"github.com/rohits-web03/sharedrive/internal/repositories/repotest"
	"go.uber.org/zap"
)

type env struct {
	svc     *drive.Service
	store   *repositories.GormStore
	cache   *recordingCache
	objects *fakeObjects
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := repotest.NewStore(t)
	return newEnvWithStore(t, store, store)
}

func newEnvWithStore(t *testing.T, store *repositories.GormStore, backing drive.Store) *env {
	t.Helper()
	c := &recordingCache{inner: cache.NewMemoryCache()}
	objects := newFakeObjects()
	svc := drive.NewService(backing, drive.Options{
		Cache:   c,
		Objects: objects,
		Logger:  zap.NewNop(),
	})
	return &env{svc: svc, store: store, cache: c, objects: objects}
}

func (e *env) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	return repotest.CreateUser(t, e.store, name).ID
}

func (e *env) folder(t *testing.T, owner uuid.UUID, name string, parent *uuid.UUID, public bool) *models.Folder {
	t.Helper()
	f, err := e.svc.CreateFolder(context.Background(), owner, name, parent, public)
	if err != nil {
		t.Fatalf("CreateFolder %s failed: %v", name, err)
	}
	return f
}

func (e *env) file(t *testing.T, owner uuid.UUID, name string, folder *uuid.UUID) *models.File {
	t.Helper()
	f, _, err := e.svc.CreateFile(context.Background(), owner, drive.NewFile{Name: name, FolderID: folder, Size: 10})
	if err != nil {
		t.Fatalf("CreateFile %s failed: %v", name, err)
	}
	return f
}

func (e *env) accessType(t *testing.T, id uuid.UUID) models.AccessType {
	t.Helper()
	f, err := e.store.GetFile(context.Background(), id)
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	return f.AccessType
}

func (e *env) shareCount(t *testing.T, kind models.ResourceKind, id uuid.UUID) int64 {
	t.Helper()
	n, err := e.store.CountSharesFor(context.Background(), kind, id)
	if err != nil {
		t.Fatalf("CountSharesFor failed: %v", err)
	}
	return n
}

func ids(users ...uuid.UUID) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.String()
	}
	return out
}

func fileNames(files []models.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func folderNames(folders []models.Folder) []string {
	out := make([]string, len(folders))
	for i, f := range folders {
		out[i] = f.Name
	}
	return out
}

// recordingCache remembers every eviction pattern.
type recordingCache struct {
	inner    cache.Cache
	mu       sync.Mutex
	patterns []string
}

func (r *recordingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return r.inner.Get(ctx, key)
}

func (r *recordingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.inner.Set(ctx, key, value, ttl)
}

func (r *recordingCache) DeleteByPattern(ctx context.Context, pattern string) error {
	r.mu.Lock()
	r.patterns = append(r.patterns, pattern)
	r.mu.Unlock()
	return r.inner.DeleteByPattern(ctx, pattern)
}

func (r *recordingCache) reset() {
	r.mu.Lock()
	r.patterns = nil
	r.mu.Unlock()
}

func (r *recordingCache) evicted(pattern string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.patterns, pattern)
}

// gatedCache holds the first Set of a key with the given prefix until
// release is closed. entered is closed once that Set has started.
type gatedCache struct {
	cache.Cache
	prefix  string
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedCache(prefix string) *gatedCache {
	return &gatedCache{
		Cache:   cache.NewMemoryCache(),
		prefix:  prefix,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if strings.HasPrefix(key, g.prefix) {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.Cache.Set(ctx, key, value, ttl)
}

// brokenCache fails every call.
type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error { return errCacheDown }

func (brokenCache) DeleteByPattern(context.Context, string) error { return errCacheDown }

// fakeObjects is an in-memory drive.ObjectStore.
type fakeObjects struct {
	mu      sync.Mutex
	deleted []string
}

func newFakeObjects() *fakeObjects { return &fakeObjects{} }

func (f *fakeObjects) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://objects.test/put/" + key, nil
}

func (f *fakeObjects) PresignGet(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://objects.test/get/" + key, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, key)
	f.mu.Unlock()
	return nil
}

// flakyStore fails share upserts for one user.
type flakyStore struct {
	*repositories.GormStore
	failFor uuid.UUID
}

func (f *flakyStore) UpsertShare(ctx context.Context, kind models.ResourceKind, resourceID, userID uuid.UUID, level models.AccessLevel) (*models.Share, bool, error) {
	if userID == f.failFor {
		return nil, false, &models.StorageError{Op: "create share", Err: errors.New("connection reset")}
	}
	return f.GormStore.UpsertShare(ctx, kind, resourceID, userID, level)
}

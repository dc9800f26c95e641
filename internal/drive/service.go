// Package drive implements folders, files and sharing on top of the
// ownership store, the access resolver and the cache.
package drive

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/access"
	"github.com/rohits-web03/sharedrive/internal/cache"
	"github.com/rohits-web03/sharedrive/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheTTL   = 5 * time.Minute
	DefaultPresignTTL = 15 * time.Minute

	// MaxTreeDepth bounds FoldersWithFiles recursion.
	MaxTreeDepth = 32
)

// Store is everything the service needs from persistence.
type Store interface {
	access.Store

	ExistingUserIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)

	CreateFolder(ctx context.Context, f *models.Folder) error
	UpdateFolder(ctx context.Context, f *models.Folder) error
	DeleteFolder(ctx context.Context, id uuid.UUID) error
	CountFolderChildren(ctx context.Context, id uuid.UUID) (folders, files int64, err error)
	ListVisibleFolders(ctx context.Context, parentID, actor *uuid.UUID) ([]models.Folder, error)

	CreateFile(ctx context.Context, f *models.File) error
	GetFile(ctx context.Context, id uuid.UUID) (*models.File, error)
	UpdateFile(ctx context.Context, f *models.File) error
	DeleteFile(ctx context.Context, id uuid.UUID) error
	ListFilesInFolder(ctx context.Context, folderID *uuid.UUID) ([]models.File, error)
	ListFilesSharedWith(ctx context.Context, userID uuid.UUID) ([]models.File, error)
	SetDerivedAccessType(ctx context.Context, fileID uuid.UUID, t models.AccessType) error

	UpsertShare(ctx context.Context, kind models.ResourceKind, resourceID, userID uuid.UUID, level models.AccessLevel) (*models.Share, bool, error)
	DeleteShare(ctx context.Context, kind models.ResourceKind, resourceID, userID uuid.UUID) (bool, error)
	DeleteSharesFor(ctx context.Context, kind models.ResourceKind, resourceID uuid.UUID) (int64, error)
	ListSharesFor(ctx context.Context, kind models.ResourceKind, resourceID uuid.UUID) ([]models.Share, error)
	CountSharesFor(ctx context.Context, kind models.ResourceKind, resourceID uuid.UUID) (int64, error)
}

// ObjectStore holds file contents. Clients move bytes through presigned URLs.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	PresignGet(ctx context.Context, key, filename string, expires time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Options struct {
	Cache      cache.Cache
	Objects    ObjectStore // nil disables presigned URLs
	Logger     *zap.Logger
	CacheTTL   time.Duration
	PresignTTL time.Duration
}

type Service struct {
	store    Store
	resolver *access.Resolver
	cache    cache.Cache
	objects  ObjectStore
	log      *zap.Logger

	cacheTTL   time.Duration
	presignTTL time.Duration

	fills singleflight.Group
	epoch atomic.Uint64 // bumped by every eviction
	// guard orders cache writes against evictions: fills store under the
	// read lock, evictions bump the epoch and delete under the write lock.
	guard sync.RWMutex
	locks *keyedMutex
	evict *invalidator
}

func NewService(store Store, opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = DefaultPresignTTL
	}

	s := &Service{
		store:      store,
		resolver:   access.NewResolver(store),
		cache:      opts.Cache,
		objects:    opts.Objects,
		log:        opts.Logger.Named("drive"),
		cacheTTL:   opts.CacheTTL,
		presignTTL: opts.PresignTTL,
		locks:      newKeyedMutex(),
	}
	s.evict = &invalidator{cache: opts.Cache, log: s.log, epoch: &s.epoch, guard: &s.guard}
	return s
}

// Resolver exposes the access resolver used by the service.
func (s *Service) Resolver() *access.Resolver {
	return s.resolver
}

// require resolves the actor's level and fails with ErrNotFound when the
// resource does not exist or the actor cannot read it, and with
// ErrAccessDenied when a readable resource needs a higher level.
func (s *Service) require(ctx context.Context, kind models.ResourceKind, id uuid.UUID, actor *uuid.UUID, min access.Level) (uuid.UUID, access.Level, error) {
	owner, err := s.store.FindOwner(ctx, kind, id)
	if err != nil {
		return uuid.Nil, access.NoAccess, err
	}
	level, err := s.resolver.ResolveLevel(ctx, kind, id, actor)
	if err != nil {
		return uuid.Nil, access.NoAccess, err
	}
	if level == access.NoAccess {
		return uuid.Nil, level, errors.Wrapf(models.ErrNotFound, "%s %s", kind, id)
	}
	if !level.AtLeast(min) {
		return owner, level, models.ErrAccessDenied
	}
	return owner, level, nil
}

package drive

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rohits-web03/sharedrive/internal/cache"
	"github.com/rohits-web03/sharedrive/internal/models"
	"go.uber.org/zap"
)

var (
	fileNamespaces   = []string{cache.Files, cache.FolderTree, cache.Shares}
	folderNamespaces = []string{cache.Folders, cache.FolderTree, cache.Files, cache.Shares}
)

// invalidator evicts every cache entry that could hold a view of a resource
// after a mutation. It errs on the side of deleting too much.
type invalidator struct {
	cache cache.Cache
	log   *zap.Logger
	epoch *atomic.Uint64
	guard *sync.RWMutex
}

// forUsers deletes the per-user entries of each namespace for every listed
// user plus the anonymous entries.
func (iv *invalidator) forUsers(ctx context.Context, namespaces []string, users []uuid.UUID) {
	segments := make([]string, 0, len(users)+1)
	seen := make(map[uuid.UUID]bool, len(users))
	for _, u := range users {
		if u == uuid.Nil || seen[u] {
			continue
		}
		seen[u] = true
		segments = append(segments, u.String())
	}
	segments = append(segments, cache.Anonymous)

	iv.guard.Lock()
	defer iv.guard.Unlock()
	iv.epoch.Add(1)
	for _, ns := range namespaces {
		for _, seg := range segments {
			iv.delete(ctx, cache.UserPattern(ns, seg))
		}
	}
}

// all flushes whole namespaces, for resources every actor may have seen.
func (iv *invalidator) all(ctx context.Context, namespaces []string) {
	iv.guard.Lock()
	defer iv.guard.Unlock()
	iv.epoch.Add(1)
	for _, ns := range namespaces {
		iv.delete(ctx, cache.NamespacePattern(ns))
	}
}

func (iv *invalidator) delete(ctx context.Context, pattern string) {
	if err := iv.cache.DeleteByPattern(ctx, pattern); err != nil {
		iv.log.Debug("cache eviction failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

// audience is the owner plus everyone currently holding a share. When the
// share list cannot be loaded ok is false and callers must flush instead.
func (s *Service) audience(ctx context.Context, kind models.ResourceKind, id, owner uuid.UUID) (users []uuid.UUID, ok bool) {
	users = []uuid.UUID{owner}
	shares, err := s.store.ListSharesFor(ctx, kind, id)
	if err != nil {
		s.log.Warn("loading share holders for eviction failed", zap.Stringer("resource", id), zap.Error(err))
		return users, false
	}
	for _, sh := range shares {
		users = append(users, sh.SharedWithUserID)
	}
	return users, true
}

// fileChanged evicts file listings, folder trees and share lists for the
// file's owner, its share holders and any extra users (recipients that were
// just added or removed).
func (s *Service) fileChanged(ctx context.Context, file *models.File, extra ...uuid.UUID) {
	users, ok := s.audience(ctx, models.KindFile, file.ID, file.OwnerID)
	if !ok {
		s.evict.all(ctx, fileNamespaces)
		return
	}
	s.evict.forUsers(ctx, fileNamespaces, append(users, extra...))
}

// folderChanged evicts folder listings and trees. A folder that is or was
// public is visible to everyone, so its namespaces are flushed wholesale.
func (s *Service) folderChanged(ctx context.Context, folder *models.Folder, wasPublic bool, extra ...uuid.UUID) {
	if folder.IsPublic || wasPublic {
		s.evict.all(ctx, folderNamespaces)
		return
	}
	var owner uuid.UUID
	if folder.OwnerID != nil {
		owner = *folder.OwnerID
	}
	users, ok := s.audience(ctx, models.KindFolder, folder.ID, owner)
	if !ok {
		s.evict.all(ctx, folderNamespaces)
		return
	}
	s.evict.forUsers(ctx, folderNamespaces, append(users, extra...))
}

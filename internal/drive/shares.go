package drive

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/access"
	"github.com/rohits-web03/sharedrive/internal/cache"
	"github.com/rohits-web03/sharedrive/internal/models"
	"go.uber.org/zap"
)

// BatchError reports a share batch that stopped part way. Shares upserted
// before the failure stay in place; nothing is rolled back.
type BatchError struct {
	Applied []uuid.UUID
	Failed  uuid.UUID
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("share with %s failed after %d applied: %v", e.Failed, len(e.Applied), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// ParseUserIDs validates a share target list: it must be non-empty and every
// entry must be a UUID. Duplicates are dropped, order is kept.
func ParseUserIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(models.ErrValidation, "no users to share with")
	}
	ids := make([]uuid.UUID, 0, len(raw))
	seen := make(map[uuid.UUID]bool, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(strings.TrimSpace(r))
		if err != nil || id == uuid.Nil {
			return nil, errors.Wrapf(models.ErrValidation, "malformed user id %q", r)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// Share grants each target the given level on a resource. The actor must own
// the resource or hold write access. Existing shares are updated in place.
// The loop is not transactional: on failure a *BatchError lists the targets
// already applied.
func (s *Service) Share(ctx context.Context, kind models.ResourceKind, resourceID, actor uuid.UUID, targets []string, level models.AccessLevel) ([]models.Share, error) {
	ids, err := ParseUserIDs(targets)
	if err != nil {
		return nil, err
	}
	if !level.Valid() {
		return nil, errors.Wrapf(models.ErrValidation, "invalid access level %q", level)
	}

	owner, _, err := s.require(ctx, kind, resourceID, &actor, access.Write)
	if err != nil {
		return nil, errors.Wrapf(err, "drive: share %s", kind)
	}
	if err := s.checkTargets(ctx, ids, owner); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(resourceID)
	defer unlock()

	applied := make([]uuid.UUID, 0, len(ids))
	shares := make([]models.Share, 0, len(ids))
	var batchErr error
	for _, id := range ids {
		sh, _, err := s.store.UpsertShare(ctx, kind, resourceID, id, level)
		if err != nil {
			batchErr = &BatchError{Applied: applied, Failed: id, Err: err}
			break
		}
		applied = append(applied, id)
		shares = append(shares, *sh)
	}

	if len(applied) > 0 {
		s.afterShareChange(ctx, kind, resourceID, true, applied)
	}
	if batchErr != nil {
		s.log.Warn("share batch stopped part way",
			zap.String("kind", string(kind)),
			zap.Stringer("resource", resourceID),
			zap.Int("applied", len(applied)),
			zap.Error(batchErr))
		return shares, batchErr
	}

	s.log.Info("resource shared",
		zap.String("kind", string(kind)),
		zap.Stringer("resource", resourceID),
		zap.Int("users", len(applied)),
		zap.String("level", string(level)))
	return shares, nil
}

// checkTargets refuses unknown or inactive users and the owner.
func (s *Service) checkTargets(ctx context.Context, ids []uuid.UUID, owner uuid.UUID) error {
	for _, id := range ids {
		if id == owner {
			return errors.Wrap(models.ErrValidation, "cannot share a resource with its owner")
		}
	}
	found, err := s.store.ExistingUserIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "drive: lookup share targets")
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		known[id] = true
	}
	for _, id := range ids {
		if !known[id] {
			return errors.Wrapf(models.ErrValidation, "unknown user %s", id)
		}
	}
	return nil
}

// Revoke removes target's share. The owner, a write holder, or the target
// itself may revoke.
func (s *Service) Revoke(ctx context.Context, kind models.ResourceKind, resourceID, actor, target uuid.UUID) error {
	min := access.Write
	if actor == target {
		min = access.Read
	}
	if _, _, err := s.require(ctx, kind, resourceID, &actor, min); err != nil {
		return errors.Wrapf(err, "drive: revoke %s share", kind)
	}

	unlock := s.locks.Lock(resourceID)
	defer unlock()

	removed, err := s.store.DeleteShare(ctx, kind, resourceID, target)
	if err != nil {
		return errors.Wrapf(err, "drive: revoke %s share", kind)
	}
	if !removed {
		return errors.Wrapf(models.ErrNotFound, "no share for user %s", target)
	}

	s.afterShareChange(ctx, kind, resourceID, true, []uuid.UUID{target})
	s.log.Info("share revoked",
		zap.String("kind", string(kind)),
		zap.Stringer("resource", resourceID),
		zap.Stringer("user", target))
	return nil
}

// RevokeAll deletes every share of a resource. Files are forced back to private.
func (s *Service) RevokeAll(ctx context.Context, kind models.ResourceKind, resourceID, actor uuid.UUID) (int64, error) {
	if _, _, err := s.require(ctx, kind, resourceID, &actor, access.Write); err != nil {
		return 0, errors.Wrapf(err, "drive: revoke %s shares", kind)
	}

	unlock := s.locks.Lock(resourceID)
	defer unlock()

	existing, err := s.store.ListSharesFor(ctx, kind, resourceID)
	if err != nil {
		return 0, errors.Wrapf(err, "drive: revoke %s shares", kind)
	}
	n, err := s.store.DeleteSharesFor(ctx, kind, resourceID)
	if err != nil {
		return 0, errors.Wrapf(err, "drive: revoke %s shares", kind)
	}

	affected := make([]uuid.UUID, 0, len(existing))
	for _, sh := range existing {
		affected = append(affected, sh.SharedWithUserID)
	}
	s.afterShareChange(ctx, kind, resourceID, false, affected)
	return n, nil
}

// ListShares returns the shares of a resource to its owner or a write holder.
func (s *Service) ListShares(ctx context.Context, kind models.ResourceKind, resourceID, actor uuid.UUID) ([]models.Share, error) {
	if _, _, err := s.require(ctx, kind, resourceID, &actor, access.Write); err != nil {
		return nil, errors.Wrapf(err, "drive: list %s shares", kind)
	}
	key := cache.Key(cache.Shares, &actor, string(kind), resourceID.String())
	return cached(ctx, s, key, func(ctx context.Context) ([]models.Share, error) {
		shares, err := s.store.ListSharesFor(ctx, kind, resourceID)
		if err != nil {
			return nil, errors.Wrap(err, "drive: list shares")
		}
		if shares == nil {
			shares = []models.Share{}
		}
		return shares, nil
	})
}

// afterShareChange re-derives the file's accessType and evicts every view
// that could include the resource. affected are users whose share was added,
// changed or removed.
func (s *Service) afterShareChange(ctx context.Context, kind models.ResourceKind, resourceID uuid.UUID, keepPublic bool, affected []uuid.UUID) {
	if kind == models.KindFile {
		file, err := s.syncAccessType(ctx, resourceID, keepPublic)
		if err != nil {
			s.log.Error("re-deriving file access type failed", zap.Stringer("file", resourceID), zap.Error(err))
			s.evict.all(ctx, fileNamespaces)
			return
		}
		s.fileChanged(ctx, file, affected...)
		return
	}

	folder, err := s.store.GetFolder(ctx, resourceID)
	if err != nil {
		s.evict.all(ctx, folderNamespaces)
		return
	}
	s.folderChanged(ctx, folder, false, affected...)
}

// syncAccessType is the single writer of File.AccessType. It derives the
// value from the share table: shared when any share exists, private
// otherwise. With keepPublic a file marked public stays public.
func (s *Service) syncAccessType(ctx context.Context, fileID uuid.UUID, keepPublic bool) (*models.File, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if keepPublic && file.AccessType == models.AccessPublic {
		return file, nil
	}

	n, err := s.store.CountSharesFor(ctx, models.KindFile, fileID)
	if err != nil {
		return nil, err
	}
	want := models.AccessPrivate
	if n > 0 {
		want = models.AccessShared
	}
	if file.AccessType != want {
		if err := s.store.SetDerivedAccessType(ctx, fileID, want); err != nil {
			return nil, err
		}
		file.AccessType = want
	}
	return file, nil
}

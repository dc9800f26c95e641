// Package access decides what an actor may do with a file or folder.
//
// Files and folders treat publicity differently. A file is reachable only by
// its owner and the users it is shared with; its accessType field is display
// state and is never consulted here. A folder is additionally readable by
// anyone, anonymous actors included, when its isPublic flag is set.
package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/models"
)

// Level is an actor's effective access to a resource. Levels are ordered.
type Level int

const (
	NoAccess Level = iota
	Read
	Write
	Owner
)

func (l Level) String() string {
	switch l {
	case Read:
		return "read"
	case Write:
		return "write"
	case Owner:
		return "owner"
	default:
		return "none"
	}
}

// AtLeast reports whether l grants everything min grants.
func (l Level) AtLeast(min Level) bool {
	return l >= min
}

// FromAccessLevel maps a share row's level onto the resolver scale.
func FromAccessLevel(a models.AccessLevel) Level {
	switch a {
	case models.LevelWrite:
		return Write
	case models.LevelRead:
		return Read
	default:
		return NoAccess
	}
}

// Store is the read side of the ownership and sharing store.
type Store interface {
	FindOwner(ctx context.Context, kind models.ResourceKind, id uuid.UUID) (uuid.UUID, error)
	FindShare(ctx context.Context, kind models.ResourceKind, resourceID, userID uuid.UUID) (*models.Share, error)
	GetFolder(ctx context.Context, id uuid.UUID) (*models.Folder, error)
}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveLevel returns the actor's level on a resource. A resource that does
// not exist resolves to NoAccess without error; only storage failures are
// returned.
func (r *Resolver) ResolveLevel(ctx context.Context, kind models.ResourceKind, id uuid.UUID, actor *uuid.UUID) (Level, error) {
	if kind == models.KindFolder {
		return r.resolveFolder(ctx, id, actor)
	}
	return r.resolveFile(ctx, id, actor)
}

// CanAccess reports whether the actor may at least read the resource.
func (r *Resolver) CanAccess(ctx context.Context, kind models.ResourceKind, id uuid.UUID, actor *uuid.UUID) (bool, error) {
	level, err := r.ResolveLevel(ctx, kind, id, actor)
	if err != nil {
		return false, err
	}
	return level.AtLeast(Read), nil
}

func (r *Resolver) resolveFile(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (Level, error) {
	owner, err := r.store.FindOwner(ctx, models.KindFile, id)
	if errors.Is(err, models.ErrNotFound) {
		return NoAccess, nil
	}
	if err != nil {
		return NoAccess, errors.Wrap(err, "access: load file owner")
	}

	if actor == nil {
		return NoAccess, nil
	}
	if *actor == owner {
		return Owner, nil
	}

	return r.shareLevel(ctx, models.KindFile, id, *actor)
}

func (r *Resolver) resolveFolder(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (Level, error) {
	folder, err := r.store.GetFolder(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return NoAccess, nil
	}
	if err != nil {
		return NoAccess, errors.Wrap(err, "access: load folder")
	}

	if actor != nil {
		if folder.OwnedBy(*actor) {
			return Owner, nil
		}
		level, err := r.shareLevel(ctx, models.KindFolder, id, *actor)
		if err != nil || level != NoAccess {
			return level, err
		}
	}

	if folder.IsPublic {
		return Read, nil
	}
	return NoAccess, nil
}

func (r *Resolver) shareLevel(ctx context.Context, kind models.ResourceKind, id, actor uuid.UUID) (Level, error) {
	share, err := r.store.FindShare(ctx, kind, id, actor)
	if err != nil {
		return NoAccess, errors.Wrap(err, "access: load share")
	}
	if share == nil {
		return NoAccess, nil
	}
	return FromAccessLevel(share.AccessLevel), nil
}

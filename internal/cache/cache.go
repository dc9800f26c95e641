// Package cache is the best-effort key-value cache sitting in front of the
// listing endpoints. Keys have the shape namespace:query:user where user is
// the acting user's id or "anon", so eviction can be scoped by entity and
// actor with glob patterns.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

// Cache is the collaborator the drive service talks to. Implementations may
// fail; callers treat every failure as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Namespaces.
const (
	Files      = "files"
	Folders    = "folders"
	FolderTree = "folder-tree"
	Shares     = "shares"
)

// Anonymous is the user segment for requests without an acting user.
const Anonymous = "anon"

// UserSegment renders the actor part of a key.
func UserSegment(userID *uuid.UUID) string {
	if userID == nil {
		return Anonymous
	}
	return userID.String()
}

// Key builds namespace:query:user. Query parts are joined with dots and must
// not contain colons.
func Key(namespace string, userID *uuid.UUID, query ...string) string {
	q := strings.Join(query, ".")
	if q == "" {
		q = "_"
	}
	return namespace + ":" + q + ":" + UserSegment(userID)
}

// UserPattern matches every entry of namespace cached for one user segment.
func UserPattern(namespace, segment string) string {
	return namespace + ":*:" + segment
}

// NamespacePattern matches every entry of namespace regardless of actor.
func NamespacePattern(namespace string) string {
	return namespace + ":*"
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Nop) DeleteByPattern(context.Context, string) error { return nil }

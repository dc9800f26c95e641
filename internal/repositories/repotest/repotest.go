// Package repotest opens throwaway in-memory stores for tests.
package repotest

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rohits-web03/sharedrive/internal/models"
	"github.com/rohits-web03/sharedrive/internal/repositories"
	"gorm.io/gorm"
)

// NewStore returns a migrated store backed by a private in-memory SQLite database.
func NewStore(t testing.TB) *repositories.GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), repositories.GormConfig())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	// every connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := repositories.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return repositories.NewGormStore(db)
}

// CreateUser inserts an active user with the given username.
func CreateUser(t testing.TB, s *repositories.GormStore, username string) *models.User {
	t.Helper()

	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Active:   true,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

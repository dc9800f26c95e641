package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccessLevel string

const (
	LevelRead  AccessLevel = "read"
	LevelWrite AccessLevel = "write"
)

func (l AccessLevel) Valid() bool {
	return l == LevelRead || l == LevelWrite
}

// ResourceKind selects which share table a share row lives in.
type ResourceKind string

const (
	KindFile   ResourceKind = "file"
	KindFolder ResourceKind = "folder"
)

func (k ResourceKind) ShareTable() string {
	if k == KindFolder {
		return "folder_shares"
	}
	return "file_shares"
}

// Share grants one user access to one file or folder. At most one row exists
// per (resource, user) pair; writers update in place instead of inserting.
type Share struct {
	ID               uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	ResourceID       uuid.UUID   `json:"resourceId" gorm:"type:uuid;not null;index"`
	SharedWithUserID uuid.UUID   `json:"sharedWithUserId" gorm:"type:uuid;not null;index"`
	AccessLevel      AccessLevel `json:"accessLevel" gorm:"type:varchar(8);not null"`
	CreatedAt        time.Time   `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time   `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (s *Share) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type FileShare struct {
	Share
}

func (FileShare) TableName() string { return KindFile.ShareTable() }

type FolderShare struct {
	Share
}

func (FolderShare) TableName() string { return KindFolder.ShareTable() }

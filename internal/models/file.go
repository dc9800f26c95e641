package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessType is the denormalized sharing state surfaced to clients. It mirrors
// whether a file has any active share and is never consulted for access checks.
type AccessType string

const (
	AccessPrivate AccessType = "private"
	AccessShared  AccessType = "shared"
	AccessPublic  AccessType = "public"
)

type File struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	FolderID    *uuid.UUID `json:"folderId" gorm:"type:uuid;index"`
	OwnerID     uuid.UUID  `json:"ownerId" gorm:"type:uuid;index;not null"`
	Name        string     `json:"name" gorm:"not null"`
	Size        int64      `json:"size" gorm:"not null;default:0"` // bytes
	ContentType string     `json:"contentType"`
	ObjectKey   string     `json:"-" gorm:"not null"` // object storage key
	AccessType  AccessType `json:"accessType" gorm:"type:varchar(16);not null;default:private"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.AccessType == "" {
		f.AccessType = AccessPrivate
	}
	return nil
}

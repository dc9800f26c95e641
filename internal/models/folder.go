package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PublicFolderName is the root folder listed ahead of every other root.
const PublicFolderName = "Public"

type Folder struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string     `json:"name" gorm:"not null"`
	ParentID  *uuid.UUID `json:"parentId" gorm:"type:uuid;index"`
	OwnerID   *uuid.UUID `json:"ownerId" gorm:"type:uuid;index"`
	IsPublic  bool       `json:"isPublic" gorm:"not null;default:false"` // copied from the parent at creation
	CreatedAt time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether userID owns the folder. Folders without an owner
// are owned by nobody.
func (f *Folder) OwnedBy(userID uuid.UUID) bool {
	return f.OwnerID != nil && *f.OwnerID == userID
}

// FolderNode is a folder with its accessible files and subfolders attached.
type FolderNode struct {
	Folder
	Files   []File       `json:"files"`
	Folders []FolderNode `json:"folders"`
}

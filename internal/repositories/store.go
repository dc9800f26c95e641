package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/models"
	"gorm.io/gorm"
)

// GormStore is the ownership and sharing store. It translates calls into
// parameterized SQL through gorm and maps rows back to models.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func fail(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(models.ErrNotFound, op)
	}
	return &models.StorageError{Op: op, Err: err}
}

// ---------- USERS ----------

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fail(err, "create user")
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, fail(err, "get user")
	}
	return &u, nil
}

func (s *GormStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, fail(err, "find user by username")
	}
	return &u, nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, fail(err, "find user by email")
	}
	return &u, nil
}

// ExistingUserIDs returns the subset of ids that belong to active users.
func (s *GormStore) ExistingUserIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	var found []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id IN ? AND active = ?", ids, true).
		Pluck("id", &found).Error
	if err != nil {
		return nil, fail(err, "lookup users")
	}
	return found, nil
}

// ---------- FOLDERS ----------

func (s *GormStore) CreateFolder(ctx context.Context, f *models.Folder) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fail(err, "create folder")
	}
	return nil
}

func (s *GormStore) GetFolder(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	var f models.Folder
	if err := s.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, fail(err, "get folder")
	}
	return &f, nil
}

func (s *GormStore) UpdateFolder(ctx context.Context, f *models.Folder) error {
	err := s.db.WithContext(ctx).
		Model(f).
		Select("name", "parent_id", "is_public").
		Updates(f).Error
	if err != nil {
		return fail(err, "update folder")
	}
	return nil
}

// DeleteFolder removes a folder together with its shares in one transaction.
func (s *GormStore) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	return s.deleteWithShares(ctx, models.KindFolder, &models.Folder{}, id, "delete folder")
}

// deleteWithShares removes a resource row and every share row pointing at it.
func (s *GormStore) deleteWithShares(ctx context.Context, kind models.ResourceKind, row any, id uuid.UUID, op string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(kind.ShareTable()).Where("resource_id = ?", id).Delete(&models.Share{}).Error; err != nil {
			return err
		}
		return tx.Delete(row, "id = ?", id).Error
	})
	if err != nil {
		return fail(err, op)
	}
	return nil
}

// CountFolderChildren counts the direct child folders and files of a folder.
func (s *GormStore) CountFolderChildren(ctx context.Context, id uuid.UUID) (folders, files int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&models.Folder{}).Where("parent_id = ?", id).Count(&folders).Error; err != nil {
		return 0, 0, fail(err, "count child folders")
	}
	if err = db.Model(&models.File{}).Where("folder_id = ?", id).Count(&files).Error; err != nil {
		return 0, 0, fail(err, "count child files")
	}
	return folders, files, nil
}

// ListVisibleFolders returns the folders directly under parentID (roots when
// nil) that the actor owns, has a share on, or that are public.
func (s *GormStore) ListVisibleFolders(ctx context.Context, parentID, actor *uuid.UUID) ([]models.Folder, error) {
	q := s.db.WithContext(ctx).Model(&models.Folder{})
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}

	if actor == nil {
		q = q.Where("is_public = ?", true)
	} else {
		shared := s.db.Table(models.KindFolder.ShareTable()).
			Select("resource_id").
			Where("shared_with_user_id = ?", *actor)
		q = q.Where(
			s.db.Where("is_public = ?", true).
				Or("owner_id = ?", *actor).
				Or("id IN (?)", shared),
		)
	}

	var folders []models.Folder
	if err := q.Find(&folders).Error; err != nil {
		return nil, fail(err, "list folders")
	}
	return folders, nil
}

// ---------- FILES ----------

func (s *GormStore) CreateFile(ctx context.Context, f *models.File) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fail(err, "create file")
	}
	return nil
}

func (s *GormStore) GetFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	var f models.File
	if err := s.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, fail(err, "get file")
	}
	return &f, nil
}

func (s *GormStore) UpdateFile(ctx context.Context, f *models.File) error {
	err := s.db.WithContext(ctx).
		Model(f).
		Select("name", "folder_id", "size", "content_type").
		Updates(f).Error
	if err != nil {
		return fail(err, "update file")
	}
	return nil
}

// DeleteFile removes a file together with its shares in one transaction.
func (s *GormStore) DeleteFile(ctx context.Context, id uuid.UUID) error {
	return s.deleteWithShares(ctx, models.KindFile, &models.File{}, id, "delete file")
}

// ListFilesInFolder returns every file directly in folderID (unfiled files when nil).
func (s *GormStore) ListFilesInFolder(ctx context.Context, folderID *uuid.UUID) ([]models.File, error) {
	q := s.db.WithContext(ctx).Model(&models.File{})
	if folderID == nil {
		q = q.Where("folder_id IS NULL")
	} else {
		q = q.Where("folder_id = ?", *folderID)
	}
	var files []models.File
	if err := q.Order("name").Find(&files).Error; err != nil {
		return nil, fail(err, "list files")
	}
	return files, nil
}

// ListFilesSharedWith returns the files holding a share row for userID.
func (s *GormStore) ListFilesSharedWith(ctx context.Context, userID uuid.UUID) ([]models.File, error) {
	shared := s.db.Table(models.KindFile.ShareTable()).
		Select("resource_id").
		Where("shared_with_user_id = ?", userID)
	var files []models.File
	err := s.db.WithContext(ctx).
		Where("id IN (?)", shared).
		Order("name").
		Find(&files).Error
	if err != nil {
		return nil, fail(err, "list shared files")
	}
	return files, nil
}

// SetDerivedAccessType writes the denormalized sharing state of a file.
func (s *GormStore) SetDerivedAccessType(ctx context.Context, fileID uuid.UUID, t models.AccessType) error {
	err := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ?", fileID).
		Update("access_type", t).Error
	if err != nil {
		return fail(err, "set access type")
	}
	return nil
}

// ---------- SHARES ----------

// FindOwner returns the owner of a file or folder. Folders without an owner
// yield uuid.Nil.
func (s *GormStore) FindOwner(ctx context.Context, kind models.ResourceKind, id uuid.UUID) (uuid.UUID, error) {
	if kind == models.KindFolder {
		f, err := s.GetFolder(ctx, id)
		if err != nil {
			return uuid.Nil, err
		}
		if f.OwnerID == nil {
			return uuid.Nil, nil
		}
		return *f.OwnerID, nil
	}
	f, err := s.GetFile(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	return f.OwnerID, nil
}

// FindShare returns the share row for (resource, user), or nil when none exists.
func (s *GormStore) FindShare(ctx context.Context, kind models.ResourceKind, resourceID, userID uuid.UUID) (*models.Share, error) {
	var shares []models.Share
	err := s.db.WithContext(ctx).
		Table(kind.ShareTable()).
		Where("resource_id = ? AND shared_with_user_id = ?", resourceID, userID).
		Limit(1).
		Find(&shares).Error
	if err != nil {
		return nil, fail(err, "find share")
	}
	if len(shares) == 0 {
		return nil, nil
	}
	return &shares[0], nil
}

// UpsertShare creates the share for (resource, user) or updates its level in place.
func (s *GormStore) UpsertShare(ctx context.Context, kind models.ResourceKind, resourceID, userID uuid.UUID, level models.AccessLevel) (*models.Share, bool, error) {
	existing, err := s.FindShare(ctx, kind, resourceID, userID)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		if existing.AccessLevel == level {
			return existing, false, nil
		}
		err := s.db.WithContext(ctx).
			Table(kind.ShareTable()).
			Where("id = ?", existing.ID).
			Update("access_level", level).Error
		if err != nil {
			return nil, false, fail(err, "update share")
		}
		existing.AccessLevel = level
		return existing, false, nil
	}

	share := &models.Share{
		ResourceID:       resourceID,
		SharedWithUserID: userID,
		AccessLevel:      level,
	}
	if err := s.db.WithContext(ctx).Table(kind.ShareTable()).Create(share).Error; err != nil {
		return nil, false, fail(err, "create share")
	}
	return share, true, nil
}

// DeleteShare removes the share for (resource, user) and reports whether a row existed.
func (s *GormStore) DeleteShare(ctx context.Context, kind models.ResourceKind, resourceID, userID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).
		Table(kind.ShareTable()).
		Where("resource_id = ? AND shared_with_user_id = ?", resourceID, userID).
		Delete(&models.Share{})
	if res.Error != nil {
		return false, fail(res.Error, "delete share")
	}
	return res.RowsAffected > 0, nil
}

// DeleteSharesFor sweeps every share of a resource.
func (s *GormStore) DeleteSharesFor(ctx context.Context, kind models.ResourceKind, resourceID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).
		Table(kind.ShareTable()).
		Where("resource_id = ?", resourceID).
		Delete(&models.Share{})
	if res.Error != nil {
		return 0, fail(res.Error, "delete shares")
	}
	return res.RowsAffected, nil
}

func (s *GormStore) ListSharesFor(ctx context.Context, kind models.ResourceKind, resourceID uuid.UUID) ([]models.Share, error) {
	var shares []models.Share
	err := s.db.WithContext(ctx).
		Table(kind.ShareTable()).
		Where("resource_id = ?", resourceID).
		Order("created_at").
		Find(&shares).Error
	if err != nil {
		return nil, fail(err, "list shares")
	}
	return shares, nil
}

func (s *GormStore) CountSharesFor(ctx context.Context, kind models.ResourceKind, resourceID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Table(kind.ShareTable()).
		Where("resource_id = ?", resourceID).
		Count(&n).Error
	if err != nil {
		return 0, fail(err, "count shares")
	}
	return n, nil
}

package drive

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/access"
	"github.com/rohits-web03/sharedrive/internal/cache"
	"github.com/rohits-web03/sharedrive/internal/models"
	"github.com/rohits-web03/sharedrive/internal/utils"
	"go.uber.org/zap"
)

// NewFile describes a file being registered before its bytes are uploaded.
type NewFile struct {
	Name        string
	FolderID    *uuid.UUID
	Size        int64
	ContentType string
}

// CreateFile registers a file owned by actor and returns a presigned upload
// URL (empty when no object store is configured). Placing a file in a folder
// requires write access to it.
func (s *Service) CreateFile(ctx context.Context, actor uuid.UUID, in NewFile) (*models.File, string, error) {
	name, err := validName(in.Name)
	if err != nil {
		return nil, "", err
	}
	if in.Size < 0 {
		return nil, "", errors.Wrap(models.ErrValidation, "negative size")
	}
	if in.FolderID != nil {
		if _, _, err := s.require(ctx, models.KindFolder, *in.FolderID, &actor, access.Write); err != nil {
			return nil, "", errors.Wrap(err, "drive: create file")
		}
	}

	token, err := utils.GenerateSecureToken(12)
	if err != nil {
		return nil, "", errors.Wrap(err, "drive: object key")
	}
	file := &models.File{
		ID:          uuid.New(),
		FolderID:    in.FolderID,
		OwnerID:     actor,
		Name:        name,
		Size:        in.Size,
		ContentType: in.ContentType,
		AccessType:  models.AccessPrivate,
	}
	file.ObjectKey = fmt.Sprintf("files/%s/%s/%s", actor, file.ID, token)

	if err := s.store.CreateFile(ctx, file); err != nil {
		return nil, "", errors.Wrap(err, "drive: create file")
	}

	var uploadURL string
	if s.objects != nil {
		uploadURL, err = s.objects.PresignPut(ctx, file.ObjectKey, file.ContentType, s.presignTTL)
		if err != nil {
			return nil, "", errors.Wrap(err, "drive: presign upload")
		}
	}

	s.log.Info("file created", zap.Stringer("file", file.ID), zap.Stringer("owner", actor))
	s.fileChanged(ctx, file)
	return file, uploadURL, nil
}

// GetFile returns a file the actor can read. Missing and unreadable files
// both yield ErrNotFound.
func (s *Service) GetFile(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*models.File, access.Level, error) {
	level, err := s.resolver.ResolveLevel(ctx, models.KindFile, id, actor)
	if err != nil {
		return nil, access.NoAccess, err
	}
	if !level.AtLeast(access.Read) {
		return nil, access.NoAccess, errors.Wrapf(models.ErrNotFound, "file %s", id)
	}
	file, err := s.store.GetFile(ctx, id)
	if err != nil {
		return nil, access.NoAccess, err
	}
	return file, level, nil
}

// DownloadURL presigns a download for a file the actor can read.
func (s *Service) DownloadURL(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*models.File, string, error) {
	file, _, err := s.GetFile(ctx, id, actor)
	if err != nil {
		return nil, "", err
	}
	if s.objects == nil {
		return nil, "", errors.New("drive: object storage is not configured")
	}
	url, err := s.objects.PresignGet(ctx, file.ObjectKey, file.Name, s.presignTTL)
	if err != nil {
		return nil, "", errors.Wrap(err, "drive: presign download")
	}
	return file, url, nil
}

// ListFiles lists the files directly in folderID (unfiled files when nil)
// that the actor can read. Files never become readable through publicity.
func (s *Service) ListFiles(ctx context.Context, folderID, actor *uuid.UUID) ([]models.File, error) {
	key := cache.Key(cache.Files, actor, "list", parentSegment(folderID))
	return cached(ctx, s, key, func(ctx context.Context) ([]models.File, error) {
		return s.accessibleFiles(ctx, folderID, actor)
	})
}

// ListSharedWithMe lists files other users have shared with actor.
func (s *Service) ListSharedWithMe(ctx context.Context, actor uuid.UUID) ([]models.File, error) {
	key := cache.Key(cache.Files, &actor, "shared")
	return cached(ctx, s, key, func(ctx context.Context) ([]models.File, error) {
		files, err := s.store.ListFilesSharedWith(ctx, actor)
		if err != nil {
			return nil, errors.Wrap(err, "drive: list shared files")
		}
		if files == nil {
			files = []models.File{}
		}
		return files, nil
	})
}

func (s *Service) accessibleFiles(ctx context.Context, folderID, actor *uuid.UUID) ([]models.File, error) {
	out := []models.File{}
	if actor == nil {
		return out, nil
	}
	files, err := s.store.ListFilesInFolder(ctx, folderID)
	if err != nil {
		return nil, errors.Wrap(err, "drive: list files")
	}
	for _, f := range files {
		ok, err := s.resolver.CanAccess(ctx, models.KindFile, f.ID, actor)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// RenameFile needs write access.
func (s *Service) RenameFile(ctx context.Context, actor, id uuid.UUID, name string) (*models.File, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.require(ctx, models.KindFile, id, &actor, access.Write); err != nil {
		return nil, errors.Wrap(err, "drive: rename file")
	}
	file, err := s.store.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	file.Name = name
	if err := s.store.UpdateFile(ctx, file); err != nil {
		return nil, errors.Wrap(err, "drive: rename file")
	}
	s.fileChanged(ctx, file)
	return file, nil
}

// MoveFile moves an owned file into a folder the actor can write to (nil
// unfiles it). Shares travel with the file.
func (s *Service) MoveFile(ctx context.Context, actor, id uuid.UUID, folderID *uuid.UUID) (*models.File, error) {
	if _, _, err := s.require(ctx, models.KindFile, id, &actor, access.Owner); err != nil {
		return nil, errors.Wrap(err, "drive: move file")
	}
	if folderID != nil {
		if _, _, err := s.require(ctx, models.KindFolder, *folderID, &actor, access.Write); err != nil {
			return nil, errors.Wrap(err, "drive: move file destination")
		}
	}
	file, err := s.store.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	file.FolderID = folderID
	if err := s.store.UpdateFile(ctx, file); err != nil {
		return nil, errors.Wrap(err, "drive: move file")
	}
	s.fileChanged(ctx, file)
	return file, nil
}

// DeleteFile removes an owned file with its shares and deletes its object.
func (s *Service) DeleteFile(ctx context.Context, actor, id uuid.UUID) error {
	if _, _, err := s.require(ctx, models.KindFile, id, &actor, access.Owner); err != nil {
		return errors.Wrap(err, "drive: delete file")
	}
	file, err := s.store.GetFile(ctx, id)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	users, ok := s.audience(ctx, models.KindFile, id, file.OwnerID)

	if err := s.store.DeleteFile(ctx, id); err != nil {
		return errors.Wrap(err, "drive: delete file")
	}
	if s.objects != nil {
		if err := s.objects.Delete(ctx, file.ObjectKey); err != nil {
			s.log.Warn("deleting file object failed", zap.String("key", file.ObjectKey), zap.Error(err))
		}
	}

	if ok {
		s.evict.forUsers(ctx, fileNamespaces, users)
	} else {
		s.evict.all(ctx, fileNamespaces)
	}
	s.log.Info("file deleted", zap.Stringer("file", id))
	return nil
}

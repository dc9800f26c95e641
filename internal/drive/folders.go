package drive

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/access"
	"github.com/rohits-web03/sharedrive/internal/cache"
	"github.com/rohits-web03/sharedrive/internal/models"
	"go.uber.org/zap"
)

const maxNameLength = 255

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength || strings.ContainsAny(name, "/\\") {
		return "", errors.Wrapf(models.ErrValidation, "invalid name %q", name)
	}
	return name, nil
}

func parentSegment(parentID *uuid.UUID) string {
	if parentID == nil {
		return "root"
	}
	return parentID.String()
}

// CreateFolder creates a folder owned by actor. A child folder takes the
// parent's current isPublic value; the requested flag only applies to roots.
// The value is copied once and never re-derived.
func (s *Service) CreateFolder(ctx context.Context, actor uuid.UUID, name string, parentID *uuid.UUID, isPublic bool) (*models.Folder, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}

	folder := &models.Folder{
		Name:     name,
		ParentID: parentID,
		OwnerID:  &actor,
		IsPublic: isPublic,
	}

	if parentID != nil {
		parent, err := s.store.GetFolder(ctx, *parentID)
		if err != nil {
			return nil, errors.Wrap(err, "drive: load parent folder")
		}
		if _, _, err := s.require(ctx, models.KindFolder, parent.ID, &actor, access.Write); err != nil {
			return nil, errors.Wrap(err, "drive: create folder")
		}
		folder.IsPublic = parent.IsPublic
	}

	if err := s.store.CreateFolder(ctx, folder); err != nil {
		return nil, errors.Wrap(err, "drive: create folder")
	}

	s.log.Info("folder created",
		zap.Stringer("folder", folder.ID),
		zap.Stringer("owner", actor),
		zap.Bool("public", folder.IsPublic))
	s.folderChanged(ctx, folder, false)
	return folder, nil
}

// GetFolder returns a folder the actor can read. Missing and unreadable
// folders both yield ErrNotFound.
func (s *Service) GetFolder(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*models.Folder, access.Level, error) {
	level, err := s.resolver.ResolveLevel(ctx, models.KindFolder, id, actor)
	if err != nil {
		return nil, access.NoAccess, err
	}
	if !level.AtLeast(access.Read) {
		return nil, access.NoAccess, errors.Wrapf(models.ErrNotFound, "folder %s", id)
	}
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, access.NoAccess, err
	}
	return folder, level, nil
}

// ListAccessibleFolders lists the folders directly under parentID (roots when
// nil) that the actor owns, has been shared, or that are public.
func (s *Service) ListAccessibleFolders(ctx context.Context, parentID, actor *uuid.UUID) ([]models.Folder, error) {
	key := cache.Key(cache.Folders, actor, "list", parentSegment(parentID))
	return cached(ctx, s, key, func(ctx context.Context) ([]models.Folder, error) {
		return s.listAccessibleFolders(ctx, parentID, actor)
	})
}

func (s *Service) listAccessibleFolders(ctx context.Context, parentID, actor *uuid.UUID) ([]models.Folder, error) {
	folders, err := s.store.ListVisibleFolders(ctx, parentID, actor)
	if err != nil {
		return nil, errors.Wrap(err, "drive: list folders")
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	sortFolders(folders, parentID == nil)
	return folders, nil
}

// sortFolders orders by name. Among roots the folder named "Public" leads.
func sortFolders(folders []models.Folder, roots bool) {
	slices.SortStableFunc(folders, func(a, b models.Folder) int {
		if roots {
			ap, bp := a.Name == models.PublicFolderName, b.Name == models.PublicFolderName
			if ap != bp {
				if ap {
					return -1
				}
				return 1
			}
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}

// RenameFolder needs write access. isPublic is left as it is.
func (s *Service) RenameFolder(ctx context.Context, actor, id uuid.UUID, name string) (*models.Folder, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.require(ctx, models.KindFolder, id, &actor, access.Write); err != nil {
		return nil, errors.Wrap(err, "drive: rename folder")
	}
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	folder.Name = name
	if err := s.store.UpdateFolder(ctx, folder); err != nil {
		return nil, errors.Wrap(err, "drive: rename folder")
	}
	s.folderChanged(ctx, folder, false)
	return folder, nil
}

// MoveFolder reparents a folder the actor owns under a destination it can
// write to (nil moves it to the root). isPublic is not recomputed.
func (s *Service) MoveFolder(ctx context.Context, actor, id uuid.UUID, parentID *uuid.UUID) (*models.Folder, error) {
	if _, _, err := s.require(ctx, models.KindFolder, id, &actor, access.Owner); err != nil {
		return nil, errors.Wrap(err, "drive: move folder")
	}
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		if _, _, err := s.require(ctx, models.KindFolder, *parentID, &actor, access.Write); err != nil {
			return nil, errors.Wrap(err, "drive: move folder destination")
		}
		if err := s.checkNotDescendant(ctx, id, *parentID); err != nil {
			return nil, err
		}
	}

	folder.ParentID = parentID
	if err := s.store.UpdateFolder(ctx, folder); err != nil {
		return nil, errors.Wrap(err, "drive: move folder")
	}
	s.folderChanged(ctx, folder, false)
	return folder, nil
}

// checkNotDescendant walks up from dest and fails if it meets id.
func (s *Service) checkNotDescendant(ctx context.Context, id, dest uuid.UUID) error {
	cur := &dest
	for depth := 0; cur != nil; depth++ {
		if *cur == id {
			return errors.Wrap(models.ErrValidation, "cannot move a folder into itself or a descendant")
		}
		if depth > MaxTreeDepth {
			return errors.Wrap(models.ErrValidation, "folder tree too deep")
		}
		f, err := s.store.GetFolder(ctx, *cur)
		if err != nil {
			return errors.Wrap(err, "drive: walk folder ancestry")
		}
		cur = f.ParentID
	}
	return nil
}

// SetFolderPublic toggles isPublic on one folder. Existing children keep
// their own value.
func (s *Service) SetFolderPublic(ctx context.Context, actor, id uuid.UUID, public bool) (*models.Folder, error) {
	if _, _, err := s.require(ctx, models.KindFolder, id, &actor, access.Owner); err != nil {
		return nil, errors.Wrap(err, "drive: set folder visibility")
	}
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	was := folder.IsPublic
	folder.IsPublic = public
	if err := s.store.UpdateFolder(ctx, folder); err != nil {
		return nil, errors.Wrap(err, "drive: set folder visibility")
	}
	s.log.Info("folder visibility changed", zap.Stringer("folder", id), zap.Bool("public", public))
	s.folderChanged(ctx, folder, was)
	return folder, nil
}

// DeleteFolder removes an empty folder and its shares. Folders with any
// child folder or file are refused with ErrFolderNotEmpty.
func (s *Service) DeleteFolder(ctx context.Context, actor, id uuid.UUID) error {
	if _, _, err := s.require(ctx, models.KindFolder, id, &actor, access.Owner); err != nil {
		return errors.Wrap(err, "drive: delete folder")
	}
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return err
	}

	folders, files, err := s.store.CountFolderChildren(ctx, id)
	if err != nil {
		return errors.Wrap(err, "drive: delete folder")
	}
	if folders > 0 || files > 0 {
		return errors.Wrapf(models.ErrFolderNotEmpty, "folder %s has %d folders and %d files", id, folders, files)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	users, ok := s.audience(ctx, models.KindFolder, id, actor)

	if err := s.store.DeleteFolder(ctx, id); err != nil {
		return errors.Wrap(err, "drive: delete folder")
	}

	if folder.IsPublic || !ok {
		s.evict.all(ctx, folderNamespaces)
	} else {
		s.evict.forUsers(ctx, folderNamespaces, users)
	}
	s.log.Info("folder deleted", zap.Stringer("folder", id))
	return nil
}

// FoldersWithFiles builds the tree of folders the actor can reach under
// parentID, each with the files the actor can read.
func (s *Service) FoldersWithFiles(ctx context.Context, parentID, actor *uuid.UUID) ([]models.FolderNode, error) {
	key := cache.Key(cache.FolderTree, actor, parentSegment(parentID))
	return cached(ctx, s, key, func(ctx context.Context) ([]models.FolderNode, error) {
		return s.buildTree(ctx, parentID, actor, 0, make(map[uuid.UUID]bool))
	})
}

func (s *Service) buildTree(ctx context.Context, parentID, actor *uuid.UUID, depth int, seen map[uuid.UUID]bool) ([]models.FolderNode, error) {
	nodes := []models.FolderNode{}
	if depth >= MaxTreeDepth {
		s.log.Warn("folder tree depth limit reached", zap.String("parent", parentSegment(parentID)))
		return nodes, nil
	}

	folders, err := s.listAccessibleFolders(ctx, parentID, actor)
	if err != nil {
		return nil, err
	}
	for _, f := range folders {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true

		files, err := s.accessibleFiles(ctx, &f.ID, actor)
		if err != nil {
			return nil, err
		}
		children, err := s.buildTree(ctx, &f.ID, actor, depth+1, seen)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, models.FolderNode{Folder: f, Files: files, Folders: children})
	}
	return nodes, nil
}

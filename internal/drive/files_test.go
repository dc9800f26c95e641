package drive_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rohits-web03/sharedrive/internal/access"
	"github.com/rohits-web03/sharedrive/internal/drive"
	"github.com/rohits-web03/sharedrive/internal/models"
	"github.com/rohits-web03/sharedrive/internal/repositories/repotest"
	"go.uber.org/zap"
)

func TestCreateFile_PresignsUpload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "alice")

	file, url, err := e.svc.CreateFile(ctx, a, drive.NewFile{Name: " report.pdf ", Size: 42, ContentType: "application/pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if file.Name != "report.pdf" {
		t.Errorf("Expected trimmed name, got %q", file.Name)
	}
	if file.AccessType != models.AccessPrivate {
		t.Errorf("New files start private, got %s", file.AccessType)
	}
	prefix := "files/" + a.String() + "/" + file.ID.String() + "/"
	if !strings.HasPrefix(file.ObjectKey, prefix) {
		t.Errorf("Object key %q does not start with %q", file.ObjectKey, prefix)
	}
	if url != "https://objects.test/put/"+file.ObjectKey {
		t.Errorf("Unexpected upload URL %q", url)
	}
}

func TestCreateFile_WithoutObjectStore(t *testing.T) {
	store := repotest.NewStore(t)
	svc := drive.NewService(store, drive.Options{Logger: zap.NewNop()})
	a := repotest.CreateUser(t, store, "alice").ID

	file, url, err := svc.CreateFile(context.Background(), a, drive.NewFile{Name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if url != "" {
		t.Errorf("Expected no upload URL, got %q", url)
	}
	if _, _, err := svc.DownloadURL(context.Background(), file.ID, &a); err == nil {
		t.Error("Expected download to fail without object storage")
	}
}

func TestCreateFile_FolderPermissions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	f := e.folder(t, a, "f", nil, true)

	if _, _, err := e.svc.CreateFile(ctx, b, drive.NewFile{Name: "x", FolderID: &f.ID}); !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("Public read must not allow uploads, got %v", err)
	}
	if _, err := e.svc.Share(ctx, models.KindFolder, f.ID, a, ids(b), models.LevelWrite); err != nil {
		t.Fatal(err)
	}
	file, _, err := e.svc.CreateFile(ctx, b, drive.NewFile{Name: "x", FolderID: &f.ID})
	if err != nil {
		t.Fatalf("Write holder upload failed: %v", err)
	}
	if file.OwnerID != b {
		t.Error("The uploader owns the new file")
	}

	missing := uuid.New()
	if _, _, err := e.svc.CreateFile(ctx, a, drive.NewFile{Name: "x", FolderID: &missing}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Missing folder: expected not found, got %v", err)
	}
	if _, _, err := e.svc.CreateFile(ctx, a, drive.NewFile{Name: "x", Size: -1}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Negative size: expected validation error, got %v", err)
	}
}

func TestDownloadURL(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	x := e.file(t, a, "x.txt", nil)

	if _, url, err := e.svc.DownloadURL(ctx, x.ID, &a); err != nil || !strings.HasSuffix(url, x.ObjectKey) {
		t.Errorf("Owner download: url=%q err=%v", url, err)
	}
	for name, actor := range map[string]*uuid.UUID{"stranger": &b, "anonymous": nil} {
		if _, _, err := e.svc.DownloadURL(ctx, x.ID, actor); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("%s: expected not found, got %v", name, err)
		}
	}

	if _, err := e.svc.Share(ctx, models.KindFile, x.ID, a, ids(b), models.LevelRead); err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.svc.DownloadURL(ctx, x.ID, &b); err != nil {
		t.Errorf("Share holder download failed: %v", err)
	}
}

// Files in a public folder are not readable through the folder.
func TestFilesIgnoreFolderPublicity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	pub := e.folder(t, a, models.PublicFolderName, nil, true)
	x := e.file(t, a, "x.txt", &pub.ID)

	for name, actor := range map[string]*uuid.UUID{"stranger": &b, "anonymous": nil} {
		files, err := e.svc.ListFiles(ctx, &pub.ID, actor)
		if err != nil {
			t.Fatal(err)
		}
		if len(files) != 0 {
			t.Errorf("%s: expected no files, got %v", name, fileNames(files))
		}
		if _, _, err := e.svc.GetFile(ctx, x.ID, actor); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("%s: expected not found, got %v", name, err)
		}
	}

	files, err := e.svc.ListFiles(ctx, &pub.ID, &a)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(fileNames(files), []string{"x.txt"}) {
		t.Errorf("Owner files = %v", fileNames(files))
	}
}

func TestRenameAndMoveFile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, reader, writer := e.user(t, "alice"), e.user(t, "reader"), e.user(t, "writer")
	x := e.file(t, a, "x.txt", nil)
	dest := e.folder(t, a, "dest", nil, false)

	if _, err := e.svc.Share(ctx, models.KindFile, x.ID, a, ids(reader), models.LevelRead); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.Share(ctx, models.KindFile, x.ID, a, ids(writer), models.LevelWrite); err != nil {
		t.Fatal(err)
	}

	if _, err := e.svc.RenameFile(ctx, reader, x.ID, "y.txt"); !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("Reader rename: expected access denied, got %v", err)
	}
	renamed, err := e.svc.RenameFile(ctx, writer, x.ID, "y.txt")
	if err != nil {
		t.Fatal(err)
	}
	if renamed.Name != "y.txt" || renamed.AccessType != models.AccessShared {
		t.Errorf("Unexpected renamed file %+v", renamed)
	}

	if _, err := e.svc.MoveFile(ctx, writer, x.ID, &dest.ID); !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("Only the owner moves a file, got %v", err)
	}
	moved, err := e.svc.MoveFile(ctx, a, x.ID, &dest.ID)
	if err != nil {
		t.Fatal(err)
	}
	if moved.FolderID == nil || *moved.FolderID != dest.ID {
		t.Error("Expected file in dest")
	}
	level, _ := e.svc.Resolver().ResolveLevel(ctx, models.KindFile, x.ID, &reader)
	if level != access.Read {
		t.Errorf("Shares travel with a moved file, got %s", level)
	}
}

func TestDeleteFile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	x := e.file(t, a, "x.txt", nil)
	if _, err := e.svc.Share(ctx, models.KindFile, x.ID, a, ids(b), models.LevelWrite); err != nil {
		t.Fatal(err)
	}

	shared, err := e.svc.ListSharedWithMe(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(fileNames(shared), []string{"x.txt"}) {
		t.Fatalf("Bob's shared list = %v", fileNames(shared))
	}

	if err := e.svc.DeleteFile(ctx, b, x.ID); !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("Write holder delete: expected access denied, got %v", err)
	}
	if err := e.svc.DeleteFile(ctx, a, x.ID); err != nil {
		t.Fatal(err)
	}

	if n := e.shareCount(t, models.KindFile, x.ID); n != 0 {
		t.Errorf("Expected shares to be swept, found %d", n)
	}
	if !slices.Contains(e.objects.deleted, x.ObjectKey) {
		t.Error("Expected the stored object to be deleted")
	}
	shared, err = e.svc.ListSharedWithMe(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(shared) != 0 {
		t.Errorf("Deleted file still listed for Bob: %v", fileNames(shared))
	}
	if _, _, err := e.svc.GetFile(ctx, x.ID, &a); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
}

func TestMutationsHideUnreadableFiles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, c := e.user(t, "alice"), e.user(t, "carol")
	x := e.file(t, a, "x.txt", nil)
	missing := uuid.New()

	for _, id := range []uuid.UUID{x.ID, missing} {
		if err := e.svc.DeleteFile(ctx, c, id); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("DeleteFile %s: expected not found, got %v", id, err)
		}
		if _, err := e.svc.RenameFile(ctx, c, id, "y.txt"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("RenameFile %s: expected not found, got %v", id, err)
		}
		if _, err := e.svc.Share(ctx, models.KindFile, id, c, ids(a), models.LevelRead); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Share %s: expected not found, got %v", id, err)
		}
		if _, err := e.svc.RevokeAll(ctx, models.KindFile, id, c); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("RevokeAll %s: expected not found, got %v", id, err)
		}
	}
	if got := e.accessType(t, x.ID); got != models.AccessPrivate {
		t.Errorf("accessType = %s, want private", got)
	}
}

package drive_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/rohits-web03/sharedrive/internal/access"
	"github.com/rohits-web03/sharedrive/internal/drive"
	"github.com/rohits-web03/sharedrive/internal/models"
)

func TestPublicFolderInheritance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")

	e.folder(t, b, "Archive", nil, false)
	pub := e.folder(t, a, models.PublicFolderName, nil, true)
	docs := e.folder(t, a, "Docs", &pub.ID, false)

	if !docs.IsPublic {
		t.Error("Expected subfolder of a public folder to be public")
	}

	roots, err := e.svc.ListAccessibleFolders(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := folderNames(roots); !slices.Equal(got, []string{"Public"}) {
		t.Errorf("Anonymous roots = %v, expected [Public]", got)
	}

	children, err := e.svc.ListAccessibleFolders(ctx, &pub.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := folderNames(children); !slices.Equal(got, []string{"Docs"}) {
		t.Errorf("Anonymous children = %v, expected [Docs]", got)
	}

	folder, level, err := e.svc.GetFolder(ctx, docs.ID, nil)
	if err != nil {
		t.Fatalf("Anonymous GetFolder on public folder failed: %v", err)
	}
	if folder.ID != docs.ID || level != access.Read {
		t.Errorf("Expected read on Docs, got %s", level)
	}
}

func TestInheritanceIsSnapshot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "alice")

	pub := e.folder(t, a, "Shared stuff", nil, true)
	child := e.folder(t, a, "child", &pub.ID, false)
	private := e.folder(t, a, "private", nil, false)

	if _, err := e.svc.SetFolderPublic(ctx, a, pub.ID, false); err != nil {
		t.Fatal(err)
	}
	got, _, err := e.svc.GetFolder(ctx, child.ID, &a)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsPublic {
		t.Error("Unpublishing a parent must not touch existing children")
	}

	late := e.folder(t, a, "late", &pub.ID, true)
	if late.IsPublic {
		t.Error("A new child must copy the parent's current value, not the request")
	}

	if _, err := e.svc.SetFolderPublic(ctx, a, pub.ID, true); err != nil {
		t.Fatal(err)
	}
	moved, err := e.svc.MoveFolder(ctx, a, private.ID, &pub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if moved.IsPublic {
		t.Error("Moving under a public parent must not recompute isPublic")
	}
	renamed, err := e.svc.RenameFolder(ctx, a, child.ID, "renamed")
	if err != nil {
		t.Fatal(err)
	}
	if !renamed.IsPublic || renamed.Name != "renamed" {
		t.Errorf("Rename must keep isPublic, got %+v", renamed)
	}
}

func TestSetFolderPublic_OwnerOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	f := e.folder(t, a, "f", nil, false)
	if _, err := e.svc.Share(ctx, models.KindFolder, f.ID, a, ids(b), models.LevelWrite); err != nil {
		t.Fatal(err)
	}

	if _, err := e.svc.SetFolderPublic(ctx, b, f.ID, true); !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("Expected access denied for a write holder, got %v", err)
	}
	if _, _, err := e.svc.GetFolder(ctx, f.ID, nil); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Folder must stay private, got %v", err)
	}
}

func TestListAccessibleFolders_Ordering(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "alice")

	for _, name := range []string{"beta", "Alpha", "Public", "same", "same"} {
		e.folder(t, a, name, nil, false)
	}

	roots, err := e.svc.ListAccessibleFolders(ctx, nil, &a)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Public", "Alpha", "beta", "same", "same"}
	if got := folderNames(roots); !slices.Equal(got, want) {
		t.Fatalf("Root order = %v, expected %v", got, want)
	}
	if roots[3].ID.String() > roots[4].ID.String() {
		t.Error("Equal names must be ordered by id")
	}

	parent := roots[1]
	e.folder(t, a, "Public", &parent.ID, false)
	e.folder(t, a, "Docs", &parent.ID, false)
	children, err := e.svc.ListAccessibleFolders(ctx, &parent.ID, &a)
	if err != nil {
		t.Fatal(err)
	}
	if got := folderNames(children); !slices.Equal(got, []string{"Docs", "Public"}) {
		t.Errorf("Child order = %v, expected plain name order", got)
	}
}

func TestListAccessibleFolders_Visibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b, c := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")

	e.folder(t, a, "mine", nil, false)
	shared := e.folder(t, a, "team", nil, false)
	e.folder(t, c, "open", nil, true)
	if _, err := e.svc.Share(ctx, models.KindFolder, shared.ID, a, ids(b), models.LevelRead); err != nil {
		t.Fatal(err)
	}

	roots, err := e.svc.ListAccessibleFolders(ctx, nil, &b)
	if err != nil {
		t.Fatal(err)
	}
	if got := folderNames(roots); !slices.Equal(got, []string{"open", "team"}) {
		t.Errorf("Bob sees %v, expected [open team]", got)
	}
}

func TestGetFolder_HidesUnreadable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	f := e.folder(t, a, "secret", nil, false)

	for name, actor := range map[string]*uuid.UUID{"stranger": &b, "anonymous": nil} {
		if _, _, err := e.svc.GetFolder(ctx, f.ID, actor); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("%s: expected not found, got %v", name, err)
		}
	}
	if _, _, err := e.svc.GetFolder(ctx, uuid.New(), &a); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Missing folder: expected not found, got %v", err)
	}
}

func TestCreateFolder_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")

	for _, name := range []string{"", "   ", "a/b", `a\b`} {
		if _, err := e.svc.CreateFolder(ctx, a, name, nil, false); !errors.Is(err, models.ErrValidation) {
			t.Errorf("name %q: expected validation error, got %v", name, err)
		}
	}

	missing := uuid.New()
	if _, err := e.svc.CreateFolder(ctx, a, "x", &missing, false); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Missing parent: expected not found, got %v", err)
	}

	pub := e.folder(t, a, "open", nil, true)
	if _, err := e.svc.CreateFolder(ctx, b, "intruder", &pub.ID, false); !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("Public read must not allow creating children, got %v", err)
	}
}

func TestMoveFolder_RejectsCycles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "alice")

	top := e.folder(t, a, "top", nil, false)
	mid := e.folder(t, a, "mid", &top.ID, false)
	leaf := e.folder(t, a, "leaf", &mid.ID, false)

	if _, err := e.svc.MoveFolder(ctx, a, top.ID, &leaf.ID); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Move into descendant: expected validation error, got %v", err)
	}
	if _, err := e.svc.MoveFolder(ctx, a, top.ID, &top.ID); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Move into self: expected validation error, got %v", err)
	}

	moved, err := e.svc.MoveFolder(ctx, a, leaf.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if moved.ParentID != nil {
		t.Error("Expected leaf to become a root")
	}
}

func TestMoveFolder_Permissions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	f := e.folder(t, a, "f", nil, false)
	dest := e.folder(t, b, "dest", nil, false)

	if _, err := e.svc.MoveFolder(ctx, a, f.ID, &dest.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Unreadable destination: expected not found, got %v", err)
	}
	if _, err := e.svc.Share(ctx, models.KindFolder, f.ID, a, ids(b), models.LevelWrite); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.MoveFolder(ctx, b, f.ID, &dest.ID); !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("Only the owner moves a folder, got %v", err)
	}
}

func TestDeleteFolder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")

	parent := e.folder(t, a, "parent", nil, false)
	child := e.folder(t, a, "child", &parent.ID, false)
	x := e.file(t, a, "x.txt", &child.ID)

	if err := e.svc.DeleteFolder(ctx, a, parent.ID); !errors.Is(err, models.ErrFolderNotEmpty) {
		t.Errorf("Folder with a subfolder: expected not empty, got %v", err)
	}
	if err := e.svc.DeleteFolder(ctx, a, child.ID); !errors.Is(err, models.ErrFolderNotEmpty) {
		t.Errorf("Folder with a file: expected not empty, got %v", err)
	}

	if err := e.svc.DeleteFile(ctx, a, x.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.Share(ctx, models.KindFolder, child.ID, a, ids(b), models.LevelWrite); err != nil {
		t.Fatal(err)
	}
	if err := e.svc.DeleteFolder(ctx, b, child.ID); !errors.Is(err, models.ErrAccessDenied) {
		t.Errorf("Write holder must not delete, got %v", err)
	}

	if err := e.svc.DeleteFolder(ctx, a, child.ID); err != nil {
		t.Fatalf("DeleteFolder failed: %v", err)
	}
	if n := e.shareCount(t, models.KindFolder, child.ID); n != 0 {
		t.Errorf("Expected shares to be swept, found %d", n)
	}
	if err := e.svc.DeleteFolder(ctx, a, child.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Second delete: expected not found, got %v", err)
	}
	if err := e.svc.DeleteFolder(ctx, a, parent.ID); err != nil {
		t.Errorf("Parent is empty now: %v", err)
	}
}

func TestFoldersWithFiles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")

	root := e.folder(t, a, "root", nil, false)
	sub := e.folder(t, a, "sub", &root.ID, false)
	f1 := e.file(t, a, "one.txt", &root.ID)
	e.file(t, a, "two.txt", &sub.ID)

	tree, err := e.svc.FoldersWithFiles(ctx, nil, &a)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 1 || tree[0].ID != root.ID {
		t.Fatalf("Unexpected owner tree: %+v", tree)
	}
	if got := fileNames(tree[0].Files); !slices.Equal(got, []string{"one.txt"}) {
		t.Errorf("root files = %v", got)
	}
	if len(tree[0].Folders) != 1 || !slices.Equal(fileNames(tree[0].Folders[0].Files), []string{"two.txt"}) {
		t.Errorf("Unexpected subtree: %+v", tree[0].Folders)
	}

	if _, err := e.svc.Share(ctx, models.KindFolder, root.ID, a, ids(b), models.LevelRead); err != nil {
		t.Fatal(err)
	}
	tree, err = e.svc.FoldersWithFiles(ctx, nil, &b)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 1 || len(tree[0].Files) != 0 || len(tree[0].Folders) != 0 {
		t.Errorf("A folder share must not expose unshared contents: %+v", tree)
	}

	if _, err := e.svc.Share(ctx, models.KindFile, f1.ID, a, ids(b), models.LevelRead); err != nil {
		t.Fatal(err)
	}
	tree, err = e.svc.FoldersWithFiles(ctx, nil, &b)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 1 || !slices.Equal(fileNames(tree[0].Files), []string{"one.txt"}) {
		t.Errorf("Expected the shared file in Bob's tree after sharing: %+v", tree)
	}
}

func TestFoldersWithFiles_DepthLimit(t *testing.T) {
	e := newEnv(t)
	a := e.user(t, "alice")

	var parent *uuid.UUID
	for i := 0; i < drive.MaxTreeDepth+2; i++ {
		f := e.folder(t, a, "level", parent, false)
		parent = &f.ID
	}

	tree, err := e.svc.FoldersWithFiles(context.Background(), nil, &a)
	if err != nil {
		t.Fatal(err)
	}
	depth := 0
	for nodes := tree; len(nodes) > 0; nodes = nodes[0].Folders {
		depth++
	}
	if depth != drive.MaxTreeDepth {
		t.Errorf("Expected tree truncated at %d levels, got %d", drive.MaxTreeDepth, depth)
	}
}

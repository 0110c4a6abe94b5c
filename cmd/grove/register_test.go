package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/grovekit/grove/internal/registry"
	"github.com/grovekit/grove/internal/workspace"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Load(filepath.Join(t.TempDir(), registry.DefaultFileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return reg
}

func TestRemoveSingleMissingIDFails(t *testing.T) {
	reg := testRegistry(t)
	err := removeWorkspaces(reg, []string{"ghost"}, false)
	if !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("removeWorkspaces(ghost) = %v, want ErrNotFound", err)
	}
}

func TestRemoveMultiSkipsMissingID(t *testing.T) {
	reg := testRegistry(t)
	for _, path := range []string{"trees/a", "trees/c"} {
		if err := reg.Add(workspace.New(path)); err != nil {
			t.Fatalf("Add(%s): %v", path, err)
		}
	}
	if err := removeWorkspaces(reg, []string{"a", "ghost", "c"}, false); err != nil {
		t.Fatalf("removeWorkspaces = %v, want nil (missing id skipped mid-batch)", err)
	}
	if reg.Len() != 0 {
		t.Errorf("registry has %d workspaces after removal, want 0", reg.Len())
	}
}

func TestRegisterSamePathIsNoOp(t *testing.T) {
	reg := testRegistry(t)
	if _, err := registerWorkspace(reg, workspace.New("trees/repo")); err != nil {
		t.Fatalf("first register: %v", err)
	}
	added, err := registerWorkspace(reg, workspace.New("trees/repo"))
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if added {
		t.Error("re-registering the same path reported added = true, want no-op")
	}
	if reg.Len() != 1 {
		t.Errorf("registry has %d workspaces, want 1", reg.Len())
	}
}

func TestRegisterIDCollisionFromDifferentPathFails(t *testing.T) {
	reg := testRegistry(t)
	if _, err := registerWorkspace(reg, workspace.New("a/repo")); err != nil {
		t.Fatalf("first register: %v", err)
	}
	added, err := registerWorkspace(reg, workspace.New("b/repo"))
	if !errors.Is(err, registry.ErrDuplicateID) {
		t.Errorf("registering b/repo = %v, want ErrDuplicateID", err)
	}
	if added {
		t.Error("colliding workspace reported added = true")
	}
	if reg.Len() != 1 {
		t.Errorf("registry has %d workspaces, want 1 (collision must not drop or overwrite)", reg.Len())
	}
}

func TestRegisterExplicitIDAvoidsCollision(t *testing.T) {
	reg := testRegistry(t)
	if _, err := registerWorkspace(reg, workspace.New("a/repo")); err != nil {
		t.Fatalf("first register: %v", err)
	}
	w := workspace.New("b/repo")
	w.ID = "repo-b"
	added, err := registerWorkspace(reg, w)
	if err != nil || !added {
		t.Fatalf("register with explicit id = (%v, %v), want (true, nil)", added, err)
	}
	if reg.Len() != 2 {
		t.Errorf("registry has %d workspaces, want 2", reg.Len())
	}
}

package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grovekit/grove/internal/workspace"
)

func tempRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil {
		t.Fatalf("Load() on empty dir failed: %v", err)
	}
	return r
}

func mustAdd(t *testing.T, r *Registry, id, path string) *workspace.Workspace {
	t.Helper()
	w := &workspace.Workspace{ID: id, Path: path}
	if err := r.Add(w); err != nil {
		t.Fatalf("Add(%q) failed: %v", id, err)
	}
	return w
}

func TestLoadMissingFileYieldsEmptyRegistry(t *testing.T) {
	r := tempRegistry(t)
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	r := tempRegistry(t)

	a := mustAdd(t, r, "alpha", "repos/alpha/")
	a.AddTag("go")
	a.AddTag("cli")
	a.SetMeta("description", "first workspace")
	a.VCS.Kind = workspace.VCSGit
	a.VCS.SetRemote("origin", "https://example.com/alpha.git")
	a.VCS.SetRemote("upstream", "https://example.com/up/alpha.git")

	mustAdd(t, r, "beta", "repos/beta")
	r.SetCommand("status", CommandSpec{Command: "git status -s", Tags: []string{"go"}})

	if err := r.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load(r.Path())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", loaded.Len())
	}

	got, err := loaded.Get("alpha")
	if err != nil {
		t.Fatalf("Get(alpha) failed: %v", err)
	}
	if got.Path != "repos/alpha" {
		t.Errorf("Path = %q, want repos/alpha (normalized)", got.Path)
	}
	if len(got.Tags) != 2 || !got.HasTag("go") || !got.HasTag("cli") {
		t.Errorf("Tags = %v, want {go, cli}", got.Tags)
	}
	if got.Metadata["description"] != "first workspace" {
		t.Errorf("Metadata[description] = %q, want %q", got.Metadata["description"], "first workspace")
	}
	if got.VCS.Kind != workspace.VCSGit {
		t.Errorf("VCS.Kind = %q, want git", got.VCS.Kind)
	}
	if url := got.VCS.Remote("origin"); url != "https://example.com/alpha.git" {
		t.Errorf("origin = %q, want https://example.com/alpha.git", url)
	}

	spec, ok := loaded.Command("status")
	if !ok {
		t.Fatal("Command(status) not found after reload")
	}
	if spec.Command != "git status -s" {
		t.Errorf("spec.Command = %q, want %q", spec.Command, "git status -s")
	}
}

func TestAddDuplicateIDLeavesRegistryUnchanged(t *testing.T) {
	r := tempRegistry(t)
	mustAdd(t, r, "alpha", "repos/alpha")

	err := r.Add(&workspace.Workspace{ID: "alpha", Path: "elsewhere/alpha"})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Add duplicate id: err = %v, want ErrDuplicateID", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d after failed add, want 1", r.Len())
	}
	if r.FindByPath("elsewhere/alpha") != nil {
		t.Error("failed add mutated the registry")
	}
}

func TestAddEmptyIDIsValidationErrorNotDuplicate(t *testing.T) {
	r := tempRegistry(t)
	err := r.Add(&workspace.Workspace{Path: "trees/x"})
	if err == nil {
		t.Fatal("Add with empty id succeeded, want error")
	}
	if errors.Is(err, ErrDuplicateID) {
		t.Errorf("Add with empty id = %v, want a plain validation error, not ErrDuplicateID", err)
	}
	if r.Len() != 0 {
		t.Errorf("registry has %d workspaces, want 0", r.Len())
	}
}

func TestAddDuplicatePath(t *testing.T) {
	r := tempRegistry(t)
	mustAdd(t, r, "alpha", "repos/alpha")

	err := r.Add(&workspace.Workspace{ID: "other", Path: "repos/alpha/"})
	if !errors.Is(err, ErrDuplicatePath) {
		t.Fatalf("Add duplicate path: err = %v, want ErrDuplicatePath", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d after failed add, want 1", r.Len())
	}
}

func TestRemoveNotFound(t *testing.T) {
	r := tempRegistry(t)
	if err := r.Remove("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(ghost): err = %v, want ErrNotFound", err)
	}
}

func TestRemoveReindexes(t *testing.T) {
	r := tempRegistry(t)
	mustAdd(t, r, "a", "x/a")
	mustAdd(t, r, "b", "x/b")
	mustAdd(t, r, "c", "x/c")

	if err := r.Remove("b"); err != nil {
		t.Fatalf("Remove(b) failed: %v", err)
	}
	all := r.All()
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "c" {
		t.Errorf("All() = %v, want [a c]", ids(all))
	}
	if _, err := r.Get("c"); err != nil {
		t.Errorf("Get(c) after remove failed: %v", err)
	}
}

func TestMovePreservesIdentity(t *testing.T) {
	r := tempRegistry(t)
	mustAdd(t, r, "alpha", "repos/alpha")
	b := mustAdd(t, r, "beta", "repos/beta")
	beforeBeta := *b

	if err := r.Move("alpha", "moved/alpha"); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	w, err := r.Get("alpha")
	if err != nil {
		t.Fatalf("Get(alpha) after move failed: %v", err)
	}
	if w.ID != "alpha" {
		t.Errorf("ID = %q after move, want alpha", w.ID)
	}
	if w.Path != "moved/alpha" {
		t.Errorf("Path = %q, want moved/alpha", w.Path)
	}
	if after, _ := r.Get("beta"); after.Path != beforeBeta.Path || after.ID != beforeBeta.ID {
		t.Error("Move changed an unrelated workspace")
	}
}

func TestMoveToClaimedPath(t *testing.T) {
	r := tempRegistry(t)
	mustAdd(t, r, "alpha", "repos/alpha")
	mustAdd(t, r, "beta", "repos/beta")

	if err := r.Move("alpha", "repos/beta"); !errors.Is(err, ErrDuplicatePath) {
		t.Errorf("Move onto claimed path: err = %v, want ErrDuplicatePath", err)
	}
	if w, _ := r.Get("alpha"); w.Path != "repos/alpha" {
		t.Errorf("Path = %q after failed move, want repos/alpha", w.Path)
	}
}

func TestTagIdempotent(t *testing.T) {
	r := tempRegistry(t)
	mustAdd(t, r, "alpha", "repos/alpha")

	if err := r.Tag("alpha", "go"); err != nil {
		t.Fatalf("Tag failed: %v", err)
	}
	if err := r.Tag("alpha", "go"); err != nil {
		t.Fatalf("second Tag failed: %v", err)
	}
	w, _ := r.Get("alpha")
	if len(w.Tags) != 1 || w.Tags[0] != "go" {
		t.Errorf("Tags = %v after double tag, want [go]", w.Tags)
	}

	if err := r.Untag("alpha", "go"); err != nil {
		t.Fatalf("Untag failed: %v", err)
	}
	if err := r.Untag("alpha", "go"); err != nil {
		t.Fatalf("Untag of absent tag should be a no-op, got: %v", err)
	}
	if len(w.Tags) != 0 {
		t.Errorf("Tags = %v after untag, want empty", w.Tags)
	}
}

func TestTagNotFound(t *testing.T) {
	r := tempRegistry(t)
	if err := r.Tag("ghost", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Tag(ghost): err = %v, want ErrNotFound", err)
	}
}

func TestLoadCorruptTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte("not [valid toml"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load corrupt file: err = %v, want ErrCorrupt", err)
	}
}

func TestLoadMissingIDIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	doc := "[[workspaces]]\npath = \"repos/x\"\n"
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load schema-invalid file: err = %v, want ErrCorrupt", err)
	}
}

func TestLoadDuplicateIDIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	doc := `
[[workspaces]]
id = "a"
path = "x/a"

[[workspaces]]
id = "a"
path = "x/b"
`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load with duplicate ids: err = %v, want ErrCorrupt", err)
	}
}

func TestLoadDedupesTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	doc := `
[[workspaces]]
id = "a"
path = "x/a"
tags = ["go", "go", "cli"]
`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	w, _ := r.Get("a")
	if len(w.Tags) != 2 {
		t.Errorf("Tags = %v, want deduplicated to 2 entries", w.Tags)
	}
}

func TestUnknownKeysSurviveRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	doc := `
schema_version = 3

[[workspaces]]
id = "a"
path = "x/a"
future_field = "keep me"
`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := r.Tag("a", "go"); err != nil {
		t.Fatal(err)
	}
	if err := r.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "schema_version") {
		t.Error("top-level unknown key dropped on rewrite")
	}
	if !strings.Contains(text, "future_field") {
		t.Error("workspace-level unknown key dropped on rewrite")
	}
	if !strings.Contains(text, "go") {
		t.Error("new tag missing from rewrite")
	}
}

func TestInsertionOrderSurvivesRoundtrip(t *testing.T) {
	r := tempRegistry(t)
	for _, id := range []string{"zeta", "alpha", "mid"} {
		mustAdd(t, r, id, "x/"+id)
	}
	if err := r.Save(); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(r.Path())
	if err != nil {
		t.Fatal(err)
	}
	got := ids(loaded.All())
	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRemoveCommandNotFound(t *testing.T) {
	r := tempRegistry(t)
	if err := r.RemoveCommand("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveCommand(nope): err = %v, want ErrNotFound", err)
	}
}

func ids(ws []*workspace.Workspace) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.ID
	}
	return out
}

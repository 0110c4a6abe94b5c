package gitops

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGitmodules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".gitmodules")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvertGitmodules(t *testing.T) {
	path := writeGitmodules(t, `
[submodule "libs/a"]
	path = libs/a
	url = https://x/a.git
[submodule "libs/b"]
	path = libs/b
`)
	result, err := ConvertGitmodules(path)
	if err != nil {
		t.Fatalf("ConvertGitmodules failed: %v", err)
	}

	if len(result.Workspaces) != 1 {
		t.Fatalf("got %d workspaces, want 1", len(result.Workspaces))
	}
	w := result.Workspaces[0]
	if w.Path != "libs/a" {
		t.Errorf("Path = %q, want libs/a", w.Path)
	}
	if w.ID != "a" {
		t.Errorf("ID = %q, want a", w.ID)
	}
	if got := w.VCS.Remote("origin"); got != "https://x/a.git" {
		t.Errorf("origin = %q, want https://x/a.git", got)
	}

	if len(result.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(result.Warnings))
	}
	warn := result.Warnings[0]
	if warn.Section != "libs/b" {
		t.Errorf("warning section = %q, want libs/b", warn.Section)
	}
	if warn.Reason != "missing url" {
		t.Errorf("warning reason = %q, want %q", warn.Reason, "missing url")
	}
	if !result.PartiallyFailed() {
		t.Error("PartiallyFailed() = false, want true")
	}
}

func TestConvertGitmodulesAllWellFormed(t *testing.T) {
	path := writeGitmodules(t, `
# a comment
[submodule "one"]
	path = vendor/one
	url = git@example.com:org/one.git

[submodule "two"]
	url = git@example.com:org/two.git
	path = vendor/two
`)
	result, err := ConvertGitmodules(path)
	if err != nil {
		t.Fatalf("ConvertGitmodules failed: %v", err)
	}
	if len(result.Workspaces) != 2 || len(result.Warnings) != 0 {
		t.Fatalf("got %d workspaces / %d warnings, want 2 / 0",
			len(result.Workspaces), len(result.Warnings))
	}
	if result.Workspaces[0].Path != "vendor/one" || result.Workspaces[1].Path != "vendor/two" {
		t.Errorf("paths = %q, %q; want vendor/one, vendor/two",
			result.Workspaces[0].Path, result.Workspaces[1].Path)
	}
}

func TestConvertGitmodulesIgnoresForeignSections(t *testing.T) {
	path := writeGitmodules(t, `
[core]
	autocrlf = input
[submodule "x"]
	path = x
	url = https://x/x.git
`)
	result, err := ConvertGitmodules(path)
	if err != nil {
		t.Fatalf("ConvertGitmodules failed: %v", err)
	}
	if len(result.Workspaces) != 1 {
		t.Errorf("got %d workspaces, want 1", len(result.Workspaces))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings = %v, want none for foreign sections", result.Warnings)
	}
}

func TestConvertGitmodulesMissingFile(t *testing.T) {
	if _, err := ConvertGitmodules(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("ConvertGitmodules of missing file should fail")
	}
}

func TestConvertGitmodulesEmptyFile(t *testing.T) {
	result, err := ConvertGitmodules(writeGitmodules(t, ""))
	if err != nil {
		t.Fatalf("ConvertGitmodules failed: %v", err)
	}
	if len(result.Workspaces) != 0 || len(result.Warnings) != 0 {
		t.Errorf("empty file produced %d workspaces / %d warnings",
			len(result.Workspaces), len(result.Warnings))
	}
}

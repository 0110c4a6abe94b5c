// Package workspace defines the core data types for managed workspaces:
// a workspace is a filesystem directory with a stable identity, a set of
// tags, free-form metadata, and an optional VCS binding.
package workspace

import (
	"path/filepath"
	"sort"
	"strings"
)

// VCSKind identifies the version control system bound to a workspace.
type VCSKind string

const (
	VCSNone VCSKind = ""
	VCSGit  VCSKind = "git"
)

// Remote is a named VCS remote URL.
type Remote struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// VCSBinding describes the version control state recorded for a
// workspace. Remotes are kept sorted by name so registry rewrites are
// stable.
type VCSBinding struct {
	Kind    VCSKind  `toml:"kind,omitempty"`
	Remotes []Remote `toml:"remotes,omitempty"`
}

// Remote returns the URL for the named remote, or "" if absent.
func (b *VCSBinding) Remote(name string) string {
	for _, r := range b.Remotes {
		if r.Name == name {
			return r.URL
		}
	}
	return ""
}

// CloneRemote picks the remote to clone from: origin if present,
// otherwise the first recorded remote.
func (b *VCSBinding) CloneRemote() (Remote, bool) {
	if b == nil || len(b.Remotes) == 0 {
		return Remote{}, false
	}
	for _, r := range b.Remotes {
		if r.Name == "origin" {
			return r, true
		}
	}
	return b.Remotes[0], true
}

// SetRemote adds or replaces a remote, keeping the slice sorted by name.
func (b *VCSBinding) SetRemote(name, url string) {
	for i, r := range b.Remotes {
		if r.Name == name {
			b.Remotes[i].URL = url
			return
		}
	}
	b.Remotes = append(b.Remotes, Remote{Name: name, URL: url})
	sort.Slice(b.Remotes, func(i, j int) bool { return b.Remotes[i].Name < b.Remotes[j].Name })
}

// Workspace is the unit of management. ID is immutable once assigned;
// Path may change via a registry move.
type Workspace struct {
	ID       string            `toml:"id"`
	Path     string            `toml:"path"`
	Tags     []string          `toml:"tags,omitempty"`
	Metadata map[string]string `toml:"metadata,omitempty"`
	VCS      VCSBinding        `toml:"vcs,omitempty"`
}

// New creates a workspace whose ID defaults to the path's base name.
func New(path string) *Workspace {
	p := NormalizePath(path)
	return &Workspace{
		ID:   filepath.Base(p),
		Path: p,
	}
}

// HasTag reports whether the workspace carries the tag.
func (w *Workspace) HasTag(tag string) bool {
	for _, t := range w.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag adds a tag if absent, keeping tags sorted case-insensitively.
// Tagging an already-tagged workspace is a no-op.
func (w *Workspace) AddTag(tag string) {
	if w.HasTag(tag) {
		return
	}
	w.Tags = append(w.Tags, tag)
	sort.Slice(w.Tags, func(i, j int) bool {
		return strings.ToLower(w.Tags[i]) < strings.ToLower(w.Tags[j])
	})
}

// RemoveTag removes a tag if present.
func (w *Workspace) RemoveTag(tag string) {
	for i, t := range w.Tags {
		if t == tag {
			w.Tags = append(w.Tags[:i], w.Tags[i+1:]...)
			return
		}
	}
}

// SetMeta sets a metadata key, allocating the map on first use.
func (w *Workspace) SetMeta(key, value string) {
	if w.Metadata == nil {
		w.Metadata = make(map[string]string)
	}
	w.Metadata[key] = value
}

// Clone returns a deep copy.
func (w *Workspace) Clone() *Workspace {
	c := *w
	c.Tags = append([]string(nil), w.Tags...)
	if w.Metadata != nil {
		c.Metadata = make(map[string]string, len(w.Metadata))
		for k, v := range w.Metadata {
			c.Metadata[k] = v
		}
	}
	c.VCS.Remotes = append([]Remote(nil), w.VCS.Remotes...)
	return &c
}

// NormalizePath strips trailing path separators so registry comparisons
// don't distinguish "repo" from "repo/".
func NormalizePath(path string) string {
	for len(path) > 1 && (strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\")) {
		path = path[:len(path)-1]
	}
	return path
}

// NameFromURL extracts the directory name git clone would use for a
// URL or local path. Handles SSH (git@host:user/repo.git), HTTPS,
// Azure-style _git paths, and plain local paths.
func NameFromURL(url string) string {
	s := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	s = strings.TrimRight(s, "/")
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	} else if i := strings.Index(s, ":"); i > 1 {
		// git@host:path — skip Windows "C:\" style prefixes
		if !strings.HasPrefix(s[i+1:], "\\") {
			s = s[i+1:]
		}
	}
	s = strings.ReplaceAll(s, "\\", "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

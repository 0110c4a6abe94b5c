// Package registry owns the durable mapping of workspace identity to
// filesystem location and metadata. The backing store is a single TOML
// document, loaded once per process and rewritten in full, via atomic
// replace, after every mutation. There is no cross-process locking:
// last writer wins.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/grovekit/grove/internal/workspace"
)

// DefaultFileName is the registry document's well-known name.
const DefaultFileName = ".grove.toml"

// CommandSpec is a named shell-command template, optionally scoped to
// a default tag selection. The command string may reference {path},
// {id}, and {metadata.<key>}.
type CommandSpec struct {
	Command string   `toml:"command"`
	Tags    []string `toml:"tags,omitempty"`
}

// Registry holds the full workspace collection in memory, in insertion
// order. All mutating methods leave the registry unchanged on error.
type Registry struct {
	path       string
	workspaces []*workspace.Workspace
	byID       map[string]int
	commands   map[string]CommandSpec

	// extras preserve TOML keys this version doesn't know about so a
	// rewrite never drops them (forward compatibility).
	topExtra map[string]any
	wsExtra  []map[string]any
}

type document struct {
	Workspaces []workspace.Workspace  `toml:"workspaces"`
	Commands   map[string]CommandSpec `toml:"commands"`
}

// Load reads the registry document at path. A missing file yields an
// empty registry (nothing has been added yet); anything unreadable or
// schema-invalid fails with ErrCorrupt.
func Load(path string) (*Registry, error) {
	r := &Registry{
		path:     path,
		byID:     make(map[string]int),
		commands: make(map[string]CommandSpec),
		topExtra: make(map[string]any),
	}

	data, err := os.ReadFile(path) // #nosec G304 - registry path chosen by caller
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCorrupt, path, err)
	}

	var doc document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrCorrupt, path, err)
	}

	// Second raw decode captures keys the typed schema doesn't cover.
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrCorrupt, path, err)
	}
	for k, v := range raw {
		if k != "workspaces" && k != "commands" {
			r.topExtra[k] = v
		}
	}
	rawWorkspaces, _ := raw["workspaces"].([]map[string]any)

	for i := range doc.Workspaces {
		w := doc.Workspaces[i]
		if w.ID == "" || w.Path == "" {
			return nil, fmt.Errorf("%w: workspace %d missing id or path", ErrCorrupt, i)
		}
		w.Path = workspace.NormalizePath(w.Path)
		w.Tags = dedupe(w.Tags)
		if _, ok := r.byID[w.ID]; ok {
			return nil, fmt.Errorf("%w: id %q appears twice", ErrCorrupt, w.ID)
		}
		if idx := r.indexByPath(w.Path); idx >= 0 {
			return nil, fmt.Errorf("%w: path %q appears twice", ErrCorrupt, w.Path)
		}
		r.byID[w.ID] = len(r.workspaces)
		r.workspaces = append(r.workspaces, &w)

		var extra map[string]any
		if i < len(rawWorkspaces) {
			extra = unknownKeys(rawWorkspaces[i])
		}
		r.wsExtra = append(r.wsExtra, extra)
	}

	if doc.Commands != nil {
		r.commands = doc.Commands
	}
	return r, nil
}

// Path returns the backing file path.
func (r *Registry) Path() string { return r.path }

// Len returns the number of registered workspaces.
func (r *Registry) Len() int { return len(r.workspaces) }

// All returns the workspaces in insertion order. The slice is fresh;
// the workspace pointers are live registry state.
func (r *Registry) All() []*workspace.Workspace {
	return append([]*workspace.Workspace(nil), r.workspaces...)
}

// Get returns the workspace with the given id.
func (r *Registry) Get(id string) (*workspace.Workspace, error) {
	idx, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return r.workspaces[idx], nil
}

// FindByPath returns the workspace at the normalized path, or nil.
func (r *Registry) FindByPath(path string) *workspace.Workspace {
	if idx := r.indexByPath(workspace.NormalizePath(path)); idx >= 0 {
		return r.workspaces[idx]
	}
	return nil
}

// Add registers a workspace. Fails with ErrDuplicateID or
// ErrDuplicatePath without mutating anything.
func (r *Registry) Add(w *workspace.Workspace) error {
	if w.ID == "" {
		return errors.New("workspace id must not be empty")
	}
	w.Path = workspace.NormalizePath(w.Path)
	if _, ok := r.byID[w.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateID, w.ID)
	}
	if idx := r.indexByPath(w.Path); idx >= 0 {
		return fmt.Errorf("%w: %q already registered as %q", ErrDuplicatePath, w.Path, r.workspaces[idx].ID)
	}
	r.byID[w.ID] = len(r.workspaces)
	r.workspaces = append(r.workspaces, w)
	r.wsExtra = append(r.wsExtra, nil)
	return nil
}

// Remove deletes the registry entry only; the filesystem tree is never
// touched here.
func (r *Registry) Remove(id string) error {
	idx, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	r.workspaces = append(r.workspaces[:idx], r.workspaces[idx+1:]...)
	r.wsExtra = append(r.wsExtra[:idx], r.wsExtra[idx+1:]...)
	delete(r.byID, id)
	for i := idx; i < len(r.workspaces); i++ {
		r.byID[r.workspaces[i].ID] = i
	}
	return nil
}

// Move updates a workspace's path in place. The id is unchanged; the
// new path must not belong to another workspace.
func (r *Registry) Move(id, newPath string) error {
	idx, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	newPath = workspace.NormalizePath(newPath)
	if other := r.indexByPath(newPath); other >= 0 && other != idx {
		return fmt.Errorf("%w: %q already registered as %q", ErrDuplicatePath, newPath, r.workspaces[other].ID)
	}
	r.workspaces[idx].Path = newPath
	return nil
}

// Tag adds a tag to a workspace. Idempotent.
func (r *Registry) Tag(id, tag string) error {
	w, err := r.Get(id)
	if err != nil {
		return err
	}
	w.AddTag(tag)
	return nil
}

// Untag removes a tag from a workspace. Removing an absent tag is a
// no-op.
func (r *Registry) Untag(id, tag string) error {
	w, err := r.Get(id)
	if err != nil {
		return err
	}
	w.RemoveTag(tag)
	return nil
}

// SetMeta sets a metadata key on a workspace.
func (r *Registry) SetMeta(id, key, value string) error {
	w, err := r.Get(id)
	if err != nil {
		return err
	}
	w.SetMeta(key, value)
	return nil
}

// Command returns the named command spec.
func (r *Registry) Command(name string) (CommandSpec, bool) {
	spec, ok := r.commands[name]
	return spec, ok
}

// Commands returns all command specs keyed by name.
func (r *Registry) Commands() map[string]CommandSpec {
	out := make(map[string]CommandSpec, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// SetCommand stores a command spec under name, replacing any previous
// definition.
func (r *Registry) SetCommand(name string, spec CommandSpec) {
	r.commands[name] = spec
}

// RemoveCommand deletes a command spec.
func (r *Registry) RemoveCommand(name string) error {
	if _, ok := r.commands[name]; !ok {
		return fmt.Errorf("%w: command %q", ErrNotFound, name)
	}
	delete(r.commands, name)
	return nil
}

// Save rewrites the backing store in full via temp-file-plus-rename so
// a crash mid-write never corrupts the previous valid state.
func (r *Registry) Save() error {
	doc := r.encodable()

	dir := filepath.Dir(r.path)
	base := filepath.Base(r.path)
	tempFile, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp registry file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()    // may already be closed before rename
		_ = os.Remove(tempPath) // best effort; gone after a successful rename
	}()

	if err := toml.NewEncoder(tempFile).Encode(doc); err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("closing temp registry file: %w", err)
	}
	if err := os.Rename(tempPath, r.path); err != nil {
		return fmt.Errorf("replacing registry file: %w", err)
	}
	return nil
}

// encodable builds the TOML document: typed fields merged over any
// preserved unknown keys.
func (r *Registry) encodable() map[string]any {
	doc := make(map[string]any, len(r.topExtra)+2)
	for k, v := range r.topExtra {
		doc[k] = v
	}

	records := make([]map[string]any, 0, len(r.workspaces))
	for i, w := range r.workspaces {
		rec := make(map[string]any)
		for k, v := range r.wsExtra[i] {
			rec[k] = v
		}
		rec["id"] = w.ID
		rec["path"] = w.Path
		if len(w.Tags) > 0 {
			rec["tags"] = w.Tags
		}
		if len(w.Metadata) > 0 {
			rec["metadata"] = w.Metadata
		}
		if w.VCS.Kind != workspace.VCSNone || len(w.VCS.Remotes) > 0 {
			vcs := map[string]any{"kind": string(w.VCS.Kind)}
			if len(w.VCS.Remotes) > 0 {
				remotes := make([]map[string]any, 0, len(w.VCS.Remotes))
				for _, rm := range w.VCS.Remotes {
					remotes = append(remotes, map[string]any{"name": rm.Name, "url": rm.URL})
				}
				vcs["remotes"] = remotes
			}
			rec["vcs"] = vcs
		}
		records = append(records, rec)
	}
	doc["workspaces"] = records

	if len(r.commands) > 0 {
		doc["commands"] = r.commands
	}
	return doc
}

func (r *Registry) indexByPath(path string) int {
	for i, w := range r.workspaces {
		if w.Path == path {
			return i
		}
	}
	return -1
}

// unknownKeys returns the entries of a raw workspace table not covered
// by the typed schema.
func unknownKeys(raw map[string]any) map[string]any {
	var extra map[string]any
	for k, v := range raw {
		switch k {
		case "id", "path", "tags", "metadata", "vcs":
		default:
			if extra == nil {
				extra = make(map[string]any)
			}
			extra[k] = v
		}
	}
	return extra
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Package selector resolves which workspaces a command targets. The
// index is derived from the registry on every load and never persisted;
// the registry stays the single source of truth for tags.
package selector

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/grovekit/grove/internal/registry"
	"github.com/grovekit/grove/internal/workspace"
)

// Selector is a predicate over the registry. The zero value selects
// everything. IDs, Tags, and Glob compose with AND semantics; Tags
// itself is an intersection (a workspace must carry every tag).
type Selector struct {
	IDs  []string // explicit id list; empty means no id restriction
	Tags []string // tag intersection
	Glob string   // path glob, matched against each workspace path
}

// IsEmpty reports whether the selector has no predicates at all.
func (s Selector) IsEmpty() bool {
	return len(s.IDs) == 0 && len(s.Tags) == 0 && s.Glob == ""
}

// Index is the in-memory tag index over one loaded registry. Rebuild
// after any registry mutation that changes tags or membership.
type Index struct {
	reg   *registry.Registry
	byTag map[string]map[string]struct{}
}

// NewIndex builds the tag index from the registry's current state.
func NewIndex(reg *registry.Registry) *Index {
	idx := &Index{
		reg:   reg,
		byTag: make(map[string]map[string]struct{}),
	}
	for _, w := range reg.All() {
		for _, t := range w.Tags {
			set, ok := idx.byTag[t]
			if !ok {
				set = make(map[string]struct{})
				idx.byTag[t] = set
			}
			set[w.ID] = struct{}{}
		}
	}
	return idx
}

// Tags returns all known tags in sorted order.
func (idx *Index) Tags() []string {
	out := make([]string, 0, len(idx.byTag))
	for t := range idx.byTag {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the workspaces matching the selector, in registry
// insertion order. Repeated calls over an unchanged registry return
// the same sequence; downstream batch reports depend on that. An
// explicit id that doesn't exist is an error; an empty result from
// tag/glob filtering is not.
func (idx *Index) Resolve(sel Selector) ([]*workspace.Workspace, error) {
	var idFilter map[string]struct{}
	if len(sel.IDs) > 0 {
		idFilter = make(map[string]struct{}, len(sel.IDs))
		for _, id := range sel.IDs {
			if _, err := idx.reg.Get(id); err != nil {
				return nil, err
			}
			idFilter[id] = struct{}{}
		}
	}

	var out []*workspace.Workspace
	for _, w := range idx.reg.All() {
		if idFilter != nil {
			if _, ok := idFilter[w.ID]; !ok {
				continue
			}
		}
		if !idx.hasAllTags(w.ID, sel.Tags) {
			continue
		}
		if sel.Glob != "" {
			matched, err := filepath.Match(sel.Glob, w.Path)
			if err != nil {
				return nil, fmt.Errorf("bad path glob %q: %w", sel.Glob, err)
			}
			if !matched {
				continue
			}
		}
		out = append(out, w)
	}
	return out, nil
}

func (idx *Index) hasAllTags(id string, tags []string) bool {
	for _, t := range tags {
		set, ok := idx.byTag[t]
		if !ok {
			return false
		}
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

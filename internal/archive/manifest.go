package archive

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/grovekit/grove/internal/workspace"
)

// ManifestName is the manifest's entry name inside every archive.
const ManifestName = "grove-manifest.toml"

// Manifest maps archived trees back to their registry records so an
// import reconstructs workspaces, not just files.
type Manifest struct {
	CreatedAt time.Time       `toml:"created_at"`
	Entries   []ManifestEntry `toml:"entries"`
}

// ManifestEntry is one archived workspace. Trees are stored under the
// workspace id as the top-level archive directory.
type ManifestEntry struct {
	ID       string               `toml:"id"`
	Path     string               `toml:"path"`
	Tags     []string             `toml:"tags,omitempty"`
	Metadata map[string]string    `toml:"metadata,omitempty"`
	VCS      workspace.VCSBinding `toml:"vcs,omitempty"`
}

// NewManifest builds a manifest for the given workspaces, in order.
func NewManifest(workspaces []*workspace.Workspace) *Manifest {
	m := &Manifest{CreatedAt: time.Now().UTC()}
	for _, w := range workspaces {
		m.Entries = append(m.Entries, ManifestEntry{
			ID:       w.ID,
			Path:     w.Path,
			Tags:     w.Tags,
			Metadata: w.Metadata,
			VCS:      w.VCS,
		})
	}
	return m
}

// Workspaces converts manifest entries back to workspace descriptors,
// with each path rebased under root (where the archive was extracted).
func (m *Manifest) Workspaces(root string) []*workspace.Workspace {
	out := make([]*workspace.Workspace, 0, len(m.Entries))
	for _, e := range m.Entries {
		w := &workspace.Workspace{
			ID:       e.ID,
			Path:     filepath.Join(root, e.ID),
			Tags:     append([]string(nil), e.Tags...),
			Metadata: e.Metadata,
			VCS:      e.VCS,
		}
		out = append(out, w)
	}
	return out
}

func (m *Manifest) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", ErrFormat, err)
	}
	return &m, nil
}

package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/grovekit/grove/internal/workspace"
)

// Import extracts an archive into root and returns the workspace
// descriptors reconstructed from its manifest, each pointing at its
// extracted tree. The format is sniffed from content, not filename;
// an unrecognized or manifest-less archive fails with ErrFormat.
func Import(archivePath, root string) ([]*workspace.Workspace, error) {
	f, err := os.Open(archivePath) // #nosec G304 - user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	head := make([]byte, 4)
	n, err := io.ReadFull(f, head)
	if err != nil && n == 0 {
		return nil, fmt.Errorf("%w: empty or unreadable file", ErrFormat)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	var manifest *Manifest
	switch {
	case bytes.HasPrefix(head, []byte("PK\x03\x04")):
		manifest, err = extractZip(archivePath, root)
	case bytes.HasPrefix(head, []byte{0x1f, 0x8b}):
		gz, gzErr := gzip.NewReader(f)
		if gzErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, gzErr)
		}
		defer gz.Close()
		manifest, err = extractTar(tar.NewReader(gz), root)
	default:
		manifest, err = extractTar(tar.NewReader(f), root)
	}
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		return nil, fmt.Errorf("%w: archive has no %s", ErrFormat, ManifestName)
	}
	return manifest.Workspaces(root), nil
}

func extractZip(archivePath, root string) (*Manifest, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer zr.Close()

	var manifest *Manifest
	for _, entry := range zr.File {
		dest, err := safeJoin(root, entry.Name)
		if err != nil {
			return nil, err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, dirMode(entry.Mode().Perm())); err != nil {
				return nil, err
			}
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		data, err := writeEntry(dest, entry.Name, entry.Mode().Perm(), rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		if data != nil {
			if manifest, err = decodeManifest(data); err != nil {
				return nil, err
			}
		}
	}
	return manifest, nil
}

func extractTar(tr *tar.Reader, root string) (*Manifest, error) {
	var manifest *Manifest
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		dest, err := safeJoin(root, hdr.Name)
		if err != nil {
			return nil, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, dirMode(os.FileMode(hdr.Mode).Perm())); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			data, err := writeEntry(dest, hdr.Name, os.FileMode(hdr.Mode).Perm(), tr)
			if err != nil {
				return nil, err
			}
			if data != nil {
				if manifest, err = decodeManifest(data); err != nil {
					return nil, err
				}
			}
		default:
			// Links and specials are skipped on export too.
		}
	}
	return manifest, nil
}

// writeEntry extracts one regular file. The manifest is captured and
// returned rather than written to disk; it belongs to the archive, not
// the extracted trees.
func writeEntry(dest, name string, perm os.FileMode, r io.Reader) ([]byte, error) {
	if filepath.ToSlash(name) == ManifestName {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: reading manifest: %v", ErrFormat, err)
		}
		return data, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return nil, err
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm) // #nosec G304 - path validated by safeJoin
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(out, r); err != nil { // #nosec G110 - archives come from the user's own exports
		out.Close()
		return nil, err
	}
	return nil, out.Close()
}

// safeJoin rejects entry names that would escape the extraction root.
func safeJoin(root, name string) (string, error) {
	name = filepath.ToSlash(name)
	if strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: unsafe entry name %q", ErrFormat, name)
	}
	return filepath.Join(root, filepath.FromSlash(name)), nil
}

func dirMode(perm os.FileMode) os.FileMode {
	if perm == 0 {
		return 0o750
	}
	return perm
}

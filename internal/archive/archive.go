// Package archive exports workspace trees to zip, tar, or gzipped tar
// snapshots and imports them back. Every archive carries a manifest so
// re-import reconstructs registry entries, not just raw files. Trees
// are streamed file by file; a workspace is never buffered whole.
package archive

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/grovekit/grove/internal/workspace"
)

// ErrFormat marks an unrecognized or corrupt archive.
var ErrFormat = errors.New("unrecognized archive format")

// Format is an archive output format.
type Format string

const (
	Zip   Format = "zip"
	Tar   Format = "tar"
	TarGz Format = "tar.gz"
)

// ParseFormat accepts the CLI spellings of each format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "zip":
		return Zip, nil
	case "tar":
		return Tar, nil
	case "tar.gz", "tgz", "gzip", "gz":
		return TarGz, nil
	default:
		return "", fmt.Errorf("%w: %q (want zip, tar, or tar.gz)", ErrFormat, s)
	}
}

// FormatForPath infers the format from a destination filename.
func FormatForPath(dest string) (Format, error) {
	switch {
	case strings.HasSuffix(dest, ".zip"):
		return Zip, nil
	case strings.HasSuffix(dest, ".tar.gz"), strings.HasSuffix(dest, ".tgz"):
		return TarGz, nil
	case strings.HasSuffix(dest, ".tar"):
		return Tar, nil
	default:
		return "", fmt.Errorf("%w: cannot infer format from %q", ErrFormat, dest)
	}
}

// entryWriter abstracts the zip and tar writers behind one streaming
// add operation.
type entryWriter interface {
	addDir(name string, mode fs.FileMode) error
	addFile(name string, mode fs.FileMode, size int64, r io.Reader) error
}

// Export writes the workspaces' trees plus a manifest to dest.
// Workspaces are archived sequentially, each under its id as the
// top-level directory.
func Export(workspaces []*workspace.Workspace, format Format, dest string) error {
	f, err := os.Create(dest) // #nosec G304 - destination chosen by caller
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	var (
		ew      entryWriter
		closers []io.Closer
	)
	switch format {
	case Zip:
		zw := zip.NewWriter(f)
		closers = append(closers, zw)
		ew = &zipEntryWriter{zw}
	case Tar:
		tw := tar.NewWriter(f)
		closers = append(closers, tw)
		ew = &tarEntryWriter{tw}
	case TarGz:
		gz := gzip.NewWriter(f)
		tw := tar.NewWriter(gz)
		closers = append(closers, tw, gz)
		ew = &tarEntryWriter{tw}
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}

	manifest, err := NewManifest(workspaces).encode()
	if err != nil {
		return err
	}
	if err := ew.addFile(ManifestName, 0o644, int64(len(manifest)), strings.NewReader(string(manifest))); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	for _, w := range workspaces {
		if err := exportTree(ew, w); err != nil {
			return fmt.Errorf("archiving %s: %w", w.ID, err)
		}
	}

	for _, c := range closers {
		if err := c.Close(); err != nil {
			return fmt.Errorf("finalizing archive: %w", err)
		}
	}
	return f.Close()
}

func exportTree(ew entryWriter, w *workspace.Workspace) error {
	root := w.Path
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := w.ID
		if rel != "." {
			name = path.Join(w.ID, filepath.ToSlash(rel))
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return ew.addDir(name, info.Mode())
		case info.Mode().IsRegular():
			f, err := os.Open(p) // #nosec G304 - walking the workspace tree
			if err != nil {
				return err
			}
			defer f.Close()
			return ew.addFile(name, info.Mode(), info.Size(), f)
		default:
			// Sockets, devices, symlinks: not snapshot material.
			return nil
		}
	})
}

type zipEntryWriter struct {
	zw *zip.Writer
}

func (z *zipEntryWriter) addDir(name string, mode fs.FileMode) error {
	hdr := &zip.FileHeader{Name: name + "/", Method: zip.Deflate}
	hdr.SetMode(mode | fs.ModeDir)
	_, err := z.zw.CreateHeader(hdr)
	return err
}

func (z *zipEntryWriter) addFile(name string, mode fs.FileMode, size int64, r io.Reader) error {
	hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
	hdr.SetMode(mode)
	w, err := z.zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

type tarEntryWriter struct {
	tw *tar.Writer
}

func (t *tarEntryWriter) addDir(name string, mode fs.FileMode) error {
	return t.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     name + "/",
		Mode:     int64(mode.Perm()),
	})
}

func (t *tarEntryWriter) addFile(name string, mode fs.FileMode, size int64, r io.Reader) error {
	if err := t.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     int64(mode.Perm()),
		Size:     size,
	}); err != nil {
		return err
	}
	_, err := io.Copy(t.tw, r)
	return err
}

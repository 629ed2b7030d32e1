package cachestore

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Workspace packs the cached portion of a job's working tree into opaque
// contents and unpacks restored contents back into it. Keeping this behind
// an interface lets the job runner stay ignorant of archive formats, and
// lets tests substitute an in-memory fake.
type Workspace interface {
	Pack(ctx context.Context) (Contents, error)
	Unpack(ctx context.Context, contents Contents) error
}

// DirWorkspace archives the declared cache paths under a root directory as
// a gzipped tarball. Paths that do not exist yet are skipped: on a cold
// workspace there is simply nothing to pack.
type DirWorkspace struct {
	Root  string
	Paths []string
}

// Pack implements Workspace.
func (w *DirWorkspace) Pack(ctx context.Context) (Contents, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, path := range w.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		full := filepath.Join(w.Root, path)
		if _, err := os.Stat(full); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := addTree(tw, w.Root, full); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing cache archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("finalizing cache archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Unpack implements Workspace. Entries with absolute or parent-escaping
// names are rejected outright.
func (w *DirWorkspace) Unpack(ctx context.Context, contents Contents) error {
	gz, err := gzip.NewReader(bytes.NewReader(contents))
	if err != nil {
		return fmt.Errorf("opening cache archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading cache archive: %w", err)
		}

		name := filepath.Clean(hdr.Name)
		if filepath.IsAbs(name) || strings.HasPrefix(name, "..") {
			return fmt.Errorf("cache archive entry escapes workspace: %q", hdr.Name)
		}
		dest := filepath.Join(w.Root, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, fs.FileMode(hdr.Mode)); err != nil {
				return fmt.Errorf("restoring cache directory %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("restoring cache file %s: %w", name, err)
			}
			f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fs.FileMode(hdr.Mode))
			if err != nil {
				return fmt.Errorf("restoring cache file %s: %w", name, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return fmt.Errorf("restoring cache file %s: %w", name, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("restoring cache file %s: %w", name, err)
			}
		default:
			// Symlinks and special files are not part of dependency caches.
		}
	}
}

// addTree writes every file under path into the archive with names
// relative to root.
func addTree(tw *tar.Writer, root, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     filepath.ToSlash(rel) + "/",
				Mode:     int64(info.Mode().Perm()),
			})
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if err := tw.WriteHeader(&tar.Header{
			Typeflag: tar.TypeReg,
			Name:     filepath.ToSlash(rel),
			Mode:     int64(info.Mode().Perm()),
			Size:     info.Size(),
		}); err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}

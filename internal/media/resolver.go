// Package media lists the playable files of the media root and turns untrusted
// file names into safe names inside it.
package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotPlayable is returned by Open for names that are not a listed media file.
var ErrNotPlayable = errors.New("media: not a playable file")

// DefaultExtensions are the browser-playable formats listed when none are configured.
var DefaultExtensions = []string{".mp4", ".webm", ".ogg"}

// Resolver reads a single flat media directory. The listing is taken from disk on
// every call.
type Resolver struct {
	root       string
	extensions []string
}

// NewResolver returns a resolver for root accepting the given extensions. Extensions
// are matched case-insensitively; an empty list means DefaultExtensions.
func NewResolver(root string, extensions []string) *Resolver {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return &Resolver{root: root, extensions: normalized}
}

// Root returns the media directory.
func (r *Resolver) Root() string {
	return r.root
}

// List creates the media root if needed and returns the names of the files directly
// inside it whose extension is allowed, in ascending order.
func (r *Resolver) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("read media root: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if r.Allowed(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Allowed reports whether name ends with one of the accepted extensions.
func (r *Resolver) Allowed(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range r.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Open opens a file for streaming. name must already be a bare file name with an
// allowed extension naming a regular file directly inside the root; anything else,
// directories included, yields ErrNotPlayable. The caller closes the file.
func (r *Resolver) Open(name string) (*os.File, fs.FileInfo, error) {
	if name == "" || name != ResolveForPlayback(name) || !r.Allowed(name) {
		return nil, nil, ErrNotPlayable
	}
	f, err := os.Open(filepath.Join(r.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotPlayable
		}
		return nil, nil, fmt.Errorf("open media file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat media file: %w", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotPlayable
	}
	return f, info, nil
}

// ResolveForPlayback reduces an untrusted name to its final path segment. Both
// slash styles count as separators and "." or ".." collapse to the empty name. The
// result is a candidate only: it is not checked against the disk or the extensions.
func ResolveForPlayback(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// Package resolver maps logical page names to their backing Markdown files
// and extracts filesystem metadata. All access is read-only: the bridge
// never writes to the graph directory itself.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// namespaceMarker replaces the "/" namespace separator in file names.
// Logseq stores "project/notes" as "project___notes.md"; the marker is a
// multi-character sequence no legal page name contains.
const namespaceMarker = "___"

const (
	pagesDir    = "pages"
	journalsDir = "journals"
)

// PageLocation is the resolved physical location of a page.
type PageLocation struct {
	Path    string // absolute file path
	Journal bool   // true when found under journals/
}

// FileMetadata holds the filesystem attributes of a page file. File content
// is never inspected.
type FileMetadata struct {
	SizeBytes int64
	Created   time.Time
	Modified  time.Time
}

// Resolver resolves pages inside one graph root.
type Resolver struct {
	root string
}

// New creates a resolver for the given graph root. An empty root yields a
// graph_path_not_configured error so callers can report the missing setting
// distinctly from a lookup miss.
func New(root string) (*Resolver, error) {
	if root == "" {
		return nil, apperr.GraphPathNotConfigured()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolver: resolve root: %w", err)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute graph root.
func (r *Resolver) Root() string { return r.root }

// FileName translates a logical page name into its on-disk file name.
func FileName(pageName string) string {
	return strings.ReplaceAll(pageName, "/", namespaceMarker) + ".md"
}

// Resolve probes pages/ then journals/ for the page's file and returns the
// first hit. A miss is a not_found error, which callers treat as "no
// physical metadata available" rather than a failure: a page can exist in
// the graph's index before its first save to disk.
func (r *Resolver) Resolve(pageName string) (*PageLocation, error) {
	name := FileName(pageName)

	regular := filepath.Join(r.root, pagesDir, name)
	if fileExists(regular) {
		return &PageLocation{Path: regular}, nil
	}

	journal := filepath.Join(r.root, journalsDir, name)
	if fileExists(journal) {
		return &PageLocation{Path: journal, Journal: true}, nil
	}

	return nil, apperr.NotFound("no file for page %q under %s or %s", pageName, pagesDir, journalsDir)
}

// ResolveRetry resolves with a small bounded retry, covering the window
// between a page creation through the API and Logseq's save to disk.
func (r *Resolver) ResolveRetry(ctx context.Context, pageName string, attempts int, pause time.Duration) (*PageLocation, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		loc, err := r.Resolve(pageName)
		if err == nil {
			return loc, nil
		}
		if !errors.Is(err, apperr.NotFound("")) {
			return nil, err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pause):
		}
	}
	return nil, lastErr
}

// Metadata stats the file at path. Created falls back to the modification
// time on platforms without a usable change time (see metadata_*.go).
func (r *Resolver) Metadata(path string) (*FileMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("no file at %s", path)
		}
		return nil, fmt.Errorf("resolver: stat %s: %w", path, err)
	}
	return &FileMetadata{
		SizeBytes: info.Size(),
		Created:   createdTime(info),
		Modified:  info.ModTime(),
	}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

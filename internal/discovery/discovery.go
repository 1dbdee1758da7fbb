package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"acejump/internal/eventbus"
)

const (
	// DefaultMaxDepth is how deep directories are walked below a root
	DefaultMaxDepth = 5
	// DefaultMaxFiles caps how many files one scan opens
	DefaultMaxFiles = 8
	// DefaultMaxSize skips files larger than this many bytes
	DefaultMaxSize = 1 << 20

	sniffLen = 8000
)

// Common directories that never hold files worth jumping in
var skipDirs = map[string]bool{
	"node_modules":  true,
	"vendor":        true,
	"dist":          true,
	"build":         true,
	"target":        true,
	"__pycache__":   true,
	".pytest_cache": true,
	"venv":          true,
}

// Options limits a scan
type Options struct {
	MaxDepth int
	MaxFiles int
	MaxSize  int64
}

// DefaultOptions returns the limits used by the command line
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth, MaxFiles: DefaultMaxFiles, MaxSize: DefaultMaxSize}
}

// Scanner expands paths given on the command line into text files
type Scanner struct {
	bus  eventbus.EventBus
	opts Options
}

// NewScanner creates a scanner reporting walk failures on bus
func NewScanner(bus eventbus.EventBus, opts Options) *Scanner {
	if bus == nil {
		bus = eventbus.NullBus{}
	}
	return &Scanner{bus: bus, opts: opts}
}

// Expand returns the files named by roots. Files are kept as given,
// directories are walked for text files in lexical order. Missing paths
// are returned unchanged so they can be created on save.
func (s *Scanner) Expand(ctx context.Context, roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		if s.full(files) {
			break
		}

		info, err := os.Stat(root)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			files = append(files, root)
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		case !info.IsDir():
			files = append(files, root)
			continue
		}

		found, err := s.scanDirectory(ctx, root, s.remaining(files))
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func (s *Scanner) full(files []string) bool {
	return s.opts.MaxFiles > 0 && len(files) >= s.opts.MaxFiles
}

func (s *Scanner) remaining(files []string) int {
	if s.opts.MaxFiles <= 0 {
		return -1
	}
	return s.opts.MaxFiles - len(files)
}

// errLimit stops the walk once enough files were found
var errLimit = errors.New("file limit reached")

// scanDirectory walks root for text files, at most limit of them (-1 for no limit)
func (s *Scanner) scanDirectory(ctx context.Context, root string, limit int) ([]string, error) {
	var found []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Skip on error
		if err != nil {
			log.Printf("Error walking path %s: %v", path, err)
			return nil // Continue walking
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			relPath, _ := filepath.Rel(root, path)
			if strings.Count(relPath, string(filepath.Separator)) >= s.opts.MaxDepth {
				return fs.SkipDir
			}
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return fs.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() {
			return nil
		}
		if !s.isText(path, d) {
			return nil
		}

		found = append(found, path)
		if limit >= 0 && len(found) >= limit {
			return errLimit
		}
		return nil
	})

	switch {
	case err == nil, errors.Is(err, errLimit):
		return found, nil
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		log.Printf("Error scanning directory %s: %v", root, err)
		s.bus.Publish(eventbus.ErrorEvent{
			Message: fmt.Sprintf("Failed to scan %s", root),
			Err:     err,
		})
		return found, nil
	}
}

// isText reports whether the file is small enough and has no NUL byte in
// its first block
func (s *Scanner) isText(path string, d fs.DirEntry) bool {
	info, err := d.Info()
	if err != nil {
		return false
	}
	if s.opts.MaxSize > 0 && info.Size() > s.opts.MaxSize {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false
	}
	return !bytes.Contains(head[:n], []byte{0})
}

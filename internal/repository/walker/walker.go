// Package walker searches the filesystem by walking it directly. It is the
// fallback tier used when the native index has nothing to offer.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/localaid/localaid/internal/domain"
	"github.com/localaid/localaid/internal/domain/entry"
	"github.com/localaid/localaid/internal/domain/query"
	"github.com/localaid/localaid/internal/extract"
	logpkg "github.com/localaid/localaid/internal/logger"
)

// DefaultSkipDirs are directory names never descended into, in addition to
// every name starting with a dot.
var DefaultSkipDirs = []string{
	".git", "node_modules", "__pycache__", ".venv", "venv",
	"Library", ".Trash", ".cache", "Cache", "Caches",
}

// ContentMatcher tests whether a file body contains a term.
type ContentMatcher interface {
	ContainsFold(path, term string) (bool, error)
}

// Config holds the walker settings.
type Config struct {
	Root       string
	SkipDirs   []string
	MaxResults int
}

// Walker walks the tree under Root top-down.
type Walker struct {
	root    string
	skip    map[string]struct{}
	max     int
	matcher ContentMatcher
}

// New creates a Walker. Empty SkipDirs uses DefaultSkipDirs.
func New(cfg Config, matcher ContentMatcher) *Walker {
	skipDirs := cfg.SkipDirs
	if len(skipDirs) == 0 {
		skipDirs = DefaultSkipDirs
	}
	skip := make(map[string]struct{}, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = struct{}{}
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = entry.MaxResults
	}
	return &Walker{root: cfg.Root, skip: skip, max: cfg.MaxResults, matcher: matcher}
}

// Pruned reports whether a directory named name is never visited.
func (w *Walker) Pruned(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ok := w.skip[name]
	return ok
}

// walk carries the per-call state of one search.
type walk struct {
	q       query.Parsed
	term    string
	hasTerm bool
	results []entry.SearchResult
	logger  *zap.Logger
}

// Search walks the tree and returns at most MaxResults matches in discovery
// order. At each directory the matching subdirectories are reported before
// the matching files. Errors below the root are skipped; an unreadable root
// is ErrUnexpectedIO. When ctx ends the results found so far are returned
// together with the context error.
func (w *Walker) Search(ctx context.Context, q query.Parsed) ([]entry.SearchResult, error) {
	st := &walk{q: q, logger: logpkg.FromContext(ctx)}
	st.term, st.hasTerm = q.ContentTerm()

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, fmt.Errorf("%w: read root %s: %w", domain.ErrUnexpectedIO, w.root, err)
	}

	if _, err := w.visit(ctx, st, w.root, entries); err != nil {
		return st.results, err
	}
	return st.results, nil
}

// visit handles one directory and then descends into its kept subdirectories.
// It reports done once the cap is reached.
func (w *Walker) visit(
	ctx context.Context, st *walk, dir string, entries []fs.DirEntry,
) (done bool, err error) {
	if err := ctx.Err(); err != nil {
		return true, fmt.Errorf("walk cancelled: %w", err)
	}

	var dirs, descend []string
	var files []string
	for _, e := range entries {
		name := e.Name()
		isDir, follow := classify(dir, e)
		if !isDir {
			files = append(files, name)
			continue
		}
		if w.Pruned(name) {
			continue
		}
		dirs = append(dirs, name)
		if follow {
			descend = append(descend, name)
		}
	}

	if len(st.q.Keywords()) > 0 {
		for _, name := range dirs {
			if !st.q.ContainsKeyword(name) {
				continue
			}
			st.results = append(st.results, entry.NewDirectory(filepath.Join(dir, name)))
			if len(st.results) >= w.max {
				return true, nil
			}
		}
	}

	for _, name := range files {
		if w.matchFile(st, dir, name) {
			st.results = append(st.results, entry.NewFile(filepath.Join(dir, name)))
			if len(st.results) >= w.max {
				return true, nil
			}
		}
	}

	for _, name := range descend {
		path := filepath.Join(dir, name)
		children, err := os.ReadDir(path)
		if err != nil {
			st.logger.Debug("skipping unreadable directory", zap.String("path", path), zap.Error(err))
			continue
		}
		if done, err := w.visit(ctx, st, path, children); done || err != nil {
			return done, err
		}
	}
	return false, nil
}

func (w *Walker) matchFile(st *walk, dir, name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !st.q.MatchesExtension(name) {
		return false
	}
	if !st.q.MatchesName(name) {
		return false
	}
	if !st.hasTerm {
		return true
	}
	if !extract.IsPlainText(extract.Ext(name)) || w.matcher == nil {
		return false
	}

	path := filepath.Join(dir, name)
	ok, err := w.matcher.ContainsFold(path, st.term)
	if err != nil {
		st.logger.Debug("skipping unreadable file", zap.String("path", path), zap.Error(err))
		return false
	}
	return ok
}

// classify reports whether e is a directory and whether the walk may enter it.
// Symlinks to directories count as directories but are not followed.
func classify(dir string, e fs.DirEntry) (isDir, follow bool) {
	if e.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		return err == nil && info.IsDir(), false
	}
	return e.IsDir(), e.IsDir()
}

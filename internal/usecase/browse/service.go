// Package browse serves directory listings, raw file fetches and text
// previews for the file picker.
package browse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/localaid/localaid/internal/domain"
	"github.com/localaid/localaid/internal/domain/entry"
	"github.com/localaid/localaid/internal/extract"
	logpkg "github.com/localaid/localaid/internal/logger"
)

// Previewer produces preview text for a file.
type Previewer interface {
	Preview(path string) (extract.Content, error)
}

// File is a fetched file.
type File struct {
	Filename string
	Path     string
	Data     []byte
}

// Service reads the live filesystem on every call; nothing is cached.
type Service struct {
	previewer Previewer
}

// New creates a browse service.
func New(previewer Previewer) *Service {
	return &Service{previewer: previewer}
}

// List returns the non-hidden children of dir sorted by name.
func (s *Service) List(ctx context.Context, dir string) ([]entry.DirectoryEntry, error) {
	if dir == "" {
		return nil, domain.NewPathError("", "directory path is required")
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, domain.NewPathError(dir, "not a directory")
	}

	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", domain.ErrUnexpectedIO, dir, err)
	}

	items := make([]entry.DirectoryEntry, 0, len(children))
	for _, c := range children {
		name := c.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(dir, name)
		items = append(items, entry.DirectoryEntry{
			Name: name,
			Path: full,
			Kind: entry.KindOf(isDir(full)),
		})
	}

	logpkg.FromContext(ctx).Debug("listed directory", zap.String("path", dir), zap.Int("items", len(items)))
	return items, nil
}

// Fetch reads a regular file whole.
func (s *Service) Fetch(_ context.Context, path string) (File, error) {
	if err := requireFile(path); err != nil {
		return File{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("%w: read %s: %w", domain.ErrUnexpectedIO, path, err)
	}
	return File{Filename: filepath.Base(path), Path: path, Data: data}, nil
}

// Preview extracts display text for a regular file.
func (s *Service) Preview(_ context.Context, path string) (extract.Content, error) {
	if err := requireFile(path); err != nil {
		return extract.Content{}, err
	}

	c, err := s.previewer.Preview(path)
	if err != nil {
		if errors.Is(err, domain.ErrExtractionFailure) {
			return extract.Content{}, err
		}
		return extract.Content{}, fmt.Errorf("%w: %w", domain.ErrUnexpectedIO, err)
	}
	return c, nil
}

// FileNames returns the paths of the file entries, in order.
func FileNames(items []entry.DirectoryEntry) []string {
	files := make([]string, 0, len(items))
	for _, it := range items {
		if it.Kind == entry.File {
			files = append(files, it.Path)
		}
	}
	return files
}

func requireFile(path string) error {
	if path == "" {
		return domain.NewPathError("", "file path is required")
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return domain.NewPathError(path, "not a file")
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

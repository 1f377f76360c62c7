// Package extract turns files into plain text for chat attachments, previews
// and content matching.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/localaid/localaid/internal/domain"
)

// Default limits.
const (
	DefaultAttachmentLimit   = 15000
	DefaultPreviewReadLimit  = 100000
	DefaultPreviewLimit      = 50000
	DefaultContentMatchLimit = 50000
	DefaultTruncationMarker  = "\n\n[Document truncated due to length...]"
)

// Config holds the size policies of the extraction contexts.
type Config struct {
	// AttachmentLimit caps document text placed into a chat prompt (characters).
	AttachmentLimit int
	// PreviewReadLimit caps how much of a text file is read for a preview (bytes).
	PreviewReadLimit int64
	// PreviewLimit caps preview text returned to the client (characters).
	PreviewLimit int
	// ContentMatchLimit caps how much of a file is scanned for a content term (bytes).
	ContentMatchLimit int64
	// TruncationMarker is appended to truncated attachment text.
	TruncationMarker string
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{
		AttachmentLimit:   DefaultAttachmentLimit,
		PreviewReadLimit:  DefaultPreviewReadLimit,
		PreviewLimit:      DefaultPreviewLimit,
		ContentMatchLimit: DefaultContentMatchLimit,
		TruncationMarker:  DefaultTruncationMarker,
	}
}

// Content is extracted file text.
type Content struct {
	Filename  string
	Text      string
	Truncated bool
}

// Extractor dispatches on file extension. It holds no mutable state and is
// safe for concurrent use.
type Extractor struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an Extractor. Zero limits fall back to defaults.
func New(cfg Config, logger *zap.Logger) *Extractor {
	def := DefaultConfig()
	if cfg.AttachmentLimit <= 0 {
		cfg.AttachmentLimit = def.AttachmentLimit
	}
	if cfg.PreviewReadLimit <= 0 {
		cfg.PreviewReadLimit = def.PreviewReadLimit
	}
	if cfg.PreviewLimit <= 0 {
		cfg.PreviewLimit = def.PreviewLimit
	}
	if cfg.ContentMatchLimit <= 0 {
		cfg.ContentMatchLimit = def.ContentMatchLimit
	}
	if cfg.TruncationMarker == "" {
		cfg.TruncationMarker = def.TruncationMarker
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Config returns the effective limits.
func (e *Extractor) Config() Config { return e.cfg }

// Ext returns the lowercase extension of name, with its leading dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// Extract returns the text of a document held in r.
// PDF parse failures are ErrExtractionFailure; everything that is not a
// paginated or packaged document is decoded permissively and never fails.
func (e *Extractor) Extract(r io.ReaderAt, size int64, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(r, size)
	case ".docx":
		text, err := extractDOCX(r, size)
		if err == nil {
			return text, nil
		}
		e.logger.Debug("docx extraction failed, decoding as text", zap.Error(err))
	}

	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", fmt.Errorf("%w: read: %w", domain.ErrExtractionFailure, err)
	}
	return DecodeText(data), nil
}

// Attachment extracts the full text of an uploaded document.
// Truncation for the prompt is left to the caller (see TruncateAttachment).
func (e *Extractor) Attachment(filename string, data []byte) (string, error) {
	return e.Extract(bytes.NewReader(data), int64(len(data)), Ext(filename))
}

// TruncateAttachment applies the attachment policy to document text.
func (e *Extractor) TruncateAttachment(text string) (string, bool) {
	return TruncateAttachment(text, e.cfg.AttachmentLimit, e.cfg.TruncationMarker)
}

// Preview reads a file for display. Plain files are read up to
// PreviewReadLimit bytes; documents are extracted whole. The returned text is
// capped at PreviewLimit characters and Truncated reports whether the text
// before the cap was longer.
func (e *Extractor) Preview(path string) (Content, error) {
	f, err := os.Open(path)
	if err != nil {
		return Content{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Content{}, fmt.Errorf("stat %s: %w", path, err)
	}

	size := info.Size()
	ext := Ext(path)
	if !isDocument(ext) && size > e.cfg.PreviewReadLimit {
		size = e.cfg.PreviewReadLimit
	}

	text, err := e.Extract(f, size, ext)
	if err != nil {
		return Content{}, err
	}

	capped, truncated := truncateRunes(text, e.cfg.PreviewLimit)
	return Content{
		Filename:  filepath.Base(path),
		Text:      capped,
		Truncated: truncated,
	}, nil
}

// ContainsFold reports whether the first ContentMatchLimit bytes of the file
// contain term, ignoring case.
func (e *Extractor) ContainsFold(path, term string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, e.cfg.ContentMatchLimit))
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	return strings.Contains(strings.ToLower(DecodeText(data)), strings.ToLower(term)), nil
}

func isDocument(ext string) bool {
	return ext == ".pdf" || ext == ".docx"
}

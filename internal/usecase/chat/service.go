// Package chat composes prompts from user messages and attached documents
// and asks the language model for an answer.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/localaid/localaid/internal/domain"
	logpkg "github.com/localaid/localaid/internal/logger"
)

// NoResponse is returned to the user when the model answers with nothing.
const NoResponse = "No response from model."

// Attachment is an uploaded document.
type Attachment struct {
	Filename string
	Data     []byte
}

// Request is one chat turn.
type Request struct {
	Message    string
	Format     string
	Attachment *Attachment
}

// Reply is the model answer.
type Reply struct {
	Response          string
	DocumentTruncated bool
}

// Service handles chat turns.
type Service struct {
	extractor Extractor
	completer Completer
}

// New creates a chat service.
func New(extractor Extractor, completer Completer) *Service {
	return &Service{extractor: extractor, completer: completer}
}

// Reply answers req. A request without a message and without document text
// is ErrEmptyMessage; unreadable attachments are ErrExtractionFailure and
// model failures are ErrInferenceProviderError.
func (s *Service) Reply(ctx context.Context, req Request) (Reply, error) {
	logger := logpkg.FromContext(ctx)
	message := strings.TrimSpace(req.Message)

	var document string
	var truncated bool
	if req.Attachment != nil {
		text, err := s.extractor.Attachment(req.Attachment.Filename, req.Attachment.Data)
		if err != nil {
			if !errors.Is(err, domain.ErrExtractionFailure) {
				err = fmt.Errorf("%w: %w", domain.ErrExtractionFailure, err)
			}
			return Reply{}, fmt.Errorf("read %s: %w", req.Attachment.Filename, err)
		}
		document, truncated = s.extractor.TruncateAttachment(text)
		if document == "" {
			truncated = false
		}
	}

	if message == "" && document == "" {
		return Reply{}, fmt.Errorf("%w: please provide a message or attach a document", domain.ErrEmptyMessage)
	}

	prompt := BuildPrompt(message, document, req.Format)
	logger.Debug("sending prompt",
		zap.String("format", req.Format),
		zap.Int("prompt_chars", len(prompt)),
		zap.Bool("document", document != ""),
		zap.Bool("document_truncated", truncated),
	)

	answer, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %w", domain.ErrInferenceProviderError, err)
	}
	if answer == "" {
		answer = NoResponse
	}
	return Reply{Response: answer, DocumentTruncated: truncated}, nil
}

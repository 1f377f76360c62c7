package chat

import "context"

// Completer sends a prompt to the language model and returns its answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor turns an uploaded document into text.
type Extractor interface {
	Attachment(filename string, data []byte) (string, error)
	TruncateAttachment(text string) (string, bool)
}

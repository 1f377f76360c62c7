package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/localaid/localaid/internal/domain"
	"github.com/localaid/localaid/internal/extract"
)

// --- Mocks ---

type mockCompleter struct {
	answer string
	err    error
	prompt string
	calls  int
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompt = prompt
	return m.answer, m.err
}

type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Attachment(_ string, _ []byte) (string, error) {
	return m.text, m.err
}

func (m *mockExtractor) TruncateAttachment(text string) (string, bool) {
	return extract.TruncateAttachment(text, 10, "[cut]")
}

// --- Tests ---

func TestReply_MessageOnly(t *testing.T) {
	c := &mockCompleter{answer: "Paris"}
	svc := New(&mockExtractor{}, c)

	reply, err := svc.Reply(context.Background(), Request{Message: "  capital of France?  ", Format: FormatBrief})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Response != "Paris" {
		t.Errorf("unexpected response %q", reply.Response)
	}
	if !strings.Contains(c.prompt, "USER QUESTION: capital of France?\n") {
		t.Errorf("expected trimmed question in prompt:\n%s", c.prompt)
	}
	if !strings.Contains(c.prompt, FormatInstruction(FormatBrief)) {
		t.Error("expected brief format instruction in prompt")
	}
	if strings.Contains(c.prompt, "DOCUMENT CONTENT") {
		t.Error("question prompt must not carry a document section")
	}
}

func TestReply_DocumentWithoutMessageSummarizes(t *testing.T) {
	c := &mockCompleter{answer: "summary"}
	svc := New(&mockExtractor{text: "short doc"}, c)

	_, err := svc.Reply(context.Background(), Request{
		Attachment: &Attachment{Filename: "notes.txt", Data: []byte("ignored")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(c.prompt, "USER QUESTION: "+summarizeRequest) {
		t.Errorf("expected summarize request:\n%s", c.prompt)
	}
	if !strings.Contains(c.prompt, "DOCUMENT CONTENT:\nshort doc\n") {
		t.Errorf("expected document text:\n%s", c.prompt)
	}
}

func TestReply_DocumentTruncated(t *testing.T) {
	c := &mockCompleter{answer: "ok"}
	svc := New(&mockExtractor{text: strings.Repeat("d", 25)}, c)

	reply, err := svc.Reply(context.Background(), Request{
		Message:    "what is it",
		Attachment: &Attachment{Filename: "big.txt"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reply.DocumentTruncated {
		t.Error("expected DocumentTruncated")
	}
	if !strings.Contains(c.prompt, strings.Repeat("d", 10)+"[cut]") {
		t.Errorf("expected truncated document in prompt:\n%s", c.prompt)
	}
}

func TestReply_EmptyMessage(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"blank message", Request{Message: "   "}},
		{"empty attachment text", Request{Attachment: &Attachment{Filename: "empty.txt"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := &mockCompleter{}
			_, err := New(&mockExtractor{}, c).Reply(context.Background(), tc.req)
			if !errors.Is(err, domain.ErrEmptyMessage) {
				t.Fatalf("expected ErrEmptyMessage, got %v", err)
			}
			if c.calls != 0 {
				t.Error("model must not be called")
			}
		})
	}
}

func TestReply_ExtractionFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"sentinel", domain.ErrExtractionFailure},
		{"plain", errors.New("boom")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := &mockCompleter{}
			_, err := New(&mockExtractor{err: tc.err}, c).Reply(context.Background(), Request{
				Message:    "hi",
				Attachment: &Attachment{Filename: "bad.pdf"},
			})
			if !errors.Is(err, domain.ErrExtractionFailure) {
				t.Fatalf("expected ErrExtractionFailure, got %v", err)
			}
			if !strings.Contains(err.Error(), "bad.pdf") {
				t.Errorf("expected filename in error, got %v", err)
			}
			if c.calls != 0 {
				t.Error("model must not be called")
			}
		})
	}
}

func TestReply_InferenceError(t *testing.T) {
	svc := New(&mockExtractor{}, &mockCompleter{err: errors.New("connection refused")})

	_, err := svc.Reply(context.Background(), Request{Message: "hi"})
	if !errors.Is(err, domain.ErrInferenceProviderError) {
		t.Fatalf("expected ErrInferenceProviderError, got %v", err)
	}
}

func TestReply_EmptyAnswer(t *testing.T) {
	svc := New(&mockExtractor{}, &mockCompleter{})

	reply, err := svc.Reply(context.Background(), Request{Message: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Response != NoResponse {
		t.Errorf("expected %q, got %q", NoResponse, reply.Response)
	}
}

func TestReply_RealExtractorPDFAttachment(t *testing.T) {
	c := &mockCompleter{answer: "ok"}
	svc := New(extract.New(extract.DefaultConfig(), nil), c)

	_, err := svc.Reply(context.Background(), Request{
		Message:    "summarize",
		Attachment: &Attachment{Filename: "broken.pdf", Data: []byte("not a pdf")},
	})
	if !errors.Is(err, domain.ErrExtractionFailure) {
		t.Fatalf("expected ErrExtractionFailure, got %v", err)
	}
}

func TestFormatInstruction(t *testing.T) {
	for _, f := range []string{FormatBullets, FormatNumbered, FormatTable, FormatBrief, FormatDetailed, FormatCode} {
		if FormatInstruction(f) == FormatInstruction(FormatDefault) {
			t.Errorf("format %q must have its own instruction", f)
		}
	}
	if FormatInstruction("haiku") != FormatInstruction(FormatDefault) {
		t.Error("unknown format must fall back to default")
	}
	if FormatInstruction("") != FormatInstruction(FormatDefault) {
		t.Error("empty format must fall back to default")
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("why?", "", FormatDefault)
	if !strings.HasPrefix(p, "You are a helpful AI assistant. Please answer") {
		t.Errorf("unexpected question prompt:\n%s", p)
	}
	if !strings.HasSuffix(p, "Please provide a clear and informative response.") {
		t.Errorf("unexpected question prompt ending:\n%s", p)
	}

	p = BuildPrompt("why?", "DOC", FormatTable)
	if !strings.HasSuffix(p, "If the answer cannot be found in the document, say so clearly.") {
		t.Errorf("unexpected document prompt ending:\n%s", p)
	}
	if !strings.Contains(p, "USER QUESTION: why?") || !strings.Contains(p, FormatInstruction(FormatTable)) {
		t.Errorf("unexpected document prompt:\n%s", p)
	}
}

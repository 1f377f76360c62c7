package query

import (
	"strings"
)

// ContentPrefix marks a token that searches file bodies instead of names.
const ContentPrefix = "content:"

// recognizedExtensions are bare tokens interpreted as extension filters.
var recognizedExtensions = map[string]struct{}{
	"pdf": {}, "txt": {}, "doc": {}, "docx": {}, "csv": {}, "xlsx": {},
	"json": {}, "md": {}, "py": {}, "js": {}, "html": {},
}

// IsRecognizedExtension reports whether a bare token is treated as an extension filter.
func IsRecognizedExtension(token string) bool {
	_, ok := recognizedExtensions[token]
	return ok
}

// Parsed is a search query split into name keywords, extension filters and a content term.
type Parsed struct {
	keywords    []string
	extensions  []string
	contentTerm string
	hasContent  bool
}

// New creates a Parsed from already normalized components.
// Extensions must carry their leading dot; duplicates are dropped.
func New(keywords, extensions []string, contentTerm *string) Parsed {
	p := Parsed{keywords: append([]string(nil), keywords...)}
	for _, ext := range extensions {
		p.addExtension(ext)
	}
	if contentTerm != nil {
		p.contentTerm = *contentTerm
		p.hasContent = *contentTerm != ""
	}
	return p
}

// Parse splits a raw query into its components.
// Every token lands in exactly one component. When several content: tokens
// are present the last one wins; an empty remainder leaves no content term.
func Parse(raw string) Parsed {
	var p Parsed
	for _, token := range strings.Fields(strings.ToLower(strings.TrimSpace(raw))) {
		token = strings.Trim(token, `"'`)
		if token == "" {
			continue
		}

		if strings.HasPrefix(token, ContentPrefix) {
			_, term, _ := strings.Cut(token, ":")
			p.contentTerm = term
			p.hasContent = term != ""
			continue
		}

		if IsRecognizedExtension(token) {
			p.addExtension("." + token)
			continue
		}

		p.keywords = append(p.keywords, token)
	}
	return p
}

func (p *Parsed) addExtension(ext string) {
	for _, e := range p.extensions {
		if e == ext {
			return
		}
	}
	p.extensions = append(p.extensions, ext)
}

// Keywords returns the lowercase name keywords in query order.
func (p Parsed) Keywords() []string { return p.keywords }

// Extensions returns the extension filters, each with a leading dot.
func (p Parsed) Extensions() []string { return p.extensions }

// ContentTerm returns the content term and whether one was given.
func (p Parsed) ContentTerm() (string, bool) { return p.contentTerm, p.hasContent }

// IsEmpty reports whether the query produced no component at all.
func (p Parsed) IsEmpty() bool {
	return len(p.keywords) == 0 && len(p.extensions) == 0 && !p.hasContent
}

// MatchesName reports whether name contains any keyword, case-insensitively.
// A query without keywords matches every name.
func (p Parsed) MatchesName(name string) bool {
	if len(p.keywords) == 0 {
		return true
	}
	return p.ContainsKeyword(name)
}

// ContainsKeyword reports whether name contains at least one keyword.
// A query without keywords contains none.
func (p Parsed) ContainsKeyword(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range p.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MatchesExtension reports whether name ends with one of the extension filters.
// A query without extension filters matches every name.
func (p Parsed) MatchesExtension(name string) bool {
	if len(p.extensions) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range p.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// String rebuilds a query that parses back into an equivalent Parsed.
func (p Parsed) String() string {
	parts := make([]string, 0, len(p.keywords)+len(p.extensions)+1)
	parts = append(parts, p.keywords...)
	for _, ext := range p.extensions {
		parts = append(parts, strings.TrimPrefix(ext, "."))
	}
	if p.hasContent {
		parts = append(parts, ContentPrefix+p.contentTerm)
	}
	return strings.Join(parts, " ")
}

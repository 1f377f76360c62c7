package chi

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes.
const (
	CodeBadRequest       = "bad_request"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeNotFound         = "not_found"
	CodeUnauthorized     = "unauthorized"
	CodeInvalidQuery     = "invalid_query"
	CodeInvalidPath      = "invalid_path"
	CodeExtractionFailed = "extraction_failed"
	CodeEmptyMessage     = "empty_message"
	CodeInferenceError   = "inference_error"
	CodeIOError          = "io_error"
	CodeInternalError    = "internal_error"
)

// MessageResponse is the chat answer.
type MessageResponse struct {
	Response          string `json:"response"`
	DocumentTruncated bool   `json:"document_truncated,omitempty"`
}

// SearchRequest is the body of POST /api/search/.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResultItem is one search hit.
type SearchResultItem struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// SearchResponse lists search hits.
type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
	Source  string             `json:"source,omitempty"`
}

// PathRequest is the body of the file picker endpoints.
type PathRequest struct {
	Path string `json:"path"`
}

// DirectoryItem is one directory child.
type DirectoryItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// ListDirResponse lists a directory. Files repeats the file paths of Items.
type ListDirResponse struct {
	Files []string        `json:"files"`
	Items []DirectoryItem `json:"items"`
}

// FetchFileResponse carries a whole file, base64 encoded.
type FetchFileResponse struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Path     string `json:"path"`
}

// ReadFileResponse carries preview text.
type ReadFileResponse struct {
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

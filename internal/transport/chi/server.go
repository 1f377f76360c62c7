package chi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/localaid/localaid/internal/domain"
	logpkg "github.com/localaid/localaid/internal/logger"
	browseuc "github.com/localaid/localaid/internal/usecase/browse"
	chatuc "github.com/localaid/localaid/internal/usecase/chat"
	healthuc "github.com/localaid/localaid/internal/usecase/health"
)

// DefaultMaxUploadBytes bounds a chat request body.
const DefaultMaxUploadBytes = 32 << 20

// Client-facing messages.
const (
	msgInvalidMethod = "Invalid request method."
	msgInvalidDir    = "Invalid directory path."
	msgInvalidFile   = "Invalid file path."
	msgEmptyQuery    = "Please provide a search query."
	msgEmptyMessage  = "Please provide a message or attach a document."
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the assistant HTTP API.
type Server struct {
	search         Searcher
	browse         Browser
	chat           Chatter
	health         HealthChecker
	logger         *zap.Logger
	maxUploadBytes int64
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	browse Browser,
	chat Chatter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:         search,
		browse:         browse,
		chat:           chat,
		health:         health,
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery, constMessage(msgEmptyQuery)),
		sentinelHandler(domain.ErrEmptyMessage, http.StatusBadRequest, CodeEmptyMessage, constMessage(msgEmptyMessage)),
		sentinelHandler(domain.ErrExtractionFailure, http.StatusBadRequest, CodeExtractionFailed,
			prefixedMessage("Failed to read file: ")),
		sentinelHandler(domain.ErrInferenceProviderError, http.StatusBadGateway, CodeInferenceError,
			prefixedMessage("Model server error: ")),
		sentinelHandler(domain.ErrUnexpectedIO, http.StatusInternalServerError, CodeIOError,
			prefixedMessage("")),
	}
	return s
}

// WithMaxUploadBytes overrides the chat request body limit.
func (s *Server) WithMaxUploadBytes(n int64) *Server {
	if n > 0 {
		s.maxUploadBytes = n
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, msgInvalidMethod)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "not found")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/message/", s.Message)
		r.Post("/search/", s.Search)
		r.Post("/list_dir/", s.ListDir)
		r.Post("/fetch_file/", s.FetchFile)
		r.Post("/read_file/", s.ReadFile)
	})
}

// Message handles POST /api/message/ (multipart: message, format, file).
func (s *Server) Message(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, CodeExtractionFailed, "Failed to read file: "+err.Error())
		return
	}

	format := r.FormValue("format")
	if format == "" {
		format = chatuc.FormatDefault
	}
	req := chatuc.Request{
		Message: r.FormValue("message"),
		Format:  format,
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			writeError(w, http.StatusBadRequest, CodeExtractionFailed, "Failed to read file: "+readErr.Error())
			return
		}
		req.Attachment = &chatuc.Attachment{Filename: header.Filename, Data: data}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		writeError(w, http.StatusBadRequest, CodeExtractionFailed, "Failed to read file: "+err.Error())
		return
	}

	reply, err := s.chat.Reply(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Response:          reply.Response,
		DocumentTruncated: reply.DocumentTruncated,
	})
}

// Search handles POST /api/search/.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := s.search.Search(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(out.Results))
	for i, res := range out.Results {
		items[i] = SearchResultItem{Type: string(res.Kind), Path: res.Path}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: items, Source: string(out.Source)})
}

// ListDir handles POST /api/list_dir/.
func (s *Server) ListDir(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	children, err := s.browse.List(r.Context(), req.Path)
	if err != nil {
		s.handlePathError(w, r, err, msgInvalidDir)
		return
	}

	items := make([]DirectoryItem, len(children))
	for i, c := range children {
		items[i] = DirectoryItem{Name: c.Name, Path: c.Path, Type: string(c.Kind)}
	}
	writeJSON(w, http.StatusOK, ListDirResponse{Files: browseuc.FileNames(children), Items: items})
}

// FetchFile handles POST /api/fetch_file/.
func (s *Server) FetchFile(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	f, err := s.browse.Fetch(r.Context(), req.Path)
	if err != nil {
		s.handlePathError(w, r, err, msgInvalidFile)
		return
	}

	writeJSON(w, http.StatusOK, FetchFileResponse{
		Filename: f.Filename,
		Content:  base64.StdEncoding.EncodeToString(f.Data),
		Path:     f.Path,
	})
}

// ReadFile handles POST /api/read_file/.
func (s *Server) ReadFile(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := s.browse.Preview(r.Context(), req.Path)
	if err != nil {
		s.handlePathError(w, r, err, msgInvalidFile)
		return
	}

	writeJSON(w, http.StatusOK, ReadFileResponse{
		Filename:  c.Filename,
		Content:   c.Text,
		Truncated: c.Truncated,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func constMessage(msg string) func(error) string {
	return func(error) string { return msg }
}

func prefixedMessage(prefix string) func(error) string {
	return func(err error) string { return prefix + err.Error() }
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string, message func(error) string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, message(err))
		return true
	}
}

// handlePathError reports ErrInvalidPath with the endpoint's own message.
func (s *Server) handlePathError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, domain.ErrInvalidPath) {
		s.requestLogger(r).Debug("invalid path", zap.Error(err))
		writeError(w, http.StatusBadRequest, CodeInvalidPath, msg)
		return
	}
	s.handleDomainError(w, r, err)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := s.requestLogger(r)
	logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logpkg.FromContextOr(r.Context(), s.logger)
}

// Package spotlight resolves search queries through the host's native
// file-metadata index (mdfind on macOS).
package spotlight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/localaid/localaid/internal/domain"
	"github.com/localaid/localaid/internal/domain/entry"
	"github.com/localaid/localaid/internal/domain/query"
)

// Defaults for the index tool invocation.
const (
	DefaultTool    = "mdfind"
	DefaultTimeout = 10 * time.Second
)

// Runner executes the index tool and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs the tool as a subprocess. The process is killed when ctx ends.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}

// Config holds the index adapter settings.
type Config struct {
	Tool       string
	Root       string
	Timeout    time.Duration
	MaxResults int
}

// Adapter turns a parsed query into an index tool query and classifies the hits.
type Adapter struct {
	runner Runner
	cfg    Config
}

// New creates an index adapter. A nil runner uses ExecRunner.
func New(runner Runner, cfg Config) *Adapter {
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Tool == "" {
		cfg.Tool = DefaultTool
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = entry.MaxResults
	}
	return &Adapter{runner: runner, cfg: cfg}
}

// Search runs the index tool scoped to the configured root.
// Any tool failure is returned as ErrIndexToolUnavailable; paths that no
// longer exist are dropped.
func (a *Adapter) Search(ctx context.Context, q query.Parsed) ([]entry.SearchResult, error) {
	expr := BuildQuery(q)
	if expr == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	out, err := a.runner.Run(ctx, a.cfg.Tool, "-onlyin", a.cfg.Root, expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexToolUnavailable, err)
	}

	var results []entry.SearchResult
	for _, line := range strings.Split(string(out), "\n") {
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		results = append(results, entry.SearchResult{Kind: entry.KindOf(info.IsDir()), Path: path})
		if len(results) >= a.cfg.MaxResults {
			break
		}
	}
	return results, nil
}

// HealthCheck reports whether the index tool binary can be found.
func (a *Adapter) HealthCheck(_ context.Context) error {
	if _, err := exec.LookPath(a.cfg.Tool); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexToolUnavailable, err)
	}
	return nil
}

// BuildQuery renders q in the index tool's query language.
// Present clauses are joined with &&; a lone clause is used as is.
func BuildQuery(q query.Parsed) string {
	var clauses []string

	if kws := q.Keywords(); len(kws) > 0 {
		clauses = append(clauses,
			fmt.Sprintf(`kMDItemDisplayName == "*%s*"cd`, escape(strings.Join(kws, " "))))
	}

	if exts := q.Extensions(); len(exts) > 0 {
		conds := make([]string, len(exts))
		for i, ext := range exts {
			conds[i] = fmt.Sprintf(`kMDItemFSName == "*.%s"`, escape(strings.TrimPrefix(ext, ".")))
		}
		clauses = append(clauses, "("+strings.Join(conds, " || ")+")")
	}

	if term, ok := q.ContentTerm(); ok {
		clauses = append(clauses, fmt.Sprintf(`kMDItemTextContent == "*%s*"cd`, escape(term)))
	}

	return strings.Join(clauses, " && ")
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escape(v string) string {
	return valueEscaper.Replace(v)
}

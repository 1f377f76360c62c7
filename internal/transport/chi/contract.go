package chi

import (
	"context"

	"github.com/localaid/localaid/internal/domain/entry"
	"github.com/localaid/localaid/internal/extract"
	browseuc "github.com/localaid/localaid/internal/usecase/browse"
	chatuc "github.com/localaid/localaid/internal/usecase/chat"
	healthuc "github.com/localaid/localaid/internal/usecase/health"
	searchuc "github.com/localaid/localaid/internal/usecase/search"
)

// Searcher resolves file search queries.
type Searcher interface {
	Search(ctx context.Context, raw string) (searchuc.Outcome, error)
}

// Browser serves the file picker.
type Browser interface {
	List(ctx context.Context, dir string) ([]entry.DirectoryEntry, error)
	Fetch(ctx context.Context, path string) (browseuc.File, error)
	Preview(ctx context.Context, path string) (extract.Content, error)
}

// Chatter answers chat turns.
type Chatter interface {
	Reply(ctx context.Context, req chatuc.Request) (chatuc.Reply, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

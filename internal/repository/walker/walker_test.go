package walker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/localaid/localaid/internal/domain"
	"github.com/localaid/localaid/internal/domain/entry"
	"github.com/localaid/localaid/internal/domain/query"
	"github.com/localaid/localaid/internal/extract"
)

// --- Helpers ---

// recordingMatcher wraps the real extractor and records every path it reads.
type recordingMatcher struct {
	inner ContentMatcher
	paths []string
	err   error
}

func (m *recordingMatcher) ContainsFold(path, term string) (bool, error) {
	m.paths = append(m.paths, path)
	if m.err != nil {
		return false, m.err
	}
	return m.inner.ContainsFold(path, term)
}

func newMatcher() *recordingMatcher {
	return &recordingMatcher{inner: extract.New(extract.DefaultConfig(), nil)}
}

// mkTree creates files (path -> content); paths ending in "/" are directories.
func mkTree(t *testing.T, root string, tree map[string]string) {
	t.Helper()
	for rel, content := range tree {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(p, 0o750); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func paths(root string, results []entry.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		rel, _ := filepath.Rel(root, r.Path)
		out[i] = string(r.Kind) + ":" + filepath.ToSlash(rel)
	}
	return out
}

// --- Tests ---

func TestSearch_DirectoriesBeforeFilesPerLevel(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, map[string]string{
		"a-report.txt":          "",
		"reports/":              "",
		"reports/q1-report.md":  "",
		"reports/unrelated.md":  "",
		"zeta/old-report/":      "",
		"zeta/report-final.pdf": "",
		"other.txt":             "",
	})

	w := New(Config{Root: root}, newMatcher())
	results, err := w.Search(context.Background(), query.Parse("report"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"directory:reports",
		"file:a-report.txt",
		"file:reports/q1-report.md",
		"directory:zeta/old-report",
		"file:zeta/report-final.pdf",
	}
	if got := paths(root, results); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected results:\n got  %v\n want %v", got, want)
	}
}

func TestSearch_PrunedDirectoriesNeverVisited(t *testing.T) {
	root := t.TempDir()
	tree := map[string]string{"visible/budget.txt": "budget"}
	for _, d := range append([]string{".hidden", ".config"}, DefaultSkipDirs...) {
		tree[d+"/budget.txt"] = "budget"
		tree[d+"/budget-dir/"] = ""
	}
	mkTree(t, root, tree)

	m := newMatcher()
	w := New(Config{Root: root}, m)
	results, err := w.Search(context.Background(), query.Parse("budget content:budget"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"file:visible/budget.txt"}
	if got := paths(root, results); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected results: %v", got)
	}
	for _, p := range m.paths {
		if !strings.HasPrefix(p, filepath.Join(root, "visible")) {
			t.Errorf("content read inside a pruned directory: %s", p)
		}
	}
}

func TestSearch_ExtensionAndHiddenFiles(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, map[string]string{
		"notes.MD":     "",
		"notes.txt":    "",
		".notes.md":    "",
		"sub/plan.md":  "",
		"sub/plan.pdf": "",
	})

	w := New(Config{Root: root}, newMatcher())
	results, err := w.Search(context.Background(), query.Parse("md"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"file:notes.MD", "file:sub/plan.md"}
	if got := paths(root, results); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected results: %v", got)
	}
}

func TestSearch_ContentMatchOnlyPlainText(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, map[string]string{
		"ledger.csv":   "Item,BUDGET\n",
		"ledger.xlsx":  "budget",
		"memo.txt":     "nothing relevant",
		"plan.md":      "the budget plan",
		"archive.data": "budget",
	})

	m := newMatcher()
	w := New(Config{Root: root}, m)
	results, err := w.Search(context.Background(), query.Parse("content:budget"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"file:ledger.csv", "file:plan.md"}
	if got := paths(root, results); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected results: %v", got)
	}
	for _, p := range m.paths {
		if ext := filepath.Ext(p); ext == ".xlsx" || ext == ".data" {
			t.Errorf("content read for non-text file %s", p)
		}
	}
}

func TestSearch_ContentScenarioWithExtension(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, map[string]string{"budget.xlsx": "budget"})

	w := New(Config{Root: root}, newMatcher())
	results, err := w.Search(context.Background(), query.Parse("content:budget xlsx"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("xlsx is not a plain-text format, expected no content match: %v", results)
	}
}

func TestSearch_EmptyContentTermMatchesAnyFile(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, map[string]string{
		"report.pdf": "%PDF",
		"notes.txt":  "hello",
	})

	m := newMatcher()
	w := New(Config{Root: root}, m)
	results, err := w.Search(context.Background(), query.Parse("report content:"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"file:report.pdf"}
	if got := paths(root, results); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected results: %v", got)
	}
	if len(m.paths) != 0 {
		t.Errorf("no file body should be read, got %v", m.paths)
	}
}

func TestSearch_ContentReadErrorSkipsFile(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, map[string]string{"a.txt": "x", "b.txt": "x"})

	m := newMatcher()
	m.err = errors.New("permission denied")
	w := New(Config{Root: root}, m)

	results, err := w.Search(context.Background(), query.Parse("content:x"))
	if err != nil {
		t.Fatalf("read errors must not abort the walk: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %v", results)
	}
	if len(m.paths) != 2 {
		t.Errorf("expected both files to be tried, got %v", m.paths)
	}
}

func TestSearch_StopsAtCap(t *testing.T) {
	root := t.TempDir()
	tree := map[string]string{}
	for i := 0; i < 20; i++ {
		tree[fmt.Sprintf("match-dir-%02d/", i)] = ""
		tree[fmt.Sprintf("match-%02d.txt", i)] = ""
		tree[fmt.Sprintf("match-dir-%02d/match-inner.txt", i)] = ""
	}
	mkTree(t, root, tree)

	w := New(Config{Root: root}, newMatcher())
	results, err := w.Search(context.Background(), query.Parse("match"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != entry.MaxResults {
		t.Fatalf("expected %d results, got %d", entry.MaxResults, len(results))
	}
	for i := 0; i < 20; i++ {
		if results[i].Kind != entry.Directory {
			t.Fatalf("result %d: expected directories first, got %+v", i, results[i])
		}
	}
	for i := 20; i < entry.MaxResults; i++ {
		if results[i].Kind != entry.File || filepath.Dir(results[i].Path) != root {
			t.Fatalf("result %d: expected a root-level file, got %+v", i, results[i])
		}
	}
}

func TestSearch_CustomCapAndSkipDirs(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, map[string]string{
		"keep/x1.txt":   "",
		"vendor/x2.txt": "",
		"x3.txt":        "",
		"x4.txt":        "",
	})

	w := New(Config{Root: root, SkipDirs: []string{"vendor"}, MaxResults: 2}, newMatcher())
	results, err := w.Search(context.Background(), query.Parse("txt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"file:x3.txt", "file:x4.txt"}
	if got := paths(root, results); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected results: %v", got)
	}
}

func TestSearch_UnreadableRoot(t *testing.T) {
	w := New(Config{Root: filepath.Join(t.TempDir(), "missing")}, newMatcher())

	_, err := w.Search(context.Background(), query.Parse("x"))
	if !errors.Is(err, domain.ErrUnexpectedIO) {
		t.Fatalf("expected ErrUnexpectedIO, got %v", err)
	}
}

func TestSearch_CancelledContext(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, map[string]string{"x.txt": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := New(Config{Root: root}, newMatcher())
	_, err := w.Search(ctx, query.Parse("x"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSearch_SymlinkedDirectoryReportedNotFollowed(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	mkTree(t, outside, map[string]string{"target-file.txt": ""})
	if err := os.Symlink(outside, filepath.Join(root, "target-link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	w := New(Config{Root: root}, newMatcher())
	results, err := w.Search(context.Background(), query.Parse("target"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"directory:target-link"}
	if got := paths(root, results); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected results: %v", got)
	}
}

func TestPruned(t *testing.T) {
	w := New(Config{}, nil)
	for _, name := range []string{".git", ".anything", "node_modules", "Caches", "Library"} {
		if !w.Pruned(name) {
			t.Errorf("expected %q to be pruned", name)
		}
	}
	for _, name := range []string{"src", "library", "cache-notes"} {
		if w.Pruned(name) {
			t.Errorf("expected %q to be kept", name)
		}
	}
}

package entry

// Kind distinguishes files from directories.
type Kind string

// Entry kinds.
const (
	File      Kind = "file"
	Directory Kind = "directory"
)

// KindOf maps a directory flag to a Kind.
func KindOf(isDir bool) Kind {
	if isDir {
		return Directory
	}
	return File
}

// SearchResult is a single search hit.
type SearchResult struct {
	Kind Kind
	Path string
}

// NewFile creates a file search result.
func NewFile(path string) SearchResult { return SearchResult{Kind: File, Path: path} }

// NewDirectory creates a directory search result.
func NewDirectory(path string) SearchResult { return SearchResult{Kind: Directory, Path: path} }

// DirectoryEntry is one child of a listed directory.
type DirectoryEntry struct {
	Name string
	Path string
	Kind Kind
}

// MaxResults is the hard cap on results returned by one search call.
const MaxResults = 30

package tui

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sussybocca/Server.x-2/editor"
	"github.com/sussybocca/Server.x-2/tree"
)

// Entry is one visible line of the tree pane.
type Entry struct {
	ID     tree.NodeID
	Parent tree.NodeID
	Name   string
	Depth  int
	IsDir  bool
	Size   int64
	Path   tree.Path
}

// buildEntries flattens the tree of e depth-first, root included.
func buildEntries(e *editor.Editor) []*Entry {
	var entries []*Entry
	parents := make([]tree.NodeID, 0, 8)

	e.Walk(func(path tree.Path, depth int, n tree.NodeView) bool {
		parents = append(parents[:depth], n.ID)

		entry := &Entry{
			ID:    n.ID,
			Name:  n.Name,
			Depth: depth,
			IsDir: n.IsFolder(),
			Size:  int64(len(n.Content)),
			Path:  path,
		}
		if depth > 0 {
			entry.Parent = parents[depth-1]
		}

		entries = append(entries, entry)
		return true
	})

	return entries
}

// DisplayName returns the indented name with a folder indicator.
func (e *Entry) DisplayName() string {
	name := e.Name
	if e.IsDir {
		name += "/"
	}

	return strings.Repeat("  ", e.Depth) + name
}

// DisplaySize returns human-readable size
func (e *Entry) DisplaySize() string {
	if e.IsDir {
		return "<DIR>"
	}

	return humanize.Bytes(uint64(e.Size))
}

// Icon returns an icon character based on the node kind and extension.
func (e *Entry) Icon() string {
	if e.IsDir {
		return "📁"
	}

	switch editor.Language(e.Name) {
	case "go", "js", "ts", "py", "java", "c", "cpp", "h", "rs", "rb", "php", "html", "css":
		return "💻"
	default:
		return "📄"
	}
}

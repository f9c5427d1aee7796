package tree

import (
	"strings"

	"github.com/google/uuid"
)

// Kind is the variant of a node.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// NodeID is assigned once when a node is created and never changes, even
// when the node is renamed or its siblings are edited.
type NodeID string

func newNodeID() NodeID {
	return NodeID(uuid.Must(uuid.NewV7()).String())
}

// Path addresses a node by the names from the root down to it.
// The empty path is the root itself.
type Path []string

// Child returns a new path one level below p.
func (p Path) Child(name string) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, name)
}

// Parent returns the path of the enclosing folder. The root is its own parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}

	return p[:len(p)-1:len(p)-1]
}

// Base returns the last segment, or "" for the root.
func (p Path) Base() string {
	if len(p) == 0 {
		return ""
	}

	return p[len(p)-1]
}

func (p Path) IsRoot() bool {
	return len(p) == 0
}

func (p Path) String() string {
	return "/" + strings.Join(p, "/")
}

// NodeView is a read-only copy of a node at the time it was looked up.
type NodeView struct {
	ID       NodeID
	Kind     Kind
	Name     string
	Content  string
	Children []NodeID
}

func (v NodeView) IsFile() bool {
	return v.Kind == KindFile
}

func (v NodeView) IsFolder() bool {
	return v.Kind == KindFolder
}

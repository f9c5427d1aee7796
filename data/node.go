package data

import "encoding/json"

// RootName is the conventional name of every tree root.
const RootName = "root"

// NodeType tags the variant of a FileNode.
type NodeType string

const (
	NodeTypeFile   NodeType = "file"
	NodeTypeFolder NodeType = "folder"
)

// FileNode is the persisted and transmitted form of a tree node.
//
// A file only carries Content, a folder only carries Children. The JSON
// encoding enforces this shape:
//
//	{"type":"file","name":"a.txt","content":"..."}
//	{"type":"folder","name":"src","children":[...]}
type FileNode struct {
	Type     NodeType    `msgpack:"type"`
	Name     string      `msgpack:"name"`
	Content  string      `msgpack:"content,omitempty"`
	Children []*FileNode `msgpack:"children,omitempty"`
}

func NewFile(name, content string) *FileNode {
	return &FileNode{
		Type:    NodeTypeFile,
		Name:    name,
		Content: content,
	}
}

func NewFolder(name string, children ...*FileNode) *FileNode {
	if children == nil {
		children = []*FileNode{}
	}

	return &FileNode{
		Type:     NodeTypeFolder,
		Name:     name,
		Children: children,
	}
}

// NewRoot returns an empty folder named "root".
func NewRoot() *FileNode {
	return NewFolder(RootName)
}

func (n *FileNode) IsFile() bool {
	return n.Type == NodeTypeFile
}

type fileNodeFile struct {
	Type    NodeType `json:"type"`
	Name    string   `json:"name"`
	Content string   `json:"content"`
}

type fileNodeFolder struct {
	Type     NodeType    `json:"type"`
	Name     string      `json:"name"`
	Children []*FileNode `json:"children"`
}

func (n FileNode) MarshalJSON() ([]byte, error) {
	if n.IsFile() {
		return json.Marshal(fileNodeFile{
			Type:    NodeTypeFile,
			Name:    n.Name,
			Content: n.Content,
		})
	}

	children := n.Children
	if children == nil {
		children = []*FileNode{}
	}

	return json.Marshal(fileNodeFolder{
		Type:     NodeTypeFolder,
		Name:     n.Name,
		Children: children,
	})
}

// UnmarshalJSON decodes either variant. Anything not tagged "file" is read
// as a folder, null children are dropped.
func (n *FileNode) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type     NodeType    `json:"type"`
		Name     string      `json:"name"`
		Content  string      `json:"content"`
		Children []*FileNode `json:"children"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	n.Name = raw.Name
	if raw.Type == NodeTypeFile {
		n.Type = NodeTypeFile
		n.Content = raw.Content
		n.Children = nil
		return nil
	}

	n.Type = NodeTypeFolder
	n.Content = ""
	n.Children = make([]*FileNode, 0, len(raw.Children))
	for _, child := range raw.Children {
		if child != nil {
			n.Children = append(n.Children, child)
		}
	}

	return nil
}

// Clone returns a deep copy of the node.
func (n *FileNode) Clone() *FileNode {
	if n == nil {
		return nil
	}

	if n.IsFile() {
		return NewFile(n.Name, n.Content)
	}

	clone := NewFolder(n.Name)
	for _, child := range n.Children {
		if child != nil {
			clone.Children = append(clone.Children, child.Clone())
		}
	}

	return clone
}

// Equal reports whether both nodes have the same variant, name, content and
// children in the same order.
func (n *FileNode) Equal(other *FileNode) bool {
	if n == nil || other == nil {
		return n == other
	}

	if n.IsFile() != other.IsFile() || n.Name != other.Name {
		return false
	}

	if n.IsFile() {
		return n.Content == other.Content
	}

	if len(n.Children) != len(other.Children) {
		return false
	}

	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}

	return true
}

// Stats counts all nodes below and including n and sums the content bytes.
func (n *FileNode) Stats() (nodes int, size int64) {
	if n == nil {
		return 0, 0
	}

	nodes = 1
	if n.IsFile() {
		return nodes, int64(len(n.Content))
	}

	for _, child := range n.Children {
		childNodes, childSize := child.Stats()
		nodes += childNodes
		size += childSize
	}

	return nodes, size
}

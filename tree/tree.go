// Package tree implements the editable file/folder hierarchy of a virtual
// server.
//
// Nodes live in an arena keyed by their NodeID, so callers can hold on to a
// node across renames and sibling edits. Paths are resolved by name on every
// call: siblings may share a name, in which case a path resolves to the first
// matching sibling in insertion order.
package tree

import (
	"github.com/sussybocca/Server.x-2/data"
	"github.com/tidwall/btree"
)

type Tree struct {
	root  NodeID
	nodes *btree.Map[NodeID, *node]
	gen   uint64
}

type node struct {
	id       NodeID
	kind     Kind
	name     string
	content  string
	parent   NodeID
	children []NodeID
}

// New returns a tree holding only an empty folder named "root".
func New() *Tree {
	t := &Tree{
		nodes: btree.NewMap[NodeID, *node](0),
	}
	t.root = t.insert(KindFolder, data.RootName, "", "")

	return t
}

// Deserialize builds a tree from its persisted form. A nil blob yields an
// empty root; a file blob is placed inside a fresh root folder since the
// root must always be a folder.
func Deserialize(blob *data.FileNode) *Tree {
	t := &Tree{
		nodes: btree.NewMap[NodeID, *node](0),
	}

	if blob == nil {
		blob = data.NewRoot()
	}
	if blob.IsFile() {
		blob = data.NewFolder(data.RootName, blob)
	}

	t.root = t.load(blob, "")
	return t
}

func (t *Tree) load(blob *data.FileNode, parent NodeID) NodeID {
	if blob.IsFile() {
		return t.insert(KindFile, blob.Name, blob.Content, parent)
	}

	id := t.insert(KindFolder, blob.Name, "", parent)
	n := t.get(id)
	for _, child := range blob.Children {
		if child != nil {
			n.children = append(n.children, t.load(child, id))
		}
	}

	return id
}

// Serialize returns the persisted form of the whole tree.
func (t *Tree) Serialize() *data.FileNode {
	return t.serialize(t.get(t.root))
}

func (t *Tree) serialize(n *node) *data.FileNode {
	if n.kind == KindFile {
		return data.NewFile(n.name, n.content)
	}

	folder := data.NewFolder(n.name)
	for _, id := range n.children {
		folder.Children = append(folder.Children, t.serialize(t.get(id)))
	}

	return folder
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	return t.Serialize().MarshalJSON()
}

func (t *Tree) UnmarshalJSON(b []byte) error {
	var blob data.FileNode
	if err := blob.UnmarshalJSON(b); err != nil {
		return err
	}

	*t = *Deserialize(&blob)
	return nil
}

// Generation increases with every successful mutation.
func (t *Tree) Generation() uint64 {
	return t.gen
}

// Len returns the number of nodes including the root.
func (t *Tree) Len() int {
	return t.nodes.Len()
}

func (t *Tree) Root() NodeView {
	return t.view(t.get(t.root))
}

func (t *Tree) RootID() NodeID {
	return t.root
}

// Find resolves path to a node. It fails with data.ErrNotExist as soon as a
// segment is missing or an intermediate node is a file.
func (t *Tree) Find(path Path) (NodeView, error) {
	n, ok := t.resolve(path)
	if !ok {
		return NodeView{}, data.ErrNotExist
	}

	return t.view(n), nil
}

// Lookup returns the node with the given id.
func (t *Tree) Lookup(id NodeID) (NodeView, error) {
	n := t.get(id)
	if n == nil {
		return NodeView{}, data.ErrNotExist
	}

	return t.view(n), nil
}

// PathOf returns the current name path of a node. With duplicate sibling
// names the returned path may resolve to an earlier sibling.
func (t *Tree) PathOf(id NodeID) (Path, error) {
	n := t.get(id)
	if n == nil {
		return nil, data.ErrNotExist
	}

	var reversed []string
	for n.id != t.root {
		reversed = append(reversed, n.name)
		n = t.get(n.parent)
	}

	path := make(Path, len(reversed))
	for i, name := range reversed {
		path[len(reversed)-1-i] = name
	}

	return path, nil
}

// AddChild appends a new empty file or folder to the folder at parent.
// Sibling names are not checked for collisions.
func (t *Tree) AddChild(parent Path, name string, kind Kind) (NodeID, error) {
	p, ok := t.resolve(parent)
	if !ok {
		return "", data.ErrParentNotFound
	}

	return t.addChild(p, name, kind)
}

// AddChildID is AddChild addressed by the parent's id.
func (t *Tree) AddChildID(parent NodeID, name string, kind Kind) (NodeID, error) {
	p := t.get(parent)
	if p == nil {
		return "", data.ErrParentNotFound
	}

	return t.addChild(p, name, kind)
}

func (t *Tree) addChild(parent *node, name string, kind Kind) (NodeID, error) {
	if parent.kind != KindFolder {
		return "", data.ErrNotFolder
	}

	id := t.insert(kind, name, "", parent.id)
	parent.children = append(parent.children, id)
	t.gen++

	return id, nil
}

// Rename sets the name of the node at path in place. Paths recorded before
// the rename are not updated.
func (t *Tree) Rename(path Path, name string) error {
	n, ok := t.resolve(path)
	if !ok {
		return data.ErrNotExist
	}

	n.name = name
	t.gen++
	return nil
}

func (t *Tree) RenameID(id NodeID, name string) error {
	n := t.get(id)
	if n == nil {
		return data.ErrNotExist
	}

	n.name = name
	t.gen++
	return nil
}

// Remove deletes the first sibling matching the last path segment, together
// with everything below it.
func (t *Tree) Remove(path Path) error {
	if path.IsRoot() {
		return data.ErrRootRemoval
	}

	parent, ok := t.resolve(path.Parent())
	if !ok || parent.kind != KindFolder {
		return data.ErrNotExist
	}

	index := t.childIndex(parent, path.Base())
	if index < 0 {
		return data.ErrNotExist
	}

	t.removeAt(parent, index)
	return nil
}

func (t *Tree) RemoveID(id NodeID) error {
	if id == t.root {
		return data.ErrRootRemoval
	}

	n := t.get(id)
	if n == nil {
		return data.ErrNotExist
	}

	parent := t.get(n.parent)
	for i, child := range parent.children {
		if child == id {
			t.removeAt(parent, i)
			return nil
		}
	}

	return data.ErrNotExist
}

func (t *Tree) removeAt(parent *node, index int) {
	id := parent.children[index]
	parent.children = append(parent.children[:index:index], parent.children[index+1:]...)
	t.drop(id)
	t.gen++
}

func (t *Tree) drop(id NodeID) {
	n, ok := t.nodes.Delete(id)
	if !ok {
		return
	}

	for _, child := range n.children {
		t.drop(child)
	}
}

// SetContent overwrites the content of the file at path.
func (t *Tree) SetContent(path Path, text string) error {
	n, ok := t.resolve(path)
	if !ok {
		return data.ErrNotExist
	}

	return t.setContent(n, text)
}

func (t *Tree) SetContentID(id NodeID, text string) error {
	n := t.get(id)
	if n == nil {
		return data.ErrNotExist
	}

	return t.setContent(n, text)
}

func (t *Tree) setContent(n *node, text string) error {
	if n.kind != KindFile {
		return data.ErrNotFile
	}

	n.content = text
	t.gen++
	return nil
}

// FirstFile returns the first file directly below the root.
func (t *Tree) FirstFile() (NodeView, bool) {
	for _, id := range t.get(t.root).children {
		if n := t.get(id); n.kind == KindFile {
			return t.view(n), true
		}
	}

	return NodeView{}, false
}

// Walk visits every node depth-first in child order, starting with the root
// at depth 0. Returning false from fn skips the children of that node.
func (t *Tree) Walk(fn func(path Path, depth int, n NodeView) bool) {
	t.walk(t.get(t.root), Path{}, 0, fn)
}

func (t *Tree) walk(n *node, path Path, depth int, fn func(Path, int, NodeView) bool) {
	if !fn(path, depth, t.view(n)) {
		return
	}

	for _, id := range n.children {
		child := t.get(id)
		t.walk(child, path.Child(child.name), depth+1, fn)
	}
}

func (t *Tree) insert(kind Kind, name, content string, parent NodeID) NodeID {
	n := &node{
		id:      newNodeID(),
		kind:    kind,
		name:    name,
		content: content,
		parent:  parent,
	}
	t.nodes.Set(n.id, n)

	return n.id
}

func (t *Tree) get(id NodeID) *node {
	n, _ := t.nodes.Get(id)
	return n
}

func (t *Tree) resolve(path Path) (*node, bool) {
	current := t.get(t.root)
	for _, segment := range path {
		if current.kind != KindFolder {
			return nil, false
		}

		index := t.childIndex(current, segment)
		if index < 0 {
			return nil, false
		}
		current = t.get(current.children[index])
	}

	return current, true
}

// childIndex returns the index of the first child called name, or -1.
func (t *Tree) childIndex(parent *node, name string) int {
	for i, id := range parent.children {
		if t.get(id).name == name {
			return i
		}
	}

	return -1
}

func (t *Tree) view(n *node) NodeView {
	v := NodeView{
		ID:      n.id,
		Kind:    n.kind,
		Name:    n.name,
		Content: n.content,
	}
	if n.kind == KindFolder {
		v.Children = make([]NodeID, len(n.children))
		copy(v.Children, n.children)
	}

	return v
}

package data

import (
	"encoding/json"
	"time"
)

// Server is a stored virtual server: where it lives, how it is called and
// the tree of files it serves.
type Server struct {
	Location    VirtualLocation `json:"virtual_url" msgpack:"virtual_url"`
	DisplayName string          `json:"name" msgpack:"name"`
	Public      bool            `json:"is_public" msgpack:"is_public"`
	Files       *FileNode       `json:"files" msgpack:"files"`
	CreatedAt   time.Time       `json:"created_at" msgpack:"created_at"`
}

// NewServer creates a server record with an empty root folder.
func NewServer(location VirtualLocation, displayName string, public bool) *Server {
	if displayName == "" {
		displayName = location.Name()
	}

	return &Server{
		Location:    location,
		DisplayName: displayName,
		Public:      public,
		Files:       NewRoot(),
		CreatedAt:   time.Now().UTC(),
	}
}

// Tree returns the stored tree, or an empty root when none was stored yet.
func (s *Server) Tree() *FileNode {
	if s.Files == nil {
		return NewRoot()
	}

	return s.Files
}

func (s *Server) Clone() *Server {
	if s == nil {
		return nil
	}

	clone := *s
	clone.Files = s.Files.Clone()
	return &clone
}

// Render returns the indented JSON form of the server's tree.
func (s *Server) Render() (string, error) {
	b, err := json.MarshalIndent(s.Tree(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(b), nil
}

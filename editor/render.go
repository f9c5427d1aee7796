package editor

import (
	"fmt"
	"strings"

	"github.com/sussybocca/Server.x-2/data"
)

// DefaultLanguage is used for files without a usable extension.
const DefaultLanguage = "javascript"

// Language derives the syntax hint of a file from the text after its last
// dot. A name without a dot is its own hint.
func Language(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}

	if name == "" {
		return DefaultLanguage
	}

	return name
}

// RenderServer formats the server view of location: the display name
// followed by the indented tree, or the not found notice when server is nil.
func RenderServer(location data.VirtualLocation, server *data.Server) (string, error) {
	if server == nil {
		return fmt.Sprintf("Server not found: %s", location), nil
	}

	body, err := server.Render()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s\n\n%s", server.DisplayName, body), nil
}

// Render formats the current session the same way RenderServer does.
func (e *Editor) Render() (string, error) {
	switch e.state {
	case StateLoaded:
		return RenderServer(e.location, e.Snapshot())
	case StateNotFound:
		return RenderServer(e.location, nil)
	default:
		return "", nil
	}
}

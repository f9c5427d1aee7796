package tui

import "github.com/sussybocca/Server.x-2/log"

// NewDebugLogger returns a logger that only writes to file. The terminal
// belongs to the browser while it runs, so nothing may be printed there.
// An empty file discards every entry.
func NewDebugLogger(file string, level log.LogLevel) *log.Logger {
	return log.NewLogger("tui", log.LoggerOptions{
		Level:      level,
		File:       file,
		NoTerminal: true,
	})
}

package editor

import (
	"fmt"
	"time"

	"github.com/sussybocca/Server.x-2/log"
)

type EditorOptions struct {
	Logger  *log.Logger
	Timeout time.Duration
}

type Option func(*EditorOptions) error

func newDefaultEditorOptions() *EditorOptions {
	return &EditorOptions{
		Logger:  log.Discard(),
		Timeout: 10 * time.Second,
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(opts *EditorOptions) error {
		if logger == nil {
			return fmt.Errorf("logger must not be nil")
		}
		opts.Logger = logger
		return nil
	}
}

// WithTimeout bounds every gateway call. Zero disables the limit.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *EditorOptions) error {
		if timeout < 0 {
			return fmt.Errorf("invalid timeout '%s'", timeout)
		}
		opts.Timeout = timeout
		return nil
	}
}

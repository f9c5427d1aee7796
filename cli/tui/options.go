package tui

import (
	"fmt"
	"time"

	"github.com/sussybocca/Server.x-2/data"
	"github.com/sussybocca/Server.x-2/log"
)

type ModelOptions struct {
	Logger  *log.Logger
	Home    data.VirtualLocation
	Start   string
	Timeout time.Duration
	Theme   *Theme
}

type ModelOption func(*ModelOptions) error

func newDefaultModelOptions() *ModelOptions {
	return &ModelOptions{
		Logger:  log.Discard(),
		Home:    data.HomeLocation,
		Timeout: 10 * time.Second,
		Theme:   DefaultTheme(),
	}
}

func WithLogger(logger *log.Logger) ModelOption {
	return func(opts *ModelOptions) error {
		if logger == nil {
			return fmt.Errorf("logger must not be nil")
		}
		opts.Logger = logger
		return nil
	}
}

// WithHome sets the location new tabs open on.
func WithHome(home data.VirtualLocation) ModelOption {
	return func(opts *ModelOptions) error {
		opts.Home = home
		return nil
	}
}

// WithStart navigates the first tab to raw instead of the home location.
func WithStart(raw string) ModelOption {
	return func(opts *ModelOptions) error {
		opts.Start = raw
		return nil
	}
}

func WithTimeout(timeout time.Duration) ModelOption {
	return func(opts *ModelOptions) error {
		opts.Timeout = timeout
		return nil
	}
}

func WithTheme(theme *Theme) ModelOption {
	return func(opts *ModelOptions) error {
		if theme == nil {
			return fmt.Errorf("theme must not be nil")
		}
		opts.Theme = theme
		return nil
	}
}

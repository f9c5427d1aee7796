// Package session tracks the open browser tabs and which one is active.
package session

import "github.com/sussybocca/Server.x-2/data"

// Tab is one open navigation slot.
type Tab struct {
	Location data.VirtualLocation
}

// Session is an ordered, never empty list of tabs plus the index of the
// active one.
type Session struct {
	tabs   []Tab
	active int
	home   data.VirtualLocation
}

type Option func(*Session)

// WithHome overrides the location new tabs open on.
func WithHome(home data.VirtualLocation) Option {
	return func(s *Session) {
		s.home = home
	}
}

func New(opts ...Option) *Session {
	s := &Session{
		home: data.HomeLocation,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tabs = []Tab{{Location: s.home}}
	return s
}

func (s *Session) Home() data.VirtualLocation {
	return s.home
}

func (s *Session) Len() int {
	return len(s.tabs)
}

func (s *Session) ActiveIndex() int {
	return s.active
}

func (s *Session) Active() Tab {
	return s.tabs[s.active]
}

// Tabs returns a copy of the open tabs in order.
func (s *Session) Tabs() []Tab {
	return append([]Tab(nil), s.tabs...)
}

// Open appends a tab on the home location and activates it.
func (s *Session) Open() int {
	s.active = len(s.tabs)
	s.tabs = append(s.tabs, Tab{Location: s.home})

	return s.active
}

// Select activates tab i. Out of range indexes are ignored.
func (s *Session) Select(i int) bool {
	if i < 0 || i >= len(s.tabs) {
		return false
	}

	s.active = i
	return true
}

// Close removes tab i and falls back to a single home tab when none is left.
//
// The active index always steps back by one (never below zero), whether the
// closed tab was before, at or after the active one. When i > active this
// moves the selection to a tab that was not involved in the close.
func (s *Session) Close(i int) {
	remaining := make([]Tab, 0, len(s.tabs))
	for index, tab := range s.tabs {
		if index != i {
			remaining = append(remaining, tab)
		}
	}

	if len(remaining) == 0 {
		remaining = []Tab{{Location: s.home}}
	}

	s.tabs = remaining
	s.active = max(0, s.active-1)
}

// Navigate resolves raw input and stores it as the active tab's location.
func (s *Session) Navigate(raw string) data.VirtualLocation {
	location := data.Resolve(raw)
	s.tabs[s.active].Location = location

	return location
}

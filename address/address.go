// Package address holds the state behind the browser's address bar: the
// typed text, the suggestions that match it and the highlighted suggestion.
package address

import (
	"strings"

	"github.com/sussybocca/Server.x-2/data"
)

// NoHover marks that no suggestion is highlighted.
const NoHover = -1

type State struct {
	input string
	known []data.VirtualLocation
	hover int

	// gen identifies the current lifetime of the bar. Seeding results that
	// were requested under an older generation are dropped.
	gen    uint64
	seeded bool
}

func New(value data.VirtualLocation) *State {
	return &State{
		input: string(value),
		hover: NoHover,
	}
}

func (s *State) Input() string {
	return s.input
}

func (s *State) HoverIndex() int {
	return s.hover
}

// SetInput replaces the typed text and clears the highlight.
func (s *State) SetInput(text string) {
	s.input = text
	s.hover = NoHover
}

// Sync resets the text to the location of the active tab.
func (s *State) Sync(value data.VirtualLocation) {
	s.SetInput(string(value))
}

// Generation returns the token a seeding request has to present to SetKnown.
func (s *State) Generation() uint64 {
	return s.gen
}

// Reset invalidates any seeding request still in flight and allows a new one.
func (s *State) Reset() {
	s.gen++
	s.seeded = false
	s.known = nil
	s.hover = NoHover
}

// Seeded reports whether known locations were already delivered.
func (s *State) Seeded() bool {
	return s.seeded
}

// SetKnown stores the known locations once. Results for an outdated
// generation, or arriving after the list was already seeded, are ignored.
func (s *State) SetKnown(gen uint64, locations []data.VirtualLocation) bool {
	if gen != s.gen || s.seeded {
		return false
	}

	s.known = append([]data.VirtualLocation(nil), locations...)
	s.seeded = true
	return true
}

func (s *State) Known() []data.VirtualLocation {
	return append([]data.VirtualLocation(nil), s.known...)
}

// Filtered returns the known locations containing the input text,
// compared case-insensitively, in their original order.
func (s *State) Filtered() []data.VirtualLocation {
	needle := strings.ToLower(s.input)

	filtered := make([]data.VirtualLocation, 0, len(s.known))
	for _, location := range s.known {
		if strings.Contains(strings.ToLower(string(location)), needle) {
			filtered = append(filtered, location)
		}
	}

	return filtered
}

// Down moves the highlight one suggestion down, stopping at the last one.
func (s *State) Down() {
	count := len(s.Filtered())
	if count == 0 {
		return
	}

	s.hover = min(s.hover+1, count-1)
}

// Up moves the highlight one suggestion up, stopping at the first one.
func (s *State) Up() {
	s.hover = max(s.hover-1, 0)
}

// Hover highlights suggestion i, e.g. when the pointer moves over it.
func (s *State) Hover(i int) bool {
	if i < 0 || i >= len(s.Filtered()) {
		return false
	}

	s.hover = i
	return true
}

// Submit returns the highlighted suggestion, or the raw input when nothing
// is highlighted.
func (s *State) Submit() string {
	if s.hover >= 0 {
		filtered := s.Filtered()
		if s.hover < len(filtered) {
			return string(filtered[s.hover])
		}
	}

	return s.input
}

// Pick returns suggestion i directly, ignoring the highlight.
func (s *State) Pick(i int) (string, bool) {
	filtered := s.Filtered()
	if i < 0 || i >= len(filtered) {
		return "", false
	}

	return string(filtered[i]), true
}

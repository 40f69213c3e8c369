package dashboard

import (
	"strings"
	"sync"
)

// SelectionState is the selection state of the map and country list.
type SelectionState struct {
	Hovered  string `json:"hovered"`  // Region under the pointer; empty if none.
	Selected string `json:"selected"` // Region that was clicked; empty if none.
}

// Mode gets the state as "idle", "hovered", or "selected".
//
// A region can be hovered while another region is selected; this is
// "selected".
func (s SelectionState) Mode() string {
	switch {
	case s.Selected != "":
		return "selected"
	case s.Hovered != "":
		return "hovered"
	default:
		return "idle"
	}
}

// IsSelected reports if the region is selected.
func (s SelectionState) IsSelected(iso string) bool {
	return iso != "" && strings.EqualFold(s.Selected, iso)
}

// IsHovered reports if the region is hovered.
func (s SelectionState) IsHovered(iso string) bool {
	return iso != "" && strings.EqualFold(s.Hovered, iso)
}

// Selection is the hovered and selected region; there is at most one of each.
type Selection struct {
	mu    sync.Mutex
	state SelectionState
	subs  []func(SelectionState)
}

// NewSelection creates a new idle selection.
func NewSelection() *Selection { return &Selection{} }

// State gets the current state.
func (s *Selection) State() SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe adds a function that's called after every change, with the new
// state. It's not called if an action didn't change anything.
func (s *Selection) Subscribe(f func(SelectionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, f)
}

func (s *Selection) update(f func(*SelectionState)) {
	s.mu.Lock()
	old := s.state
	f(&s.state)
	var (
		st   = s.state
		subs = s.subs
	)
	s.mu.Unlock()

	if st == old {
		return
	}
	for _, sub := range subs {
		sub(st)
	}
}

// Hover sets the hovered region; an empty iso is the same as Unhover.
func (s *Selection) Hover(iso string) {
	iso = strings.ToUpper(strings.TrimSpace(iso))
	s.update(func(st *SelectionState) { st.Hovered = iso })
}

// Unhover clears the hovered region; the selection is kept.
func (s *Selection) Unhover() {
	s.update(func(st *SelectionState) { st.Hovered = "" })
}

// Select selects a region, or clears the selection if it's already selected.
func (s *Selection) Select(iso string) {
	iso = strings.ToUpper(strings.TrimSpace(iso))
	s.update(func(st *SelectionState) {
		if iso == "" || st.Selected == iso {
			st.Selected = ""
			return
		}
		st.Selected = iso
	})
}

// Clear the selection and hover.
func (s *Selection) Clear() {
	s.update(func(st *SelectionState) { *st = SelectionState{} })
}

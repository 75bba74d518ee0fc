// Package query holds the search box text and the committed query reflected
// in the page location.
package query

import "net/url"

// Param is the location parameter carrying the committed query.
const Param = "query"

// State is the draft text of the search box plus the committed query.
type State struct {
	draft        string
	committed    string
	hasCommitted bool
}

// FromLocation reads the committed query from u. The draft starts as a copy of it.
func FromLocation(u *url.URL) State {
	if u == nil {
		return State{}
	}
	values := u.Query()
	if !values.Has(Param) {
		return State{}
	}
	q := values.Get(Param)
	return State{draft: q, committed: q, hasCommitted: true}
}

// Draft returns the current search box text.
func (s *State) Draft() string { return s.draft }

// SetDraft replaces the search box text.
func (s *State) SetDraft(text string) { s.draft = text }

// Committed returns the committed query and whether one is present.
func (s *State) Committed() (string, bool) { return s.committed, s.hasCommitted }

// Active reports whether the committed query should be fetched and rendered.
func (s *State) Active() bool { return s.hasCommitted && s.committed != "" }

// Submit commits the draft. No validation is performed.
func (s *State) Submit() {
	s.committed = s.draft
	s.hasCommitted = true
}

// Location returns base with the committed query encoded in it.
// Without an active query the parameter is removed.
func (s *State) Location(base *url.URL) *url.URL {
	u := url.URL{Path: "/"}
	if base != nil {
		u = *base
	}
	values := u.Query()
	if s.Active() {
		values.Set(Param, s.committed)
	} else {
		values.Del(Param)
	}
	u.RawQuery = values.Encode()
	return &u
}

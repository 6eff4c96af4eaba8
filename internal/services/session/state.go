package session

// State is the client-held session state for one request: which
// identifier is active, and every identifier this browser has used
// along with its known anonymous counterpart.
//
// A State is rebuilt from the incoming cookies on every request and
// written back on the response. It is pure convenience, never
// authoritative: losing it loses nothing but the silent login.
type State struct {
	active string
	known  map[string]string
}

// NewState returns an empty session state
func NewState() *State {
	return &State{known: make(map[string]string)}
}

// Active returns the currently active identifier, or "" if none
func (s *State) Active() string {
	return s.active
}

// ActiveAnonID returns the anonymous id remembered for the active
// identifier, or "" if none is known
func (s *State) ActiveAnonID() string {
	return s.known[s.active]
}

// AnonID returns the anonymous id remembered for userid and whether the
// userid is known at all
func (s *State) AnonID(userid string) (string, bool) {
	anonid, ok := s.known[userid]
	return anonid, ok
}

// Known returns every remembered identifier
func (s *State) Known() []string {
	ids := make([]string, 0, len(s.known))
	for id := range s.known {
		ids = append(ids, id)
	}
	return ids
}

// IsKnown reports whether userid has been remembered on this browser
func (s *State) IsKnown(userid string) bool {
	_, ok := s.known[userid]
	return ok
}

// SetActive marks userid as the identity this session operates as
func (s *State) SetActive(userid string) {
	s.active = userid
}

// Remember records the userid -> anonid linkage. A non-empty anonid
// always updates; an empty one only registers a previously unknown
// userid and never blanks out a linkage already remembered.
func (s *State) Remember(userid, anonid string) {
	if userid == "" {
		return
	}
	if anonid != "" {
		s.known[userid] = anonid
		return
	}
	if _, ok := s.known[userid]; !ok {
		s.known[userid] = ""
	}
}

// Logout clears the active pointer. The remembered mapping survives so
// the participant can resume without credentials later.
func (s *State) Logout() {
	s.active = ""
}

// Forget removes userid entirely, clearing the active pointer if it
// matched
func (s *State) Forget(userid string) {
	if s.active == userid {
		s.active = ""
	}
	delete(s.known, userid)
}

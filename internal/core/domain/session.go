package domain

// Session is the console's view of an authenticated browser. The profile is
// only meaningful while Token is set.
type Session struct {
	ID      string
	Token   string
	Profile *User
}

// Authenticated reports whether the session carries a token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Role returns the actor role, or nil when there is no usable session.
func (s *Session) Role() *Role {
	if !s.Authenticated() || s.Profile == nil {
		return nil
	}
	r := s.Profile.Role
	return &r
}

// ActorID returns the profile id, or 0 without a profile.
func (s *Session) ActorID() int64 {
	if !s.Authenticated() || s.Profile == nil {
		return 0
	}
	return s.Profile.ID
}

// Clear drops the token and the cached profile together.
func (s *Session) Clear() {
	s.Token = ""
	s.Profile = nil
}

package engine

// Session is the per-connection state (spec.md §4.7, §9): which user
// authenticated, and which database is current. It is an explicit value
// threaded through every Execute call by the server, never global state —
// the redesign spec.md §9 calls for versus the distilled source's globals.
type Session struct {
	User          string
	Authenticated bool
	Database      string
}

// NewSession returns a fresh, unauthenticated session on the default
// database.
func NewSession(defaultDatabase string) *Session {
	return &Session{Database: defaultDatabase}
}

package domain

// User identifies the authenticated backend user
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Session is the in-memory representation of the authenticated state.
// It is owned exclusively by the session service; other packages read
// copies and request transitions through the service.
type Session struct {
	AccessToken  string
	Err          string
	IsLoggedIn   bool
	Loading      bool
	RefreshToken string
	ServerURL    string
	User         *User
	Username     string
}

// Valid reports whether the session upholds its core invariant:
// a logged-in session always carries an access token.
func (s Session) Valid() bool {
	return !s.IsLoggedIn || s.AccessToken != ""
}

// ConnectionState describes the transport channel lifecycle
type ConnectionState string

const (
	ConnDisconnected ConnectionState = "disconnected"
	ConnConnecting   ConnectionState = "connecting"
	ConnReady        ConnectionState = "ready"
	// ConnDegraded means the realtime channel is down but the stateless
	// fallback remains usable
	ConnDegraded ConnectionState = "degraded"
)

// Usable reports whether queries can be dispatched in this state,
// over the realtime channel or the stateless fallback.
func (s ConnectionState) Usable() bool {
	return s == ConnReady || s == ConnDegraded
}

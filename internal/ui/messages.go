package ui

import (
	"time"

	"github.com/voxdash/voxdash/internal/domain"
)

// Result messages produced by tea.Cmd functions. Model handles these in
// Update and transitions accordingly.

// ConnectionStateMsg carries a transport state change into the program.
// The channel listener runs on the channel's goroutine; the bridge in
// Model converts its callback into this message.
type ConnectionStateMsg struct {
	State domain.ConnectionState
}

// loginDoneMsg is sent when a login attempt completes
type loginDoneMsg struct {
	session domain.Session
	err     error
}

// connectDoneMsg is sent when the transport channel finished its
// connection attempt
type connectDoneMsg struct {
	usable bool
}

// queryDoneMsg is sent when a dispatched query completes
type queryDoneMsg struct {
	query    string
	response domain.QueryResponse
	elapsed  time.Duration
}

// logoutDoneMsg is sent when the session has been cleared
type logoutDoneMsg struct{}

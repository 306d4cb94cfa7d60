package ports

import (
	"context"

	"github.com/voxdash/voxdash/internal/domain"
)

// ConnectionListener observes channel state changes. Listeners are
// invoked once with the current state at registration time and again on
// every transition.
type ConnectionListener func(state domain.ConnectionState)

// QueryTransport is the stateless request/response path for queries
type QueryTransport interface {
	Query(ctx context.Context, accessToken, query string) (*domain.QueryResponse, error)
}

// RealtimeProvider dials the persistent bidirectional channel.
// A dial that does not complete its handshake within the provider's
// configured timeout fails with an error.
type RealtimeProvider interface {
	Dial(ctx context.Context, socketURL, accessToken string) (RealtimeSession, error)
}

// RealtimeSession is one live bidirectional connection. Sessions are not
// reused across credentials: a token change requires Close and a fresh
// Dial.
type RealtimeSession interface {
	// Query submits a query frame and waits for its acknowledgment
	Query(ctx context.Context, query string) (*domain.QueryResponse, error)

	// AuthErrors signals server-pushed token rejections
	AuthErrors() <-chan struct{}

	// Done is closed when the connection dies; Err then reports why
	Done() <-chan struct{}
	Err() error

	Close() error
}

// TokenSource supplies the transport layer with credentials and a way to
// silently renew them when the backend rejects the current token.
type TokenSource interface {
	AccessToken() string
	RefreshAccessToken(ctx context.Context) (string, error)
}

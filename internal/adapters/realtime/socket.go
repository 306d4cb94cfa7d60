package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/logging"
	"github.com/voxdash/voxdash/internal/ports"
)

// Wire events exchanged with the gateway's realtime endpoint
const (
	eventAuth         = "auth"
	eventAuthOK       = "auth_ok"
	eventAuthError    = "auth_error"
	eventProcessQuery = "process_query"
	eventAck          = "ack"
)

// frame is the JSON envelope for every websocket message
type frame struct {
	Event   string          `json:"event"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type authPayload struct {
	Token string `json:"token"`
}

type queryPayload struct {
	Query string `json:"query"`
}

type ackPayload struct {
	Result *domain.QueryResponse `json:"result,omitempty"`
	Error  *domain.ErrorPayload  `json:"error,omitempty"`
}

// Provider dials websocket sessions against the gateway
type Provider struct {
	handshakeTimeout time.Duration
}

// Verify interface compliance at compile time
var _ ports.RealtimeProvider = (*Provider)(nil)

// NewProvider creates a realtime provider. The timeout bounds the TCP
// and websocket handshake plus the auth exchange.
func NewProvider(handshakeTimeout time.Duration) *Provider {
	return &Provider{handshakeTimeout: handshakeTimeout}
}

// Dial establishes an authenticated websocket session. The handshake is
// complete once the gateway acknowledges the auth frame; anything else,
// including silence past the timeout, is a dial failure.
func (p *Provider) Dial(ctx context.Context, socketURL, accessToken string) (ports.RealtimeSession, error) {
	dialCtx, cancel := context.WithTimeout(ctx, p.handshakeTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: p.handshakeTimeout}
	conn, _, err := dialer.DialContext(dialCtx, socketURL, nil)
	if err != nil {
		return nil, &domain.AppError{
			Code:    domain.CodeNetworkError,
			Message: fmt.Sprintf("cannot reach %s", socketURL),
		}
	}

	if err := authenticate(conn, accessToken, p.handshakeTimeout); err != nil {
		conn.Close()
		return nil, err
	}

	s := &session{
		conn:       conn,
		pending:    make(map[string]chan ackPayload),
		authErrors: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go s.readLoop()

	logging.Logger.Info("Realtime channel established", "url", socketURL)
	return s, nil
}

// authenticate performs the auth exchange on a fresh connection
func authenticate(conn *websocket.Conn, accessToken string, timeout time.Duration) error {
	payload, err := json.Marshal(authPayload{Token: accessToken})
	if err != nil {
		return fmt.Errorf("failed to encode auth payload: %w", err)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	if err := conn.WriteJSON(frame{Event: eventAuth, Payload: payload}); err != nil {
		return fmt.Errorf("failed to send auth frame: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var reply frame
	if err := conn.ReadJSON(&reply); err != nil {
		return fmt.Errorf("handshake did not complete: %w", err)
	}

	// Clear deadlines; the read loop manages its own from here
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})

	switch reply.Event {
	case eventAuthOK:
		return nil
	case eventAuthError:
		return domain.NewAppError(domain.CodeAuthFailed, "gateway rejected the access token")
	default:
		return fmt.Errorf("unexpected handshake reply %q", reply.Event)
	}
}

// session is one live websocket connection
type session struct {
	conn *websocket.Conn

	writeMu sync.Mutex // gorilla connections allow one concurrent writer

	mu      sync.Mutex
	pending map[string]chan ackPayload
	err     error

	authErrors chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

// Verify interface compliance at compile time
var _ ports.RealtimeSession = (*session)(nil)

// readLoop routes ack frames to waiting queries and surfaces auth errors
// until the connection dies.
func (s *session) readLoop() {
	for {
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			s.fail(err)
			return
		}

		switch f.Event {
		case eventAck:
			s.dispatchAck(f)
		case eventAuthError:
			logging.Logger.Warn("Gateway signaled auth error on realtime channel")
			select {
			case s.authErrors <- struct{}{}:
			default:
			}
		default:
			logging.Logger.Debug("Ignoring unknown realtime event", "event", f.Event)
		}
	}
}

func (s *session) dispatchAck(f frame) {
	var ack ackPayload
	if err := json.Unmarshal(f.Payload, &ack); err != nil {
		logging.Logger.Warn("Malformed ack frame", "id", f.ID, "error", err)
		return
	}

	s.mu.Lock()
	ch, ok := s.pending[f.ID]
	delete(s.pending, f.ID)
	s.mu.Unlock()

	if !ok {
		// Response for a query whose caller stopped waiting; drop it
		logging.Logger.Debug("Dropping ack with no waiter", "id", f.ID)
		return
	}
	ch <- ack
}

// fail records the terminal error and releases all waiters
func (s *session) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// Query submits a query frame and waits for the matching ack
func (s *session) Query(ctx context.Context, query string) (*domain.QueryResponse, error) {
	id := uuid.New().String()
	payload, err := json.Marshal(queryPayload{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query payload: %w", err)
	}

	ch := make(chan ackPayload, 1)
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("realtime channel is closed: %w", s.err)
	}
	s.pending[id] = ch
	s.mu.Unlock()

	s.writeMu.Lock()
	err = s.conn.WriteJSON(frame{Event: eventProcessQuery, ID: id, Payload: payload})
	s.writeMu.Unlock()
	if err != nil {
		s.forget(id)
		return nil, fmt.Errorf("failed to send query frame: %w", err)
	}

	select {
	case ack, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("realtime channel died awaiting ack: %w", s.Err())
		}
		if ack.Error != nil {
			code := ack.Error.Code
			if code == "" {
				code = domain.CodeProcessingError
			}
			return nil, &domain.AppError{Code: code, Message: ack.Error.Message}
		}
		if ack.Result == nil {
			return nil, domain.NewAppError(domain.CodeProcessingError, "ack carried no result")
		}
		return ack.Result, nil
	case <-s.done:
		s.forget(id)
		return nil, fmt.Errorf("realtime channel died awaiting ack: %w", s.Err())
	case <-ctx.Done():
		s.forget(id)
		return nil, ctx.Err()
	}
}

// forget abandons a pending query; a late ack for it is dropped
func (s *session) forget(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// AuthErrors signals server-pushed token rejections
func (s *session) AuthErrors() <-chan struct{} {
	return s.authErrors
}

// Done is closed when the connection dies
func (s *session) Done() <-chan struct{} {
	return s.done
}

// Err reports why the connection died; nil while alive
func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears the connection down; idempotent
func (s *session) Close() error {
	s.fail(fmt.Errorf("session closed"))
	return nil
}

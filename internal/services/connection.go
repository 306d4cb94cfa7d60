package services

import (
	"context"
	"sync"
	"time"

	"github.com/voxdash/voxdash/internal/config"
	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/logging"
	"github.com/voxdash/voxdash/internal/ports"
)

// channelListener wraps a registered listener so unsubscribe can remove
// it by identity
type channelListener struct {
	fn ports.ConnectionListener
}

// Channel manages the realtime connection lifecycle: dialing,
// reconnection with bounded backoff, silent token-refresh recovery, and
// listener notification. It owns its RealtimeSession exclusively; a
// token change always tears the session down and dials fresh.
//
// Connect never propagates dial failures as errors: the channel
// degrades to the stateless fallback instead of blocking the user.
type Channel struct {
	provider ports.RealtimeProvider
	tokens   ports.TokenSource
	opts     config.ConnectionOptions
	retry    RetryPolicy
	sleep    sleepFunc

	mu            sync.Mutex
	authRecovered bool
	listeners     []*channelListener
	sess          ports.RealtimeSession
	socketURL     string
	state         domain.ConnectionState
	stop          chan struct{}
}

// NewChannel creates a Channel. The retry policy is derived from the
// connection options, with backoff growth capped at the gateway's
// recommended 5s.
func NewChannel(provider ports.RealtimeProvider, tokens ports.TokenSource, opts config.ConnectionOptions) *Channel {
	return &Channel{
		provider: provider,
		tokens:   tokens,
		opts:     opts,
		retry: RetryPolicy{
			MaxAttempts:  opts.ReconnectAttempts,
			InitialDelay: opts.ReconnectInterval,
			MaxDelay:     time.Duration(config.MaxReconnectDelayMs) * time.Millisecond,
			Multiplier:   1.5,
		},
		sleep: defaultSleep,
		state: domain.ConnDisconnected,
	}
}

// State returns the current connection state
func (c *Channel) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ready reports whether the realtime channel completed its handshake
func (c *Channel) Ready() bool {
	return c.State() == domain.ConnReady
}

// AddConnectionListener registers fn and returns an unsubscribe
// function. The listener is invoked synchronously with the current
// state before AddConnectionListener returns, so subscribers never need
// an initial poll.
func (c *Channel) AddConnectionListener(fn ports.ConnectionListener) func() {
	l := &channelListener{fn: fn}

	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	state := c.state
	c.mu.Unlock()

	notifyListener(l, state)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, candidate := range c.listeners {
			if candidate == l {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// notifyListener invokes one listener, isolating panics so one broken
// subscriber cannot starve the rest
func notifyListener(l *channelListener, state domain.ConnectionState) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Error("Connection listener panicked", "panic", r, "state", state)
		}
	}()
	l.fn(state)
}

// setState transitions the channel and notifies listeners in
// registration order. Redundant transitions are dropped.
func (c *Channel) setState(state domain.ConnectionState) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	listeners := make([]*channelListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	logging.Logger.Info("Connection state changed", "state", state)
	for _, l := range listeners {
		notifyListener(l, state)
	}
}

// Connect establishes the realtime channel for the given endpoint and
// token. A handshake failure is not an error: the channel marks itself
// Degraded and queries flow over the stateless fallback. The return
// value reports whether the channel is usable at all.
func (c *Channel) Connect(ctx context.Context, socketURL, accessToken string) bool {
	if accessToken == "" {
		logging.Logger.Error("Connect called without an access token")
		c.setState(domain.ConnDisconnected)
		return false
	}

	c.mu.Lock()
	c.teardownLocked()
	c.socketURL = socketURL
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	c.setState(domain.ConnConnecting)

	if socketURL == "" {
		logging.Logger.Warn("No realtime endpoint configured; using stateless fallback")
		c.setState(domain.ConnDegraded)
		return true
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	sess, err := c.provider.Dial(dialCtx, socketURL, accessToken)
	if err != nil {
		logging.Logger.Warn("Realtime handshake failed; continuing with stateless fallback",
			"url", socketURL,
			"error", err)
		c.setState(domain.ConnDegraded)
		return true
	}

	c.adopt(sess, stop)
	return true
}

// adopt installs a freshly dialed session and starts watching it
func (c *Channel) adopt(sess ports.RealtimeSession, stop chan struct{}) {
	c.mu.Lock()
	if stopped(stop) {
		// Disconnect raced the dial; discard the session
		c.mu.Unlock()
		sess.Close()
		return
	}
	c.sess = sess
	c.mu.Unlock()

	c.setState(domain.ConnReady)
	go c.watch(sess, stop)
}

// watch waits for the session to die or signal an auth error, then
// hands off to the matching recovery path. Each recovery that produces
// a new session spawns its own watcher.
func (c *Channel) watch(sess ports.RealtimeSession, stop chan struct{}) {
	select {
	case <-stop:
	case <-sess.AuthErrors():
		c.recoverAuth(sess, stop)
	case <-sess.Done():
		c.reconnect(stop)
	}
}

// recoverAuth performs the one permitted silent token refresh after the
// backend rejects the current token mid-session. A second auth failure
// on the same logical connection disconnects instead of looping.
func (c *Channel) recoverAuth(sess ports.RealtimeSession, stop chan struct{}) {
	c.mu.Lock()
	if stopped(stop) {
		c.mu.Unlock()
		return
	}
	already := c.authRecovered
	c.authRecovered = true
	c.sess = nil
	socketURL := c.socketURL
	c.mu.Unlock()

	if sess != nil {
		sess.Close()
	}

	if already {
		logging.Logger.Error("Token rejected again after a silent refresh; disconnecting")
		c.setState(domain.ConnDisconnected)
		return
	}

	logging.Logger.Info("Token rejected mid-session, attempting silent refresh")

	refreshCtx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()

	token, err := c.tokens.RefreshAccessToken(refreshCtx)
	if err != nil || token == "" {
		logging.Logger.Warn("Silent refresh failed; disconnecting", "error", err)
		c.setState(domain.ConnDisconnected)
		return
	}

	c.setState(domain.ConnConnecting)

	dialCtx, dialCancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer dialCancel()

	newSess, err := c.provider.Dial(dialCtx, socketURL, token)
	if err != nil {
		// The refreshed token still works for the stateless path
		logging.Logger.Warn("Reconnect with refreshed token failed; degrading", "error", err)
		c.setState(domain.ConnDegraded)
		return
	}

	c.adopt(newSess, stop)
}

// reconnect re-dials a dropped connection with bounded backoff.
// Exhausting all attempts disconnects the channel.
func (c *Channel) reconnect(stop chan struct{}) {
	c.mu.Lock()
	if stopped(stop) {
		c.mu.Unlock()
		return
	}
	c.sess = nil
	socketURL := c.socketURL
	c.mu.Unlock()

	logging.Logger.Warn("Realtime channel lost, reconnecting", "max_attempts", c.retry.MaxAttempts)
	c.setState(domain.ConnConnecting)

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if !c.sleep(stop, c.retry.Delay(attempt)) {
			return
		}

		dialCtx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
		sess, err := c.provider.Dial(dialCtx, socketURL, c.tokens.AccessToken())
		cancel()

		if err == nil {
			logging.Logger.Info("Realtime channel reestablished", "attempt", attempt+1)
			c.adopt(sess, stop)
			return
		}

		if domain.CodeOf(err) == domain.CodeAuthFailed {
			// The drop was a token expiry; switch to the refresh path
			c.recoverAuth(nil, stop)
			return
		}

		logging.Logger.Warn("Reconnect attempt failed",
			"attempt", attempt+1,
			"max_attempts", c.retry.MaxAttempts,
			"error", err)
	}

	logging.Logger.Error("Reconnection attempts exhausted; disconnecting")
	c.setState(domain.ConnDisconnected)
}

// Query submits a query over the realtime channel with the configured
// response timeout. Callers fall back to the stateless path on error.
func (c *Channel) Query(ctx context.Context, query string) (*domain.QueryResponse, error) {
	c.mu.Lock()
	sess := c.sess
	ready := c.state == domain.ConnReady
	c.mu.Unlock()

	if !ready || sess == nil {
		return nil, domain.NewAppError(domain.CodeNotConnected, "realtime channel is not ready")
	}

	queryCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	return sess.Query(queryCtx, query)
}

// Disconnect closes the channel and stops any reconnection in progress.
// Idempotent.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.teardownLocked()
	c.mu.Unlock()

	c.setState(domain.ConnDisconnected)
}

// teardownLocked closes the live session and stops background work.
// Callers hold c.mu.
func (c *Channel) teardownLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if c.sess != nil {
		c.sess.Close()
		c.sess = nil
	}
	c.authRecovered = false
}

func stopped(stop chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

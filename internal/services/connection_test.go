package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxdash/voxdash/internal/config"
	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/ports"
)

const testSocketURL = "wss://gateway.example.com/ws"

func testOptions() config.ConnectionOptions {
	return config.ConnectionOptions{
		ReconnectAttempts: 3,
		ReconnectInterval: 10 * time.Millisecond,
		Timeout:           time.Second,
	}
}

// stateRecorder collects listener notifications across goroutines
type stateRecorder struct {
	mu     sync.Mutex
	states []domain.ConnectionState
}

func (r *stateRecorder) listen(state domain.ConnectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *stateRecorder) snapshot() []domain.ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ConnectionState(nil), r.states...)
}

// recordingSleep skips real waiting and records the requested delays
func recordingSleep(delays *[]time.Duration, mu *sync.Mutex) sleepFunc {
	return func(stop <-chan struct{}, d time.Duration) bool {
		mu.Lock()
		*delays = append(*delays, d)
		mu.Unlock()
		select {
		case <-stop:
			return false
		default:
			return true
		}
	}
}

func eventually(t *testing.T, ch *Channel, want domain.ConnectionState) {
	t.Helper()
	require.Eventually(t, func() bool {
		return ch.State() == want
	}, 2*time.Second, 5*time.Millisecond, "channel never reached %s", want)
}

func TestAddConnectionListenerNotifiesImmediately(t *testing.T) {
	ch := NewChannel(&fakeProvider{}, &fakeTokens{token: "t1"}, testOptions())

	rec := &stateRecorder{}
	unsubscribe := ch.AddConnectionListener(rec.listen)

	assert.Equal(t, []domain.ConnectionState{domain.ConnDisconnected}, rec.snapshot(),
		"listener must see the current state before any transition")

	unsubscribe()
	ch.Connect(context.Background(), testSocketURL, "t1")

	assert.Equal(t, []domain.ConnectionState{domain.ConnDisconnected}, rec.snapshot(),
		"unsubscribed listener must see nothing further")
}

func TestConnectWithoutTokenFails(t *testing.T) {
	provider := &fakeProvider{}
	ch := NewChannel(provider, &fakeTokens{}, testOptions())

	ok := ch.Connect(context.Background(), testSocketURL, "")

	assert.False(t, ok)
	assert.Equal(t, domain.ConnDisconnected, ch.State())
	assert.Equal(t, 0, provider.dialCount())
}

func TestConnectReady(t *testing.T) {
	ch := NewChannel(&fakeProvider{}, &fakeTokens{token: "t1"}, testOptions())
	rec := &stateRecorder{}
	ch.AddConnectionListener(rec.listen)

	ok := ch.Connect(context.Background(), testSocketURL, "t1")

	require.True(t, ok)
	assert.Equal(t, domain.ConnReady, ch.State())
	assert.Equal(t, []domain.ConnectionState{
		domain.ConnDisconnected,
		domain.ConnConnecting,
		domain.ConnReady,
	}, rec.snapshot())
}

func TestConnectDegradesWhenHandshakeFails(t *testing.T) {
	provider := &fakeProvider{
		dialFn: func(attempt int, socketURL, token string) (ports.RealtimeSession, error) {
			return nil, domain.NewAppError(domain.CodeNetworkError, "cannot reach "+socketURL)
		},
	}
	ch := NewChannel(provider, &fakeTokens{token: "t1"}, testOptions())

	ok := ch.Connect(context.Background(), testSocketURL, "t1")

	assert.True(t, ok, "a failed handshake still leaves the stateless path usable")
	assert.Equal(t, domain.ConnDegraded, ch.State())
	assert.True(t, ch.State().Usable())
	assert.False(t, ch.Ready())
}

func TestConnectDegradesWithoutSocketURL(t *testing.T) {
	provider := &fakeProvider{}
	ch := NewChannel(provider, &fakeTokens{token: "t1"}, testOptions())

	ok := ch.Connect(context.Background(), "", "t1")

	assert.True(t, ok)
	assert.Equal(t, domain.ConnDegraded, ch.State())
	assert.Equal(t, 0, provider.dialCount())
}

func TestListenerPanicDoesNotStarveOthers(t *testing.T) {
	ch := NewChannel(&fakeProvider{}, &fakeTokens{token: "t1"}, testOptions())

	ch.AddConnectionListener(func(domain.ConnectionState) {
		panic("broken subscriber")
	})
	rec := &stateRecorder{}
	ch.AddConnectionListener(rec.listen)

	ch.Connect(context.Background(), testSocketURL, "t1")

	assert.Contains(t, rec.snapshot(), domain.ConnReady)
}

func TestReconnectAfterDrop(t *testing.T) {
	var sessions []*fakeSession
	var sessMu sync.Mutex
	provider := &fakeProvider{
		dialFn: func(attempt int, socketURL, token string) (ports.RealtimeSession, error) {
			if attempt == 1 {
				// First redial fails, second succeeds
				return nil, domain.NewAppError(domain.CodeNetworkError, "cannot reach "+socketURL)
			}
			s := newFakeSession()
			sessMu.Lock()
			sessions = append(sessions, s)
			sessMu.Unlock()
			return s, nil
		},
	}
	ch := NewChannel(provider, &fakeTokens{token: "t1"}, testOptions())
	var delays []time.Duration
	var delayMu sync.Mutex
	ch.sleep = recordingSleep(&delays, &delayMu)

	require.True(t, ch.Connect(context.Background(), testSocketURL, "t1"))
	require.Equal(t, domain.ConnReady, ch.State())

	sessMu.Lock()
	first := sessions[0]
	sessMu.Unlock()
	first.die(fmt.Errorf("connection reset"))

	require.Eventually(t, func() bool { return provider.dialCount() == 3 },
		2*time.Second, 5*time.Millisecond, "initial dial plus two redial attempts")
	eventually(t, ch, domain.ConnReady)

	delayMu.Lock()
	defer delayMu.Unlock()
	require.Len(t, delays, 2)
	assert.Equal(t, 10*time.Millisecond, delays[0])
	assert.Equal(t, 15*time.Millisecond, delays[1], "backoff must grow between attempts")
}

func TestReconnectExhaustionDisconnects(t *testing.T) {
	var sess *fakeSession
	provider := &fakeProvider{}
	provider.dialFn = func(attempt int, socketURL, token string) (ports.RealtimeSession, error) {
		if attempt == 0 {
			sess = newFakeSession()
			return sess, nil
		}
		return nil, domain.NewAppError(domain.CodeNetworkError, "cannot reach "+socketURL)
	}
	ch := NewChannel(provider, &fakeTokens{token: "t1"}, testOptions())
	var delays []time.Duration
	var delayMu sync.Mutex
	ch.sleep = recordingSleep(&delays, &delayMu)

	require.True(t, ch.Connect(context.Background(), testSocketURL, "t1"))
	sess.die(fmt.Errorf("connection reset"))

	eventually(t, ch, domain.ConnDisconnected)
	assert.Equal(t, 4, provider.dialCount(), "initial dial plus the full retry budget")
}

func TestAuthErrorTriggersSilentRefresh(t *testing.T) {
	tokens := &fakeTokens{token: "t1"}
	tokens.nextFn = func(ctx context.Context) (string, error) {
		tokens.mu.Lock()
		tokens.token = "t2"
		tokens.mu.Unlock()
		return "t2", nil
	}

	var sessions []*fakeSession
	var sessMu sync.Mutex
	provider := &fakeProvider{
		dialFn: func(attempt int, socketURL, token string) (ports.RealtimeSession, error) {
			s := newFakeSession()
			sessMu.Lock()
			sessions = append(sessions, s)
			sessMu.Unlock()
			return s, nil
		},
	}
	ch := NewChannel(provider, tokens, testOptions())

	require.True(t, ch.Connect(context.Background(), testSocketURL, "t1"))
	sessMu.Lock()
	first := sessions[0]
	sessMu.Unlock()
	first.signalAuthError()

	eventually(t, ch, domain.ConnReady)
	require.Eventually(t, func() bool { return provider.dialCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"t1", "t2"}, provider.dialedTokens(), "redial must carry the refreshed token")
	assert.Equal(t, int64(1), tokens.renewed.Load())
	assert.True(t, first.closed.Load(), "the rejected session must be torn down")
}

func TestSecondAuthErrorDisconnects(t *testing.T) {
	tokens := &fakeTokens{token: "t1"}
	var sessions []*fakeSession
	var sessMu sync.Mutex
	provider := &fakeProvider{
		dialFn: func(attempt int, socketURL, token string) (ports.RealtimeSession, error) {
			s := newFakeSession()
			sessMu.Lock()
			sessions = append(sessions, s)
			sessMu.Unlock()
			return s, nil
		},
	}
	ch := NewChannel(provider, tokens, testOptions())

	require.True(t, ch.Connect(context.Background(), testSocketURL, "t1"))
	sessMu.Lock()
	first := sessions[0]
	sessMu.Unlock()
	first.signalAuthError()

	eventually(t, ch, domain.ConnReady)
	require.Eventually(t, func() bool {
		sessMu.Lock()
		defer sessMu.Unlock()
		return len(sessions) == 2
	}, time.Second, 5*time.Millisecond)

	sessMu.Lock()
	second := sessions[1]
	sessMu.Unlock()
	second.signalAuthError()

	eventually(t, ch, domain.ConnDisconnected)
	assert.Equal(t, int64(1), tokens.renewed.Load(), "only one silent refresh per connection")
}

func TestAuthErrorWithFailedRefreshDisconnects(t *testing.T) {
	tokens := &fakeTokens{token: "t1"}
	tokens.nextFn = func(ctx context.Context) (string, error) {
		return "", domain.NewAppError(domain.CodeRefreshFailed, "refresh token revoked")
	}
	sess := newFakeSession()
	provider := &fakeProvider{
		dialFn: func(attempt int, socketURL, token string) (ports.RealtimeSession, error) {
			return sess, nil
		},
	}
	ch := NewChannel(provider, tokens, testOptions())

	require.True(t, ch.Connect(context.Background(), testSocketURL, "t1"))
	sess.signalAuthError()

	eventually(t, ch, domain.ConnDisconnected)
	assert.Equal(t, 1, provider.dialCount(), "no redial without a fresh token")
}

func TestAuthErrorWithFailedRedialDegrades(t *testing.T) {
	tokens := &fakeTokens{token: "t1"}
	tokens.nextFn = func(ctx context.Context) (string, error) { return "t2", nil }
	sess := newFakeSession()
	provider := &fakeProvider{
		dialFn: func(attempt int, socketURL, token string) (ports.RealtimeSession, error) {
			if attempt == 0 {
				return sess, nil
			}
			return nil, domain.NewAppError(domain.CodeNetworkError, "cannot reach "+socketURL)
		},
	}
	ch := NewChannel(provider, tokens, testOptions())

	require.True(t, ch.Connect(context.Background(), testSocketURL, "t1"))
	sess.signalAuthError()

	eventually(t, ch, domain.ConnDegraded)
}

func TestDisconnectStopsReconnection(t *testing.T) {
	sess := newFakeSession()
	dialGate := make(chan struct{})
	provider := &fakeProvider{
		dialFn: func(attempt int, socketURL, token string) (ports.RealtimeSession, error) {
			if attempt == 0 {
				return sess, nil
			}
			<-dialGate
			return nil, domain.NewAppError(domain.CodeNetworkError, "cannot reach "+socketURL)
		},
	}
	ch := NewChannel(provider, &fakeTokens{token: "t1"}, testOptions())
	ch.sleep = func(stop <-chan struct{}, d time.Duration) bool {
		select {
		case <-stop:
			return false
		case <-time.After(d):
			return true
		}
	}

	require.True(t, ch.Connect(context.Background(), testSocketURL, "t1"))
	sess.die(fmt.Errorf("connection reset"))
	eventually(t, ch, domain.ConnConnecting)

	ch.Disconnect()
	close(dialGate)

	assert.Equal(t, domain.ConnDisconnected, ch.State())
	// Idempotent
	ch.Disconnect()
	assert.Equal(t, domain.ConnDisconnected, ch.State())
}

func TestChannelQueryRequiresReady(t *testing.T) {
	ch := NewChannel(&fakeProvider{}, &fakeTokens{token: "t1"}, testOptions())

	_, err := ch.Query(context.Background(), "show revenue")

	require.Error(t, err)
	assert.Equal(t, domain.CodeNotConnected, domain.CodeOf(err))
}

func TestChannelQueryOverLiveSession(t *testing.T) {
	ch := NewChannel(&fakeProvider{}, &fakeTokens{token: "t1"}, testOptions())
	require.True(t, ch.Connect(context.Background(), testSocketURL, "t1"))

	resp, err := ch.Query(context.Background(), "show revenue")

	require.NoError(t, err)
	assert.Equal(t, domain.ResponseText, resp.Type)
	assert.Equal(t, "echo: show revenue", resp.Text)
}

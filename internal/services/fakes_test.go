package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/ports"
)

// fakeStore is an in-memory ports.CredentialStore with failure injection
type fakeStore struct {
	mu      sync.Mutex
	values  map[string]string
	failGet bool
	failSet bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return "", fmt.Errorf("storage unavailable")
	}
	return f.values[key], nil
}

func (f *fakeStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return fmt.Errorf("storage unavailable")
	}
	f.values[key] = value
	return nil
}

func (f *fakeStore) SetMany(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		if err := f.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func (f *fakeStore) RemoveMany(ctx context.Context, keys []string) error {
	for _, key := range keys {
		_ = f.Remove(ctx, key)
	}
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) get(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key]
}

// fakeAuthAPI scripts the gateway's auth endpoints and counts calls
type fakeAuthAPI struct {
	loginFn   func(serverURL, username, password string) (*ports.LoginResult, error)
	refreshFn func(refreshToken string) (*ports.RefreshResult, error)
	logoutErr error

	loginCalls   atomic.Int64
	refreshCalls atomic.Int64
	logoutCalls  atomic.Int64
}

func (f *fakeAuthAPI) Login(ctx context.Context, serverURL, username, password string, device domain.DeviceInfo) (*ports.LoginResult, error) {
	f.loginCalls.Add(1)
	if f.loginFn == nil {
		return &ports.LoginResult{AccessToken: "access-1", RefreshToken: "refresh-1"}, nil
	}
	return f.loginFn(serverURL, username, password)
}

func (f *fakeAuthAPI) Refresh(ctx context.Context, refreshToken string, device domain.DeviceInfo) (*ports.RefreshResult, error) {
	f.refreshCalls.Add(1)
	if f.refreshFn == nil {
		return &ports.RefreshResult{AccessToken: "access-2"}, nil
	}
	return f.refreshFn(refreshToken)
}

func (f *fakeAuthAPI) Logout(ctx context.Context, accessToken, refreshToken string) error {
	f.logoutCalls.Add(1)
	return f.logoutErr
}

func (f *fakeAuthAPI) Validate(ctx context.Context, accessToken string) error {
	return nil
}

// fakeTokens is a static ports.TokenSource
type fakeTokens struct {
	mu      sync.Mutex
	token   string
	nextFn  func(ctx context.Context) (string, error)
	renewed atomic.Int64
}

func (f *fakeTokens) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) RefreshAccessToken(ctx context.Context) (string, error) {
	f.renewed.Add(1)
	if f.nextFn != nil {
		return f.nextFn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = f.token + "'"
	return f.token, nil
}

// fakeSession is a scriptable ports.RealtimeSession
type fakeSession struct {
	queryFn func(ctx context.Context, query string) (*domain.QueryResponse, error)

	authCh    chan struct{}
	done      chan struct{}
	mu        sync.Mutex
	err       error
	closeOnce sync.Once
	closed    atomic.Bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		authCh: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (f *fakeSession) Query(ctx context.Context, query string) (*domain.QueryResponse, error) {
	if f.queryFn != nil {
		return f.queryFn(ctx, query)
	}
	resp := domain.TextResponse("echo: " + query)
	return &resp, nil
}

func (f *fakeSession) AuthErrors() <-chan struct{} { return f.authCh }
func (f *fakeSession) Done() <-chan struct{}       { return f.done }

func (f *fakeSession) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeSession) Close() error {
	f.closed.Store(true)
	f.die(fmt.Errorf("session closed"))
	return nil
}

// die kills the session with the given error
func (f *fakeSession) die(err error) {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		close(f.done)
	})
}

// signalAuthError simulates a server-pushed token rejection
func (f *fakeSession) signalAuthError() {
	select {
	case f.authCh <- struct{}{}:
	default:
	}
}

// fakeProvider scripts successive Dial outcomes
type fakeProvider struct {
	mu       sync.Mutex
	dialFn   func(attempt int, socketURL, token string) (ports.RealtimeSession, error)
	attempts int
	tokens   []string
}

func (f *fakeProvider) Dial(ctx context.Context, socketURL, accessToken string) (ports.RealtimeSession, error) {
	f.mu.Lock()
	attempt := f.attempts
	f.attempts++
	f.tokens = append(f.tokens, accessToken)
	fn := f.dialFn
	f.mu.Unlock()

	if fn == nil {
		return newFakeSession(), nil
	}
	return fn(attempt, socketURL, accessToken)
}

func (f *fakeProvider) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func (f *fakeProvider) dialedTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

// fakeTransport is a scriptable ports.QueryTransport
type fakeTransport struct {
	queryFn func(token, query string) (*domain.QueryResponse, error)
	calls   atomic.Int64
}

func (f *fakeTransport) Query(ctx context.Context, accessToken, query string) (*domain.QueryResponse, error) {
	f.calls.Add(1)
	if f.queryFn == nil {
		resp := domain.TextResponse("fallback: " + query)
		return &resp, nil
	}
	return f.queryFn(accessToken, query)
}

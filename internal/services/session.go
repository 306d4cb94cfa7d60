package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/logging"
	"github.com/voxdash/voxdash/internal/ports"
)

var serverURLPattern = regexp.MustCompile(`^https?://`)

// SessionService owns the authenticated session and its transitions.
// It is the sole writer of both the in-memory Session and the
// credential store. Login, Logout and CheckAuthStatus are expected to
// be serialized by the caller; RefreshAccessToken is safe to call
// concurrently and collapses overlapping calls into one request.
type SessionService struct {
	api    ports.AuthAPI
	device domain.DeviceInfo
	store  ports.CredentialStore

	mu      sync.RWMutex
	session domain.Session

	refreshGroup singleflight.Group
}

// Verify interface compliance at compile time
var _ ports.TokenSource = (*SessionService)(nil)

// NewSessionService creates a SessionService
func NewSessionService(api ports.AuthAPI, store ports.CredentialStore, device domain.DeviceInfo) *SessionService {
	return &SessionService{
		api:    api,
		device: device,
		store:  store,
	}
}

// Current returns a copy of the session for read-only use
func (s *SessionService) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// AccessToken returns the current access token, empty when logged out
func (s *SessionService) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

// ServerURL returns the business-backend URL entered at login
func (s *SessionService) ServerURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.ServerURL
}

// validateLogin checks all inputs before any network call is issued
func validateLogin(username, password, serverURL string) error {
	if strings.TrimSpace(username) == "" {
		return domain.NewValidationError("username", "username is required")
	}
	if password == "" {
		return domain.NewValidationError("password", "password is required")
	}
	if strings.TrimSpace(serverURL) == "" {
		return domain.NewValidationError("serverUrl", "server URL is required")
	}
	if !serverURLPattern.MatchString(serverURL) {
		return domain.NewValidationError("serverUrl", "server URL must start with http:// or https://")
	}
	return nil
}

// Login authenticates against the gateway and persists the credential
// set on success. Validation failures are resolved without any I/O.
func (s *SessionService) Login(ctx context.Context, username, password, serverURL string) (domain.Session, error) {
	if err := validateLogin(username, password, serverURL); err != nil {
		logging.Logger.Debug("Login input rejected", "error", err)
		return domain.Session{}, err
	}

	logging.Logger.Info("Logging in", "username", username, "server_url", serverURL)
	s.setLoading(true)
	defer s.setLoading(false)

	result, err := s.api.Login(ctx, serverURL, username, password, s.device)
	if err != nil {
		logging.Logger.Warn("Login failed", "username", username, "error", err)
		s.mu.Lock()
		s.session.Err = domain.MessageOf(err)
		s.mu.Unlock()
		return domain.Session{}, err
	}

	session := domain.Session{
		AccessToken:  result.AccessToken,
		IsLoggedIn:   true,
		RefreshToken: result.RefreshToken,
		ServerURL:    serverURL,
		User:         result.User,
		Username:     username,
	}

	s.persistCredentials(ctx, session)

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	logging.Logger.Info("Login succeeded", "username", username)
	return session, nil
}

// persistCredentials writes the credential set. Failures are logged but
// do not fail the login; the session stays usable for this process.
func (s *SessionService) persistCredentials(ctx context.Context, session domain.Session) {
	values := map[string]string{
		ports.KeyAccessToken:  session.AccessToken,
		ports.KeyRefreshToken: session.RefreshToken,
		ports.KeyUsername:     session.Username,
		ports.KeyServerURL:    session.ServerURL,
	}
	user := ""
	if session.User != nil {
		if raw, err := json.Marshal(session.User); err == nil {
			user = string(raw)
		}
	}
	if user != "" {
		values[ports.KeyUser] = user
	} else if err := s.store.Remove(ctx, ports.KeyUser); err != nil {
		// A stale user record must not hydrate under the next login
		logging.Logger.Warn("Failed to clear stored user", "error", err)
	}

	if err := s.store.SetMany(ctx, values); err != nil {
		logging.Logger.Error("Failed to persist credentials; session will not survive a restart", "error", err)
	}
}

// RefreshAccessToken renews the access token using the persisted
// refresh token. Concurrent callers share a single in-flight request: a
// stale duplicate refresh could race and invalidate a just-rotated
// refresh token.
func (s *SessionService) RefreshAccessToken(ctx context.Context) (string, error) {
	token, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (s *SessionService) refresh(ctx context.Context) (string, error) {
	refreshToken, err := s.store.Get(ctx, ports.KeyRefreshToken)
	if err != nil {
		logging.Logger.Error("Failed to read refresh token", "error", err)
	}
	if refreshToken == "" {
		s.mu.RLock()
		refreshToken = s.session.RefreshToken
		s.mu.RUnlock()
	}
	if refreshToken == "" {
		return "", domain.NewAppError(domain.CodeNoRefreshToken, "no refresh token available")
	}

	logging.Logger.Info("Refreshing access token")
	result, err := s.api.Refresh(ctx, refreshToken, s.device)
	if err != nil {
		// The session is deliberately left intact; the caller decides
		// whether a failed refresh ends it
		logging.Logger.Warn("Token refresh failed", "error", err)
		return "", err
	}

	if err := s.store.Set(ctx, ports.KeyAccessToken, result.AccessToken); err != nil {
		logging.Logger.Error("Failed to persist refreshed access token", "error", err)
	}
	if result.RefreshToken != "" {
		if err := s.store.Set(ctx, ports.KeyRefreshToken, result.RefreshToken); err != nil {
			logging.Logger.Error("Failed to persist rotated refresh token", "error", err)
		}
	}

	s.mu.Lock()
	s.session.AccessToken = result.AccessToken
	if result.RefreshToken != "" {
		s.session.RefreshToken = result.RefreshToken
	}
	s.mu.Unlock()

	logging.Logger.Info("Access token refreshed", "rotated", result.RefreshToken != "")
	return result.AccessToken, nil
}

// Logout ends the session. The remote logout is best-effort; local
// state is cleared unconditionally so the user can always leave an
// authenticated session even when the gateway is unreachable.
func (s *SessionService) Logout(ctx context.Context) {
	s.mu.RLock()
	accessToken := s.session.AccessToken
	refreshToken := s.session.RefreshToken
	s.mu.RUnlock()

	if refreshToken == "" {
		if stored, err := s.store.Get(ctx, ports.KeyRefreshToken); err == nil {
			refreshToken = stored
		}
	}

	if accessToken != "" || refreshToken != "" {
		if err := s.api.Logout(ctx, accessToken, refreshToken); err != nil {
			logging.Logger.Warn("Remote logout failed, clearing local session anyway", "error", err)
		}
	}

	if err := s.store.RemoveMany(ctx, []string{
		ports.KeyAccessToken,
		ports.KeyRefreshToken,
		ports.KeyUsername,
		ports.KeyServerURL,
		ports.KeyUser,
	}); err != nil {
		logging.Logger.Error("Failed to clear persisted credentials", "error", err)
	}

	s.mu.Lock()
	s.session = domain.Session{}
	s.mu.Unlock()

	logging.Logger.Info("Logged out")
}

// CheckAuthStatus restores a persisted session. It runs at startup and
// must never block boot: any failure reads as "not logged in".
func (s *SessionService) CheckAuthStatus(ctx context.Context) domain.Session {
	read := func(key string) string {
		value, err := s.store.Get(ctx, key)
		if err != nil {
			logging.Logger.Warn("Credential read failed during session restore", "key", key, "error", err)
			return ""
		}
		return value
	}

	accessToken := read(ports.KeyAccessToken)
	username := read(ports.KeyUsername)
	serverURL := read(ports.KeyServerURL)

	if accessToken == "" || username == "" || serverURL == "" {
		logging.Logger.Debug("No persisted session found")
		s.mu.Lock()
		s.session = domain.Session{}
		s.mu.Unlock()
		return domain.Session{}
	}

	session := domain.Session{
		AccessToken:  accessToken,
		IsLoggedIn:   true,
		RefreshToken: read(ports.KeyRefreshToken),
		ServerURL:    serverURL,
		Username:     username,
	}

	if rawUser := read(ports.KeyUser); rawUser != "" {
		var user domain.User
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			logging.Logger.Warn("Corrupt persisted user record, ignoring", "error", err)
		} else {
			session.User = &user
		}
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	logging.Logger.Info("Session restored", "username", username, "server_url", serverURL)
	return session
}

// Validate confirms the current access token against the gateway
func (s *SessionService) Validate(ctx context.Context) error {
	token := s.AccessToken()
	if token == "" {
		return domain.NewAppError(domain.CodeNotConnected, "not logged in")
	}
	return s.api.Validate(ctx, token)
}

func (s *SessionService) setLoading(loading bool) {
	s.mu.Lock()
	s.session.Loading = loading
	if loading {
		s.session.Err = ""
	}
	s.mu.Unlock()
}

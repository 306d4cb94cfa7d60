package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/logging"
	"github.com/voxdash/voxdash/internal/ports"
)

// Client talks JSON over HTTPS to the voxdash gateway. It implements
// both ports.AuthAPI and ports.QueryTransport.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Verify interface compliance at compile time
var (
	_ ports.AuthAPI        = (*Client)(nil)
	_ ports.QueryTransport = (*Client)(nil)
)

// NewClient creates a gateway client. The timeout bounds every request;
// responses arriving after it are discarded by net/http.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetHTTPClient allows overriding the HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// BaseURL returns the configured gateway URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody is the gateway's error envelope; some endpoints use "error",
// others "message"
type errorBody struct {
	Error   string           `json:"error"`
	Message string           `json:"message"`
	Code    domain.ErrorCode `json:"code"`
}

func (b errorBody) text() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

// doJSON issues a request with an optional JSON body and bearer token,
// decodes a 2xx response into out (when non-nil), and maps failures into
// typed errors.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Logger.Warn("Gateway unreachable", "endpoint", endpoint, "error", err)
		return &domain.AppError{
			Code:    domain.CodeNetworkError,
			Message: fmt.Sprintf("cannot reach %s", endpoint),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.serverError(resp, endpoint)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

// serverError converts a non-2xx response into a typed error carrying
// the server-provided message when one exists.
func (c *Client) serverError(resp *http.Response, endpoint string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var body errorBody
	_ = json.Unmarshal(raw, &body)

	code := body.Code
	if code == "" {
		switch {
		case endpoint == "/auth/login":
			// Any gateway rejection of a login is an auth failure,
			// whatever the status code
			code = domain.CodeAuthFailed
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			code = domain.CodeAuthFailed
		default:
			code = domain.CodeProcessingError
		}
	}

	message := body.text()
	if message == "" {
		message = fmt.Sprintf("request to %s failed with status %d", endpoint, resp.StatusCode)
	}

	logging.Logger.Warn("Gateway rejected request",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"code", code)

	return &domain.AppError{Code: code, Message: message}
}

// loginRequest is the /auth/login body. The gateway forwards odooUrl to
// the business backend it fronts.
type loginRequest struct {
	OdooURL    string            `json:"odooUrl"`
	Username   string            `json:"username"`
	Password   string            `json:"password"`
	DeviceInfo domain.DeviceInfo `json:"deviceInfo"`
}

// Login authenticates against POST /auth/login
func (c *Client) Login(ctx context.Context, serverURL, username, password string, device domain.DeviceInfo) (*ports.LoginResult, error) {
	var result ports.LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", loginRequest{
		OdooURL:    serverURL,
		Username:   username,
		Password:   password,
		DeviceInfo: device,
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, domain.NewAppError(domain.CodeAuthFailed, "login response carried no access token")
	}
	return &result, nil
}

type refreshRequest struct {
	RefreshToken string            `json:"refreshToken"`
	DeviceInfo   domain.DeviceInfo `json:"deviceInfo"`
}

// Refresh renews the access token via POST /auth/refresh
func (c *Client) Refresh(ctx context.Context, refreshToken string, device domain.DeviceInfo) (*ports.RefreshResult, error) {
	var result ports.RefreshResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", "", refreshRequest{
		RefreshToken: refreshToken,
		DeviceInfo:   device,
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, domain.NewAppError(domain.CodeRefreshFailed, "refresh response carried no access token")
	}
	return &result, nil
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout invalidates the device's refresh token via POST /auth/logout
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", accessToken, logoutRequest{
		RefreshToken: refreshToken,
	}, nil)
}

// Validate confirms the access token via GET /auth/validate
func (c *Client) Validate(ctx context.Context, accessToken string) error {
	return c.doJSON(ctx, http.MethodGet, "/auth/validate", accessToken, nil, nil)
}

type queryRequest struct {
	Query  string `json:"query"`
	Format string `json:"format"`
}

type queryResult struct {
	Result domain.QueryResponse `json:"result"`
}

// Query dispatches a free-text query via POST /mcp/query, the stateless
// fallback to the realtime channel.
func (c *Client) Query(ctx context.Context, accessToken, query string) (*domain.QueryResponse, error) {
	var result queryResult
	err := c.doJSON(ctx, http.MethodPost, "/mcp/query", accessToken, queryRequest{
		Query:  query,
		Format: "structured",
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result.Result, nil
}

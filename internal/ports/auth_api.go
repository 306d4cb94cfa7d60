package ports

import (
	"context"

	"github.com/voxdash/voxdash/internal/domain"
)

// LoginResult is the gateway's answer to a successful login
type LoginResult struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *domain.User `json:"user"`
}

// RefreshResult carries the renewed access token. RefreshToken is empty
// unless the gateway rotated it.
type RefreshResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// AuthAPI talks to the gateway's authentication endpoints
type AuthAPI interface {
	Login(ctx context.Context, serverURL, username, password string, device domain.DeviceInfo) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string, device domain.DeviceInfo) (*RefreshResult, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	Validate(ctx context.Context, accessToken string) error
}

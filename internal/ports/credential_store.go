package ports

import "context"

// Fixed credential keys persisted across restarts
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUsername     = "username"
	KeyServerURL    = "server_url"
	KeyUser         = "user"
)

// CredentialReader reads persisted credential values.
// Get returns an empty string (not an error) for absent keys.
type CredentialReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// CredentialWriter mutates persisted credentials. Batched variants are
// best-effort: a partial failure is reported but earlier writes are not
// rolled back; callers decide whether that is fatal.
type CredentialWriter interface {
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, values map[string]string) error
	Remove(ctx context.Context, key string) error
	RemoveMany(ctx context.Context, keys []string) error
}

// CredentialStore is the composite persistence interface
type CredentialStore interface {
	CredentialReader
	CredentialWriter
	Close() error
}

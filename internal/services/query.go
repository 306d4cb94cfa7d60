package services

import (
	"context"
	"strings"

	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/logging"
	"github.com/voxdash/voxdash/internal/ports"
)

// QueryService turns free-text input into a structured QueryResponse.
// It prefers the realtime channel and falls back to the stateless path
// per call; it never returns an error or panics to its caller — every
// failure becomes an error-tagged response.
type QueryService struct {
	channel  *Channel
	fallback ports.QueryTransport
	tokens   ports.TokenSource
}

// NewQueryService creates a QueryService
func NewQueryService(channel *Channel, fallback ports.QueryTransport, tokens ports.TokenSource) *QueryService {
	return &QueryService{
		channel:  channel,
		fallback: fallback,
		tokens:   tokens,
	}
}

// ProcessQuery dispatches one query and normalizes the outcome
func (s *QueryService) ProcessQuery(ctx context.Context, text string) (resp domain.QueryResponse) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Error("Query dispatch panicked", "panic", r)
			resp = domain.ErrorResponse(domain.CodeProcessingError, "query processing failed")
		}
	}()

	query := strings.TrimSpace(text)
	if query == "" {
		return domain.ErrorResponse(domain.CodeEmptyQuery, "query is empty")
	}

	// A channel mid-reconnect still serves queries over the stateless
	// path; only a fully disconnected channel rejects.
	if s.channel.State() == domain.ConnDisconnected {
		return domain.ErrorResponse(domain.CodeNotConnected, "not connected to a session")
	}

	if s.channel.Ready() {
		result, err := s.channel.Query(ctx, query)
		if err == nil {
			return *result
		}
		// Per-call fallback: this query rides the stateless path, the
		// channel keeps its own recovery going
		logging.Logger.Warn("Realtime query failed, falling back to stateless path", "error", err)
	}

	token := s.tokens.AccessToken()
	if token == "" {
		return domain.ErrorResponse(domain.CodeNotConnected, "not logged in")
	}

	result, err := s.fallback.Query(ctx, token, query)
	if err != nil {
		logging.Logger.Warn("Stateless query failed", "error", err)
		return domain.ErrorResponseFrom(err)
	}
	return *result
}

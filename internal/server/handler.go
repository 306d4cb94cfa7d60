package server

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"

	"github.com/voxdash/voxdash/internal/adapters/realtime"
	"github.com/voxdash/voxdash/internal/adapters/restapi"
	"github.com/voxdash/voxdash/internal/adapters/storage"
	"github.com/voxdash/voxdash/internal/config"
	"github.com/voxdash/voxdash/internal/logging"
	"github.com/voxdash/voxdash/internal/services"
	"github.com/voxdash/voxdash/internal/ui"
)

// sessionModel wraps ui.Model to clean up per-session resources
type sessionModel struct {
	*ui.Model
	channel   *services.Channel
	sessionID string
	startTime time.Time
	store     *storage.SQLiteStore
}

func (s *sessionModel) Init() tea.Cmd {
	return s.Model.Init()
}

func (s *sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.QuitMsg); ok {
		duration := time.Since(s.startTime)

		s.channel.Disconnect()
		s.Model.Close()
		if err := s.store.Close(); err != nil {
			logging.Logger.Error("Failed to close store for SSH session",
				"error", err,
				"session_id", s.sessionID,
				"duration", duration.String())
		}

		logging.Logger.Info("SSH session ended",
			"session_id", s.sessionID,
			"duration", duration.String())
	}

	updatedModel, cmd := s.Model.Update(msg)
	if m, ok := updatedModel.(*ui.Model); ok {
		s.Model = m
	}
	return s, cmd
}

func (s *sessionModel) View() string {
	return s.Model.View()
}

// teaHandler creates an independent dashboard stack for each SSH
// session. Sessions share the credential database but never a
// transport channel.
func (s *Server) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, _ := sess.Pty()
	sessionID := fmt.Sprintf("%s@%s", sess.User(), sess.RemoteAddr().String())

	logging.Logger.Info("New SSH session",
		"session_id", sessionID,
		"user", sess.User(),
		"remote_addr", sess.RemoteAddr().String(),
		"term", pty.Term,
		"window", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height))

	store, err := storage.NewSQLiteStore(config.GetDBPath())
	if err != nil {
		logging.Logger.Error("Failed to open credential store for SSH session",
			"error", err,
			"session_id", sessionID)
		return errorModel{err}, nil
	}

	api := restapi.NewClient(s.apiURL, s.opts.Timeout)
	sessionService := services.NewSessionService(api, store, s.device)
	sessionService.CheckAuthStatus(context.Background())

	channel := services.NewChannel(realtime.NewProvider(s.opts.Timeout), sessionService, s.opts)
	queryService := services.NewQueryService(channel, api, sessionService)

	model := ui.NewModel(s.socketURL, sessionService, channel, queryService)

	wrappedModel := &sessionModel{
		Model:     model,
		channel:   channel,
		sessionID: sessionID,
		startTime: time.Now(),
		store:     store,
	}

	return wrappedModel, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// errorModel is a simple model that displays an error
type errorModel struct {
	err error
}

func (e errorModel) Init() tea.Cmd {
	return nil
}

func (e errorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return e, tea.Quit
}

func (e errorModel) View() string {
	return fmt.Sprintf("Error: %v\n", e.err)
}

package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/logging"
	"github.com/voxdash/voxdash/internal/services"
	"github.com/voxdash/voxdash/internal/theme"
)

type uiState int

const (
	stateLogin uiState = iota
	stateDashboard
)

// Model is the root Bubble Tea model: a login screen followed by the
// query dashboard. Transport state changes arrive through a listener
// bridge so the status bar always reflects the channel.
type Model struct {
	channel        *services.Channel
	connState      domain.ConnectionState
	height         int
	input          textinput.Model
	lastElapsed    time.Duration
	lastQuery      string
	lastResponse   *domain.QueryResponse
	loginForm      *LoginForm
	querying       bool
	queryService   *services.QueryService
	sessionService *services.SessionService
	socketURL      string
	spinner        spinner.Model
	state          uiState
	stateChanges   chan domain.ConnectionState
	unsubscribe    func()
	viewport       viewport.Model
	viewportReady  bool
	width          int
}

// NewModel creates the root model. A restored session skips the login
// screen; the connection is established from Init either way.
func NewModel(
	socketURL string,
	sessionService *services.SessionService,
	channel *services.Channel,
	queryService *services.QueryService,
) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorSpinner)

	input := textinput.New()
	input.Placeholder = "Ask about your business data..."
	input.CharLimit = 500
	input.Focus()

	m := &Model{
		channel:        channel,
		connState:      channel.State(),
		input:          input,
		queryService:   queryService,
		sessionService: sessionService,
		socketURL:      socketURL,
		spinner:        s,
		stateChanges:   make(chan domain.ConnectionState, 8),
	}

	// Bridge channel notifications into the program's message loop.
	// The buffer absorbs bursts; a full buffer drops intermediate
	// states, the latest one still lands.
	m.unsubscribe = channel.AddConnectionListener(func(state domain.ConnectionState) {
		select {
		case m.stateChanges <- state:
		default:
		}
	})

	session := sessionService.Current()
	if session.IsLoggedIn {
		m.state = stateDashboard
	} else {
		m.state = stateLogin
		m.loginForm = NewLoginForm(sessionService, session.Username, session.ServerURL)
	}

	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForStateChange(), textinput.Blink}
	if m.state == stateLogin {
		cmds = append(cmds, m.loginForm.Init())
	} else {
		cmds = append(cmds, m.connectCmd())
	}
	return tea.Batch(cmds...)
}

// waitForStateChange blocks on the listener bridge and re-arms itself
// after every message
func (m *Model) waitForStateChange() tea.Cmd {
	return func() tea.Msg {
		return ConnectionStateMsg{State: <-m.stateChanges}
	}
}

// connectCmd establishes the realtime channel with the current token
func (m *Model) connectCmd() tea.Cmd {
	return func() tea.Msg {
		usable := m.channel.Connect(context.Background(), m.socketURL, m.sessionService.AccessToken())
		return connectDoneMsg{usable: usable}
	}
}

// queryCmd dispatches one query off the update loop
func (m *Model) queryCmd(query string) tea.Cmd {
	return func() tea.Msg {
		started := time.Now()
		resp := m.queryService.ProcessQuery(context.Background(), query)
		return queryDoneMsg{query: query, response: resp, elapsed: time.Since(started)}
	}
}

// logoutCmd tears down the channel and clears the session
func (m *Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		m.channel.Disconnect()
		m.sessionService.Logout(context.Background())
		return logoutDoneMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
	case ConnectionStateMsg:
		m.connState = msg.State
		return m, m.waitForStateChange()
	}

	switch m.state {
	case stateLogin:
		return m.updateLogin(msg)
	case stateDashboard:
		return m.updateDashboard(msg)
	}
	return m, nil
}

func (m *Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		return m, tea.Quit
	}

	form, cmd := m.loginForm.Update(msg)
	m.loginForm = form.(*LoginForm)

	if m.loginForm.Completed {
		if m.loginForm.Result().Cancelled {
			return m, tea.Quit
		}
		logging.Logger.Info("Login complete, connecting realtime channel")
		m.state = stateDashboard
		m.loginForm = nil
		m.input.Focus()
		return m, m.connectCmd()
	}
	return m, cmd
}

func (m *Model) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+d":
			return m, m.logoutCmd()
		case "enter":
			if m.querying {
				return m, nil
			}
			query := strings.TrimSpace(m.input.Value())
			if query == "" {
				return m, nil
			}
			m.querying = true
			m.lastQuery = query
			m.input.SetValue("")
			return m, tea.Batch(m.spinner.Tick, m.queryCmd(query))
		}
	case spinner.TickMsg:
		if m.querying {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case connectDoneMsg:
		if !msg.usable {
			logging.Logger.Warn("Transport channel is not usable after connect")
		}
		return m, nil
	case queryDoneMsg:
		m.querying = false
		m.lastElapsed = msg.elapsed
		m.lastResponse = &msg.response
		m.viewport.SetContent(renderResponse(msg.response, m.contentWidth()))
		m.viewport.GotoTop()
		return m, nil
	case logoutDoneMsg:
		m.state = stateLogin
		m.lastQuery = ""
		m.lastResponse = nil
		m.loginForm = NewLoginForm(m.sessionService, "", "")
		return m, m.loginForm.Init()
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) resizeViewport() {
	// Title, status bar, input line and help line surround the pane
	height := m.height - 7
	if height < 3 {
		height = 3
	}
	if !m.viewportReady {
		m.viewport = viewport.New(m.contentWidth(), height)
		m.viewportReady = true
	} else {
		m.viewport.Width = m.contentWidth()
		m.viewport.Height = height
	}
	if m.lastResponse != nil {
		m.viewport.SetContent(renderResponse(*m.lastResponse, m.contentWidth()))
	}
	m.input.Width = m.contentWidth() - 4
}

func (m *Model) contentWidth() int {
	if m.width <= 2 {
		return 78
	}
	return m.width - 2
}

func (m *Model) View() string {
	if m.state == stateLogin {
		if m.loginForm != nil {
			return m.loginForm.View()
		}
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("voxdash"))

	session := m.sessionService.Current()
	status := connectionSegment(m.connState)
	if session.Username != "" {
		status += theme.MutedStyle.Render("  ·  " + session.Username)
	}
	b.WriteString("\n")
	b.WriteString(status)
	b.WriteString("\n\n")

	b.WriteString(theme.NormalStyle.Render("> "))
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.querying {
		b.WriteString(m.spinner.View())
		b.WriteString(theme.MutedStyle.Render(" Processing: " + m.lastQuery))
	} else if m.lastResponse != nil {
		if m.viewportReady {
			b.WriteString(m.viewport.View())
		} else {
			b.WriteString(renderResponse(*m.lastResponse, m.contentWidth()))
		}
		if m.lastElapsed > 0 {
			b.WriteString("\n")
			b.WriteString(theme.MutedStyle.Render(m.lastElapsed.Round(time.Millisecond).String()))
		}
	} else {
		b.WriteString(theme.MutedStyle.Render("Type a question and press enter."))
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("enter: ask · ctrl+d: logout · ctrl+c: quit"))
	return b.String()
}

// Close releases the listener bridge
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/logging"
	"github.com/voxdash/voxdash/internal/services"
	"github.com/voxdash/voxdash/internal/theme"
)

// LoginFormResult contains the values entered in the login form
type LoginFormResult struct {
	Cancelled bool
	Password  string
	ServerURL string
	Username  string
}

// LoginForm is a Bubble Tea component collecting credentials and
// running the login against the gateway
type LoginForm struct {
	Completed bool // Exported so Model can check completion

	cancelled      bool
	err            string
	form           *huh.Form
	loggingIn      bool
	result         LoginFormResult
	sessionService *services.SessionService
	spinner        spinner.Model
}

// NewLoginForm creates a login form prefilled with the last used
// username and server URL
func NewLoginForm(sessionService *services.SessionService, defaultUsername, defaultServerURL string) *LoginForm {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorSpinner)

	lf := &LoginForm{
		result: LoginFormResult{
			ServerURL: defaultServerURL,
			Username:  defaultUsername,
		},
		sessionService: sessionService,
		spinner:        s,
	}

	lf.form = lf.buildForm()

	return lf
}

// buildForm constructs the huh form bound to the result fields. It is
// rebuilt after a failed attempt so the fields reset to an editable
// state with the previous values kept.
func (lf *LoginForm) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Placeholder("https://erp.example.com").
				Value(&lf.result.ServerURL).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("server URL required")
					}
					if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
						return fmt.Errorf("must start with http:// or https://")
					}
					return nil
				}),
			huh.NewInput().
				Title("Username").
				Value(&lf.result.Username).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("username required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&lf.result.Password).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("password required")
					}
					return nil
				}),
		),
	)
}

func (lf *LoginForm) Init() tea.Cmd {
	return lf.form.Init()
}

func (lf *LoginForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" && !lf.loggingIn {
			lf.cancelled = true
			lf.Completed = true
			return lf, nil
		}
	case spinner.TickMsg:
		if lf.loggingIn {
			var cmd tea.Cmd
			lf.spinner, cmd = lf.spinner.Update(msg)
			return lf, cmd
		}
		return lf, nil
	case loginDoneMsg:
		lf.loggingIn = false
		if msg.err != nil {
			// Stay on the form so the user can correct and retry
			lf.err = domain.MessageOf(msg.err)
			lf.result.Password = ""
			lf.form = lf.buildForm()
			return lf, lf.form.Init()
		}
		lf.Completed = true
		return lf, nil
	}

	if lf.loggingIn || lf.form == nil {
		return lf, nil
	}

	form, cmd := lf.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		lf.form = f
	}

	if lf.form.State == huh.StateCompleted {
		lf.loggingIn = true
		lf.err = ""
		logging.Logger.Debug("Login form submitted", "username", lf.result.Username)
		return lf, tea.Batch(lf.spinner.Tick, lf.loginCmd())
	}

	return lf, cmd
}

// loginCmd runs the login off the update loop
func (lf *LoginForm) loginCmd() tea.Cmd {
	username := lf.result.Username
	password := lf.result.Password
	serverURL := strings.TrimRight(strings.TrimSpace(lf.result.ServerURL), "/")

	return func() tea.Msg {
		session, err := lf.sessionService.Login(context.Background(), username, password, serverURL)
		return loginDoneMsg{session: session, err: err}
	}
}

func (lf *LoginForm) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("voxdash"))
	b.WriteString("\n")
	b.WriteString(theme.SubtitleStyle.Render("Sign in to your dashboard"))
	b.WriteString("\n\n")

	if lf.loggingIn {
		b.WriteString(lf.spinner.View())
		b.WriteString(theme.NormalStyle.Render(" Logging in..."))
		return b.String()
	}

	if lf.err != "" {
		b.WriteString(theme.ErrorStyle.Render("Error: " + lf.err))
		b.WriteString("\n\n")
	}

	if lf.form != nil {
		b.WriteString(lf.form.View())
	}
	return b.String()
}

// Result returns the collected values; valid once Completed is true
func (lf *LoginForm) Result() LoginFormResult {
	result := lf.result
	result.Cancelled = lf.cancelled
	return result
}

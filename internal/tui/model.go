// Package tui is the terminal front end of the todos app.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/todos/internal/client"
	"github.com/adanyl0v/todos/internal/models"
)

const (
	defaultWidth   = 80
	defaultHeight  = 24
	defaultTimeout = 10 * time.Second
)

// API is the part of *client.Client the UI needs.
type API interface {
	GetSession(ctx context.Context) (*client.Session, error)
	SignIn(ctx context.Context, email, password string) (*client.Session, error)
	SignUp(ctx context.Context, email, password string) (*client.Session, error)
	SignOut(ctx context.Context) error
	WatchRemote(ctx context.Context) error

	ListTodos(ctx context.Context) ([]client.Todo, error)
	CreateTodo(ctx context.Context, title string) (*client.Todo, error)
	ToggleTodo(ctx context.Context, id string) (*client.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

type state int

const (
	stateLoading state = iota
	stateAuth
	stateList
)

type Model struct {
	api     API
	logger  zerolog.Logger
	timeout time.Duration

	state   state
	spinner spinner.Model
	width   int
	height  int
	status  string

	form authForm

	list         list.Model
	input        textinput.Model
	adding       bool
	creating     bool
	loadingTodos bool
	userID       string
	watchCancel  context.CancelFunc
}

func New(api API, logger zerolog.Logger, timeout time.Duration) Model {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = accentStyle

	return Model{
		api:     api,
		logger:  logger,
		timeout: timeout,
		state:   stateLoading,
		spinner: s,
		width:   defaultWidth,
		height:  defaultHeight,
		form:    newAuthForm(),
		list:    newTodoList(defaultWidth, defaultHeight),
		input:   newTodoInput(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadSession())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resizeList()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.stopWatch()
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.state != stateLoading && !m.loadingTodos {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionLoadedMsg:
		if msg.err != nil {
			m.fail(msg.err, "failed to load session")
		}
		if msg.session == nil {
			return m.enterAuth()
		}
		return m.enterList(msg.session)

	case authChangedMsg:
		return m.handleAuthChange(msg)

	// The SIGNED_OUT event may already have moved the model to the
	// auth form by the time the sign out call returns.
	case signedOutMsg:
		if msg.err != nil {
			m.fail(msg.err, "failed to sign out")
		}
		if m.state == stateAuth {
			return m, nil
		}
		return m.enterAuth()

	case watchEndedMsg:
		if msg.err != nil {
			m.logger.Error().
				Err(msg.err).
				Msg("stopped watching auth events")
		}
		return m, nil
	}

	switch m.state {
	case stateAuth:
		return m.updateAuth(msg)
	case stateList:
		return m.updateList(msg)
	}
	return m, nil
}

// handleAuthChange routes between the auth form and the list.
func (m Model) handleAuthChange(msg authChangedMsg) (tea.Model, tea.Cmd) {
	m.logger.Debug().
		Str("event", string(msg.event)).
		Msg("auth state changed")

	if msg.session == nil {
		if m.state == stateAuth {
			return m, nil
		}
		return m.enterAuth()
	}
	if msg.event == models.AuthEventSignedIn && m.state != stateList {
		return m.enterList(msg.session)
	}
	return m, nil
}

func (m Model) enterAuth() (Model, tea.Cmd) {
	m.stopWatch()
	m.state = stateAuth
	m.userID = ""
	m.adding = false
	m.creating = false
	m.loadingTodos = false
	m.input.Reset()
	m.input.Blur()
	m.list.SetItems(nil)
	m.form.reset()
	return m, m.form.focus()
}

func (m Model) enterList(session *client.Session) (Model, tea.Cmd) {
	m.stopWatch()
	m.state = stateList
	m.userID = session.UserID
	m.loadingTodos = true
	m.form.submitting = false

	ctx, cancel := context.WithCancel(context.Background())
	m.watchCancel = cancel

	m.logger.Info().
		Str("user_id", session.UserID).
		Str("session_id", session.SessionID).
		Msg("signed in")
	return m, tea.Batch(m.spinner.Tick, m.loadTodos(), m.watchRemote(ctx))
}

func (m *Model) stopWatch() {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
}

// fail shows err in the status line and logs it.
func (m *Model) fail(err error, msg string) {
	m.logger.Error().
		Err(err).
		Msg(msg)
	m.status = errorText(err)
}

func errorText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}

// call runs fn in a command with the request timeout.
func (m Model) call(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m Model) loadSession() tea.Cmd {
	api := m.api
	return m.call(func(ctx context.Context) tea.Msg {
		session, err := api.GetSession(ctx)
		return sessionLoadedMsg{session: session, err: err}
	})
}

func (m Model) watchRemote(ctx context.Context) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		return watchEndedMsg{err: api.WatchRemote(ctx)}
	}
}

func (m Model) View() string {
	switch m.state {
	case stateAuth:
		return m.viewAuth()
	case stateList:
		return m.viewList()
	}
	return panelStyle.Render(m.spinner.View() + " Loading...")
}

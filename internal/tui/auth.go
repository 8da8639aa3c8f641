package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type authForm struct {
	email      textinput.Model
	password   textinput.Model
	signUp     bool
	submitting bool
}

func newAuthForm() authForm {
	email := textinput.New()
	email.Prompt = "Email    "
	email.Placeholder = "you@example.com"
	email.CharLimit = 255

	password := textinput.New()
	password.Prompt = "Password "
	password.Placeholder = "at least 6 characters"
	password.CharLimit = 255
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return authForm{email: email, password: password}
}

func (f *authForm) reset() {
	f.password.Reset()
	f.submitting = false
}

func (f *authForm) focus() tea.Cmd {
	f.password.Blur()
	return f.email.Focus()
}

func (f *authForm) nextField() tea.Cmd {
	if f.email.Focused() {
		f.email.Blur()
		return f.password.Focus()
	}
	f.password.Blur()
	return f.email.Focus()
}

func (m Model) updateAuth(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case authDoneMsg:
		m.form.submitting = false
		if msg.err != nil {
			m.fail(msg.err, "failed to authenticate")
			return m, nil
		}
		m.status = ""
		return m.enterList(msg.session)

	case tea.KeyMsg:
		if m.form.submitting {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.SwitchMode):
			m.form.signUp = !m.form.signUp
			m.status = ""
			return m, nil
		case key.Matches(msg, keys.NextField):
			return m, m.form.nextField()
		case key.Matches(msg, keys.Submit):
			if m.form.email.Focused() {
				return m, m.form.nextField()
			}
			return m.submitAuth()
		}
	}

	var cmd tea.Cmd
	if m.form.email.Focused() {
		m.form.email, cmd = m.form.email.Update(msg)
	} else {
		m.form.password, cmd = m.form.password.Update(msg)
	}
	return m, cmd
}

func (m Model) submitAuth() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.form.email.Value())
	password := m.form.password.Value()
	if email == "" || password == "" {
		m.status = "email and password are required"
		return m, nil
	}

	m.form.submitting = true
	m.status = ""

	api, signUp := m.api, m.form.signUp
	return m, m.call(func(ctx context.Context) tea.Msg {
		signIn := api.SignIn
		if signUp {
			signIn = api.SignUp
		}
		session, err := signIn(ctx, email, password)
		return authDoneMsg{session: session, err: err}
	})
}

func (m Model) viewAuth() string {
	title, action, other := "Sign in", "sign in", "No account? ctrl+t to sign up"
	if m.form.signUp {
		title, action, other = "Sign up", "create account", "Have an account? ctrl+t to sign in"
	}

	lines := []string{
		titleStyle.Render(title),
		"",
		m.form.email.View(),
		m.form.password.View(),
		"",
	}
	if m.form.submitting {
		lines = append(lines, mutedStyle.Render("Please wait..."))
	} else {
		lines = append(lines, helpStyle.Render("enter to "+action+" • tab next field • ctrl+c quit"))
	}
	lines = append(lines, helpStyle.Render(other))
	if m.status != "" {
		lines = append(lines, "", errorStyle.Render("✖ "+m.status))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

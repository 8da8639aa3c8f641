package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/todos/internal/client"
	"github.com/adanyl0v/todos/internal/models"
)

// Run shows the UI until the user quits or ctx is done.
func Run(ctx context.Context, c *client.Client, logger zerolog.Logger) error {
	p := tea.NewProgram(
		New(c, logger, 0),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	sub := c.OnAuthStateChange(func(event models.AuthEventType, session *client.Session) {
		p.Send(authChangedMsg{event: event, session: session})
	})
	defer sub.Unsubscribe()

	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.stopWatch()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/adanyl0v/todos/internal/client"
	"github.com/adanyl0v/todos/internal/models"
)

// headerRows is the room taken by everything around the list.
const headerRows = 9

// todoItem adapts client.Todo to bubbles/list.Item.
type todoItem struct {
	todo client.Todo
}

func (i todoItem) FilterValue() string { return i.todo.Title }

type todoDelegate struct{}

func (d todoDelegate) Height() int                             { return 1 }
func (d todoDelegate) Spacing() int                            { return 0 }
func (d todoDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d todoDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}

	box := mutedStyle.Render(boxUnchecked)
	text := it.todo.Title
	if it.todo.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s", prefix, box, text)
}

func newTodoList(width, height int) list.Model {
	l := list.New(nil, todoDelegate{}, width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.FilterInput.Prompt = "/ "
	l.Styles.PaginationStyle = helpStyle
	return l
}

func newTodoInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = "+ "
	ti.Placeholder = "Add a new todo..."
	ti.CharLimit = models.MaxTodoTitleLength
	return ti
}

func (m *Model) resizeList() {
	width := m.width - 4
	height := m.height - headerRows
	if height < 1 {
		height = 1
	}
	m.list.SetSize(width, height)
	m.input.Width = width - 4
}

func (m Model) todos() []client.Todo {
	items := m.list.Items()
	todos := make([]client.Todo, 0, len(items))
	for _, item := range items {
		if it, ok := item.(todoItem); ok {
			todos = append(todos, it.todo)
		}
	}
	return todos
}

func countTodos(todos []client.Todo) (active, completed int) {
	for _, todo := range todos {
		if todo.Completed {
			completed++
		} else {
			active++
		}
	}
	return active, completed
}

func (m Model) indexOf(id string) int {
	for i, item := range m.list.Items() {
		if it, ok := item.(todoItem); ok && it.todo.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) selectedTodo() (client.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	return it.todo, ok
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case todosLoadedMsg:
		m.loadingTodos = false
		if msg.err != nil {
			m.fail(msg.err, "failed to load todos")
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.todos))
		for _, todo := range msg.todos {
			items = append(items, todoItem{todo: todo})
		}
		return m, m.list.SetItems(items)

	case todoCreatedMsg:
		m.creating = false
		if msg.err != nil {
			m.fail(msg.err, "failed to add todo")
			return m, m.input.Focus()
		}
		m.status = ""
		m.input.Reset()
		cmd := m.list.InsertItem(0, todoItem{todo: *msg.todo})
		m.list.Select(0)
		return m, tea.Batch(cmd, m.input.Focus())

	case todoUpdatedMsg:
		if msg.err != nil {
			m.fail(msg.err, "failed to update todo")
			return m, nil
		}
		m.status = ""
		i := m.indexOf(msg.todo.ID)
		if i < 0 {
			return m, nil
		}
		return m, m.list.SetItem(i, todoItem{todo: *msg.todo})

	case todoDeletedMsg:
		if msg.err != nil {
			m.fail(msg.err, "failed to delete todo")
			return m, nil
		}
		m.status = ""
		i := m.indexOf(msg.id)
		if i >= 0 {
			m.list.RemoveItem(i)
		}
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateInput(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, keys.Close):
			m.stopWatch()
			return m, tea.Quit
		case key.Matches(msg, keys.Add):
			m.adding = true
			return m, m.input.Focus()
		case key.Matches(msg, keys.Toggle):
			todo, ok := m.selectedTodo()
			if !ok {
				return m, nil
			}
			return m, m.toggleTodo(todo.ID)
		case key.Matches(msg, keys.Delete):
			todo, ok := m.selectedTodo()
			if !ok {
				return m, nil
			}
			return m, m.deleteTodo(todo.ID)
		case key.Matches(msg, keys.SignOut):
			return m, m.signOut()
		case key.Matches(msg, keys.Reload):
			m.loadingTodos = true
			return m, tea.Batch(m.spinner.Tick, m.loadTodos())
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateInput handles keys while the add input is focused. The input
// ignores keys while a todo is being created.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.creating {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Cancel):
		m.adding = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, keys.Submit):
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			return m, nil
		}
		m.creating = true
		m.input.Blur()
		return m, m.createTodo(title)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) loadTodos() tea.Cmd {
	api := m.api
	return m.call(func(ctx context.Context) tea.Msg {
		todos, err := api.ListTodos(ctx)
		return todosLoadedMsg{todos: todos, err: err}
	})
}

func (m Model) createTodo(title string) tea.Cmd {
	api := m.api
	return m.call(func(ctx context.Context) tea.Msg {
		todo, err := api.CreateTodo(ctx, title)
		return todoCreatedMsg{todo: todo, err: err}
	})
}

func (m Model) toggleTodo(id string) tea.Cmd {
	api := m.api
	return m.call(func(ctx context.Context) tea.Msg {
		todo, err := api.ToggleTodo(ctx, id)
		return todoUpdatedMsg{todo: todo, err: err}
	})
}

func (m Model) deleteTodo(id string) tea.Cmd {
	api := m.api
	return m.call(func(ctx context.Context) tea.Msg {
		return todoDeletedMsg{id: id, err: api.DeleteTodo(ctx, id)}
	})
}

func (m Model) signOut() tea.Cmd {
	api := m.api
	return m.call(func(ctx context.Context) tea.Msg {
		return signedOutMsg{err: api.SignOut(ctx)}
	})
}

func (m Model) viewList() string {
	todos := m.todos()
	active, completed := countTodos(todos)

	header := fmt.Sprintf("%s   %s %d active  %s %d completed",
		titleStyle.Render("My Todos"),
		pendingStyle.Render("•"), active,
		successStyle.Render("✔"), completed,
	)

	input := m.input.View()
	if m.creating {
		input = mutedStyle.Render("+ adding...")
	}

	var body string
	switch {
	case m.loadingTodos && len(todos) == 0:
		body = m.spinner.View() + " Loading..."
	case len(todos) == 0:
		body = mutedStyle.Render("No todos yet\nStart by adding one above")
	default:
		body = m.list.View()
	}

	lines := []string{header, "", input, "", body, ""}
	if m.status != "" {
		lines = append(lines, errorStyle.Render("✖ "+m.status))
	}
	if m.adding {
		lines = append(lines, helpStyle.Render("enter add • esc done"))
	} else {
		lines = append(lines, helpStyle.Render("a add • space toggle • d delete • / filter • r reload • L sign out • q quit"))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

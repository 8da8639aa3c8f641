package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Todo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TodoStats struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// ListTodos returns the user's todos, newest first.
func (c *Client) ListTodos(ctx context.Context) ([]Todo, error) {
	todos := make([]Todo, 0)
	err := c.doAuthed(ctx, http.MethodGet, "/api/v1/todos", nil, &todos)
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (c *Client) GetTodoStats(ctx context.Context) (*TodoStats, error) {
	var stats TodoStats
	err := c.doAuthed(ctx, http.MethodGet, "/api/v1/todos/stats", nil, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// CreateTodo trims title and refuses blank ones without calling the API.
func (c *Client) CreateTodo(ctx context.Context, title string) (*Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	var todo Todo
	err := c.doAuthed(ctx, http.MethodPost, "/api/v1/todos", map[string]string{"title": title}, &todo)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) ToggleTodo(ctx context.Context, id string) (*Todo, error) {
	var todo Todo
	err := c.doAuthed(ctx, http.MethodPost, todoPath(id)+"/toggle", nil, &todo)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) SetTodoCompleted(ctx context.Context, id string, completed bool) (*Todo, error) {
	var todo Todo
	err := c.doAuthed(ctx, http.MethodPatch, todoPath(id), map[string]bool{"completed": completed}, &todo)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.doAuthed(ctx, http.MethodDelete, todoPath(id), nil, nil)
}

func todoPath(id string) string {
	return "/api/v1/todos/" + url.PathEscape(id)
}

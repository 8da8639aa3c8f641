package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "0190a6f4-8a5e-7b3c-9d2e-1f4a5b6c7d8e"

func TestListTodos(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	newer := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "completed", "created_at", "updated_at"}).
			AddRow("b", "Buy milk", false, newer, newer).
			AddRow("a", "Walk the dog", true, older, newer))

	todos, err := svc.ListTodos(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "b", todos[0].ID)
	assert.Equal(t, testUserID, todos[0].UserID)
	assert.False(t, todos[0].Completed)
	assert.Equal(t, "Walk the dog", todos[1].Title)
	assert.True(t, todos[1].Completed)
}

func TestListTodos_Empty(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	mock.ExpectQuery("FROM todos").
		WithArgs(testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "completed", "created_at", "updated_at"}))

	todos, err := svc.ListTodos(context.Background(), testUserID)
	require.NoError(t, err)
	assert.NotNil(t, todos)
	assert.Empty(t, todos)
}

func TestListTodos_QueryError(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM todos").
		WithArgs(testUserID).
		WillReturnError(boom)

	_, err := svc.ListTodos(context.Background(), testUserID)
	assert.ErrorIs(t, err, boom)
}

func TestGetTodoStats(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	mock.ExpectQuery("FILTER").
		WithArgs(testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"active", "completed"}).AddRow(3, 2))

	stats, err := svc.GetTodoStats(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Active)
	assert.Equal(t, 2, stats.Completed)
}

func TestCreateTodo(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	mock.ExpectExec("INSERT INTO todos").
		WithArgs(pgxmock.AnyArg(), testUserID, "Buy milk", false, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	todo, err := svc.CreateTodo(context.Background(), CreateTodoParams{
		UserID: testUserID,
		Title:  "   Buy milk \n",
	})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", todo.Title)
	assert.False(t, todo.Completed)
	assert.Equal(t, testUserID, todo.UserID)
	_, err = uuid.Parse(todo.ID)
	assert.NoError(t, err)
	assert.Equal(t, todo.CreatedAt, todo.UpdatedAt)
}

func TestCreateTodo_InvalidTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  error
	}{
		{name: "empty", title: "", want: ErrEmptyTitle},
		{name: "blank", title: " \t\n ", want: ErrEmptyTitle},
		{name: "too long", title: strings.Repeat("x", 256), want: ErrTitleTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := newMockDB(t)
			svc := NewTodoService(zerolog.Nop(), mock)

			_, err := svc.CreateTodo(context.Background(), CreateTodoParams{
				UserID: testUserID,
				Title:  tt.title,
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateTodo_MaxLengthCountsRunes(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	title := strings.Repeat("é", 255)
	mock.ExpectExec("INSERT INTO todos").
		WithArgs(pgxmock.AnyArg(), testUserID, title, false, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	_, err := svc.CreateTodo(context.Background(), CreateTodoParams{
		UserID: testUserID,
		Title:  title,
	})
	assert.NoError(t, err)
}

func TestToggleTodo(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	id := uuid.NewString()
	created := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SET completed = NOT completed").
		WithArgs(pgxmock.AnyArg(), id, testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"title", "completed", "created_at"}).
			AddRow("Buy milk", true, created))

	todo, err := svc.ToggleTodo(context.Background(), ToggleTodoParams{ID: id, UserID: testUserID})
	require.NoError(t, err)
	assert.True(t, todo.Completed)
	assert.Equal(t, "Buy milk", todo.Title)
	assert.Equal(t, created, todo.CreatedAt)
	assert.True(t, todo.UpdatedAt.After(created))
}

func TestToggleTodo_NotFound(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	id := uuid.NewString()
	mock.ExpectQuery("UPDATE todos").
		WithArgs(pgxmock.AnyArg(), id, testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"title", "completed", "created_at"}))

	_, err := svc.ToggleTodo(context.Background(), ToggleTodoParams{ID: id, UserID: testUserID})
	assert.ErrorIs(t, err, ErrTodoNotFound)
}

func TestToggleTodo_MalformedID(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	_, err := svc.ToggleTodo(context.Background(), ToggleTodoParams{ID: "42", UserID: testUserID})
	assert.ErrorIs(t, err, ErrTodoNotFound)
}

func TestSetTodoCompleted(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	id := uuid.NewString()
	mock.ExpectQuery("SET completed = \\$4").
		WithArgs(pgxmock.AnyArg(), id, testUserID, false).
		WillReturnRows(pgxmock.NewRows([]string{"title", "completed", "created_at"}).
			AddRow("Buy milk", false, time.Now()))

	todo, err := svc.SetTodoCompleted(context.Background(), SetTodoCompletedParams{
		ID:        id,
		UserID:    testUserID,
		Completed: false,
	})
	require.NoError(t, err)
	assert.False(t, todo.Completed)
}

func TestDeleteTodo(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	id := uuid.NewString()
	mock.ExpectExec("DELETE FROM todos").
		WithArgs(id, testUserID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := svc.DeleteTodo(context.Background(), DeleteTodoParams{ID: id, UserID: testUserID})
	assert.NoError(t, err)
}

func TestDeleteTodo_OtherUsersTodo(t *testing.T) {
	t.Parallel()

	mock := newMockDB(t)
	svc := NewTodoService(zerolog.Nop(), mock)

	id := uuid.NewString()
	mock.ExpectExec("DELETE FROM todos").
		WithArgs(id, testUserID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := svc.DeleteTodo(context.Background(), DeleteTodoParams{ID: id, UserID: testUserID})
	assert.ErrorIs(t, err, ErrTodoNotFound)
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/todos/internal/models"
)

type todoServiceImpl struct {
	logger zerolog.Logger
	db     DB
}

func NewTodoService(
	logger zerolog.Logger,
	db DB,
) TodoService {
	return &todoServiceImpl{
		logger: logger,
		db:     db,
	}
}

func (s *todoServiceImpl) ListTodos(ctx context.Context, userID string) ([]*models.Todo, error) {
	const selectTodosByUserIDQuery = `
SELECT id,
       title,
       completed,
       created_at,
       updated_at
FROM todos
WHERE user_id = $1
ORDER BY created_at DESC
`
	rows, err := s.db.Query(
		ctx,
		selectTodosByUserIDQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select todos by user id")
		return nil, err
	}
	defer rows.Close()

	todos := make([]*models.Todo, 0)
	for rows.Next() {
		todo := &models.Todo{UserID: userID}
		err = rows.Scan(
			&todo.ID,
			&todo.Title,
			&todo.Completed,
			&todo.CreatedAt,
			&todo.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan todo")
			return nil, err
		}
		todos = append(todos, todo)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(todos)).
		Str("user_id", userID).
		Msg("selected todos by user id")
	return todos, nil
}

func (s *todoServiceImpl) GetTodoStats(ctx context.Context, userID string) (*models.TodoStats, error) {
	const countTodosQuery = `
SELECT count(*) FILTER (WHERE NOT completed),
       count(*) FILTER (WHERE completed)
FROM todos
WHERE user_id = $1
`
	stats := new(models.TodoStats)
	err := s.db.QueryRow(
		ctx,
		countTodosQuery,
		userID,
	).Scan(
		&stats.Active,
		&stats.Completed,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to count todos")
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", userID).
		Int("active", stats.Active).
		Int("completed", stats.Completed).
		Msg("counted todos")
	return stats, nil
}

func (s *todoServiceImpl) CreateTodo(ctx context.Context, params CreateTodoParams) (*models.Todo, error) {
	title, err := normalizeTitle(params.Title)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("invalid todo title")
		return nil, err
	}

	todoUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate todo uuid")
		return nil, err
	}

	now := time.Now()
	todo := &models.Todo{
		ID:        todoUUID.String(),
		UserID:    params.UserID,
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const insertTodoQuery = `
INSERT INTO todos (id,
                   user_id,
                   title,
                   completed,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err = s.db.Exec(
		ctx,
		insertTodoQuery,
		todo.ID,
		todo.UserID,
		todo.Title,
		todo.Completed,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", todo.UserID).
			Msg("failed to insert todo")
		return nil, err
	}

	s.logger.Info().
		Str("todo_id", todo.ID).
		Str("user_id", todo.UserID).
		Msg("created todo")
	return todo, nil
}

func (s *todoServiceImpl) ToggleTodo(ctx context.Context, params ToggleTodoParams) (*models.Todo, error) {
	const toggleTodoQuery = `
UPDATE todos
SET completed = NOT completed,
    updated_at = $1
WHERE id = $2 AND user_id = $3
RETURNING title, completed, created_at
`
	todo, err := s.updateTodo(ctx, params.ID, params.UserID, toggleTodoQuery)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("todo_id", todo.ID).
		Str("user_id", todo.UserID).
		Bool("completed", todo.Completed).
		Msg("toggled todo")
	return todo, nil
}

func (s *todoServiceImpl) SetTodoCompleted(ctx context.Context, params SetTodoCompletedParams) (*models.Todo, error) {
	const setTodoCompletedQuery = `
UPDATE todos
SET completed = $4,
    updated_at = $1
WHERE id = $2 AND user_id = $3
RETURNING title, completed, created_at
`
	todo, err := s.updateTodo(ctx, params.ID, params.UserID, setTodoCompletedQuery, params.Completed)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("todo_id", todo.ID).
		Str("user_id", todo.UserID).
		Bool("completed", todo.Completed).
		Msg("set todo completion")
	return todo, nil
}

// updateTodo runs an UPDATE ... RETURNING query whose first three
// arguments are updated_at, id and user_id.
func (s *todoServiceImpl) updateTodo(ctx context.Context, id, userID, query string, extra ...any) (*models.Todo, error) {
	if !isValidID(id) {
		s.logger.Error().
			Str("todo_id", id).
			Msg("malformed todo id")
		return nil, ErrTodoNotFound
	}

	todo := &models.Todo{
		ID:        id,
		UserID:    userID,
		UpdatedAt: time.Now(),
	}

	args := append([]any{todo.UpdatedAt, todo.ID, todo.UserID}, extra...)
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&todo.Title,
		&todo.Completed,
		&todo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("todo_id", todo.ID).
				Str("user_id", todo.UserID).
				Msg("todo not found")
			return nil, ErrTodoNotFound
		}

		s.logger.Error().
			Err(err).
			Str("todo_id", todo.ID).
			Msg("failed to update todo")
		return nil, err
	}
	s.logger.Debug().
		Str("todo_id", todo.ID).
		Msg("updated todo")
	return todo, nil
}

func (s *todoServiceImpl) DeleteTodo(ctx context.Context, params DeleteTodoParams) error {
	if !isValidID(params.ID) {
		s.logger.Error().
			Str("todo_id", params.ID).
			Msg("malformed todo id")
		return ErrTodoNotFound
	}

	const deleteTodoQuery = `
DELETE FROM todos
WHERE id = $1 AND user_id = $2
`
	tag, err := s.db.Exec(
		ctx,
		deleteTodoQuery,
		params.ID,
		params.UserID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("todo_id", params.ID).
			Msg("failed to delete todo")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("todo_id", params.ID).
			Str("user_id", params.UserID).
			Msg("todo not found")
		return ErrTodoNotFound
	}

	s.logger.Info().
		Str("todo_id", params.ID).
		Str("user_id", params.UserID).
		Msg("deleted todo")
	return nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > models.MaxTodoTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// isValidID reports whether id can be compared against a uuid column.
func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

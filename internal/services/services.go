package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adanyl0v/todos/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrTodoNotFound         = errors.New("todo not found")
	ErrEmptyTitle           = errors.New("todo title is empty")
	ErrTitleTooLong         = errors.New("todo title is too long")
)

// DB is the part of *pgxpool.Pool the services depend on.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email and password.
	//
	// It hashes the password, generates a unique ID and creates a
	// session with the given fingerprint and a fresh JWT token pair.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)

	// GetUser returns the user with the given ID or ErrUserNotFound.
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

// TodoService manages the todos of a single user. Every method filters
// by the user ID, so a todo owned by someone else is reported as
// ErrTodoNotFound.
type TodoService interface {
	// ListTodos returns the user's todos, newest first.
	ListTodos(ctx context.Context, userID string) ([]*models.Todo, error)
	GetTodoStats(ctx context.Context, userID string) (*models.TodoStats, error)
	// CreateTodo trims the title and rejects it with ErrEmptyTitle
	// or ErrTitleTooLong.
	CreateTodo(ctx context.Context, params CreateTodoParams) (*models.Todo, error)
	ToggleTodo(ctx context.Context, params ToggleTodoParams) (*models.Todo, error)
	SetTodoCompleted(ctx context.Context, params SetTodoCompletedParams) (*models.Todo, error)
	DeleteTodo(ctx context.Context, params DeleteTodoParams) error
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateTodoParams struct {
	UserID string
	Title  string
}

type ToggleTodoParams struct {
	ID     string
	UserID string
}

type SetTodoCompletedParams struct {
	ID        string
	UserID    string
	Completed bool
}

type DeleteTodoParams struct {
	ID     string
	UserID string
}

package v1

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"

	"github.com/adanyl0v/todos/internal/models"
	"github.com/adanyl0v/todos/internal/services"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Login(ctx context.Context, params services.LoginParams) (*services.LoginResult, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*services.LoginResult)
	return result, args.Error(1)
}

func (m *mockAuthService) Refresh(ctx context.Context, params services.RefreshParams) (*services.LoginResult, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*services.LoginResult)
	return result, args.Error(1)
}

func (m *mockAuthService) Register(ctx context.Context, params services.LoginParams) (*services.LoginResult, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*services.LoginResult)
	return result, args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockAuthService) ParseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*jwt.RegisteredClaims)
	return claims, args.Error(1)
}

func (m *mockAuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type mockSessionService struct {
	mock.Mock
}

func (m *mockSessionService) GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

type mockTodoService struct {
	mock.Mock
}

func (m *mockTodoService) ListTodos(ctx context.Context, userID string) ([]*models.Todo, error) {
	args := m.Called(ctx, userID)
	todos, _ := args.Get(0).([]*models.Todo)
	return todos, args.Error(1)
}

func (m *mockTodoService) GetTodoStats(ctx context.Context, userID string) (*models.TodoStats, error) {
	args := m.Called(ctx, userID)
	stats, _ := args.Get(0).(*models.TodoStats)
	return stats, args.Error(1)
}

func (m *mockTodoService) CreateTodo(ctx context.Context, params services.CreateTodoParams) (*models.Todo, error) {
	args := m.Called(ctx, params)
	todo, _ := args.Get(0).(*models.Todo)
	return todo, args.Error(1)
}

func (m *mockTodoService) ToggleTodo(ctx context.Context, params services.ToggleTodoParams) (*models.Todo, error) {
	args := m.Called(ctx, params)
	todo, _ := args.Get(0).(*models.Todo)
	return todo, args.Error(1)
}

func (m *mockTodoService) SetTodoCompleted(ctx context.Context, params services.SetTodoCompletedParams) (*models.Todo, error) {
	args := m.Called(ctx, params)
	todo, _ := args.Get(0).(*models.Todo)
	return todo, args.Error(1)
}

func (m *mockTodoService) DeleteTodo(ctx context.Context, params services.DeleteTodoParams) error {
	return m.Called(ctx, params).Error(0)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/todos/internal/events"
	"github.com/adanyl0v/todos/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleGetSession(c *gin.Context)
	HandleGetUser(c *gin.Context)
	HandleAuthEvents(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleListTodos(c *gin.Context)
	HandleGetTodoStats(c *gin.Context)
	HandleCreateTodo(c *gin.Context)
	HandleSetTodoCompleted(c *gin.Context)
	HandleToggleTodo(c *gin.Context)
	HandleDeleteTodo(c *gin.Context)

	HandleHealth(c *gin.Context)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type handlerImpl struct {
	logger        zerolog.Logger
	pinger        Pinger
	broker        events.Broker
	auth          services.AuthService
	sessions      services.SessionService
	todos         services.TodoService
	secureCookies bool
}

func New(
	logger zerolog.Logger,
	pinger Pinger,
	broker events.Broker,
	authService services.AuthService,
	sessionService services.SessionService,
	todoService services.TodoService,
	secureCookies bool,
) Handler {
	return &handlerImpl{
		logger:        logger,
		pinger:        pinger,
		broker:        broker,
		auth:          authService,
		sessions:      sessionService,
		todos:         todoService,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes mounts the v1 API on router.
func RegisterRoutes(router gin.IRouter, h Handler, authLimiter *RateLimiter) {
	router.GET("/healthz", h.HandleHealth)

	api := router.Group("/api/v1")

	authRouter := api.Group("/auth")
	limited := authRouter.Group("", authLimiter.Middleware)
	limited.POST("/login", h.HandleLogin)
	limited.POST("/refresh", h.HandleRefresh)
	limited.POST("/register", h.HandleRegister)
	authRouter.POST("/logout", h.HandleAuthMiddleware, h.HandleLogout)
	authRouter.GET("/session", h.HandleAuthMiddleware, h.HandleGetSession)
	authRouter.GET("/user", h.HandleAuthMiddleware, h.HandleGetUser)
	authRouter.GET("/events", h.HandleAuthMiddleware, h.HandleAuthEvents)

	todosRouter := api.Group("/todos", h.HandleAuthMiddleware)
	todosRouter.GET("", h.HandleListTodos)
	todosRouter.GET("/stats", h.HandleGetTodoStats)
	todosRouter.POST("", h.HandleCreateTodo)
	todosRouter.PATCH("/:id", h.HandleSetTodoCompleted)
	todosRouter.POST("/:id/toggle", h.HandleToggleTodo)
	todosRouter.DELETE("/:id", h.HandleDeleteTodo)
}

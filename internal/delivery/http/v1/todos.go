package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/todos/internal/models"
	"github.com/adanyl0v/todos/internal/services"
)

type todoResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newTodoResponse(todo *models.Todo) todoResponse {
	return todoResponse{
		ID:        todo.ID,
		UserID:    todo.UserID,
		Title:     todo.Title,
		Completed: todo.Completed,
		CreatedAt: todo.CreatedAt,
		UpdatedAt: todo.UpdatedAt,
	}
}

type todoStatsResponse struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type createTodoRequest struct {
	Title string `json:"title" binding:"required"`
}

type setTodoCompletedRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

func (h *handlerImpl) HandleListTodos(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	todos, err := h.todos.ListTodos(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list todos")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]todoResponse, len(todos))
	for i, todo := range todos {
		response[i] = newTodoResponse(todo)
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTodoStats(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	stats, err := h.todos.GetTodoStats(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get todo stats")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, todoStatsResponse{
		Active:    stats.Active,
		Completed: stats.Completed,
		Total:     stats.Active + stats.Completed,
	})
}

func (h *handlerImpl) HandleCreateTodo(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req createTodoRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	todo, err := h.todos.CreateTodo(c, services.CreateTodoParams{
		UserID: userID,
		Title:  req.Title,
	})
	if err != nil {
		h.abortTodoError(c, err, "failed to create todo")
		return
	}

	c.JSON(http.StatusCreated, newTodoResponse(todo))
}

func (h *handlerImpl) HandleSetTodoCompleted(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req setTodoCompletedRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	todo, err := h.todos.SetTodoCompleted(c, services.SetTodoCompletedParams{
		ID:        c.Param("id"),
		UserID:    userID,
		Completed: *req.Completed,
	})
	if err != nil {
		h.abortTodoError(c, err, "failed to set todo completion")
		return
	}

	c.JSON(http.StatusOK, newTodoResponse(todo))
}

func (h *handlerImpl) HandleToggleTodo(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	todo, err := h.todos.ToggleTodo(c, services.ToggleTodoParams{
		ID:     c.Param("id"),
		UserID: userID,
	})
	if err != nil {
		h.abortTodoError(c, err, "failed to toggle todo")
		return
	}

	c.JSON(http.StatusOK, newTodoResponse(todo))
}

func (h *handlerImpl) HandleDeleteTodo(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	err := h.todos.DeleteTodo(c, services.DeleteTodoParams{
		ID:     c.Param("id"),
		UserID: userID,
	})
	if err != nil {
		h.abortTodoError(c, err, "failed to delete todo")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) userID(c *gin.Context) (string, bool) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok || userID == "" {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return "", false
	}
	return userID, true
}

func (h *handlerImpl) abortTodoError(c *gin.Context, err error, msg string) {
	h.logger.Error().
		Err(err).
		Str("todo_id", c.Param("id")).
		Msg(msg)
	switch {
	case errors.Is(err, services.ErrTodoNotFound):
		abort(c, newNotFoundError(services.ErrTodoNotFound.Error()))
	case errors.Is(err, services.ErrEmptyTitle):
		abort(c, newBadRequestError(services.ErrEmptyTitle.Error()))
	case errors.Is(err, services.ErrTitleTooLong):
		abort(c, newBadRequestError(services.ErrTitleTooLong.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}

package client

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/todos/internal/models"
)

const (
	testEmail    = "jane@example.com"
	testPassword = "secret123"
	testUserID   = "user-1"
)

// fakeAPI is an in-memory stand-in for the todos HTTP API.
type fakeAPI struct {
	mu            sync.Mutex
	accessTTL     time.Duration
	issued        int
	sessionID     string
	accessTokens  map[string]bool
	refreshTokens map[string]bool
	todos         []Todo
	calls         map[string]int
	userAgents    []string
	events        chan models.AuthEvent
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &fakeAPI{
		accessTTL:     15 * time.Minute,
		accessTokens:  make(map[string]bool),
		refreshTokens: make(map[string]bool),
		todos:         []Todo{},
		calls:         make(map[string]int),
		events:        make(chan models.AuthEvent, 8),
	}

	router := gin.New()
	router.Use(api.record)
	auth := router.Group("/api/v1/auth")
	auth.POST("/login", api.handleSignIn(http.StatusOK))
	auth.POST("/register", api.handleSignIn(http.StatusCreated))
	auth.POST("/refresh", api.handleRefresh)

	authed := router.Group("/api/v1", api.authenticate)
	authed.POST("/auth/logout", api.handleLogout)
	authed.GET("/auth/user", func(c *gin.Context) {
		c.JSON(http.StatusOK, User{ID: testUserID, Email: testEmail})
	})
	authed.GET("/auth/events", api.handleEvents)
	authed.GET("/todos", api.handleListTodos)
	authed.POST("/todos", api.handleCreateTodo)
	authed.POST("/todos/:id/toggle", api.handleToggleTodo)
	authed.PATCH("/todos/:id", api.handleSetTodoCompleted)
	authed.DELETE("/todos/:id", api.handleDeleteTodo)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return api, server
}

func (f *fakeAPI) record(c *gin.Context) {
	f.mu.Lock()
	f.calls[c.Request.Method+" "+c.FullPath()]++
	f.userAgents = append(f.userAgents, c.Request.UserAgent())
	f.mu.Unlock()
	c.Next()
}

func (f *fakeAPI) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeAPI) setAccessTTL(ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessTTL = ttl
}

func (f *fakeAPI) recordedUserAgents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.userAgents...)
}

// revokeAccessTokens makes every issued access token look expired.
func (f *fakeAPI) revokeAccessTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessTokens = make(map[string]bool)
}

func (f *fakeAPI) revokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessTokens = make(map[string]bool)
	f.refreshTokens = make(map[string]bool)
}

// issue must be called with f.mu held.
func (f *fakeAPI) issue() gin.H {
	f.issued++
	if f.sessionID == "" {
		f.sessionID = fmt.Sprintf("session-%d", f.issued)
	}
	access := fmt.Sprintf("access-%d", f.issued)
	refresh := fmt.Sprintf("refresh-%d", f.issued)
	f.accessTokens[access] = true
	f.refreshTokens[refresh] = true

	now := time.Now()
	return gin.H{
		"user_id":                  testUserID,
		"session_id":               f.sessionID,
		"access_token":             access,
		"access_token_expires_at":  now.Add(f.accessTTL),
		"refresh_token":            refresh,
		"refresh_token_expires_at": now.Add(24 * time.Hour),
	}
}

func (f *fakeAPI) handleSignIn(status int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.Email != testEmail || req.Password != testPassword {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		f.sessionID = ""
		c.JSON(status, f.issue())
	}
}

func (f *fakeAPI) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.refreshTokens[req.RefreshToken] {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session not found"})
		return
	}
	delete(f.refreshTokens, req.RefreshToken)
	c.JSON(http.StatusOK, f.issue())
}

func (f *fakeAPI) authenticate(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	f.mu.Lock()
	ok := f.accessTokens[token]
	f.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
		return
	}
	c.Next()
}

func (f *fakeAPI) handleLogout(c *gin.Context) {
	f.revokeAll()
	c.Status(http.StatusNoContent)
}

func (f *fakeAPI) handleEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	f.mu.Lock()
	sessionID := f.sessionID
	f.mu.Unlock()
	c.SSEvent("ready", gin.H{"session_id": sessionID})
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event := <-f.events:
			c.SSEvent("auth", event)
			c.Writer.Flush()
		}
	}
}

func (f *fakeAPI) handleListTodos(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusOK, f.todos)
}

func (f *fakeAPI) handleCreateTodo(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	todo := Todo{
		ID:        fmt.Sprintf("todo-%d", len(f.todos)+1),
		UserID:    testUserID,
		Title:     req.Title,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.todos = append([]Todo{todo}, f.todos...)
	c.JSON(http.StatusCreated, todo)
}

// findTodo must be called with f.mu held.
func (f *fakeAPI) findTodo(c *gin.Context) *Todo {
	for i := range f.todos {
		if f.todos[i].ID == c.Param("id") {
			return &f.todos[i]
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
	return nil
}

func (f *fakeAPI) handleToggleTodo(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	todo := f.findTodo(c)
	if todo == nil {
		return
	}
	todo.Completed = !todo.Completed
	c.JSON(http.StatusOK, todo)
}

func (f *fakeAPI) handleSetTodoCompleted(c *gin.Context) {
	var req struct {
		Completed *bool `json:"completed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Completed == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	todo := f.findTodo(c)
	if todo == nil {
		return
	}
	todo.Completed = *req.Completed
	c.JSON(http.StatusOK, todo)
}

func (f *fakeAPI) handleDeleteTodo(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.todos {
		if f.todos[i].ID == c.Param("id") {
			f.todos = append(f.todos[:i], f.todos[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
}

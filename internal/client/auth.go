package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/adanyl0v/todos/internal/models"
)

// AuthChangeFunc is called with a copy of the session, nil once signed out.
type AuthChangeFunc func(event models.AuthEventType, session *Session)

type Subscription struct {
	once        sync.Once
	unsubscribe func()
}

func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.unsubscribe)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	UserID                string    `json:"user_id"`
	SessionID             string    `json:"session_id"`
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

func (r *tokenResponse) session() *Session {
	return &Session{
		UserID:                r.UserID,
		SessionID:             r.SessionID,
		AccessToken:           r.AccessToken,
		AccessTokenExpiresAt:  r.AccessTokenExpiresAt,
		RefreshToken:          r.RefreshToken,
		RefreshTokenExpiresAt: r.RefreshTokenExpiresAt,
	}
}

// OnAuthStateChange registers fn for SIGNED_IN, SIGNED_OUT,
// TOKEN_REFRESHED and USER_UPDATED events.
func (c *Client) OnAuthStateChange(fn AuthChangeFunc) *Subscription {
	c.listenersMu.Lock()
	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	return &Subscription{
		unsubscribe: func() {
			c.listenersMu.Lock()
			delete(c.listeners, id)
			c.listenersMu.Unlock()
		},
	}
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.signIn(ctx, "/api/v1/auth/register", email, password)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.signIn(ctx, "/api/v1/auth/login", email, password)
}

func (c *Client) signIn(ctx context.Context, path, email, password string) (*Session, error) {
	var tokens tokenResponse
	err := c.send(ctx, http.MethodPost, path, "", credentialsRequest{
		Email:    email,
		Password: password,
	}, &tokens)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to sign in")
		return nil, err
	}

	session := tokens.session()
	err = c.setSession(session)
	if err != nil {
		return nil, err
	}
	c.logger.Info().
		Str("user_id", session.UserID).
		Str("session_id", session.SessionID).
		Msg("signed in")

	c.notify(models.AuthEventSignedIn, session)
	return session.clone(), nil
}

// SignOut revokes the session on the server and forgets it locally.
// The local session is dropped even when the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	remoteErr := c.doAuthed(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	if errors.Is(remoteErr, ErrNotSignedIn) || IsStatus(remoteErr, http.StatusUnauthorized) {
		remoteErr = nil
	}
	if remoteErr != nil {
		c.logger.Error().
			Err(remoteErr).
			Msg("failed to sign out on the server")
	}

	err := c.dropSession()
	if err != nil {
		return err
	}
	return remoteErr
}

// GetSession returns the current session, refreshing it first when the
// access token has expired. It returns nil, nil when signed out.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	session, err := c.loadSession()
	if err != nil || session == nil {
		return nil, err
	}
	if !session.Expired(time.Now()) {
		return session.clone(), nil
	}

	session, err = c.refresh(ctx, session.AccessToken)
	if errors.Is(err, ErrNotSignedIn) {
		return nil, nil
	}
	return session, err
}

// RefreshSession rotates the token pair regardless of expiry.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	session, err := c.loadSession()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotSignedIn
	}
	return c.refresh(ctx, session.AccessToken)
}

func (c *Client) GetUser(ctx context.Context) (*User, error) {
	var user User
	err := c.doAuthed(ctx, http.MethodGet, "/api/v1/auth/user", nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetRemoteSession asks the server whether the session is still alive.
func (c *Client) GetRemoteSession(ctx context.Context) (*RemoteSession, error) {
	var session RemoteSession
	err := c.doAuthed(ctx, http.MethodGet, "/api/v1/auth/session", nil, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// refresh rotates the token pair unless another caller already replaced
// the session whose access token is stale.
func (c *Client) refresh(ctx context.Context, stale string) (*Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	session, err := c.loadSession()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotSignedIn
	}
	if session.AccessToken != stale {
		return session.clone(), nil
	}
	if !session.CanRefresh(time.Now()) {
		c.logger.Info().Msg("session cannot be refreshed")
		err = c.dropSession()
		if err != nil {
			return nil, err
		}
		return nil, ErrNotSignedIn
	}

	var tokens tokenResponse
	err = c.send(ctx, http.MethodPost, "/api/v1/auth/refresh", "", refreshRequest{
		RefreshToken: session.RefreshToken,
	}, &tokens)
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			c.logger.Info().
				Str("session_id", session.SessionID).
				Msg("session revoked")
			dropErr := c.dropSession()
			if dropErr != nil {
				return nil, dropErr
			}
			return nil, ErrNotSignedIn
		}
		c.logger.Error().
			Err(err).
			Msg("failed to refresh session")
		return nil, err
	}

	session = tokens.session()
	err = c.setSession(session)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("session_id", session.SessionID).
		Time("expires_at", session.AccessTokenExpiresAt).
		Msg("refreshed session")

	c.notify(models.AuthEventTokenRefreshed, session)
	return session.clone(), nil
}

// loadSession returns the cached session, reading the store on first use.
func (c *Client) loadSession() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session.clone(), nil
	}

	session, err := c.store.Load()
	if err != nil {
		c.logger.Error().
			Err(err).
			Msg("failed to load session")
		return nil, err
	}
	c.session = session
	return session.clone(), nil
}

func (c *Client) setSession(session *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.store.Save(session)
	if err != nil {
		c.logger.Error().
			Err(err).
			Msg("failed to save session")
		return err
	}
	c.session = session.clone()
	return nil
}

// dropSession forgets the session and emits SIGNED_OUT if there was one.
func (c *Client) dropSession() error {
	c.mu.Lock()
	had := c.session != nil
	c.session = nil
	err := c.store.Delete()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error().
			Err(err).
			Msg("failed to delete session")
		return err
	}
	if had {
		c.logger.Info().Msg("signed out")
		c.notify(models.AuthEventSignedOut, nil)
	}
	return nil
}

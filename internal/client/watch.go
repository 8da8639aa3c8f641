package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/adanyl0v/todos/internal/models"
)

const maxWatchInterval = 30 * time.Second

type sseEvent struct {
	name string
	data string
}

// WatchRemote follows the server's auth event stream until ctx is done or
// the session is revoked. A SIGNED_IN for another session or a SIGNED_OUT
// drops the local session. Dropped connections are retried with backoff.
func (c *Client) WatchRemote(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = maxWatchInterval
	b.MaxElapsedTime = 0

	operation := func() error {
		err := c.watchOnce(ctx, b.Reset)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrNotSignedIn), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return backoff.Permanent(err)
		}
		c.logger.Warn().
			Err(err).
			Msg("auth event stream interrupted")
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	if ctx.Err() != nil {
		return nil
	}
	if errors.Is(err, ErrNotSignedIn) {
		return nil
	}
	return err
}

// watchOnce reads one stream connection. connected is called once the
// server confirms the subscription.
func (c *Client) watchOnce(ctx context.Context, connected func()) error {
	session, err := c.GetSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotSignedIn
	}

	resp, err := c.openStream(ctx, session.AccessToken)
	if IsStatus(err, http.StatusUnauthorized) {
		session, err = c.refresh(ctx, session.AccessToken)
		if err != nil {
			return err
		}
		resp, err = c.openStream(ctx, session.AccessToken)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	for {
		event, err := readSSEEvent(reader)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read auth events: %w", err)
		}

		switch event.name {
		case "ready":
			connected()
			c.logger.Debug().
				Str("session_id", session.SessionID).
				Msg("watching auth events")
		case "auth":
			var authEvent models.AuthEvent
			err = json.Unmarshal([]byte(event.data), &authEvent)
			if err != nil {
				c.logger.Error().
					Err(err).
					Msg("failed to decode auth event")
				continue
			}
			revoked, err := c.handleRemoteEvent(authEvent)
			if err != nil {
				return err
			}
			if revoked {
				return ErrNotSignedIn
			}
		}
	}
}

func (c *Client) openStream(ctx context.Context, accessToken string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/auth/events", accessToken, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives any request timeout, so only ctx bounds it.
	streamClient := *c.httpClient
	streamClient.Timeout = 0

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

// handleRemoteEvent reports whether the event revoked the local session.
func (c *Client) handleRemoteEvent(event models.AuthEvent) (bool, error) {
	session, err := c.loadSession()
	if err != nil {
		return false, err
	}
	if session == nil {
		return true, nil
	}

	c.logger.Debug().
		Str("type", string(event.Type)).
		Str("session_id", event.SessionID).
		Msg("received auth event")

	switch event.Type {
	case models.AuthEventSignedOut:
		return true, c.dropSession()
	case models.AuthEventSignedIn:
		if event.SessionID == session.SessionID {
			return false, nil
		}
		c.logger.Info().
			Str("session_id", session.SessionID).
			Msg("signed in elsewhere, session revoked")
		return true, c.dropSession()
	case models.AuthEventUserUpdated:
		c.notify(models.AuthEventUserUpdated, session)
	}
	return false, nil
}

// readSSEEvent reads lines up to the next blank line. Comments and
// unknown fields are skipped.
func readSSEEvent(r *bufio.Reader) (sseEvent, error) {
	var (
		event sseEvent
		data  []string
	)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return sseEvent{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if event.name == "" && len(data) == 0 {
				continue
			}
			event.data = strings.Join(data, "\n")
			return event, nil
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event.name = value
		case "data":
			data = append(data, value)
		}
	}
}

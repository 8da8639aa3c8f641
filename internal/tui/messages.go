package tui

import (
	"github.com/adanyl0v/todos/internal/client"
	"github.com/adanyl0v/todos/internal/models"
)

type sessionLoadedMsg struct {
	session *client.Session
	err     error
}

type authDoneMsg struct {
	session *client.Session
	err     error
}

type authChangedMsg struct {
	event   models.AuthEventType
	session *client.Session
}

type signedOutMsg struct {
	err error
}

type todosLoadedMsg struct {
	todos []client.Todo
	err   error
}

type todoCreatedMsg struct {
	todo *client.Todo
	err  error
}

type todoUpdatedMsg struct {
	todo *client.Todo
	err  error
}

type todoDeletedMsg struct {
	id  string
	err error
}

type watchEndedMsg struct {
	err error
}

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Close      key.Binding
	Submit     key.Binding
	NextField  key.Binding
	SwitchMode key.Binding
	Add        key.Binding
	Cancel     key.Binding
	Toggle     key.Binding
	Delete     key.Binding
	SignOut    key.Binding
	Reload     key.Binding
}

var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Close:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	NextField:  key.NewBinding(key.WithKeys("tab", "shift+tab", "up", "down"), key.WithHelp("tab", "next field")),
	SwitchMode: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "sign in / sign up")),
	Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	SignOut:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "sign out")),
	Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
}

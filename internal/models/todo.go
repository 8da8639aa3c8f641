package models

import "time"

const MaxTodoTitleLength = 255

type Todo struct {
	ID        string
	UserID    string
	Title     string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TodoStats struct {
	Active    int
	Completed int
}

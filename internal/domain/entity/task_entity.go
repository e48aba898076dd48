package entity

import "time"

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          string
	Description string
	Completed   bool
	Owner       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package handlers

import (
	"time"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

// userView is the public shape of a user; secrets and avatar bytes never leave the server.
type userView struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserView(u *entity.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type taskView struct {
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTaskView(t *entity.Task) taskView {
	return taskView{
		ID:          t.ID,
		Description: t.Description,
		Completed:   t.Completed,
		Owner:       t.Owner,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskViews(tasks []*entity.Task) []taskView {
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskView(t))
	}
	return out
}

type authResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

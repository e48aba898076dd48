package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-task-manager/internal/interface/http"
)

// TaskModule wires the owner-scoped task routes; all of them require a session.
type TaskModule struct {
	Handler   *handlers.TaskHandler
	Auth      gin.HandlerFunc
	Protected gin.HandlerFunc
}

func NewTaskModule(h *handlers.TaskHandler, auth, protected gin.HandlerFunc) *TaskModule {
	return &TaskModule{Handler: h, Auth: auth, Protected: protected}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks")
	tasks.Use(m.Protected, m.Auth)
	{
		tasks.POST("", m.Handler.Create)
		tasks.GET("", m.Handler.List)
		tasks.GET("/search", m.Handler.Search)
		tasks.GET("/:id", m.Handler.Get)
		tasks.PATCH("/:id", m.Handler.Update)
		tasks.DELETE("/:id", m.Handler.Delete)
	}
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/pkg/response"
)

type TaskHandler struct {
	Svc    *application.TaskService
	Logger logrus.FieldLogger
}

func NewTaskHandler(svc *application.TaskService, logger logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{Svc: svc, Logger: logger}
}

func (h *TaskHandler) Create(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	var in application.TaskInput
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	t, err := h.Svc.Create(c.Request.Context(), s.User.ID, in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusCreated, toTaskView(t))
}

// List handles GET /tasks?completed=&sortBy=field:desc&limit=&skip=
func (h *TaskHandler) List(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	q := application.ParseTaskQuery(c.Query("completed"), c.Query("sortBy"), c.Query("limit"), c.Query("skip"))
	tasks, err := h.Svc.List(c.Request.Context(), s.User.ID, q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, toTaskViews(tasks))
}

// Search handles GET /tasks/search?q=&limit=
func (h *TaskHandler) Search(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	tasks, err := h.Svc.Search(c.Request.Context(), s.User.ID, c.Query("q"), limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, toTaskViews(tasks))
}

func (h *TaskHandler) Get(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	t, err := h.Svc.Get(c.Request.Context(), s.User.ID, c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, toTaskView(t))
}

func (h *TaskHandler) Update(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	var patch application.Patch
	if err := bindJSON(c, &patch); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	t, err := h.Svc.Update(c.Request.Context(), s.User.ID, c.Param("id"), patch)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, toTaskView(t))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	t, err := h.Svc.Delete(c.Request.Context(), s.User.ID, c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, toTaskView(t))
}

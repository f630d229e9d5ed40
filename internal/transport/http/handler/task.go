package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-tasks/internal/domain"
	"go-gin-tasks/internal/service"
	"go-gin-tasks/internal/transport/http/ez"
	mdw "go-gin-tasks/internal/transport/http/middleware"
	resp "go-gin-tasks/internal/transport/http/response"
)

const msgTaskNotFound = "Task not found"

type TaskHandler struct {
	svc *service.TaskService
	log *zap.Logger
}

func NewTaskHandler(svc *service.TaskService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, log: log}
}

type listQ struct {
	Q      string `form:"q"`
	Status string `form:"status"`
}

type taskIn struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (in *taskIn) input() service.TaskInput {
	return service.TaskInput{Title: in.Title, Description: in.Description, Status: in.Status}
}

type taskOut struct {
	Task *domain.Task `json:"task"`
}

type tasksOut struct {
	Tasks []domain.Task `json:"tasks"`
}

func (h *TaskHandler) MountAPI(_, protected *gin.RouterGroup) {
	e := ez.New(protected, h.log)

	ez.Register(e, ez.Action[listQ, tasksOut]{
		Method: http.MethodGet,
		Path:   "/tasks",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *listQ) (tasksOut, error) {
			ts, err := h.svc.List(c.Request.Context(), mdw.UserID(c), in.Status, in.Q)
			return tasksOut{Tasks: ts}, err
		},
	})

	ez.Register(e, ez.Action[taskIn, taskOut]{
		Method: http.MethodPost,
		Path:   "/tasks",
		Binder: ez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *taskIn) (taskOut, error) {
			t, err := h.svc.Create(c.Request.Context(), mdw.UserID(c), in.input())
			return taskOut{Task: t}, err
		},
	})

	ez.Register(e, ez.Action[taskIn, taskOut]{
		Method:   http.MethodPut,
		Path:     "/tasks/:id",
		Binder:   ez.BindJSON,
		Auth:     true,
		NotFound: msgTaskNotFound,
		Handler: func(c *gin.Context, in *taskIn) (taskOut, error) {
			t, err := h.svc.Update(c.Request.Context(), mdw.UserID(c), c.Param("id"), in.input())
			return taskOut{Task: t}, err
		},
	})

	ez.Register(e, ez.Action[struct{}, resp.Message]{
		Method:   http.MethodDelete,
		Path:     "/tasks/:id",
		Binder:   ez.BindNone,
		Auth:     true,
		NotFound: msgTaskNotFound,
		Handler: func(c *gin.Context, _ *struct{}) (resp.Message, error) {
			if err := h.svc.Delete(c.Request.Context(), mdw.UserID(c), c.Param("id")); err != nil {
				return resp.Message{}, err
			}
			return resp.Msg("Task deleted"), nil
		},
	})
}

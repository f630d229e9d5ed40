package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-tasks/internal/domain"
	"go-gin-tasks/internal/service"
	"go-gin-tasks/internal/transport/http/ez"
	mdw "go-gin-tasks/internal/transport/http/middleware"
)

type ProfileHandler struct {
	svc *service.ProfileService
	log *zap.Logger
}

func NewProfileHandler(svc *service.ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

type profileIn struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

type userOut struct {
	User *domain.Profile `json:"user"`
}

func (h *ProfileHandler) MountAPI(_, protected *gin.RouterGroup) {
	e := ez.New(protected, h.log)

	ez.Register(e, ez.Action[struct{}, userOut]{
		Method:   http.MethodGet,
		Path:     "/profile",
		Binder:   ez.BindNone,
		Auth:     true,
		NotFound: "User not found",
		Handler: func(c *gin.Context, _ *struct{}) (userOut, error) {
			p, err := h.svc.Get(c.Request.Context(), mdw.UserID(c))
			return userOut{User: p}, err
		},
	})

	ez.Register(e, ez.Action[profileIn, userOut]{
		Method:   http.MethodPut,
		Path:     "/profile",
		Binder:   ez.BindJSON,
		Auth:     true,
		NotFound: "User not found",
		Handler: func(c *gin.Context, in *profileIn) (userOut, error) {
			p, err := h.svc.Update(c.Request.Context(), mdw.UserID(c), service.ProfileUpdate{Name: in.Name, Bio: in.Bio})
			return userOut{User: p}, err
		},
	})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-tasks/internal/service"
	"go-gin-tasks/internal/transport/http/ez"
	resp "go-gin-tasks/internal/transport/http/response"
	"go-gin-tasks/internal/transport/http/session"
)

type AuthHandler struct {
	svc      *service.AuthService
	sessions session.Transport
	log      *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, sessions session.Transport, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, sessions: sessions, log: log}
}

func (h *AuthHandler) Priority() int { return 10 }

type signupIn struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MountAPI 注册 /auth/*，三个接口都不经过 Gate
func (h *AuthHandler) MountAPI(public, _ *gin.RouterGroup) {
	e := ez.New(public, h.log)

	ez.Register(e, ez.Action[signupIn, *service.Session]{
		Method: http.MethodPost,
		Path:   "/auth/signup",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *signupIn) (*service.Session, error) {
			sess, err := h.svc.Register(c.Request.Context(), service.Registration{
				Name: in.Name, Email: in.Email, Password: in.Password,
			})
			if err != nil {
				return nil, err
			}
			h.sessions.Attach(c.Writer, sess.Token)
			return sess, nil
		},
	})

	ez.Register(e, ez.Action[loginIn, *service.Session]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (*service.Session, error) {
			sess, err := h.svc.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return nil, err
			}
			h.sessions.Attach(c.Writer, sess.Token)
			return sess, nil
		},
	})

	ez.Register(e, ez.Action[struct{}, resp.Message]{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (resp.Message, error) {
			h.sessions.Clear(c.Writer)
			return resp.Msg("Logged out"), nil
		},
	})
}

package ez

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"go-gin-tasks/internal/domain"
	mdw "go-gin-tasks/internal/transport/http/middleware"
	resp "go-gin-tasks/internal/transport/http/response"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// 统一错误对象
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: http.StatusUnauthorized, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: http.StatusNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method   string // "GET" | "POST" | "PUT" | "DELETE"
	Path     string // 例："/auth/login"、"/tasks/:id"
	Binder   Binder
	Auth     bool   // 是否要求登录（检查 userId）
	Status   int    // 成功状态码，默认 200
	NotFound string // domain.ErrNotFound 对应的消息
	Handler  func(c *gin.Context, in *I) (O, error)
}

// EZ 在一个路由分组上注册 Action
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, log *zap.Logger) EZ {
	if log == nil {
		log = zap.NewNop()
	}
	return EZ{g: g, log: log}
}

func Register[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		// 1) 鉴权：分组已挂 Gate，这里再确认
		if a.Auth && mdw.UserID(c) == "" {
			e.fail(c, a.NotFound, Unauthorized(resp.MsgUnauthorized))
			return
		}

		// 2) 绑定入参
		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			e.fail(c, a.NotFound, err)
			return
		}

		// 3) 执行
		out, err := a.Handler(c, &in)
		if err != nil {
			e.fail(c, a.NotFound, err)
			return
		}
		c.JSON(status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

func bind(c *gin.Context, b Binder, in any) error {
	var err error
	switch b {
	case BindJSON:
		err = bindObject(c, in)
	case BindQuery:
		err = c.ShouldBindQuery(in)
	default:
		return nil
	}
	if err == nil {
		return nil
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return BadRequest(resp.MsgBodyTooLarge)
	}
	if b == BindJSON || errors.Is(err, io.EOF) {
		return BadRequest(resp.MsgInvalidJSON)
	}
	return BadRequest(resp.MsgBadRequest)
}

var errNotObject = errors.New("json body is not an object")

// bindObject 只接受 JSON 对象；null、数组、标量一律视为非法请求体
func bindObject(c *gin.Context, in any) error {
	if c.Request.Body == nil {
		return errNotObject
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}
	if t := bytes.TrimSpace(body); len(t) == 0 || t[0] != '{' {
		return errNotObject
	}
	return binding.JSON.BindBody(body, in)
}

// Status maps an error returned by a handler to its HTTP status and client
// message. notFound is the message used for domain.ErrNotFound.
func Status(err error, notFound string) (int, string) {
	var ae *AErr
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ae):
		if ae.Code >= http.StatusInternalServerError {
			return ae.Code, resp.Error(ae.Code, "").Message
		}
		return ae.Code, ae.Error()
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Msg
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "Email already registered"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrNotFound):
		if notFound == "" {
			notFound = resp.MsgNotFound
		}
		return http.StatusNotFound, notFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, resp.MsgUnavailable
	}
	return http.StatusInternalServerError, resp.MsgServerError
}

func (e EZ) fail(c *gin.Context, notFound string, err error) {
	code, msg := Status(err, notFound)
	if code >= http.StatusInternalServerError {
		e.log.Error("request failed",
			zap.String("rid", mdw.RequestIDFrom(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", code),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(code, resp.Error(code, msg))
}

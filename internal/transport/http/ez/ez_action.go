package ez

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-auth-service/internal/domain"
	resp "go-gin-auth-service/internal/transport/http/response"
)

type EZ struct {
	g       *gin.RouterGroup
	verbose bool
}

// New verbose=true 时 500 响应带 error 字段（非生产环境）
func New(g *gin.RouterGroup, verbose bool) EZ { return EZ{g: g, verbose: verbose} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none"
)

// AErr 传输层错误（绑定失败等），业务错误用 domain.Error
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

func BadRequest(msg string, err error) error {
	return &AErr{Code: http.StatusBadRequest, Msg: msg, Err: err}
}

// StatusOf domain 错误类别 → HTTP 状态
func StatusOf(err error) int {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae.Code
	}
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Fail 统一错误输出：4xx 只给 message，500 给 "Server error"（+可选 error）
func Fail(c *gin.Context, err error, verbose bool) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, resp.ServerError(err, verbose))
		return
	}
	msg := ""
	var ae *AErr
	var de *domain.Error
	switch {
	case errors.As(err, &ae):
		msg = ae.Msg
	case errors.As(err, &de):
		msg = de.Msg
	}
	c.AbortWithStatusJSON(status, resp.Error(status, msg))
}

// Action 一行注册一个接口：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // 多个方法用逗号分隔，如 "GET,POST"
	Path    string
	Binder  Binder
	Status  int // 成功状态码，默认 200
	Use     []gin.HandlerFunc
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
			// 空 body 按空入参处理，由业务层给出缺字段提示
			if errors.Is(bindErr, io.EOF) {
				bindErr = nil
			}
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			Fail(c, BadRequest("Invalid request body", bindErr), e.verbose)
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, err, e.verbose)
			return
		}
		c.JSON(status, out)
	}

	handlers := append(append([]gin.HandlerFunc{}, a.Use...), h)
	for _, m := range strings.Split(a.Method, ",") {
		switch strings.ToUpper(strings.TrimSpace(m)) {
		case http.MethodGet:
			e.g.GET(a.Path, handlers...)
		case http.MethodPut:
			e.g.PUT(a.Path, handlers...)
		case http.MethodDelete:
			e.g.DELETE(a.Path, handlers...)
		default:
			e.g.POST(a.Path, handlers...)
		}
	}
}

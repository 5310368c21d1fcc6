package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-gin-auth-service/internal/core/auth"
	"go-gin-auth-service/internal/domain"
	"go-gin-auth-service/internal/service"
	"go-gin-auth-service/internal/transport/http/ez"
	mdw "go-gin-auth-service/internal/transport/http/middleware"
	resp "go-gin-auth-service/internal/transport/http/response"
)

type AuthService interface {
	Signup(ctx context.Context, in service.SignupInput) (*service.Session, error)
	Login(ctx context.Context, in service.LoginInput) (*service.Session, error)
	CheckSession(ctx context.Context, token string) (*domain.User, error)
}

// CookieOpts token cookie 属性；Secure 仅生产环境开启
type CookieOpts struct {
	Secure bool
	MaxAge int // 秒
	Path   string
	Domain string
}

// DefaultCookieOpts cookie 有效期与令牌 TTL 保持一致；ttl<=0 用默认 7 天
func DefaultCookieOpts(secure bool, ttl time.Duration) CookieOpts {
	if ttl <= 0 {
		ttl = auth.SessionTTL
	}
	return CookieOpts{Secure: secure, MaxAge: int(ttl / time.Second), Path: "/"}
}

type AuthHandler struct {
	svc     AuthService
	cookie  CookieOpts
	verbose bool
	limit   []gin.HandlerFunc
}

// NewAuthHandler limit 挂在 signup/login 上（按 IP 限速）
func NewAuthHandler(svc AuthService, cookie CookieOpts, verbose bool, limit ...gin.HandlerFunc) *AuthHandler {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &AuthHandler{svc: svc, cookie: cookie, verbose: verbose, limit: limit}
}

func (h *AuthHandler) Priority() int { return 10 }

// MountAPI 唯一的一份路由表
func (h *AuthHandler) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api, h.verbose)

	ez.RegisterAction(e, ez.Action[service.SignupInput, resp.Body]{
		Method:  http.MethodPost,
		Path:    "/signup",
		Binder:  ez.BindJSON,
		Status:  http.StatusCreated,
		Use:     h.limit,
		Handler: h.Signup,
	})
	ez.RegisterAction(e, ez.Action[service.LoginInput, resp.Body]{
		Method:  http.MethodPost,
		Path:    "/login",
		Binder:  ez.BindJSON,
		Use:     h.limit,
		Handler: h.Login,
	})
	ez.RegisterAction(e, ez.Action[struct{}, resp.Body]{
		Method:  "POST,GET",
		Path:    "/logout",
		Binder:  ez.BindNone,
		Handler: h.Logout,
	})
	ez.RegisterAction(e, ez.Action[struct{}, resp.Body]{
		Method:  http.MethodGet,
		Path:    "/checkAuth",
		Binder:  ez.BindNone,
		Use:     []gin.HandlerFunc{mdw.RequireSession(h.svc, h.verbose)},
		Handler: h.CheckAuth,
	})
}

func (h *AuthHandler) Signup(c *gin.Context, in *service.SignupInput) (resp.Body, error) {
	sess, err := h.svc.Signup(c.Request.Context(), *in)
	if err != nil {
		return resp.Body{}, err
	}
	h.setToken(c, sess.Token)
	return resp.WithSession("User created successfully", sess.Token, sess.User), nil
}

func (h *AuthHandler) Login(c *gin.Context, in *service.LoginInput) (resp.Body, error) {
	sess, err := h.svc.Login(c.Request.Context(), *in)
	if err != nil {
		return resp.Body{}, err
	}
	h.setToken(c, sess.Token)
	return resp.WithSession("Login successful", sess.Token, sess.User), nil
}

// Logout 幂等：没有 cookie 也返回 200
func (h *AuthHandler) Logout(c *gin.Context, _ *struct{}) (resp.Body, error) {
	h.clearToken(c)
	return resp.OK("Logout successful"), nil
}

// CheckAuth 会话已由 RequireSession 校验；成功时不返回用户字段
func (h *AuthHandler) CheckAuth(c *gin.Context, _ *struct{}) (resp.Body, error) {
	return resp.OK("User is authenticated"), nil
}

func (h *AuthHandler) setToken(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(mdw.CookieToken, token, h.cookie.MaxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearToken(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(mdw.CookieToken, "", -1, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

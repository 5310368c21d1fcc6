package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-auth-service/internal/domain"
	"go-gin-auth-service/internal/transport/http/ez"
)

const (
	CookieToken = "token"
	KeyUser     = "user"
	KeyUserID   = "userId"
)

type SessionChecker interface {
	CheckSession(ctx context.Context, token string) (*domain.User, error)
}

// TokenFrom 优先读 token cookie，没有时退回 Authorization: Bearer
func TokenFrom(c *gin.Context) string {
	if tok, err := c.Cookie(CookieToken); err == nil && tok != "" {
		return tok
	}
	if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(ah, "Bearer "))
	}
	return ""
}

// RequireSession 校验会话；通过后在上下文写入 user / userId
func RequireSession(checker SessionChecker, verbose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := checker.CheckSession(c.Request.Context(), TokenFrom(c))
		if err != nil {
			ez.Fail(c, err, verbose)
			return
		}
		c.Set(KeyUser, u)
		c.Set(KeyUserID, u.ID)
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(KeyUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok
}

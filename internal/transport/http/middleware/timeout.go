package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	resp "go-gin-auth-service/internal/transport/http/response"
)

// Timeout 给下游（DB/redis/队列）调用设置截止时间；上游已给出更短的截止时间时保留上游的
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		parent := c.Request.Context()
		if dl, ok := parent.Deadline(); ok && time.Until(dl) <= d {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(parent, d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, resp.Error(http.StatusGatewayTimeout, ""))
		}
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "go-gin-auth-service/internal/transport/http/response"
)

// MaxBodyBytes 声明长度超限直接 413；未声明长度（chunked）的读到上限后 JSON 绑定失败，由 ez 返回 400
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp.Error(http.StatusRequestEntityTooLarge, ""))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-gin-auth-service/internal/core/server"
	"go-gin-auth-service/internal/transport/http/handler"
	mdw "go-gin-auth-service/internal/transport/http/middleware"
	resp "go-gin-auth-service/internal/transport/http/response"
)

const APIPrefix = "/api/v1"

type Deps struct {
	Health      *handler.Health
	Modules     []APIModule
	CORSOrigins []string
}

func NewAPIEngine(l *zap.Logger, d Deps) *gin.Engine {
	r := server.NewRouter(l, d.CORSOrigins)

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300, 2*time.Second),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Authentication Service is running") })
	if d.Health != nil {
		r.GET("/health", d.Health.Live)
		r.GET("/ready", d.Health.Ready)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 未匹配的路由也返回 JSON {message}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Error(http.StatusNotFound, ""))
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, resp.Error(http.StatusMethodNotAllowed, ""))
	})

	api := r.Group(APIPrefix)
	var reg Registry
	reg.Register(d.Modules...)
	reg.MountAll(api)

	return r
}

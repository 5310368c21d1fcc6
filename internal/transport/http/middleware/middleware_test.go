package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"go-gin-auth-service/internal/domain"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func bodyOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

type stubChecker struct {
	gotToken string
	user     *domain.User
	err      error
}

func (s *stubChecker) CheckSession(_ context.Context, token string) (*domain.User, error) {
	s.gotToken = token
	if token == "" {
		return nil, domain.Authentication("Unauthorized")
	}
	return s.user, s.err
}

func sessionEngine(ch SessionChecker) *gin.Engine {
	r := gin.New()
	r.GET("/p", RequireSession(ch, false), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "uid": c.GetString(KeyUserID)})
	})
	return r
}

func TestRequireSession_Cookie(t *testing.T) {
	ch := &stubChecker{user: &domain.User{ID: "u1"}}
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.AddCookie(&http.Cookie{Name: CookieToken, Value: "tok"})

	rec := serve(sessionEngine(ch), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", ch.gotToken)
	assert.Equal(t, map[string]any{"id": "u1", "uid": "u1"}, bodyOf(t, rec))
}

func TestRequireSession_BearerFallback(t *testing.T) {
	ch := &stubChecker{user: &domain.User{ID: "u1"}}
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer abc")

	rec := serve(sessionEngine(ch), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", ch.gotToken)
}

func TestRequireSession_Rejects(t *testing.T) {
	rec := serve(sessionEngine(&stubChecker{}), httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, map[string]any{"message": "Unauthorized"}, bodyOf(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.AddCookie(&http.Cookie{Name: CookieToken, Value: "tok"})
	rec = serve(sessionEngine(&stubChecker{err: domain.Internal("find", errors.New("db"))}), req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"message": "Server error"}, bodyOf(t, rec))
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 2, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(r, req).Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRateLimit_Global(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(0.001, 1))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests", bodyOf(t, rec)["message"])
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, rec.Header().Get(KeyRequestID), 36)
	assert.Equal(t, rec.Header().Get(KeyRequestID), rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "given")
	assert.Equal(t, "given", serve(r, req).Header().Get(KeyRequestID))

	for _, bad := range []string{strings.Repeat("a", 65), "two words"} {
		req = httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(KeyRequestID, bad)
		assert.Len(t, serve(r, req).Header().Get(KeyRequestID), 36, bad)
	}
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"message": "Server error"}, bodyOf(t, rec))
	assert.GreaterOrEqual(t, logs.Len(), 1)
}

func TestAccessLog_MasksSecrets(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/x?password=hunter2&q=1", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	q := entry.ContextMap()["query"].(map[string][]string)
	assert.Equal(t, []string{"****"}, q["password"])
	assert.Equal(t, []string{"1"}, q["q"])
	assert.NotEmpty(t, entry.ContextMap()["rid"])
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/x", func(c *gin.Context) {
		var in map[string]any
		if err := c.ShouldBindJSON(&in); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"much too long"}`))
	rec := serve(r, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request body too large", bodyOf(t, rec)["message"])

	// 未声明长度时由读取上限兜底
	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"much too long"}`))
	req.ContentLength = -1
	assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestConcurrencyLimit(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	r := gin.New()
	r.Use(ConcurrencyLimit(1, 10*time.Millisecond))
	r.GET("/hold", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	done := make(chan int)
	go func() { done <- serve(r, httptest.NewRequest(http.MethodGet, "/hold", nil)).Code }()
	<-entered

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Server busy", bodyOf(t, rec)["message"])

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestTimeout_KeepsShorterParentDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(time.Hour))
	var left time.Duration
	r.GET("/x", func(c *gin.Context) {
		dl, _ := c.Request.Context().Deadline()
		left = time.Until(dl)
		c.Status(http.StatusOK)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	serve(r, httptest.NewRequest(http.MethodGet, "/x", nil).WithContext(ctx))
	assert.LessOrEqual(t, left, time.Minute)
}

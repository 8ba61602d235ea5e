package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newUserLimitedRouter(b int) *gin.Engine {
	router := gin.New()
	router.GET("/ping",
		func(c *gin.Context) {
			// Stands in for the auth middleware's claim extraction.
			if uid := c.GetHeader("X-Test-User"); uid != "" {
				c.Set("user_id", uid)
			}
		},
		middleware.RateLimitByUser(1, b),
		func(c *gin.Context) {
			c.Status(http.StatusOK)
		},
	)
	return router
}

func TestRateLimitByUser(t *testing.T) {
	t.Run("burst exhausted returns 429", func(t *testing.T) {
		router := newUserLimitedRouter(2)

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("X-Test-User", "user-a")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}

		assert.Equal(t, http.StatusOK, codes[0])
		assert.Equal(t, http.StatusOK, codes[1])
		assert.Equal(t, http.StatusTooManyRequests, codes[2])
	})

	t.Run("budgets are per user", func(t *testing.T) {
		router := newUserLimitedRouter(1)

		reqA := httptest.NewRequest(http.MethodGet, "/ping", nil)
		reqA.Header.Set("X-Test-User", "user-a")
		wA := httptest.NewRecorder()
		router.ServeHTTP(wA, reqA)
		assert.Equal(t, http.StatusOK, wA.Code)

		// user-a is now out of budget, user-b is untouched.
		reqA2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
		reqA2.Header.Set("X-Test-User", "user-a")
		wA2 := httptest.NewRecorder()
		router.ServeHTTP(wA2, reqA2)
		assert.Equal(t, http.StatusTooManyRequests, wA2.Code)

		reqB := httptest.NewRequest(http.MethodGet, "/ping", nil)
		reqB.Header.Set("X-Test-User", "user-b")
		wB := httptest.NewRecorder()
		router.ServeHTTP(wB, reqB)
		assert.Equal(t, http.StatusOK, wB.Code)
	})

	t.Run("anonymous requests pass through", func(t *testing.T) {
		router := newUserLimitedRouter(1)

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	users map[string]*entity.User
	err   error
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[token]
	if !ok {
		return nil, application.ErrInvalidToken
	}
	return u, nil
}

func protectedRouter(auth Authenticator) (*gin.Engine, *bool) {
	reached := false
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/me", Auth(auth, helpers.NewNopLogger()), func(c *gin.Context) {
		reached = true
		s, ok := SessionFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": s.User.ID, "token": s.Token})
	})
	return r, &reached
}

func TestAuth(t *testing.T) {
	auth := &fakeAuth{users: map[string]*entity.User{"good": {ID: "u1"}}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid", header: "Bearer good", wantStatus: http.StatusOK},
		{name: "scheme is case-insensitive", header: "bearer good", wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "no token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer revoked", wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, reached := protectedRouter(auth)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.True(t, *reached)
				assert.JSONEq(t, `{"id":"u1","token":"good"}`, w.Body.String())
				return
			}
			assert.False(t, *reached, "handler must not run")
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "please authenticate", body["error"])
			assert.NotEmpty(t, body["request_id"])
		})
	}
}

func TestAuth_StoreFailureIsUnauthorized(t *testing.T) {
	r, reached := protectedRouter(&fakeAuth{err: errors.New("db down")})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, *reached)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id with spaces")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "bad id with spaces", w.Body.String())
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "cloudflare wins", headers: map[string]string{"CF-Connecting-IP": "203.0.113.9", "X-Forwarded-For": "198.51.100.1"}, want: "203.0.113.9"},
		{name: "left-most forwarded", headers: map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, want: "198.51.100.1"},
		{name: "x-real-ip", headers: map[string]string{"X-Real-IP": "198.51.100.7"}, want: "198.51.100.7"},
		{name: "garbage falls back", headers: map[string]string{"X-Forwarded-For": "nope"}, want: "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestAllowPrivateIP(t *testing.T) {
	allow := AllowPrivateIP()
	for ip, want := range map[string]bool{
		"127.0.0.1":   true,
		"10.1.2.3":    true,
		"192.168.0.9": true,
		"8.8.8.8":     false,
		"unknown":     false,
	} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("real_ip", ip)
		assert.Equal(t, want, allow(c), ip)
	}
}

func TestRateLimit_DisabledAndFailOpen(t *testing.T) {
	unreachable := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = unreachable.Close() })

	for name, rdb := range map[string]*redis.Client{"no redis": nil, "redis down": unreachable} {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", RateLimit(rdb, Limit{Scope: "test", Max: 1, Window: time.Minute, Key: KeyByIP("test")}, nil),
				func(c *gin.Context) { c.Status(http.StatusOK) })
			for i := 0; i < 3; i++ {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
				assert.Equal(t, http.StatusOK, w.Code)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware(), Recovery(helpers.NewNopLogger()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"internal error"`)
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 9, remaining(10, 1))
	assert.Equal(t, 0, remaining(10, 10))
	assert.Equal(t, 0, remaining(10, 42))
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 7, toInt(int64(7)))
	assert.Equal(t, 3, toInt("3"))
	assert.Equal(t, 0, toInt(nil))
}

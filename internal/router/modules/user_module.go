package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-task-manager/internal/interface/http"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
)

// UserModule wires account routes.
// Public: POST /users, POST /users/login, GET /users/:id/avatar
// Protected: logout, logout/all, me (GET/PATCH/DELETE), me/avatar (POST/DELETE)
type UserModule struct {
	Handler   *handlers.UserHandler
	Auth      gin.HandlerFunc
	Protected gin.HandlerFunc
	Redis     *redis.Client
	Allow     middleware.AllowFunc
}

func NewUserModule(h *handlers.UserHandler, auth, protected gin.HandlerFunc, rdb *redis.Client, allow middleware.AllowFunc) *UserModule {
	return &UserModule{Handler: h, Auth: auth, Protected: protected, Redis: rdb, Allow: allow}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	// 10 req/min per IP, separately for signup and login
	credLimiter := middleware.RateLimit(m.Redis, middleware.Limit{
		Scope:  "credentials",
		Max:    10,
		Window: time.Minute,
		Key:    middleware.KeyByIPAndPath(),
	}, m.Allow)

	users := rg.Group("/users")
	users.POST("", credLimiter, m.Handler.Signup)
	users.POST("/login", credLimiter, m.Handler.Login)
	users.GET("/:id/avatar", m.Handler.GetAvatar)

	auth := users.Group("")
	auth.Use(m.Protected, m.Auth)
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/logout/all", m.Handler.LogoutAll)
		auth.GET("/me", m.Handler.Me)
		auth.PATCH("/me", m.Handler.UpdateMe)
		auth.DELETE("/me", m.Handler.DeleteMe)
		auth.POST("/me/avatar", m.Handler.UploadAvatar)
		auth.DELETE("/me/avatar", m.Handler.DeleteAvatar)
	}
}

package routes

import (
	"time"

	"todoapi/api/handler"
	"todoapi/api/middleware"
	"todoapi/internal/entity"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Todos          *handler.TodoHandler
	SubTasks       *handler.SubTaskHandler
	Notifications  *handler.NotificationHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       middleware.Limiter
	Log            logrus.FieldLogger
}

// NewRouter falls back to an in-memory limiter of perMinute auth requests per client when authRate is nil.
func NewRouter(
	e *echo.Echo,
	auth *handler.AuthHandler,
	todos *handler.TodoHandler,
	subTasks *handler.SubTaskHandler,
	notifications *handler.NotificationHandler,
	authMiddleware middleware.AuthMiddleware,
	authRate middleware.Limiter,
	perMinute int,
	log logrus.FieldLogger,
) *Router {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if authRate == nil {
		r, burst := middleware.PerMinute(perMinute)
		authRate = middleware.NewMemoryLimiter(r, burst, 10*time.Minute)
	}
	return &Router{
		Echo:           e,
		Auth:           auth,
		Todos:          todos,
		SubTasks:       subTasks,
		Notifications:  notifications,
		AuthMiddleware: authMiddleware,
		AuthRate:       authRate,
		Log:            log,
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo
	limit := middleware.RateLimit(r.AuthRate, r.Log)

	user := e.Group("/api/user", middleware.AuthLogging(r.Log, "/api/user"), limit)
	user.POST("/register", r.Auth.Register)
	user.POST("/verify-email", r.Auth.VerifyEmail)
	user.POST("/resend-verification", r.Auth.ResendVerification)
	user.POST("/login", r.Auth.Login)

	todos := e.Group("/api/todos", r.AuthMiddleware.RequireAuth)
	todos.GET("", r.Todos.List)
	todos.GET("/status/:status", r.Todos.ListByStatus)
	todos.GET("/date/:date", r.Todos.ListForDate)
	todos.GET("/:id", r.Todos.Get)
	todos.POST("", r.Todos.Create)
	todos.PUT("/:id", r.Todos.Update)
	todos.DELETE("/:id", r.Todos.Delete)

	subTasks := e.Group("/api/subtasks", r.AuthMiddleware.RequireAuth)
	subTasks.GET("/todo/:todoId", r.SubTasks.ListByTodo)
	subTasks.GET("/:id", r.SubTasks.Get)
	subTasks.POST("", r.SubTasks.Create)
	subTasks.PUT("/:id", r.SubTasks.Update)
	subTasks.DELETE("/:id", r.SubTasks.Delete)

	notifications := e.Group("/api/notifications", r.AuthMiddleware.RequireAuth)
	notifications.GET("", r.Notifications.List)
	notifications.GET("/unread-count", r.Notifications.UnreadCount)
	notifications.GET("/:id", r.Notifications.Get)
	notifications.POST("", r.Notifications.Create, middleware.RequireRole(entity.RoleAdmin))
	notifications.PUT("/:id", r.Notifications.Update)
	notifications.PATCH("/:id/mark-as-read", r.Notifications.MarkAsRead)
	notifications.PATCH("/mark-all-as-read", r.Notifications.MarkAllAsRead)
	notifications.DELETE("/:id", r.Notifications.Delete)
}

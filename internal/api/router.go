package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/connectify/social-api/docs"
	"github.com/connectify/social-api/internal/api/handler"
	"github.com/connectify/social-api/internal/api/middleware"
	"github.com/connectify/social-api/internal/infrastructure/http/handlers"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Accounts      *handler.AccountHandler
	Posts         *handler.PostHandler
	Messages      *handler.MessageHandler
	Notifications *handler.NotificationHandler
	Media         *handler.MediaHandler
	Realtime      *handler.RealtimeHandler
	Health        *handlers.HealthHandler
}

// RouterConfig carries the settings the router itself needs.
type RouterConfig struct {
	JWTSecret   string
	CORSOrigins []string
	// BodyLimit caps request bodies, in echo's size notation (e.g. "6M").
	BodyLimit string
	// MediaDir, when set, is served as static files under MediaPrefix.
	MediaDir    string
	MediaPrefix string
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(h Handlers, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if cfg.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(cfg.BodyLimit))
	}
	e.Use(echoprometheus.NewMiddleware("connectify"))

	// --- Ops routes (no auth required) ---
	e.GET("/health", h.Health.Liveness)
	e.GET("/health/ready", h.Health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if cfg.MediaDir != "" && strings.HasPrefix(cfg.MediaPrefix, "/") {
		e.Static(cfg.MediaPrefix, cfg.MediaDir)
	}

	// --- Auth routes ---
	e.POST("/auth/register", h.Auth.Register)
	e.POST("/auth/login", h.Auth.Login)

	// The socket authenticates with ?token= since browsers cannot set headers on upgrade.
	e.GET("/ws", h.Realtime.Serve)

	// --- Authenticated routes ---
	authed := e.Group("", middleware.Auth(cfg.JWTSecret))

	users := authed.Group("/users")
	users.GET("/search", h.Accounts.Search)
	users.PUT("/me", h.Accounts.UpdateMe)
	users.DELETE("/me", h.Accounts.DeleteMe)
	users.POST("/me/avatar", h.Accounts.UploadAvatar)
	users.GET("/:id", h.Accounts.Profile)
	users.GET("/:id/posts", h.Accounts.Posts)
	users.GET("/:id/followers", h.Accounts.Followers)
	users.GET("/:id/following", h.Accounts.Following)
	users.PUT("/:id/follow", h.Accounts.ToggleFollow)

	posts := authed.Group("/posts")
	posts.GET("", h.Posts.Feed)
	posts.POST("", h.Posts.Create)
	posts.GET("/:id", h.Posts.Get)
	posts.PUT("/:id", h.Posts.Update)
	posts.DELETE("/:id", h.Posts.Delete)
	posts.PUT("/:id/like", h.Posts.ToggleLike)
	posts.GET("/:id/comments", h.Posts.ListComments)
	posts.POST("/:id/comments", h.Posts.AddComment)
	posts.DELETE("/:id/comments/:commentId", h.Posts.DeleteComment)

	messages := authed.Group("/messages")
	messages.GET("/conversations", h.Messages.Conversations)
	messages.PUT("/conversations/:peerId/read", h.Messages.MarkConversationRead)
	messages.POST("", h.Messages.Send)
	messages.GET("/:userA/:userB", h.Messages.History, middleware.Participant("userA", "userB"))
	messages.PUT("/:id/read", h.Messages.MarkRead)
	messages.DELETE("/:id", h.Messages.Delete)

	notifications := authed.Group("/notifications")
	notifications.GET("", h.Notifications.List)
	notifications.PUT("/read-all", h.Notifications.MarkAllRead)
	notifications.PUT("/:id/read", h.Notifications.MarkRead)

	authed.POST("/media", h.Media.Upload)

	return e
}

// requestLogger emits one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= 500:
				ev = log.Error().Err(v.Error)
			case v.Status >= 400:
				ev = log.Warn()
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	httpmw "github.com/johnquangdev/lecture-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/lecture-assistant/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	lectureHandler *Lecture
	chatHandler    *Chat
	summaryHandler *Summary
	authMW         echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, lectureHandler *Lecture, chatHandler *Chat, summaryHandler *Summary, authMW echo.MiddlewareFunc) *Router {
	return &Router{
		cfg:            cfg,
		lectureHandler: lectureHandler,
		chatHandler:    chatHandler,
		summaryHandler: summaryHandler,
		authMW:         authMW,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/v1")
	v1.GET("/languages", rt.lectureHandler.Languages)

	rt.setupLectureRoutes(v1)
	rt.setupChatRoutes(v1)
	rt.setupAdminRoutes(v1)
}

// setupLectureRoutes configures lecture routes; static paths are registered before /:id
func (rt *Router) setupLectureRoutes(g *echo.Group) {
	lectures := g.Group("/lectures", rt.authMW)

	lectures.POST("/upload", rt.lectureHandler.Upload)
	lectures.POST("/upload/init", rt.lectureHandler.InitUpload)
	lectures.POST("/upload/:upload_id/chunk/:index", rt.lectureHandler.UploadChunk)
	lectures.POST("/upload/:upload_id/complete", rt.lectureHandler.CompleteUpload)

	lectures.GET("", rt.lectureHandler.List)
	lectures.GET("/subjects", rt.lectureHandler.Subjects)
	lectures.GET("/groups", rt.lectureHandler.Groups)
	lectures.GET("/search", rt.lectureHandler.Search)

	lectures.GET("/:id", rt.lectureHandler.Get)
	lectures.PATCH("/:id", rt.lectureHandler.Update)
	lectures.DELETE("/:id", rt.lectureHandler.Delete)
	lectures.GET("/:id/transcript", rt.lectureHandler.Transcript)
	lectures.GET("/:id/audio", rt.lectureHandler.Audio)
	lectures.GET("/:id/summary", rt.summaryHandler.Get)
	lectures.POST("/:id/chat", rt.chatHandler.Ask)
}

// setupChatRoutes configures cross-lecture chat
func (rt *Router) setupChatRoutes(g *echo.Group) {
	chat := g.Group("/chat", rt.authMW)
	chat.POST("/global", rt.chatHandler.AskGlobal)
}

// setupAdminRoutes configures maintenance routes
func (rt *Router) setupAdminRoutes(g *echo.Group) {
	admin := g.Group("/admin", rt.authMW, httpmw.RequireAdmin())
	admin.POST("/lectures/:id/reindex", rt.lectureHandler.Reindex)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"time":        time.Now().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}

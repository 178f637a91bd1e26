package handlers

import (
	"net/http"
	"time"

	"secure_blog/internal/logger"
	"secure_blog/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const statusOK = "ok"

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services       *service.Service
	log            *logger.Logger
	requestTimeout time.Duration
}

// NewHandler constructs a new HTTP handler with dependencies. A zero
// requestTimeout disables the per-request deadline.
func NewHandler(services *service.Service, log *logger.Logger, requestTimeout time.Duration) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{services: services, log: log, requestTimeout: requestTimeout}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestID, h.requestLogger, h.timeoutMiddleware)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		h.registerAuthRoutes(api)
		h.registerUserRoutes(api)
		h.registerArticleRoutes(api)
		h.registerCommentRoutes(api)
		h.registerAuditRoutes(api)
	}
	return router
}

func (h *Handler) registerAuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
	}
}

func (h *Handler) registerUserRoutes(api *gin.RouterGroup) {
	users := api.Group("/users", h.authMiddleware)
	{
		users.GET("", h.listUsers)
		users.GET("/:id", h.getUser)
		users.PUT("/:id", h.updateUser)
		users.DELETE("/:id", h.deleteUser)
	}
}

func (h *Handler) registerArticleRoutes(api *gin.RouterGroup) {
	articles := api.Group("/articles")
	{
		articles.GET("", h.listArticles)
		articles.POST("/search", h.searchArticles)
		articles.GET("/:id", h.getArticle)
		articles.GET("/:id/comments", h.listComments)

		articles.POST("", h.authMiddleware, h.createArticle)
		articles.PUT("/:id", h.authMiddleware, h.updateArticle)
		articles.DELETE("/:id", h.authMiddleware, h.deleteArticle)
		articles.POST("/:id/comments", h.authMiddleware, h.createComment)
	}
}

func (h *Handler) registerCommentRoutes(api *gin.RouterGroup) {
	comments := api.Group("/comments")
	{
		comments.GET("/:id", h.getComment)
		comments.DELETE("/:id", h.authMiddleware, h.deleteComment)
	}
}

func (h *Handler) registerAuditRoutes(api *gin.RouterGroup) {
	audit := api.Group("/audit", h.authMiddleware)
	{
		audit.GET("", h.listAudit)
		audit.GET("/stream", h.streamAudit)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

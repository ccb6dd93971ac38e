package handlers

import (
	"smart_hatchery/internal/logger"
	"smart_hatchery/internal/metric"
	"smart_hatchery/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metric   *metric.Metric
}

// NewHandler constructs a new HTTP handler with dependencies. m may be nil,
// in which case /metrics is not served.
func NewHandler(services *service.Service, log *logger.Logger, m *metric.Metric) *Handler {
	return &Handler{services: services, log: log, metric: m}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	if h.metric != nil {
		router.GET("/metrics", gin.WrapH(h.metric.Handler()))
	}

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Dashboard stream; browsers cannot set headers on upgrade, so the
	// token may also come as ?token=
	router.GET("/ws", h.streamSessionMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
		auth.POST("/sign-out", h.sessionMiddleware, h.signOut)
		auth.GET("/session", h.sessionMiddleware, h.sessionStatus)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.sessionMiddleware)
	{
		api.GET("/dashboard", h.getDashboard)
		api.GET("/presets", h.listPresets)
		api.GET("/commands", h.listCommands)
		h.registerEditorRoutes(api)
		h.registerControlRoutes(api)
		h.registerLogRoutes(api)
		h.registerExportRoutes(api)
	}
}

func (h *Handler) registerEditorRoutes(api *gin.RouterGroup) {
	editor := api.Group("/editor")
	{
		editor.GET("", h.getEditor)
		editor.POST("/open", h.openEditor)
		editor.POST("/preset/:name", h.applyPreset)
		// Body example: {"target_temp_low":37.6,"interval_hours":2}
		editor.PATCH("/fields", h.editFields)
		editor.POST("/cancel", h.cancelEditor)
		editor.POST("/commit", h.commitEditor)
	}
}

func (h *Handler) registerControlRoutes(api *gin.RouterGroup) {
	api.POST("/commands/:name", h.sendCommand)
	api.POST("/maintenance/exit", h.exitMaintenance)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}

func (h *Handler) registerExportRoutes(api *gin.RouterGroup) {
	api.GET("/export/history.csv", h.exportHistoryCSV)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/services"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/utils"
)

// ReadinessCheck reports whether the service's dependencies are reachable.
type ReadinessCheck func(ctx context.Context) error

type HandlerManager struct {
	adaptiveHandler       *AdaptiveHandler
	resultsHandler        *ResultsHandler
	recommendationHandler *RecommendationHandler
	ready                 ReadinessCheck
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	students StudentResolver,
	ready ReadinessCheck,
	logger utils.Logger,
) *HandlerManager {
	if students == nil {
		students = NewHeaderStudentResolver()
	}
	return &HandlerManager{
		adaptiveHandler:       NewAdaptiveHandler(serviceManager.Adaptive(), students, logger),
		resultsHandler:        NewResultsHandler(serviceManager.Results(), serviceManager.Report(), logger),
		recommendationHandler: NewRecommendationHandler(serviceManager.Recommendation(), logger),
		ready:                 ready,
	}
}

// RouterConfig carries the HTTP settings that come from the environment
type RouterConfig struct {
	AllowedOrigins []string
	Production     bool
}

// NewRouter builds the gin engine with logging, recovery and CORS middleware and every
// API route.
func NewRouter(cfg RouterConfig, hm *HandlerManager, logger utils.Logger) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	hm.SetupRoutes(router)
	return router
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", StudentIDHeader, utils.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", utils.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return config
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)
	router.GET("/ready", hm.Readiness)

	v1 := router.Group("/api/v1")
	{
		// Attempt lifecycle
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/start", hm.adaptiveHandler.StartAttempt)
			sessions.POST("/:id/answer", hm.adaptiveHandler.SubmitAnswer)
			sessions.POST("/:id/end", hm.adaptiveHandler.EndAttempt)
			sessions.GET("/:id", hm.adaptiveHandler.GetAttemptStatus)
		}

		// Results and reports
		evaluations := v1.Group("/evaluations")
		{
			evaluations.GET("/:id/areas", hm.resultsHandler.GetAreaResults)
			evaluations.GET("/:id/summary", hm.resultsHandler.GetSummary)
			evaluations.GET("/:id/area-scores", hm.resultsHandler.GetAreaScores)
			evaluations.GET("/:id/report", hm.resultsHandler.DownloadReport)
		}

		v1.GET("/students/:student_id/recommendations", hm.recommendationHandler.ListRecommendations)
		v1.GET("/students/:student_id/area-scores", hm.resultsHandler.GetStudentAreaScores)
	}
}

func (hm *HandlerManager) Readiness(c *gin.Context) {
	if hm.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := hm.ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

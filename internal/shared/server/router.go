package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"career-backend/internal/analyses"
	"career-backend/internal/services/health"
	"career-backend/internal/shared/config"
	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/server/middleware"
	"career-backend/internal/shared/server/respond"
)

const analyzeGroup = "ANALYZE"

// Deps are the handlers mounted by NewRouter.
type Deps struct {
	Analysis *analyses.Handler
	Health   *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	limiter := middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: analyzeGroup,
		Rules: map[string]middleware.RateLimitRule{
			analyzeGroup: {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
		},
	})

	api := r.Group("/api")
	if deps.Health != nil {
		deps.Health.RegisterRoutes(api)
	}
	if deps.Analysis != nil {
		deps.Analysis.RegisterRoutes(api, limiter)
	}
	r.GET("/metrics", metrics.Handler())

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "Route not found")
	})
	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

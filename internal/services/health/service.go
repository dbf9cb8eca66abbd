package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"career-backend/internal/shared/server/respond"
)

// Status is the liveness payload.
type Status struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Service encapsulates health-related checks.
type Service struct {
	now func() time.Time
}

// NewService constructs a new health service. A nil clock uses time.Now.
func NewService(now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{now: now}
}

// Status reports liveness. It has no dependencies and never fails.
func (s *Service) Status() Status {
	return Status{Status: "OK", Timestamp: s.now().UTC().Format(time.RFC3339)}
}

// RegisterRoutes attaches GET /health to the router group.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, s.Status())
	})
}

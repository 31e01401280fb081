package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Kjelljk/power-distributor/internal/core/domain"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/distribution", s.DistributionHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

// DistributionHandler returns the latest distribution result. Until the
// first tick has completed there is nothing to report.
func (s *Server) DistributionHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetDistributionSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "distribution: FAIL")
	}
	if response, ok := res.(domain.GetDistributionSnapshotResponse); ok {
		if response.Result == nil {
			return c.String(http.StatusServiceUnavailable, "distribution: no data")
		}
		return c.JSON(http.StatusOK, response.Result)
	}
	return c.String(http.StatusServiceUnavailable, "distribution: FAIL")
}

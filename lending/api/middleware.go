package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
)

const (
	HTTPRequestsMetric        = "http_requests_total"
	HTTPRequestDurationMetric = "http_request_duration_seconds"

	logMsgRequest           = "http request"
	logMsgRequestFailed     = "http request failed"
	logMsgHealthCheckFailed = "health check failed"

	logAttrRequestID = "request_id"
	logAttrMethod    = "method"
	logAttrRoute     = "route"
	logAttrStatus    = "status"
	logAttrLatencyMS = "latency_ms"
	logAttrIP        = "ip"
	logAttrError     = "error"
)

func (s *Server) registerMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: newRequestID,
		RequestIDHandler: func(c echo.Context, requestID string) {
			ctx := shell.WithCorrelationID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))

	s.echo.Use(s.accessLog())

	if s.settings.BodyLimit != "" {
		s.echo.Use(middleware.BodyLimit(s.settings.BodyLimit))
	}

	if s.settings.RequestsPerSecond > 0 {
		s.echo.Use(s.rateLimiter())
	}
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

// accessLog writes one line per request and records the HTTP metrics. It runs the error handler itself,
// so the logged status is the one the client receives.
func (s *Server) accessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			latency := time.Since(start)
			status := c.Response().Status
			route := c.Path()

			s.logger.InfoContext(c.Request().Context(), logMsgRequest,
				logAttrRequestID, c.Response().Header().Get(echo.HeaderXRequestID),
				logAttrMethod, c.Request().Method,
				logAttrRoute, route,
				logAttrStatus, status,
				logAttrLatencyMS, latency.Milliseconds(),
				logAttrIP, c.RealIP(),
			)

			if s.metrics != nil {
				labels := map[string]string{
					"method": c.Request().Method,
					"route":  route,
					"status": strconv.Itoa(status),
				}
				s.metrics.IncrementCounter(HTTPRequestsMetric, labels)
				s.metrics.RecordDuration(HTTPRequestDurationMetric, latency, labels)
			}

			return nil
		}
	}
}

func (s *Server) rateLimiter() echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(s.settings.RequestsPerSecond),
		Burst:     s.settings.Burst,
		ExpiresIn: 3 * time.Minute,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz" || c.Path() == "/metrics"
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, failure("client could not be identified", nil))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusTooManyRequests, failure("too many requests", nil))
		},
	})
}

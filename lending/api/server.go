package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/listitem"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/itemdetails"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/itemsofowner"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/ownerinbox"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/requestdetails"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/query/requestsforitem"
	"github.com/AntonStoeckl/lending-workflow-go/lending/features/transition"
	"github.com/AntonStoeckl/lending-workflow-go/lending/shell"
)

// TransitionEngine creates and resolves lending requests.
type TransitionEngine interface {
	CreateRequest(ctx context.Context, command transition.CreateRequestCommand) (core.Request, shell.HandlerResult, error)
	ResolveRequest(ctx context.Context, command transition.ResolveRequestCommand) (core.Request, shell.HandlerResult, error)
}

// ItemLister lists new items.
type ItemLister interface {
	Handle(ctx context.Context, command listitem.Command) (core.Item, shell.HandlerResult, error)
}

// QueryHandler is implemented by all query handlers of the features/query packages.
type QueryHandler[Q any, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// Pinger reports whether the event store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the use cases served over HTTP. HealthCheck and MetricsHandler are optional.
type Dependencies struct {
	Engine          TransitionEngine
	ListItem        ItemLister
	ItemDetails     QueryHandler[itemdetails.Query, itemdetails.ItemDetails]
	ItemsOfOwner    QueryHandler[itemsofowner.Query, itemsofowner.Items]
	RequestDetails  QueryHandler[requestdetails.Query, core.Request]
	RequestsForItem QueryHandler[requestsforitem.Query, requestsforitem.Requests]
	OwnerInbox      QueryHandler[ownerinbox.Query, ownerinbox.Inbox]
	HealthCheck     Pinger
	MetricsHandler  http.Handler
}

// Settings are the HTTP related parts of the configuration.
type Settings struct {
	JWTSecret         string
	CookieName        string
	BodyLimit         string
	RequestsPerSecond float64
	Burst             int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// Server wires the routes and middleware onto an echo instance.
type Server struct {
	echo     *echo.Echo
	deps     Dependencies
	settings Settings
	logger   *slog.Logger
	metrics  shell.MetricsCollector
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for access logs and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records HTTP request counts and durations.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(s *Server) {
		s.metrics = collector
	}
}

// WithClock replaces time.Now as the source of OccurredAt.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a Server with all routes registered.
func NewServer(deps Dependencies, settings Settings, opts ...Option) *Server {
	s := &Server{
		echo:     echo.New(),
		deps:     deps,
		settings: settings,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Validator = newRequestValidator(validator.New(validator.WithRequiredStructEnabled()))
	s.echo.HTTPErrorHandler = s.handleHTTPError
	s.echo.Server.ReadTimeout = settings.ReadTimeout
	s.echo.Server.WriteTimeout = settings.WriteTimeout

	s.registerMiddleware()
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.healthz)

	if s.deps.MetricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.deps.MetricsHandler))
	}

	authenticated := s.echo.Group("", s.authentication())

	authenticated.POST("/transactions", s.createTransaction)
	authenticated.GET("/transactions/inbox", s.ownerInbox)
	authenticated.GET("/transactions/:id", s.transactionDetails)
	authenticated.PATCH("/transactions/:id", s.resolveTransaction)

	authenticated.POST("/items", s.listItem)
	authenticated.GET("/items", s.itemsOfOwner)
	authenticated.GET("/items/:id", s.itemDetails)
	authenticated.GET("/items/:id/transactions", s.itemTransactions)
}

// Handler exposes the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on address until Shutdown is called.
func (s *Server) Start(address string) error {
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthz(c echo.Context) error {
	if s.deps.HealthCheck != nil {
		if err := s.deps.HealthCheck.Ping(c.Request().Context()); err != nil {
			s.logger.ErrorContext(c.Request().Context(), logMsgHealthCheckFailed, logAttrError, err.Error())
			return c.JSON(http.StatusServiceUnavailable, failure("event store unreachable", nil))
		}
	}

	return c.JSON(http.StatusOK, success("ok", nil))
}

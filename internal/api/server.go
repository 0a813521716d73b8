package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/wk-j/dev-team-sub001/internal/engine"
	"github.com/wk-j/dev-team-sub001/internal/health"
	"github.com/wk-j/dev-team-sub001/internal/metrics"
	"github.com/wk-j/dev-team-sub001/internal/requestid"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	ListenAddr      string
	Auth            AuthConfig
	RateLimitMax    int
	RateLimitWindow time.Duration
	CORSOrigins     string
	TLSCert         string
	TLSKey          string
}

// Server is the energy API Fiber application.
type Server struct {
	app      *fiber.App
	handlers *Handlers
	logger   zerolog.Logger
	config   ServerConfig
}

// NewServer creates and configures a new API server.
func NewServer(
	cfg ServerConfig,
	eng *engine.Engine,
	checker *health.Checker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Server {
	srvLogger := logger.With().Str("component", "api_server").Logger()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(srvLogger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	s := &Server{
		app:      app,
		handlers: NewHandlers(eng, logger),
		logger:   srvLogger,
		config:   cfg,
	}

	s.setupMiddleware(cfg, m)
	s.setupRoutes(checker, m)

	return s
}

func (s *Server) setupMiddleware(cfg ServerConfig, m *metrics.Metrics) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID: honor the caller's, otherwise mint one.
	s.app.Use(func(c *fiber.Ctx) error {
		ctx, reqID := requestid.Ensure(c.UserContext(), c.Get(requestid.Header))
		c.SetUserContext(ctx)
		c.Set(requestid.Header, reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID",
			AllowMethods: "GET, POST, PUT, PATCH, OPTIONS",
		}))
	}

	s.app.Use(NewAuthMiddleware(cfg.Auth, s.logger))

	// Rate limit per caller, after auth so the key is the user.
	if cfg.RateLimitMax > 0 {
		s.app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: cfg.RateLimitWindow,
			Next: func(c *fiber.Ctx) bool {
				return isProbe(c.Path())
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				if id := actorID(c); id != "" {
					return "user:" + id
				}
				return "ip:" + c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return problemResponse(c, fiber.StatusTooManyRequests,
					"rate_limited", "Too Many Requests",
					"Rate limit exceeded, retry later")
			},
		}))
	}

	// Audit
	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if isProbe(path) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		if m != nil {
			m.RecordHTTP(c.Method(), c.Route().Path, strconv.Itoa(status))
		}
		s.logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Int("status", status).
			Str("user_id", actorID(c)).
			Str("ip", c.IP()).
			Str("request_id", requestid.FromContext(c.UserContext())).
			Dur("took", time.Since(start)).
			Msg("api request")

		return err
	})
}

func (s *Server) setupRoutes(checker *health.Checker, m *metrics.Metrics) {
	h := s.handlers

	s.app.Get("/healthz", health.Liveness)
	s.app.Get("/readyz", checker.Readiness)

	if m != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	} else {
		s.app.Get("/metrics", func(c *fiber.Ctx) error {
			return c.SendString("# No metrics collector configured\n")
		})
	}

	v1 := s.app.Group("/api/v1")

	// Streams
	v1.Post("/streams", h.CreateStream)
	v1.Get("/streams", h.ListStreams)
	v1.Get("/streams/:id", h.GetStream)
	v1.Post("/streams/:id/evaporate", h.EvaporateStream)
	v1.Get("/streams/:id/items", h.ListStreamItems)
	v1.Post("/streams/:id/items", h.CreateWorkItem)
	v1.Post("/streams/:id/dive", h.Dive)
	v1.Post("/streams/:id/surface", h.Surface)
	v1.Get("/streams/:id/divers", h.ListDivers)

	// Work items
	v1.Get("/items/:id", h.GetWorkItem)
	v1.Post("/items/:id/assign", h.AssignWorkItem)
	v1.Post("/items/:id/handoff", h.HandoffWorkItem)
	v1.Post("/items/:id/crystallize", h.CrystallizeWorkItem)
	v1.Post("/items/:id/contribute", h.ContributeEnergy)
	v1.Patch("/items/:id/state", h.TransitionWorkItem)

	// Users
	v1.Get("/users/:id", h.GetUser)
	v1.Get("/users/:id/energy", h.UserEnergy)
	v1.Put("/me/orbital-state", h.SetOrbitalState)
	v1.Get("/me/connections", h.ListConnections)

	// Pings
	v1.Post("/pings", h.CreatePing)
	v1.Get("/pings", h.ListPings)
	v1.Patch("/pings/:id", h.UpdatePingStatus)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	s.logger.Info().Str("addr", addr).Msg("API server starting")

	if s.config.TLSCert != "" && s.config.TLSKey != "" {
		return s.app.ListenTLS(addr, s.config.TLSCert, s.config.TLSKey)
	}
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("API server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		detail := err.Error()
		title := "Internal Server Error"
		errType := "internal_error"
		if code == fiber.StatusInternalServerError {
			logger.Error().
				Err(err).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("unhandled error")
			detail = "An internal error occurred"
		} else {
			title = http.StatusText(code)
			errType = "http_error"
		}

		return c.Status(code).JSON(ProblemDetail{
			Type:     errType,
			Title:    title,
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}

// Package backend is the reference intake service for instruction
// submissions.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"

	"github.com/goliatone/go-instructform/internal/store"
	"github.com/goliatone/go-instructform/pkg/attachments"
	"github.com/goliatone/go-instructform/pkg/model"
	"github.com/goliatone/go-instructform/pkg/registry"
	"github.com/goliatone/go-instructform/pkg/signature"
	"github.com/goliatone/go-instructform/pkg/submission"
)

// Repository persists accepted submissions.
type Repository interface {
	Save(ctx context.Context, sub store.Submission) (store.Submission, error)
	Get(ctx context.Context, id string) (store.Submission, error)
	List(ctx context.Context, limit int) ([]store.Submission, error)
	Ping(ctx context.Context) error
}

var _ Repository = (*store.Store)(nil)

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry sets the registry used to validate plain form posts.
func WithRegistry(reg *model.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithContract replaces the payload contract.
func WithContract(c *submission.Contract) Option {
	return func(s *Server) {
		s.contract = c
	}
}

// WithAttachmentPolicy enforces policy on uploaded files.
func WithAttachmentPolicy(p attachments.Policy) Option {
	return func(s *Server) {
		s.policy = p
	}
}

// WithSignatureLimit caps the decoded signature size.
func WithSignatureLimit(maxBytes int) Option {
	return func(s *Server) {
		if maxBytes > 0 {
			s.signatureMax = maxBytes
		}
	}
}

// WithTimeouts sets the server read and write timeouts.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// WithBodyLimit caps request bodies in bytes.
func WithBodyLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.bodyLimit = n
		}
	}
}

// WithAccessLog toggles the request log middleware.
func WithAccessLog(enabled bool) Option {
	return func(s *Server) {
		s.accessLog = enabled
	}
}

// WithClock overrides the receive timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDenormalizer sets how plain form posts become payloads.
func WithDenormalizer(d submission.Denormalizer) Option {
	return func(s *Server) {
		s.denormalizer = d
	}
}

// Server wires handlers to a fiber app.
type Server struct {
	app          *fiber.App
	repo         Repository
	registry     *model.Registry
	contract     *submission.Contract
	denormalizer submission.Denormalizer
	policy       attachments.Policy
	signatureMax int
	readTimeout  time.Duration
	writeTimeout time.Duration
	bodyLimit    int
	accessLog    bool
	now          func() time.Time
	logger       *zap.Logger
}

// New builds the server and registers its routes.
func New(repo Repository, opts ...Option) (*Server, error) {
	if repo == nil {
		return nil, errors.New("backend: repository is required")
	}
	s := &Server{
		repo:         repo,
		denormalizer: submission.NewDenormalizer(nil, nil, nil),
		signatureMax: signature.DefaultMaxBytes,
		readTimeout:  10 * time.Second,
		writeTimeout: 10 * time.Second,
		bodyLimit:    16 << 20,
		accessLog:    true,
		now:          time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.registry == nil {
		reg, err := registry.Default()
		if err != nil {
			return nil, err
		}
		s.registry = reg
	}
	if s.contract == nil {
		c, err := submission.DefaultContract()
		if err != nil {
			return nil, err
		}
		s.contract = c
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "Instruction Intake",
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		BodyLimit:    s.bodyLimit,
		ErrorHandler: s.handleError,
	})
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	if s.accessLog {
		s.app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path} | Content-Type: ${reqHeader:Content-Type}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}

	s.app.Get("/health/live", s.Liveness)
	s.app.Get("/health/ready", s.Readiness)

	api := s.app.Group("/api")
	api.Post("/instructions", s.CreateInstruction)
	api.Get("/instructions", s.ListInstructions)
	api.Get("/instructions/export.xlsx", s.ExportInstructions)
	api.Get("/instructions/:id", s.GetInstruction)
}

// App returns the fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("intake listening", zap.String("addr", addr))
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// handleError renders errors that escaped the handlers as JSON.
func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	var rj *rejection
	switch {
	case errors.As(err, &rj):
		return c.Status(rj.Status).JSON(rj)
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	default:
		s.logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(code).JSON(rejection{Message: message})
}

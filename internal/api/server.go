package api

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/sirupsen/logrus"

	"brandvoice/internal/config"
	"brandvoice/internal/core/ports"
	"brandvoice/internal/service"
)

// Server exposes the pipeline over HTTP: upload an export, start a run,
// poll its progress and fetch the produced files.
type Server struct {
	app      *fiber.App
	cfg      *config.Configuration
	pipeline *service.Pipeline
	records  ports.RecordStore
	validate *validator.Validate
	jobs     *jobStore
	uploads  *uploadStore
	log      *logrus.Logger
}

// NewServer wires the HTTP layer around an assembled pipeline.
func NewServer(cfg *config.Configuration, pipeline *service.Pipeline, records ports.RecordStore, log *logrus.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		records:  records,
		validate: validator.New(),
		jobs:     newJobStore(),
		uploads:  newUploadStore(),
		log:      log,
	}

	app := fiber.New(fiber.Config{
		AppName:   "BrandVoice API",
		BodyLimit: 50 * 1024 * 1024, // channel exports can be large
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("request failed")
			return c.Status(code).JSON(fiber.Map{"detail": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}))

	app.Get("/", s.handleRoot)
	app.Post("/api/upload", s.handleUpload)
	app.Post("/api/process", s.handleProcess)
	app.Get("/api/progress/:id", s.handleProgress)
	app.Get("/api/recent-creators", s.handleRecentCreators)
	app.Get("/api/download/:filename", s.handleDownload)
	app.Get("/api/preview/:filename", s.handlePreview)

	s.app = app
	return s
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP on the configured address.
func (s *Server) Listen() error {
	s.log.WithField("address", s.cfg.Address).Info("starting API server")
	return s.app.Listen(s.cfg.Address)
}

// Shutdown drains in-flight requests. Background jobs keep running.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

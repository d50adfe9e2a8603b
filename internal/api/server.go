// Package api assembles the HTTP surface of the symptom checker.
package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/symptom-checker/backend/internal/api/handlers"
	"github.com/symptom-checker/backend/internal/diagnosis"
	"github.com/symptom-checker/backend/internal/metrics"
	"github.com/symptom-checker/backend/internal/middleware/ratelimit"
	"github.com/symptom-checker/backend/internal/middleware/security"
	"github.com/symptom-checker/backend/internal/middleware/validation"
	"github.com/symptom-checker/backend/pkg/config"
	"github.com/symptom-checker/backend/pkg/logger"
)

// Pinger is implemented by slot backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	// Ready is checked by /ready; nil means always ready.
	Ready Pinger
	// AccessLog toggles the fiber request log.
	AccessLog bool
}

func NewApp(cfg *config.Config, service *diagnosis.Service, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "symptom-checker",
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.Server.IsDevelopment}))
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if opts.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.IsDevelopment,
	}))

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	api.Get("/ready", readyHandler(opts.Ready))

	api.Use(ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               logger.Named("ratelimit"),
	}))
	api.Use(validation.Middleware(validation.Config{Logger: logger.Named("validation")}))

	catalogHandler := handlers.NewCatalogHandler(service)
	diagnosisHandler := handlers.NewDiagnosisHandler(service)
	profileHandler := handlers.NewProfileHandler(service)

	api.Get("/body-parts", catalogHandler.ListBodyParts)
	api.Get("/symptoms", catalogHandler.ListSymptoms)
	api.Get("/symptoms/:id", catalogHandler.GetSymptom)
	api.Get("/conditions/:id", catalogHandler.GetCondition)

	api.Post("/rankings", diagnosisHandler.Rank)
	api.Post("/diagnoses", diagnosisHandler.Create)
	api.Get("/diagnoses", diagnosisHandler.List)
	api.Get("/diagnoses/:id", diagnosisHandler.Get)
	api.Delete("/diagnoses", diagnosisHandler.Clear)

	api.Get("/profile", profileHandler.Get)
	api.Put("/profile", profileHandler.Put)

	return app
}

func readyHandler(p Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if p != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				logger.Warn("Readiness check failed", zap.Error(err))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An error occurred while processing your request. Please try again."

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		logger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

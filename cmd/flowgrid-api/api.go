// Package main provides the FlowGrid API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/web"
	"github.com/flowgrid/flowgrid/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	engine      *workflow.Engine
}

func NewAPI(logger *slog.Logger, p persistence.Persistence, engine *workflow.Engine) *API {
	return &API{
		logger:      logger,
		persistence: p,
		engine:      engine,
	}
}

func (a *API) App() *fiber.App {
	repository := workflow.NewRepository(a.persistence)
	handlers := web.NewAPIHandlers(repository, a.engine, a.persistence)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("FlowGrid API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}

package server

import (
	"log"

	"docgen-selection-be/internal/bootstrap"
	"docgen-selection-be/internal/config"
	"docgen-selection-be/internal/pkg/serverutils"
	"docgen-selection-be/internal/section"
	"docgen-selection-be/internal/service"
	"docgen-selection-be/internal/tracker"
	"docgen-selection-be/pkg/restore"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// errorStatuses maps domain sentinels to HTTP codes; anything else is a 500.
var errorStatuses = []serverutils.ErrorStatus{
	{Err: restore.ErrFavoriteNotFound, Code: fiber.StatusNotFound},
	{Err: service.ErrSectionNotMounted, Code: fiber.StatusNotFound},
	{Err: service.ErrFavoriteForbidden, Code: fiber.StatusForbidden},
	{Err: service.ErrTabForbidden, Code: fiber.StatusForbidden},
	{Err: restore.ErrRestoreInProgress, Code: fiber.StatusConflict},
	{Err: restore.ErrSectionRetired, Code: fiber.StatusConflict},
	{Err: restore.ErrInvalidTransition, Code: fiber.StatusConflict},
	{Err: service.ErrFavoriteDocTypeMismatch, Code: fiber.StatusUnprocessableEntity},
	{Err: section.ErrUnknownKind, Code: fiber.StatusBadRequest},
	{Err: section.ErrInvalidPayload, Code: fiber.StatusBadRequest},
	{Err: tracker.ErrTrackerUnavailable, Code: fiber.StatusBadGateway},
}

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + serverutils.TabSessionHeader,
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))

	app.Use(serverutils.ErrorHandlerMiddleware(errorStatuses...))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(serverutils.SuccessResponse[any]("ok", nil))
	})

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.FavoriteController.RegisterRoutes(api, c.Auth)
	c.FormController.RegisterRoutes(api, c.Auth)
	c.WsController.RegisterRoutes(api, c.Auth)
}

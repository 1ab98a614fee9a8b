package api

import (
	"time"

	"snaplens/docs"
	"snaplens/internal/api/handlers"
	"snaplens/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// multipart framing on top of the file itself
const multipartOverhead = 1 << 20

type RouterConfig struct {
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

func SetupRouter(
	analysisHandler *handlers.AnalysisHandler,
	itemHandler *handlers.ItemHandler,
	cfg RouterConfig,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "SnapLens",
		// above the upload limit so the handler answers 413 with a JSON body
		BodyLimit:    int(cfg.MaxUploadBytes) + multipartOverhead,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(appLogger))

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/", Health)

	app.Post("/upload", analysisHandler.Upload)

	items := app.Group("/items")
	items.Post("", itemHandler.CreateItem)
	items.Get("", itemHandler.ListItems)
	items.Delete("/:id", itemHandler.DeleteItem)

	return app
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "SnapLens API is running",
	})
}

package bootstrap

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	apihttp "github.com/ioa2205/email-support-agent/adapter/in/http"
	"github.com/ioa2205/email-support-agent/infra/middleware"
)

// NewWeb builds the management API around already-wired dependencies.
func NewWeb(deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: deps.Config.IsProduction(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             1 * 1024 * 1024,
	})

	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New())

	apihttp.NewAccountHandler(deps.OAuthService).Register(app)

	app.Get("/health/db", func(c *fiber.Ctx) error {
		if err := deps.DB.Ping(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unreachable")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app
}

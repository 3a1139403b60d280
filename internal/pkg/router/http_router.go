package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/restaurafoto/RestauraFoto/app/controllers"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// The settlement webhook lives outside /api/v1 and outside the rate
	// limiter: the payment provider retries on anything but a 2xx, and
	// throttling it away would delay crediting paid customers.
	app.Post("/webhook/pix", controllers.HandlePixWebhook)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

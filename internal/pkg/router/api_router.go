package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/restaurafoto/RestauraFoto/app/controllers"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/middleware"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/ratelimit"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	v1 := app.Group("/api/v1")

	// Auth: passwordless login codes. Sending is throttled harder than
	// verifying so the mailer cannot be used as a spam relay.
	v1.Post("/auth/code", ratelimit.New(ratelimit.EndpointAuthCodeSend), controllers.HandleAuthCodeSend)
	v1.Post("/auth/verify", ratelimit.New(ratelimit.EndpointAuthCodeVerify), controllers.HandleAuthCodeVerify)
	v1.Post("/auth/logout", middleware.RequireAuth, controllers.HandleLogout)

	// Account
	v1.Get("/me", middleware.RequireAuth, controllers.HandleMe)
	v1.Get("/me/photos", middleware.RequireAuth, controllers.HandleMyPhotos)
	v1.Get("/me/payments", middleware.RequireAuth, controllers.HandleMyPayments)

	// Photo pipeline
	v1.Post("/upload", ratelimit.New(ratelimit.EndpointUpload), middleware.RequireAuth, controllers.HandleUpload)
	v1.Post("/restore", ratelimit.New(ratelimit.EndpointRestore), middleware.RequireAuth, controllers.HandleRestore)
	v1.Post("/adjust", ratelimit.New(ratelimit.EndpointAdjust), middleware.RequireAuth, controllers.HandleAdjust)

	// Billing. Charge creation is open to anonymous buyers by design.
	v1.Get("/plans", controllers.HandleListPlans)
	v1.Post("/payments/pix", ratelimit.New(ratelimit.EndpointPixCreate), controllers.HandleCreatePixCharge)
	v1.Post("/payments/refund", ratelimit.New(ratelimit.EndpointRefund), middleware.RequireAuth, controllers.HandleRefundRequest)

	// Contact form
	v1.Post("/email/contact", ratelimit.New(ratelimit.EndpointEmail), controllers.HandleContactEmail)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

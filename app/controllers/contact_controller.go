package controllers

import (
	"fmt"
	"html"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/restaurafoto/RestauraFoto/internal/pkg/env"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/mail"
)

type contactRequest struct {
	Email   string `json:"email" validate:"required,email,min=5,max=200"`
	Name    string `json:"name" validate:"max=150"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// HandleContactEmail forwards a contact form submission to the support inbox.
func HandleContactEmail(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Requisição inválida")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Preencha e-mail e mensagem (mínimo de 10 caracteres)")
	}

	supportAddr := env.GetEnv("SUPPORT_EMAIL", "contato@restaurafoto.com.br")
	subject := "Contato pelo site - RestauraFoto"
	body := fmt.Sprintf(
		"<h2>Nova mensagem de contato</h2>"+
			"<p><strong>Nome:</strong> %s</p>"+
			"<p><strong>E-mail:</strong> %s</p>"+
			"<p>%s</p>",
		html.EscapeString(strings.TrimSpace(req.Name)),
		html.EscapeString(strings.TrimSpace(req.Email)),
		html.EscapeString(strings.TrimSpace(req.Message)),
	)

	if err := mail.SendMail(supportAddr, subject, body); err != nil {
		fiberlog.Errorf("[Contact] forwarding message from %s failed: %v", req.Email, err)
		return serverError(c)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Mensagem enviada. Responderemos em breve."})
}

package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/restaurafoto/RestauraFoto/app/models"
	"github.com/restaurafoto/RestauraFoto/app/repository"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/mail"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/session"
)

var validate = validator.New()

type authCodeSendRequest struct {
	Email string `json:"email" validate:"required,email,min=5,max=200"`
}

type authCodeVerifyRequest struct {
	Email string `json:"email" validate:"required,email,min=5,max=200"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// HandleAuthCodeSend mails a single-use 6-digit login code to the given
// address. The response is identical whether or not an account exists, so the
// endpoint cannot be used to enumerate customers.
func HandleAuthCodeSend(c *fiber.Ctx) error {
	var req authCodeSendRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Requisição inválida")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Informe um e-mail válido")
	}

	code, clearCode, err := models.NewLoginCode(req.Email)
	if err != nil {
		fiberlog.Errorf("[Auth] login code generation failed: %v", err)
		return serverError(c)
	}
	if err := repository.GetGlobalRepositories().LoginCode.Create(code); err != nil {
		fiberlog.Errorf("[Auth] login code store failed: %v", err)
		return serverError(c)
	}

	if err := mail.NewSMTPNotifier().SendLoginCode(code.Email, clearCode); err != nil {
		fiberlog.Errorf("[Auth] login code mail to %s failed: %v", code.Email, err)
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Se o e-mail estiver correto, você receberá um código em instantes.",
	})
}

// HandleAuthCodeVerify exchanges a mailed code for a login session. The
// account is created on first successful verification.
func HandleAuthCodeVerify(c *fiber.Ctx) error {
	var req authCodeVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Requisição inválida")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Informe o e-mail e o código de 6 dígitos")
	}

	repos := repository.GetGlobalRepositories()
	email := models.NormalizeEmail(req.Email)

	code, err := repos.LoginCode.GetLatestByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "Código inválido ou expirado")
		}
		fiberlog.Errorf("[Auth] login code lookup failed: %v", err)
		return serverError(c)
	}
	if !code.IsUsable() || !code.Matches(req.Code) {
		return jsonError(c, fiber.StatusUnauthorized, "Código inválido ou expirado")
	}
	if err := repos.LoginCode.MarkConsumed(code.ID); err != nil {
		fiberlog.Errorf("[Auth] login code consume failed: %v", err)
		return serverError(c)
	}

	user, err := repos.User.GetOrCreateByEmail(email)
	if err != nil {
		fiberlog.Errorf("[Auth] user resolution for %s failed: %v", email, err)
		return serverError(c)
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "Esta conta está desativada")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repos.User.Update(user); err != nil {
		fiberlog.Warnf("[Auth] last login update for user %d failed: %v", user.ID, err)
	}

	if err := session.SetSessionValue(c, "user_id", strconv.FormatUint(uint64(user.ID), 10)); err != nil {
		fiberlog.Errorf("[Auth] session create for user %d failed: %v", user.ID, err)
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":      user.ID,
			"name":    user.Name,
			"email":   user.Email,
			"credits": user.Credits,
		},
	})
}

// HandleLogout drops the caller's session.
func HandleLogout(c *fiber.Ctx) error {
	if err := session.DestroySession(c); err != nil {
		fiberlog.Warnf("[Auth] logout failed: %v", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

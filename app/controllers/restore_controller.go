package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/restaurafoto/RestauraFoto/app/models"
	"github.com/restaurafoto/RestauraFoto/app/repository"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/middleware"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/photostore"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/restore"
)

type restoreRequest struct {
	PhotoID       string `json:"photoId"`
	Upscale       int    `json:"upscale"`
	FaceEnhance   bool   `json:"faceEnhance"`
	Colorize      bool   `json:"colorize"`
	ScratchRemove bool   `json:"scratchRemove"`
}

type adjustRequest struct {
	PhotoID    string  `json:"photoId"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Colorize   bool    `json:"colorize"`
}

// HandleRestore starts a restoration run for an uploaded photo. The run is
// charged up front (one credit, or the one-time free trial) and the credit is
// refunded when the run fails.
func HandleRestore(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	var req restoreRequest
	if err := c.BodyParser(&req); err != nil || req.PhotoID == "" {
		return jsonError(c, fiber.StatusBadRequest, "Informe o photoId")
	}

	repos := repository.GetGlobalRepositories()
	photo, err := repos.Photo.GetByUUID(req.PhotoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "Foto não encontrada")
		}
		return serverError(c)
	}
	if photo.UserID != userID {
		return jsonError(c, fiber.StatusNotFound, "Foto não encontrada")
	}
	if !photo.IsRestorable() {
		return jsonError(c, fiber.StatusConflict, "Esta foto já está em processamento ou restaurada")
	}

	user, err := repos.User.GetByID(userID)
	if err != nil {
		return serverError(c)
	}
	if !user.HasRestoreBudget() {
		return jsonError(c, fiber.StatusPaymentRequired, "Seus créditos acabaram. Adquira um pacote para continuar restaurando.")
	}

	// Charge before the run so two concurrent requests cannot both ride the
	// same last credit. A failed run refunds below.
	chargedCredit := false
	usedTrial := false
	if user.Credits > 0 {
		if err := repos.User.ConsumeCredit(userID); err != nil {
			return jsonError(c, fiber.StatusPaymentRequired, "Seus créditos acabaram. Adquira um pacote para continuar restaurando.")
		}
		chargedCredit = true
	} else {
		if err := repos.User.ConsumeTrial(userID); err != nil {
			return jsonError(c, fiber.StatusPaymentRequired, "Seu teste gratuito já foi utilizado. Adquira um pacote para continuar.")
		}
		usedTrial = true
	}

	store := photostore.GetClient()
	if store == nil {
		refundRestoreCharge(repos, userID, chargedCredit, usedTrial)
		return jsonError(c, fiber.StatusServiceUnavailable, "Restauração está temporariamente indisponível")
	}

	photo.Status = models.PhotoStatusRestoring
	if err := repos.Photo.Update(photo); err != nil {
		refundRestoreCharge(repos, userID, chargedCredit, usedTrial)
		return serverError(c)
	}

	opts := restore.Options{
		Upscale:       req.Upscale,
		FaceEnhance:   req.FaceEnhance,
		Colorize:      req.Colorize,
		ScratchRemove: req.ScratchRemove,
	}
	restoredKey, runErr := runInference(c.Context(), store, photo, store.PublicURL(photo.ObjectKey), opts)
	if runErr != nil {
		fiberlog.Errorf("[Restore] run for photo %s failed: %v", photo.UUID, runErr)
		photo.Status = models.PhotoStatusFailed
		if err := repos.Photo.Update(photo); err != nil {
			fiberlog.Warnf("[Restore] failure status update for %s failed: %v", photo.UUID, err)
		}
		refundRestoreCharge(repos, userID, chargedCredit, usedTrial)
		return jsonError(c, fiber.StatusBadGateway, "A restauração falhou. Seu crédito foi devolvido, tente novamente.")
	}

	photo.Status = models.PhotoStatusRestored
	photo.RestoredKey = restoredKey
	if err := repos.Photo.Update(photo); err != nil {
		fiberlog.Errorf("[Restore] result record for %s failed: %v", photo.UUID, err)
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"photo": fiber.Map{
			"uuid":        photo.UUID,
			"status":      photo.Status,
			"restoredUrl": store.PublicURL(photo.RestoredKey),
		},
	})
}

// HandleAdjust re-runs the model with tone parameters on an already restored
// photo. Adjustments are free; the credit paid for the restoration covers
// them.
func HandleAdjust(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	var req adjustRequest
	if err := c.BodyParser(&req); err != nil || req.PhotoID == "" {
		return jsonError(c, fiber.StatusBadRequest, "Informe o photoId")
	}

	repos := repository.GetGlobalRepositories()
	photo, err := repos.Photo.GetByUUID(req.PhotoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "Foto não encontrada")
		}
		return serverError(c)
	}
	if photo.UserID != userID {
		return jsonError(c, fiber.StatusNotFound, "Foto não encontrada")
	}
	if photo.Status != models.PhotoStatusRestored || photo.RestoredKey == "" {
		return jsonError(c, fiber.StatusConflict, "Ajustes só estão disponíveis para fotos já restauradas")
	}

	store := photostore.GetClient()
	if store == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "Ajustes estão temporariamente indisponíveis")
	}

	opts := restore.Options{
		Brightness: req.Brightness,
		Contrast:   req.Contrast,
		Colorize:   req.Colorize,
	}
	adjustedKey, runErr := runInference(c.Context(), store, photo, store.PublicURL(photo.RestoredKey), opts)
	if runErr != nil {
		fiberlog.Errorf("[Restore] adjust for photo %s failed: %v", photo.UUID, runErr)
		return jsonError(c, fiber.StatusBadGateway, "O ajuste falhou. Tente novamente em instantes.")
	}

	photo.RestoredKey = adjustedKey
	if err := repos.Photo.Update(photo); err != nil {
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"photo": fiber.Map{
			"uuid":        photo.UUID,
			"status":      photo.Status,
			"restoredUrl": store.PublicURL(photo.RestoredKey),
		},
	})
}

// runInference calls the inference API and copies its output object into our
// bucket so results survive the provider's short-lived URLs.
func runInference(parent context.Context, store *photostore.Client, photo *models.Photo, sourceURL string, opts restore.Options) (string, error) {
	ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
	defer cancel()

	result, err := restore.NewClientFromEnv().Restore(ctx, sourceURL, opts)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, result.OutputURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := (&http.Client{Timeout: 60 * time.Second}).Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch inference output: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch inference output: status=%d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return "", fmt.Errorf("read inference output: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	key := fmt.Sprintf("restored/%d/%s-%d.png", photo.UserID, photo.UUID, time.Now().Unix())
	if err := store.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", fmt.Errorf("store inference output: %w", err)
	}
	return key, nil
}

func refundRestoreCharge(repos *repository.Repositories, userID uint, chargedCredit, usedTrial bool) {
	if chargedCredit {
		if err := repos.User.AddCredits(userID, 1); err != nil {
			fiberlog.Errorf("[Restore] credit refund for user %d failed: %v", userID, err)
		}
		return
	}
	if usedTrial {
		// Re-arm the free trial so a provider outage does not burn it.
		user, err := repos.User.GetByID(userID)
		if err != nil {
			fiberlog.Errorf("[Restore] trial refund lookup for user %d failed: %v", userID, err)
			return
		}
		user.TrialUsed = false
		if err := repos.User.Update(user); err != nil {
			fiberlog.Errorf("[Restore] trial refund for user %d failed: %v", userID, err)
		}
	}
}

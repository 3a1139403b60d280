package controllers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/restaurafoto/RestauraFoto/app/models"
	"github.com/restaurafoto/RestauraFoto/app/repository"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/middleware"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/photostore"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/upload"
)

const maxUploadBytes = 25 * 1024 * 1024

// HandleUpload receives an original photo, validates it by content sniffing
// and stores it in the photo bucket plus a DB record. Uploading never costs a
// credit; only starting a restoration does.
func HandleUpload(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Envie uma imagem no campo 'file'")
	}
	if fileHeader.Size <= 0 || fileHeader.Size > maxUploadBytes {
		return jsonError(c, fiber.StatusBadRequest, "A imagem deve ter no máximo 25 MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Não foi possível ler o arquivo enviado")
	}
	defer file.Close()

	head := make([]byte, 512)
	n, _ := file.Read(head)
	contentType, err := upload.ValidateImageBySniff(fileHeader.Filename, head[:n])
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if _, err := file.Seek(0, 0); err != nil {
		return serverError(c)
	}

	store := photostore.GetClient()
	if store == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "Upload de fotos está temporariamente indisponível")
	}

	photoUUID := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	objectKey := fmt.Sprintf("photos/%d/%s%s", userID, photoUUID, ext)

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()
	if err := store.Upload(ctx, objectKey, contentType, file, fileHeader.Size); err != nil {
		fiberlog.Errorf("[Upload] store write for user %d failed: %v", userID, err)
		return serverError(c)
	}

	photo := &models.Photo{
		UUID:         photoUUID,
		UserID:       userID,
		OriginalName: fileHeader.Filename,
		ObjectKey:    objectKey,
		ContentType:  contentType,
		SizeBytes:    fileHeader.Size,
		Status:       models.PhotoStatusUploaded,
	}
	if err := repository.GetGlobalRepositories().Photo.Create(photo); err != nil {
		fiberlog.Errorf("[Upload] photo record for user %d failed: %v", userID, err)
		// Object without a record is just dead weight; try to clean it up.
		if delErr := store.Delete(context.Background(), objectKey); delErr != nil {
			fiberlog.Warnf("[Upload] orphan cleanup of %s failed: %v", objectKey, delErr)
		}
		return serverError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"photo": fiber.Map{
			"uuid":   photo.UUID,
			"status": photo.Status,
			"size":   photo.SizeBytes,
		},
	})
}

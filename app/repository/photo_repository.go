package repository

import (
	"github.com/restaurafoto/RestauraFoto/app/models"
	"gorm.io/gorm"
)

// photoRepository implements the PhotoRepository interface
type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new photo repository instance
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

// Create creates a new photo in the database
func (r *photoRepository) Create(photo *models.Photo) error {
	return r.db.Create(photo).Error
}

// GetByUUID retrieves a photo by its public UUID
func (r *photoRepository) GetByUUID(uuid string) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.Where("uuid = ?", uuid).First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// GetByUserID retrieves photos owned by a user with pagination
func (r *photoRepository) GetByUserID(userID uint, offset, limit int) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&photos).Error
	return photos, err
}

// Update updates an existing photo in the database
func (r *photoRepository) Update(photo *models.Photo) error {
	return r.db.Save(photo).Error
}

// CountByUserID returns the number of photos owned by a user
func (r *photoRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Photo{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

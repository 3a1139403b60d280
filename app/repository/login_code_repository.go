package repository

import (
	"time"

	"github.com/restaurafoto/RestauraFoto/app/models"
	"gorm.io/gorm"
)

// loginCodeRepository implements the LoginCodeRepository interface
type loginCodeRepository struct {
	db *gorm.DB
}

// NewLoginCodeRepository creates a new login code repository instance
func NewLoginCodeRepository(db *gorm.DB) LoginCodeRepository {
	return &loginCodeRepository{db: db}
}

// Create creates a new login code in the database
func (r *loginCodeRepository) Create(code *models.LoginCode) error {
	return r.db.Create(code).Error
}

// GetLatestByEmail returns the newest code issued for an email address.
func (r *loginCodeRepository) GetLatestByEmail(email string) (*models.LoginCode, error) {
	var code models.LoginCode
	err := r.db.Where("email = ?", models.NormalizeEmail(email)).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// MarkConsumed invalidates a code after a successful verification.
func (r *loginCodeRepository) MarkConsumed(id uint) error {
	now := time.Now()
	return r.db.Model(&models.LoginCode{}).
		Where("id = ?", id).
		UpdateColumn("consumed_at", &now).Error
}

// DeleteExpired removes stale codes and returns how many were dropped.
func (r *loginCodeRepository) DeleteExpired() (int64, error) {
	tx := r.db.Where("expires_at < ?", time.Now()).Delete(&models.LoginCode{})
	return tx.RowsAffected, tx.Error
}

package repository

import (
	"errors"
	"strings"

	"github.com/restaurafoto/RestauraFoto/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their normalized email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateByEmail resolves an account, creating it lazily on first
// reference. A create that loses a unique-index race falls back to the
// existing row.
func (r *userRepository) GetOrCreateByEmail(email string) (*models.User, error) {
	normalized := models.NormalizeEmail(email)
	if normalized == "" {
		return nil, errors.New("email is required")
	}

	user, err := r.GetByEmail(normalized)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created, err := models.NewUser(normalized, "")
	if err != nil {
		return nil, err
	}
	if err := r.db.Create(created).Error; err != nil {
		// Concurrent webhook deliveries can both miss the lookup; the
		// unique index decides and we re-read the winner.
		if existing, lookupErr := r.GetByEmail(normalized); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return created, nil
}

// AddCredits atomically increments the credit balance.
func (r *userRepository) AddCredits(userID uint, amount int) error {
	if amount <= 0 {
		return errors.New("credit amount must be positive")
	}
	tx := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("credits", gorm.Expr("credits + ?", amount))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ConsumeCredit decrements one credit, guarded so the balance never goes
// negative under concurrent restore requests.
func (r *userRepository) ConsumeCredit(userID uint) error {
	tx := r.db.Model(&models.User{}).
		Where("id = ? AND credits > 0", userID).
		UpdateColumn("credits", gorm.Expr("credits - 1"))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("no credits available")
	}
	return nil
}

// ConsumeTrial flips the one-way trial flag. Fails if already used.
func (r *userRepository) ConsumeTrial(userID uint) error {
	tx := r.db.Model(&models.User{}).
		Where("id = ? AND trial_used = ?", userID, false).
		UpdateColumn("trial_used", true)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("trial already used")
	}
	return nil
}

// UpdateProfile sets the display name when a non-empty one is provided.
func (r *userRepository) UpdateProfile(userID uint, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil
	}
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("name", trimmed).Error
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

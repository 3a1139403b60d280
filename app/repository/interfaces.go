package repository

import (
	"github.com/restaurafoto/RestauraFoto/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetOrCreateByEmail(email string) (*models.User, error)
	AddCredits(userID uint, amount int) error
	ConsumeCredit(userID uint) error
	ConsumeTrial(userID uint) error
	UpdateProfile(userID uint, name string) error
	Update(user *models.User) error
	Count() (int64, error)
}

// PaymentRepository defines the interface for payment record operations
type PaymentRepository interface {
	CreateIfNotExists(payment *models.Payment) (bool, error)
	GetByProviderPaymentID(providerPaymentID string) (*models.Payment, error)
	ListByUserID(userID uint, offset, limit int) ([]models.Payment, error)
	MarkRefunded(providerPaymentID string) error
}

// PhotoRepository defines the interface for photo-related database operations
type PhotoRepository interface {
	Create(photo *models.Photo) error
	GetByUUID(uuid string) (*models.Photo, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Photo, error)
	Update(photo *models.Photo) error
	CountByUserID(userID uint) (int64, error)
}

// LoginCodeRepository defines the interface for passwordless login codes
type LoginCodeRepository interface {
	Create(code *models.LoginCode) error
	GetLatestByEmail(email string) (*models.LoginCode, error)
	MarkConsumed(id uint) error
	DeleteExpired() (int64, error)
}

// WebhookEventRepository stores inbound provider deliveries for audit and
// deduplication.
type WebhookEventRepository interface {
	CreateIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Payment      PaymentRepository
	Photo        PhotoRepository
	LoginCode    LoginCodeRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Payment:      NewPaymentRepository(db),
		Photo:        NewPhotoRepository(db),
		LoginCode:    NewLoginCodeRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}

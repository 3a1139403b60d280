package pix

import (
	"github.com/restaurafoto/RestauraFoto/app/models"
	"github.com/restaurafoto/RestauraFoto/app/repository"
	"gorm.io/gorm"
)

// Repository provides the DB operations used by the reconciler service.
type Repository interface {
	GetOrCreateUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	AddCredits(userID uint, amount int) error
	UpdateProfile(userID uint, name string) error
	CreatePaymentIfNotExists(payment *models.Payment) (bool, error)
	GetPaymentByProviderID(providerPaymentID string) (*models.Payment, error)
	MarkPaymentRefunded(providerPaymentID string) error
	RecordWebhookEvent(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	users    repository.UserRepository
	payments repository.PaymentRepository
	events   repository.WebhookEventRepository
}

// NewRepository creates a reconciler repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	repos := repository.NewRepositories(db)
	return &gormRepository{
		users:    repos.User,
		payments: repos.Payment,
		events:   repos.WebhookEvent,
	}
}

func (r *gormRepository) GetOrCreateUserByEmail(email string) (*models.User, error) {
	return r.users.GetOrCreateByEmail(email)
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	return r.users.GetByID(id)
}

func (r *gormRepository) AddCredits(userID uint, amount int) error {
	return r.users.AddCredits(userID, amount)
}

func (r *gormRepository) UpdateProfile(userID uint, name string) error {
	return r.users.UpdateProfile(userID, name)
}

func (r *gormRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	return r.payments.CreateIfNotExists(payment)
}

func (r *gormRepository) GetPaymentByProviderID(providerPaymentID string) (*models.Payment, error) {
	return r.payments.GetByProviderPaymentID(providerPaymentID)
}

func (r *gormRepository) MarkPaymentRefunded(providerPaymentID string) error {
	return r.payments.MarkRefunded(providerPaymentID)
}

func (r *gormRepository) RecordWebhookEvent(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	return r.events.CreateIfNotExists(event)
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	return r.events.MarkProcessed(id, processingError)
}

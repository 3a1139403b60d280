package models

import "time"

const (
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"

	PaymentMethodPix = "pix"
)

// Payment is the append-only record correlating a provider payment id with
// the user and the credits granted for it. The unique index on
// ProviderPaymentID is what turns the provider's at-least-once webhook
// delivery into exactly-once crediting.
type Payment struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ProviderPaymentID string    `gorm:"uniqueIndex;type:varchar(191);not null" json:"provider_payment_id"`
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	PlanID            string    `gorm:"type:varchar(20)" json:"plan_id"`
	Credits           int       `gorm:"not null" json:"credits"`
	AmountBRL         float64   `gorm:"type:decimal(10,2);not null" json:"amount_brl"`
	FeeBRL            float64   `gorm:"type:decimal(10,2)" json:"fee_brl"`
	Method            string    `gorm:"type:varchar(20);default:'pix'" json:"method"`
	Status            string    `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

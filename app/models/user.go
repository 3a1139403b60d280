package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	Email       string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Credits     int            `gorm:"not null;default:0" json:"credits" validate:"min=0"`
	TrialUsed   bool           `gorm:"not null;default:false" json:"trial_used"`
	Status      string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active disabled"`
	LastLoginAt *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// NormalizeEmail trims and lowercases an address so lookups are
// case-insensitive regardless of what the payment provider echoes back.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser builds an account for a normalized email address. Accounts are
// created lazily on first reference (auth code verify or paid webhook).
func NewUser(email, name string) (*User, error) {
	u := &User{
		Name:   strings.TrimSpace(name),
		Email:  NormalizeEmail(email),
		Status: STATUS_ACTIVE,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// HasRestoreBudget reports whether the user can start a restoration,
// either via purchased credits or the one-time free trial.
func (u *User) HasRestoreBudget() bool {
	return u.Credits > 0 || !u.TrialUsed
}

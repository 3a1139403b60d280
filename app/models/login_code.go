package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const loginCodeTTL = 10 * time.Minute

// LoginCode is a single-use passwordless login code. Only the bcrypt hash is
// stored; the clear code goes out by email and is never persisted.
type LoginCode struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Email      string     `gorm:"type:varchar(200);not null;index" json:"email"`
	CodeHash   string     `gorm:"type:varchar(100);not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// NewLoginCode generates a 6-digit code for the given email and returns the
// record plus the clear code for delivery.
func NewLoginCode(email string) (*LoginCode, string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return nil, "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	lc := &LoginCode{
		Email:     NormalizeEmail(email),
		CodeHash:  string(hash),
		ExpiresAt: time.Now().Add(loginCodeTTL),
	}
	return lc, code, nil
}

// Matches verifies a submitted code against the stored hash.
func (lc *LoginCode) Matches(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(lc.CodeHash), []byte(code)) == nil
}

// IsUsable reports whether the code is unconsumed and unexpired.
func (lc *LoginCode) IsUsable() bool {
	return lc.ConsumedAt == nil && time.Now().Before(lc.ExpiresAt)
}

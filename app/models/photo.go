package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PhotoStatusUploaded  = "uploaded"
	PhotoStatusRestoring = "restoring"
	PhotoStatusRestored  = "restored"
	PhotoStatusFailed    = "failed"
)

type Photo struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UUID         string         `gorm:"uniqueIndex;type:varchar(36);not null" json:"uuid"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	OriginalName string         `gorm:"type:varchar(255)" json:"original_name"`
	ObjectKey    string         `gorm:"type:varchar(255);not null" json:"object_key"`
	RestoredKey  string         `gorm:"type:varchar(255)" json:"restored_key"`
	ContentType  string         `gorm:"type:varchar(100)" json:"content_type"`
	SizeBytes    int64          `json:"size_bytes"`
	Status       string         `gorm:"type:varchar(20);not null;default:'uploaded';index" json:"status"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsRestorable reports whether a restoration may be started for this photo.
func (p *Photo) IsRestorable() bool {
	return p.Status == PhotoStatusUploaded || p.Status == PhotoStatusFailed
}

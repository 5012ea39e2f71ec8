package models

import (
	"time"
)

// APIKey stores only the SHA-256 digest of the issued secret. The plaintext
// leaves the process exactly once, in the create response. KeyPreview keeps
// the display form (first 8 + last 4 characters) captured at creation.
type APIKey struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"index"`
	KeyHash    string     `json:"-" gorm:"uniqueIndex;size:64"`
	KeyPreview string     `json:"key_preview" gorm:"size:32"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	IsActive   bool       `json:"is_active" gorm:"default:true"`
}

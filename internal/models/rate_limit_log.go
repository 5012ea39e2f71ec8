package models

import (
	"time"
)

// RateLimitLog is append-only: one row per authenticated request that reached
// the accounting layer. Rows are never updated; pruning is handled by the
// retention job.
type RateLimitLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	APIKeyID  uint      `json:"api_key_id" gorm:"index"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
	Endpoint  string    `json:"endpoint"`
}

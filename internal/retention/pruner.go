// Package retention bounds the growth of the append-only rate-limit log.
// Rows older than the configured number of days are deleted on a cron
// schedule; a retention of 0 keeps the log forever.
package retention

import (
	"time"

	"github.com/kalori-makanan/dashboard-api/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Pruner struct {
	db            *gorm.DB
	log           logrus.FieldLogger
	retentionDays int
	schedule      string
	cron          *cron.Cron
	now           func() time.Time
}

func NewPruner(db *gorm.DB, logger *logrus.Logger, retentionDays int, schedule string) *Pruner {
	return &Pruner{
		db:            db,
		log:           logger.WithField("component", "retention"),
		retentionDays: retentionDays,
		schedule:      schedule,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules pruning. It is a no-op when retention is disabled.
func (p *Pruner) Start() error {
	if p.retentionDays <= 0 {
		p.log.Info("Log retention disabled, pruner not started")
		return nil
	}

	p.cron = cron.New()
	_, err := p.cron.AddFunc(p.schedule, func() {
		if _, err := p.Prune(); err != nil {
			p.log.WithError(err).Error("Scheduled prune failed")
		}
	})
	if err != nil {
		return err
	}

	p.cron.Start()
	p.log.WithFields(logrus.Fields{
		"retention_days": p.retentionDays,
		"schedule":       p.schedule,
	}).Info("Log retention pruner started")
	return nil
}

func (p *Pruner) Stop() {
	if p.cron != nil {
		p.cron.Stop()
	}
}

// Prune deletes log rows older than the retention period and returns how many
// were removed.
func (p *Pruner) Prune() (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.retentionDays)

	res := p.db.Where("timestamp < ?", cutoff).Delete(&models.RateLimitLog{})
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected > 0 {
		p.log.WithFields(logrus.Fields{
			"deleted": res.RowsAffected,
			"cutoff":  cutoff,
		}).Info("Pruned rate limit logs")
	}
	return res.RowsAffected, nil
}

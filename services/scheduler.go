// services/scheduler.go
package services

import (
	"errors"
	"log"
	"time"

	"wrestling-universe-tracker/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// StartRecomputeScheduler runs an incremental recompute of the most recent
// season on a fixed interval. The watermark makes the common case (no new
// matches) a zero-write no-op.
func (s *HighlightService) StartRecomputeScheduler(interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			var latest models.Match
			err := s.DB.Order("season DESC").First(&latest).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return
			}
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			result, err := s.RecomputeIncremental(latest.Season)
			if err != nil {
				log.Printf("[Scheduler] Failed to recompute season %d: %v", latest.Season, err)
				return
			}
			if !result.NoOp {
				log.Printf("✅ Auto-recomputed season %d: %d highlights", latest.Season, result.Inserted)
			}
		}),
	)
}

// services/scheduler.go
package services

import (
	"log"
	"time"

	"camp-study-system/models"

	"github.com/go-co-op/gocron/v2"
)

func (s *CampService) StartCohortScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: activate cohorts whose start date has passed
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var cohorts []models.Cohort
			now := time.Now()
			err := s.DB.Where("status = ? AND start_date IS NOT NULL AND start_date <= ?",
				models.CohortStatusEarlyRegistration, now).
				Find(&cohorts).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, cohort := range cohorts {
				updates := map[string]interface{}{
					"status":  models.CohortStatusActive,
					"is_open": true,
				}
				if err := s.DB.Model(&models.Cohort{}).
					Where("id = ?", cohort.ID).
					Updates(updates).Error; err != nil {
					log.Printf("[Scheduler] Failed to activate cohort %d of camp %s: %v", cohort.Number, cohort.CampID, err)
				} else {
					log.Printf("[Scheduler] Cohort %d of camp %s is now active and open", cohort.Number, cohort.CampID)
				}
			}
		}),
	)
}

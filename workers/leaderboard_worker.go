package workers

import (
	"context"
	"log"
	"time"

	"camp-study-system/models"
	"camp-study-system/services"

	"gorm.io/gorm"
)

// LeaderboardWorker periodically recomputes the referral leaderboard of every
// active camp and stores it in the shared cache so the read path never runs
// the aggregate query on demand.
type LeaderboardWorker struct {
	db    *gorm.DB
	cache services.LeaderboardCache
	limit int
}

func NewLeaderboardWorker(db *gorm.DB, cache services.LeaderboardCache) *LeaderboardWorker {
	return &LeaderboardWorker{
		db:    db,
		cache: cache,
		limit: 50,
	}
}

// PollLeaderboards recomputes all boards on a fixed interval until ctx cancels.
func (w *LeaderboardWorker) PollLeaderboards(ctx context.Context, pollInterval time.Duration) {
	log.Println("Starting referral leaderboard polling...")

	// Warm the cache once at startup so the first reads don't miss
	w.refreshAll(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Leaderboard polling stopped.")
			return
		case <-ticker.C:
			w.refreshAll(ctx)
		}
	}
}

func (w *LeaderboardWorker) refreshAll(ctx context.Context) {
	var campIDs []string
	err := w.db.WithContext(ctx).
		Model(&models.Camp{}).
		Where("status = ?", models.CampStatusActive).
		Pluck("id", &campIDs).Error
	if err != nil {
		log.Printf("[LEADERBOARD] failed to list camps: %v", err)
		return
	}

	var refreshed int
	for _, campID := range campIDs {
		rows, err := w.computeBoard(ctx, campID)
		if err != nil {
			log.Printf("[LEADERBOARD] recompute failed for camp %s: %v", campID, err)
			continue
		}
		w.cache.Set(campID, rows)
		refreshed++
	}

	if refreshed > 0 {
		log.Printf("[LEADERBOARD] refreshed %d leaderboard(s)", refreshed)
	}
}

// computeBoard ranks a camp's enrollees by referral points across all cohorts,
// excluding supervisors. Usernames come from the local camp_users snapshot and
// may be empty when the profile sync has not caught up yet.
func (w *LeaderboardWorker) computeBoard(ctx context.Context, campID string) ([]services.LeaderboardRow, error) {
	rows := make([]services.LeaderboardRow, 0, w.limit)
	err := w.db.WithContext(ctx).Raw(`
		SELECT
			e.user_id AS user_id,
			COALESCE(cu.username, '') AS username,
			SUM(e.referral_points) AS referral_points,
			COUNT(cr.id) AS completed_referrals
		FROM enrollments e
		LEFT JOIN camp_users cu
			ON cu.external_user_id = e.user_id AND cu.deleted_at IS NULL
		LEFT JOIN camp_referrals cr
			ON cr.referrer_enrollment_id = e.id AND cr.status = ?
		WHERE e.camp_id = ?
		AND NOT EXISTS (
			SELECT 1 FROM camp_supervisors s
			WHERE s.camp_id = e.camp_id
			AND s.user_id = e.user_id
			AND (s.cohort_number IS NULL OR s.cohort_number = e.cohort_number)
		)
		GROUP BY e.user_id, cu.username
		HAVING SUM(e.referral_points) > 0
		ORDER BY referral_points DESC, completed_referrals DESC
		LIMIT ?
	`, models.ReferralStatusCompleted, campID, w.limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

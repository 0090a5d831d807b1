package services

import (
	"sync"
	"time"
)

// LeaderboardRow is one cached leaderboard line for a camp.
type LeaderboardRow struct {
	UserID             string `json:"user_id"`
	Username           string `json:"username,omitempty"`
	ReferralPoints     int64  `json:"referral_points"`
	CompletedReferrals int64  `json:"completed_referrals"`
}

// LeaderboardCache caches per-camp referral leaderboards. Invalidation is
// best-effort everywhere it is called; a nil cache is not an error.
type LeaderboardCache interface {
	Get(campID string) ([]LeaderboardRow, bool)
	Set(campID string, rows []LeaderboardRow)
	Invalidate(campID string)
}

type cachedBoard struct {
	rows      []LeaderboardRow
	expiresAt time.Time
}

// MemoryLeaderboardCache is the in-process implementation used by default.
type MemoryLeaderboardCache struct {
	mu     sync.RWMutex
	ttl    time.Duration
	boards map[string]cachedBoard
}

func NewMemoryLeaderboardCache(ttl time.Duration) *MemoryLeaderboardCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryLeaderboardCache{
		ttl:    ttl,
		boards: make(map[string]cachedBoard),
	}
}

func (c *MemoryLeaderboardCache) Get(campID string) ([]LeaderboardRow, bool) {
	c.mu.RLock()
	board, ok := c.boards[campID]
	c.mu.RUnlock()
	if !ok || time.Now().After(board.expiresAt) {
		return nil, false
	}
	return board.rows, true
}

func (c *MemoryLeaderboardCache) Set(campID string, rows []LeaderboardRow) {
	c.mu.Lock()
	c.boards[campID] = cachedBoard{rows: rows, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *MemoryLeaderboardCache) Invalidate(campID string) {
	c.mu.Lock()
	delete(c.boards, campID)
	c.mu.Unlock()
}

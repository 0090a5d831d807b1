package services

import (
	"crypto/rand"
	"fmt"
	"log"
	"strings"
	"time"

	"camp-study-system/models"

	"gorm.io/gorm"
)

const (
	referralCodeLength   = 8
	referralCodeAttempts = 5
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ReferralCodeIssuer mints and retrieves the short referral code bound to an
// enrollment. Codes are unique per (camp, cohort) by constraint; generation
// additionally checks them globally so links stay unambiguous.
type ReferralCodeIssuer struct {
	DB *gorm.DB
}

func NewReferralCodeIssuer(db *gorm.DB) *ReferralCodeIssuer {
	return &ReferralCodeIssuer{DB: db}
}

// GetOrCreateCode returns the enrollment's existing code unchanged, or mints
// and persists one. Calling it again always returns the same code.
func (i *ReferralCodeIssuer) GetOrCreateCode(enrollmentID string) (string, error) {
	var enrollment models.Enrollment
	if err := i.DB.First(&enrollment, "id = ?", enrollmentID).Error; err != nil {
		return "", err
	}
	if enrollment.ReferralCode != "" {
		return enrollment.ReferralCode, nil
	}

	code, fellBack := generateReferralCode(i.DB, enrollment.CampID, enrollment.UserID)
	if fellBack {
		log.Printf("[REFERRAL] random code attempts exhausted for enrollment %s, using composite fallback", enrollmentID)
	}
	if err := i.DB.Model(&enrollment).Update("referral_code", code).Error; err != nil {
		return "", err
	}
	return code, nil
}

// newCodeCandidate produces one candidate code. A var so tests can force
// collisions to drive the fallback path.
var newCodeCandidate = randomReferralCode

// generateReferralCode tries up to referralCodeAttempts random candidates,
// then falls back to a deterministic composite of camp, user, and time so
// the loop always terminates. fellBack reports which path produced the code.
func generateReferralCode(tx *gorm.DB, campID, userID string) (code string, fellBack bool) {
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		candidate := newCodeCandidate(referralCodeLength)
		var taken int64
		if err := tx.Model(&models.Enrollment{}).
			Where("referral_code = ?", candidate).
			Count(&taken).Error; err != nil {
			log.Printf("[REFERRAL] code uniqueness check failed (attempt %d): %v", attempt+1, err)
			continue
		}
		if taken == 0 {
			return candidate, false
		}
	}
	composite := fmt.Sprintf("C%s%sT%d", idFragment(campID), idFragment(userID), time.Now().Unix())
	return strings.ToUpper(composite), true
}

func randomReferralCode(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read failing is effectively unreachable; fall back to a
		// time-seeded pattern rather than returning an empty code.
		for i := range buf {
			buf[i] = byte(time.Now().UnixNano() >> (i * 7))
		}
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return string(out)
}

// idFragment takes the leading hex of a UUID so the composite fallback stays
// short enough for a shareable link.
func idFragment(id string) string {
	clean := strings.ReplaceAll(id, "-", "")
	if len(clean) > 4 {
		clean = clean[:4]
	}
	return clean
}

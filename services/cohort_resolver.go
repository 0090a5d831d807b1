package services

import (
	"errors"
	"log"

	"camp-study-system/models"

	"gorm.io/gorm"
)

// CohortResolver decides which cohort of a camp new members join. The policy
// is an ordered list of fallbacks; enrollment must never hard-fail just
// because cohort bookkeeping went stale, so resolution never returns an
// error and bottoms out at cohort 1.
type CohortResolver struct {
	DB *gorm.DB
}

func NewCohortResolver(db *gorm.DB) *CohortResolver {
	return &CohortResolver{DB: db}
}

// ResolveCurrentCohort evaluates each fallback in order and returns the
// first match:
//  1. highest-numbered cohort flagged open
//  2. highest-numbered active cohort (warns when more than one is active)
//  3. highest-numbered cohort in early registration
//  4. highest-numbered cohort of any status
//  5. the camp's stored current cohort number
//  6. cohort 1
func (r *CohortResolver) ResolveCurrentCohort(campID string) int {
	picks := []func(string) (int, bool){
		r.highestOpen,
		r.highestActive,
		r.highestEarlyRegistration,
		r.highestAny,
		r.campDefault,
	}
	for _, pick := range picks {
		if number, ok := pick(campID); ok {
			return number
		}
	}
	return 1
}

func (r *CohortResolver) highestOpen(campID string) (int, bool) {
	return r.highestWhere(campID, "is_open = ?", true)
}

func (r *CohortResolver) highestActive(campID string) (int, bool) {
	var activeCount int64
	if err := r.DB.Model(&models.Cohort{}).
		Where("camp_id = ? AND status = ?", campID, models.CohortStatusActive).
		Count(&activeCount).Error; err == nil && activeCount > 1 {
		log.Printf("[COHORT] camp %s has %d active cohorts, expected at most one", campID, activeCount)
	}
	return r.highestWhere(campID, "status = ?", models.CohortStatusActive)
}

func (r *CohortResolver) highestEarlyRegistration(campID string) (int, bool) {
	return r.highestWhere(campID, "status = ?", models.CohortStatusEarlyRegistration)
}

func (r *CohortResolver) highestAny(campID string) (int, bool) {
	var cohort models.Cohort
	err := r.DB.Where("camp_id = ?", campID).
		Order("number DESC").
		First(&cohort).Error
	if err != nil {
		return 0, false
	}
	return cohort.Number, true
}

func (r *CohortResolver) campDefault(campID string) (int, bool) {
	var camp models.Camp
	if err := r.DB.First(&camp, "id = ?", campID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[COHORT] failed to load camp %s for default cohort: %v", campID, err)
		}
		return 0, false
	}
	if camp.CurrentCohort <= 0 {
		return 0, false
	}
	return camp.CurrentCohort, true
}

func (r *CohortResolver) highestWhere(campID string, cond string, arg interface{}) (int, bool) {
	var cohort models.Cohort
	err := r.DB.Where("camp_id = ?", campID).
		Where(cond, arg).
		Order("number DESC").
		First(&cohort).Error
	if err != nil {
		return 0, false
	}
	return cohort.Number, true
}

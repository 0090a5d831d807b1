package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"camp-study-system/models"
	"camp-study-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type CampService struct {
	DB       *gorm.DB
	Resolver *CohortResolver
}

func NewCampService(db *gorm.DB, resolver *CohortResolver) *CampService {
	return &CampService{DB: db, Resolver: resolver}
}

func (s *CampService) CreateCamp(c *fiber.Ctx) error {
	name := c.FormValue("name")
	description := c.FormValue("description")
	maxParticipantsStr := c.FormValue("max_participants")
	startDateStr := c.FormValue("start_date")

	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	maxParticipants := 0
	if maxParticipantsStr != "" {
		if n, err := strconv.Atoi(maxParticipantsStr); err == nil && n >= 0 {
			maxParticipants = n
		} else {
			return c.Status(400).JSON(fiber.Map{"error": "max_participants must be a non-negative integer"})
		}
	}

	var startDate *time.Time
	if startDateStr != "" {
		parsed, err := time.Parse(time.RFC3339, startDateStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid start_date (use RFC3339)"})
		}
		startDate = &parsed
	}

	campSlug := slug.Make(name)
	var slugTaken int64
	s.DB.Model(&models.Camp{}).Where("slug = ?", campSlug).Count(&slugTaken)
	if slugTaken > 0 {
		campSlug = fmt.Sprintf("%s-%s", campSlug, idFragment(uuid.NewString()))
	}

	var coverPhotoURL string
	if cover, err := c.FormFile("cover_photo"); err == nil && cover.Size > 0 {
		ext := filepath.Ext(cover.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "camps/covers/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(cover, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload cover photo"})
		}
		coverPhotoURL = url
	}

	camp := &models.Camp{
		ID:              uuid.NewString(),
		Name:            name,
		Slug:            campSlug,
		Description:     description,
		Status:          models.CampStatusDraft,
		CoverPhotoURL:   coverPhotoURL,
		CurrentCohort:   1,
		MaxParticipants: maxParticipants,
		StartDate:       startDate,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(camp).Error; err != nil {
			return err
		}
		// Every camp starts with cohort 1 in early registration.
		cohort := models.Cohort{
			ID:        uuid.NewString(),
			CampID:    camp.ID,
			Number:    1,
			Status:    models.CohortStatusEarlyRegistration,
			StartDate: startDate,
		}
		return tx.Create(&cohort).Error
	})
	if err != nil {
		log.Printf("ERROR creating camp: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}

	s.DB.Preload("Cohorts").First(camp, "id = ?", camp.ID)
	return c.Status(201).JSON(camp)
}

func (s *CampService) GetAllCamps(c *fiber.Ctx) error {
	var camps []models.Camp
	query := s.DB.Preload("Cohorts", func(db *gorm.DB) *gorm.DB {
		return db.Order("number ASC")
	})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC").Find(&camps).Error; err != nil {
		log.Printf("ERROR fetching camps: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch camps"})
	}
	return c.JSON(camps)
}

func (s *CampService) GetCampByID(c *fiber.Ctx) error {
	id := c.Params("id")
	var camp models.Camp
	err := s.DB.Preload("Cohorts", func(db *gorm.DB) *gorm.DB {
		return db.Order("number ASC")
	}).First(&camp, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "camp not found"})
		}
		log.Printf("ERROR fetching camp %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	current := s.Resolver.ResolveCurrentCohort(id)
	taken, err := countEnrolledExcludingSupervisors(s.DB, id, current)
	if err != nil {
		log.Printf("ERROR counting enrollments for camp %s: %v", id, err)
	}
	camp.EnrolledCount = taken

	maxSeats := int64(camp.MaxParticipants)
	for _, cohort := range camp.Cohorts {
		if cohort.Number == current && cohort.MaxParticipants > 0 {
			maxSeats = int64(cohort.MaxParticipants)
		}
	}
	if maxSeats > 0 {
		camp.AvailableSlots = maxSeats - taken
	} else {
		camp.AvailableSlots = -1 // unlimited
	}

	return c.JSON(camp)
}

func (s *CampService) UpdateCampStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	type Req struct {
		Status string `json:"status" validate:"oneof=draft active completed cancelled"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	switch req.Status {
	case models.CampStatusDraft, models.CampStatusActive, models.CampStatusCompleted, models.CampStatusCancelled:
	default:
		return c.Status(400).JSON(fiber.Map{"error": "invalid status"})
	}

	result := s.DB.Model(&models.Camp{}).Where("id = ?", id).Update("status", req.Status)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "camp not found"})
	}

	var updated models.Camp
	s.DB.Preload("Cohorts").First(&updated, "id = ?", id)
	return c.JSON(updated)
}

func (s *CampService) CreateCohort(c *fiber.Ctx) error {
	campID := c.Params("id")
	type Req struct {
		Number          int    `json:"number"`
		Status          string `json:"status"`
		MaxParticipants int    `json:"max_participants"`
		StartDate       string `json:"start_date"`
		IsOpen          bool   `json:"is_open"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var camp models.Camp
	if err := s.DB.First(&camp, "id = ?", campID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "camp not found"})
	}

	number := req.Number
	if number <= 0 {
		// next free number
		var highest models.Cohort
		if err := s.DB.Where("camp_id = ?", campID).Order("number DESC").First(&highest).Error; err == nil {
			number = highest.Number + 1
		} else {
			number = 1
		}
	}

	status := req.Status
	if status == "" {
		status = models.CohortStatusEarlyRegistration
	}

	var startDate *time.Time
	if req.StartDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid start_date (use RFC3339)"})
		}
		startDate = &parsed
	}

	cohort := &models.Cohort{
		ID:              uuid.NewString(),
		CampID:          campID,
		Number:          number,
		Status:          status,
		IsOpen:          req.IsOpen,
		MaxParticipants: req.MaxParticipants,
		StartDate:       startDate,
	}
	if err := s.DB.Create(cohort).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(409).JSON(fiber.Map{"error": "cohort number already exists for this camp"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to create cohort"})
	}
	return c.Status(201).JSON(cohort)
}

// SetCohortOpen flips the is_open flag on one cohort. Route param "action"
// is either open or close.
func (s *CampService) SetCohortOpen(c *fiber.Ctx) error {
	campID := c.Params("id")
	numberStr := c.Params("number")
	action := strings.ToLower(c.Params("action"))

	number, err := strconv.Atoi(numberStr)
	if err != nil || number <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid cohort number"})
	}
	if action != "open" && action != "close" {
		return c.Status(400).JSON(fiber.Map{"error": "action must be open or close"})
	}

	result := s.DB.Model(&models.Cohort{}).
		Where("camp_id = ? AND number = ?", campID, number).
		Update("is_open", action == "open")
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "cohort not found"})
	}

	var cohort models.Cohort
	s.DB.Where("camp_id = ? AND number = ?", campID, number).First(&cohort)
	return c.JSON(cohort)
}

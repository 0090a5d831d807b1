// handlers/enrollment_routes.go
package handlers

import (
	"strconv"

	"camp-study-system/middleware"
	"camp-study-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupEnrollmentRoutes(app *fiber.App, enrollmentService *services.EnrollmentService, referralService *services.ReferralService, membershipService *services.MembershipService) {
	// 🔐 Secured routes — require user context (userID, roles)
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/camps/:id/enroll", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		campID := c.Params("id")

		type Req struct {
			Cohort       int    `json:"cohort,omitempty"`
			ReferralCode string `json:"referral_code,omitempty"`
			HideIdentity bool   `json:"hide_identity,omitempty"`
		}
		var req Req
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
			}
		}

		result, err := enrollmentService.Enroll(campID, userID, req.Cohort, req.ReferralCode, req.HideIdentity)
		if err != nil {
			return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{
				"error": err.Error(),
				"code":  services.ErrorCode(err),
			})
		}
		return c.Status(201).JSON(fiber.Map{
			"message":    "enrolled successfully",
			"enrollment": result,
		})
	})

	securedGroup.Post("/camps/:id/leave", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		campID := c.Params("id")

		if err := membershipService.Leave(campID, userID); err != nil {
			return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{
				"error": err.Error(),
				"code":  services.ErrorCode(err),
			})
		}
		return c.JSON(fiber.Map{"message": "left camp"})
	})

	securedGroup.Get("/camps/:id/referral-link", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		campID := c.Params("id")

		code, link, err := enrollmentService.GetReferralLink(campID, userID)
		if err != nil {
			return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{
				"error": err.Error(),
				"code":  services.ErrorCode(err),
			})
		}
		return c.JSON(fiber.Map{
			"referral_code": code,
			"referral_link": link,
		})
	})

	securedGroup.Get("/camps/:id/settings", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		campID := c.Params("id")

		settings, err := enrollmentService.GetSettings(campID, userID)
		if err != nil {
			return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{
				"error": err.Error(),
				"code":  services.ErrorCode(err),
			})
		}
		return c.JSON(settings)
	})

	securedGroup.Patch("/camps/:id/settings", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		campID := c.Params("id")

		var update services.SettingsUpdate
		if err := c.BodyParser(&update); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}

		settings, err := enrollmentService.UpdateSettings(campID, userID, update)
		if err != nil {
			return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{
				"error": err.Error(),
				"code":  services.ErrorCode(err),
			})
		}
		return c.JSON(settings)
	})

	// 🔒 Admin endpoints
	adminGroup := securedGroup.Group("/admin")

	adminGroup.Delete("/camps/:id/members/:user_id", func(c *fiber.Ctx) error {
		campID := c.Params("id")
		memberID := c.Params("user_id")

		if err := membershipService.RemoveFromCamp(campID, memberID); err != nil {
			return c.Status(services.HTTPStatus(err)).JSON(fiber.Map{
				"error": err.Error(),
				"code":  services.ErrorCode(err),
			})
		}
		return c.JSON(fiber.Map{"message": "member removed", "user_id": memberID})
	})

	adminGroup.Get("/camps/:id/cohorts/:number/referrals", func(c *fiber.Ctx) error {
		campID := c.Params("id")
		number, err := strconv.Atoi(c.Params("number"))
		if err != nil || number <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "invalid cohort number"})
		}

		referrals, err := referralService.ListCohortReferrals(campID, number)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to list referrals", "cause": err.Error()})
		}
		return c.JSON(referrals)
	})

	adminGroup.Get("/camps/:id/cohorts/:number/referral-stats", func(c *fiber.Ctx) error {
		campID := c.Params("id")
		number, err := strconv.Atoi(c.Params("number"))
		if err != nil || number <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "invalid cohort number"})
		}

		stats, err := referralService.CohortReferralStats(campID, number)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to compute referral stats", "cause": err.Error()})
		}
		return c.JSON(stats)
	})
}

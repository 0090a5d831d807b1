// handlers/camp_routes.go
package handlers

import (
	"camp-study-system/middleware"
	"camp-study-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCampRoutes(app *fiber.App, campService *services.CampService) {
	// 🔓 Public routes — *no user context*, but **still require Gateway auth**
	app.Get("/camps", campService.GetAllCamps)
	app.Get("/camps/:id", campService.GetCampByID)

	// 🔐 Secured routes — require user context (userID, roles), enforced via middleware
	secured := app.Group("/", middleware.UserContextMiddleware())

	// 🔒 Admin camp management
	admin := secured.Group("/admin")
	admin.Post("/camps", campService.CreateCamp)
	admin.Patch("/camps/:id/status", campService.UpdateCampStatus)
	admin.Post("/camps/:id/cohorts", campService.CreateCohort)
	admin.Patch("/camps/:id/cohorts/:number/:action", campService.SetCohortOpen)
}

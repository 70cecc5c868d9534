package handlers

import (
	"wrestling-universe-tracker/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMatchRoutes(app *fiber.App, matchService *services.MatchService, importService *services.ImportService) {
	app.Get("/matches", matchService.ListMatches)
	app.Get("/matches/:id", matchService.GetMatch)
	app.Delete("/matches/:id", matchService.DeleteMatch)

	// CSV import (matches.csv + participants.csv, ?dry_run=true supported)
	app.Post("/admin/import/matches", importService.ImportMatches)
}

package handlers

import (
	"wrestling-universe-tracker/services"

	"github.com/gofiber/fiber/v2"
)

func SetupHighlightRoutes(app *fiber.App, highlightService *services.HighlightService) {
	// Career highlight queries (?season= narrows to one season, otherwise
	// labels are merged across seasons for presentation)
	app.Get("/wrestlers/:id/highlights", highlightService.GetWrestlerHighlights)
	app.Get("/teams/:id/highlights", highlightService.GetTeamHighlights)

	// Administrative recompute (batch; ?incremental=true consults the watermark)
	app.Post("/admin/highlights/recompute/:season", highlightService.RecomputeSeason)
	app.Get("/admin/highlights/recompute/:season/dry-run", highlightService.DryRunSeason)
	app.Get("/admin/highlights/status", highlightService.GetStatus)
}

package handlers

import (
	"wrestling-universe-tracker/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRosterRoutes(app *fiber.App, rosterService *services.RosterService) {
	// Singles roster
	app.Get("/wrestlers", rosterService.ListWrestlers)
	app.Post("/wrestlers", rosterService.CreateWrestler)
	app.Put("/wrestlers/:id", rosterService.UpdateWrestler)
	app.Delete("/wrestlers/:id", rosterService.DeleteWrestler)

	// Tag teams (exactly two members)
	app.Get("/teams", rosterService.ListTeams)
	app.Post("/teams", rosterService.CreateTeam)
	app.Put("/teams/:id", rosterService.UpdateTeam)
	app.Delete("/teams/:id", rosterService.DeleteTeam)
}

package services

import (
	"errors"
	"sort"
	"strconv"

	"wrestling-universe-tracker/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MatchService serves read access to the match history. The highlights
// engine treats matches as immutable; the only write here is deletion, which
// belongs to the editing workflows.
type MatchService struct {
	DB *gorm.DB
}

func NewMatchService(db *gorm.DB) *MatchService {
	return &MatchService{DB: db}
}

// ListMatches handles GET /matches with season / tournament / round filters,
// ordered by position within the season.
func (s *MatchService) ListMatches(c *fiber.Ctx) error {
	q := s.DB.Model(&models.Match{})
	if raw := c.Query("season"); raw != "" {
		season, err := strconv.Atoi(raw)
		if err != nil || season < 1 {
			return c.Status(400).JSON(fiber.Map{"error": "season must be a positive integer"})
		}
		q = q.Where("season = ?", season)
	}
	if tournament := c.Query("tournament"); tournament != "" {
		q = q.Where("LOWER(tournament) = LOWER(?)", tournament)
	}
	if round := c.Query("round"); round != "" {
		q = q.Where("LOWER(round) = LOWER(?)", round)
	}

	var matches []models.Match
	err := q.Preload("Participants").
		Order("season ASC, day_index ASC, day_order ASC, id ASC").
		Find(&matches).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list matches", "details": err.Error()})
	}
	return c.JSON(fiber.Map{"matches": matches})
}

type matchSideView struct {
	Side     int      `json:"side"`
	Members  []string `json:"members"`
	TeamID   *uint    `json:"team_id,omitempty"`
	TeamName string   `json:"team_name,omitempty"`
}

// GetMatch handles GET /matches/:id, returning the match with its sides
// resolved the way the highlights engine sees them.
func (s *MatchService) GetMatch(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}
	var match models.Match
	if err := s.DB.First(&match, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error", "details": err.Error()})
	}

	resolver, err := NewSideResolver(s.DB)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to build side resolver", "details": err.Error()})
	}
	sides, warnings, err := resolver.ResolveMatch(match.ID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to resolve sides", "details": err.Error()})
	}

	views := make([]matchSideView, 0, len(sides))
	for _, side := range sides {
		v := matchSideView{Side: side.Side, TeamID: side.TeamID, TeamName: side.TeamName}
		for _, w := range side.Wrestlers {
			v.Members = append(v.Members, w.Name)
		}
		views = append(views, v)
	}
	// Map iteration order is random; present sides in numeric order.
	sort.Slice(views, func(i, j int) bool { return views[i].Side < views[j].Side })

	return c.JSON(fiber.Map{"match": match, "sides": views, "warnings": warnings})
}

// DeleteMatch handles DELETE /matches/:id, removing the match and its
// participant rows together.
func (s *MatchService) DeleteMatch(c *fiber.Ctx) error {
	id := c.Params("id")
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("match_id = ?", id).Delete(&models.MatchParticipant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Match{}, "id = ?", id).Error
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete match", "details": err.Error()})
	}
	return c.SendStatus(204)
}

package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"wrestling-universe-tracker/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// RosterService owns the wrestler and tag-team records the highlights engine
// reads. Team membership is exactly two wrestlers.
type RosterService struct {
	DB *gorm.DB
}

func NewRosterService(db *gorm.DB) *RosterService {
	return &RosterService{DB: db}
}

var genderCaser = cases.Title(language.English)

// normGender accepts "male"/"FEMALE"/etc. and returns the canonical form.
func normGender(v string) (string, error) {
	g := genderCaser.String(strings.ToLower(strings.TrimSpace(v)))
	if g != "Male" && g != "Female" {
		return "", fmt.Errorf("gender must be Male or Female")
	}
	return g, nil
}

type wrestlerRequest struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Active *bool  `json:"active"`
}

// ListWrestlers handles GET /wrestlers with q / gender / active filters.
func (s *RosterService) ListWrestlers(c *fiber.Ctx) error {
	q := s.DB.Model(&models.Wrestler{})
	if name := strings.TrimSpace(c.Query("q")); name != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+name+"%")
	}
	if gender := c.Query("gender"); gender == "Male" || gender == "Female" {
		q = q.Where("gender = ?", gender)
	}
	if active := c.Query("active"); active == "true" || active == "false" {
		q = q.Where("active = ?", active == "true")
	}

	var wrestlers []models.Wrestler
	if err := q.Order("name ASC").Find(&wrestlers).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list wrestlers", "details": err.Error()})
	}
	return c.JSON(fiber.Map{"wrestlers": wrestlers})
}

// CreateWrestler handles POST /wrestlers.
func (s *RosterService) CreateWrestler(c *fiber.Ctx) error {
	var req wrestlerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	gender, err := normGender(req.Gender)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	wrestler := models.Wrestler{Name: name, Gender: gender, Active: active}
	if err := s.DB.Create(&wrestler).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create wrestler", "details": err.Error()})
	}
	return c.Status(201).JSON(wrestler)
}

// UpdateWrestler handles PUT /wrestlers/:id.
func (s *RosterService) UpdateWrestler(c *fiber.Ctx) error {
	id := c.Params("id")
	var wrestler models.Wrestler
	if err := s.DB.First(&wrestler, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "wrestler not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error", "details": err.Error()})
	}

	var req wrestlerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		wrestler.Name = name
	}
	if req.Gender != "" {
		gender, err := normGender(req.Gender)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		wrestler.Gender = gender
	}
	if req.Active != nil {
		wrestler.Active = *req.Active
	}
	if err := s.DB.Save(&wrestler).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update wrestler", "details": err.Error()})
	}
	return c.JSON(wrestler)
}

// DeleteWrestler handles DELETE /wrestlers/:id. Wrestlers still on a team
// cannot be deleted.
func (s *RosterService) DeleteWrestler(c *fiber.Ctx) error {
	id := c.Params("id")
	var memberships int64
	if err := s.DB.Model(&models.TagTeamMember{}).Where("wrestler_id = ?", id).Count(&memberships).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error", "details": err.Error()})
	}
	if memberships > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "wrestler is a tag team member, remove from team first"})
	}
	if err := s.DB.Delete(&models.Wrestler{}, "id = ?", id).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete wrestler", "details": err.Error()})
	}
	return c.SendStatus(204)
}

type teamRequest struct {
	Name      string `json:"name"`
	Active    *bool  `json:"active"`
	MemberIDs []uint `json:"member_ids"`
}

type teamView struct {
	ID      uint     `json:"id"`
	Name    string   `json:"name"`
	Active  bool     `json:"active"`
	Members []string `json:"members"`
}

// ListTeams handles GET /teams with q / active filters; member names come
// along for the list view.
func (s *RosterService) ListTeams(c *fiber.Ctx) error {
	q := s.DB.Model(&models.TagTeam{}).Preload("Members.Wrestler")
	if name := strings.TrimSpace(c.Query("q")); name != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+name+"%")
	}
	if active := c.Query("active"); active == "true" || active == "false" {
		q = q.Where("active = ?", active == "true")
	}

	var teams []models.TagTeam
	if err := q.Order("name ASC").Find(&teams).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list teams", "details": err.Error()})
	}
	views := make([]teamView, 0, len(teams))
	for _, t := range teams {
		v := teamView{ID: t.ID, Name: t.Name, Active: t.Active}
		for _, m := range t.Members {
			v.Members = append(v.Members, m.Wrestler.Name)
		}
		views = append(views, v)
	}
	return c.JSON(fiber.Map{"teams": views})
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// validateTeam enforces the team rules: unique name (case-insensitive,
// ignoring excludeID), exactly two distinct male members.
func (s *RosterService) validateTeam(name string, memberIDs []uint, excludeID uint) (int, string) {
	if name == "" {
		return 400, "team name is required"
	}
	if len(memberIDs) != 2 {
		return 400, "a tag team must have exactly two members"
	}

	var count int64
	q := s.DB.Model(&models.TagTeam{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return 500, "database error checking team name"
	}
	if count > 0 {
		return 409, "a tag team with that name already exists"
	}

	var maleCount int64
	if err := s.DB.Model(&models.Wrestler{}).
		Where("id IN ? AND gender = ?", memberIDs, "Male").
		Count(&maleCount).Error; err != nil {
		return 500, "database error checking members"
	}
	if maleCount != int64(len(memberIDs)) {
		return 400, "only male wrestlers can be tag team members"
	}
	return 0, ""
}

// CreateTeam handles POST /teams.
func (s *RosterService) CreateTeam(c *fiber.Ctx) error {
	var req teamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	name := strings.TrimSpace(req.Name)
	memberIDs := dedupeIDs(req.MemberIDs)
	if status, msg := s.validateTeam(name, memberIDs, 0); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	team := models.TagTeam{Name: name, Active: active}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		for _, wid := range memberIDs {
			if err := tx.Create(&models.TagTeamMember{TeamID: team.ID, WrestlerID: wid}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create team", "details": err.Error()})
	}
	return c.Status(201).JSON(team)
}

// UpdateTeam handles PUT /teams/:id. Membership is replaced wholesale.
func (s *RosterService) UpdateTeam(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}
	var team models.TagTeam
	if err := s.DB.First(&team, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "team not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error", "details": err.Error()})
	}

	var req teamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	name := strings.TrimSpace(req.Name)
	memberIDs := dedupeIDs(req.MemberIDs)
	if status, msg := s.validateTeam(name, memberIDs, team.ID); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	team.Name = name
	if req.Active != nil {
		team.Active = *req.Active
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&team).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", team.ID).Delete(&models.TagTeamMember{}).Error; err != nil {
			return err
		}
		for _, wid := range memberIDs {
			if err := tx.Create(&models.TagTeamMember{TeamID: team.ID, WrestlerID: wid}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update team", "details": err.Error()})
	}
	return c.JSON(team)
}

// DeleteTeam handles DELETE /teams/:id.
func (s *RosterService) DeleteTeam(c *fiber.Ctx) error {
	id := c.Params("id")
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&models.TagTeamMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.TagTeam{}, "id = ?", id).Error
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete team", "details": err.Error()})
	}
	return c.SendStatus(204)
}

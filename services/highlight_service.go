package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"wrestling-universe-tracker/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// HighlightService owns the achievement rows and the recompute watermarks.
// Everything else (matches, participants, roster, teams) is read-only here.
type HighlightService struct {
	DB *gorm.DB

	mu          sync.Mutex
	seasonLocks map[int]*sync.Mutex
}

func NewHighlightService(db *gorm.DB) *HighlightService {
	return &HighlightService{
		DB:          db,
		seasonLocks: make(map[int]*sync.Mutex),
	}
}

// seasonLock serializes recomputes of the same season. Different seasons run
// independently.
func (s *HighlightService) seasonLock(season int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.seasonLocks[season]
	if !ok {
		l = &sync.Mutex{}
		s.seasonLocks[season] = l
	}
	return l
}

// SeedChampionships installs the default championship table and the closed
// label vocabulary it implies. Safe to run on every boot.
func (s *HighlightService) SeedChampionships() error {
	for _, champ := range models.DefaultChampionships {
		c := champ
		if err := s.DB.Where("name = ?", c.Name).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("seeding championship %s: %w", champ.Name, err)
		}
	}
	return s.seedLabelVocabulary()
}

func (s *HighlightService) seedLabelVocabulary() error {
	var championships []models.Championship
	if err := s.DB.Find(&championships).Error; err != nil {
		return err
	}
	for _, champ := range championships {
		for _, tier := range FamilyTiers[champ.Family] {
			name := LabelText(champ.Name, tier)
			label := models.HighlightLabel{Code: slug.Make(name), Name: name}
			if err := s.DB.Where("code = ?", label.Code).FirstOrCreate(&label).Error; err != nil {
				return fmt.Errorf("seeding label %q: %w", name, err)
			}
		}
	}
	return nil
}

// seasonPosition is the watermark triple, compared lexicographically.
type seasonPosition struct {
	DayIndex int
	DayOrder int
	MatchID  uint
}

func (s *HighlightService) seasonMaxPosition(season int) (seasonPosition, bool, error) {
	var m models.Match
	err := s.DB.
		Where("season = ?", season).
		Order("day_index DESC, day_order DESC, id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return seasonPosition{}, false, nil
	}
	if err != nil {
		return seasonPosition{}, false, err
	}
	return seasonPosition{DayIndex: m.DayIndex, DayOrder: m.DayOrder, MatchID: m.ID}, true, nil
}

// RecomputeResult reports what a recompute did.
type RecomputeResult struct {
	Season   int      `json:"season"`
	Inserted int      `json:"inserted"`
	Deleted  int      `json:"deleted"`
	NoOp     bool     `json:"noop"`
	Warnings []string `json:"warnings,omitempty"`
}

// Recompute fully re-derives one season: delete the season's stored slice,
// insert the fresh set, advance the watermark, all inside one transaction so
// readers never observe a half-replaced season. Idempotent against unchanged
// input.
func (s *HighlightService) Recompute(season int) (*RecomputeResult, error) {
	lock := s.seasonLock(season)
	lock.Lock()
	defer lock.Unlock()
	return s.recomputeLocked(season)
}

// RecomputeIncremental short-circuits when the season's max match position is
// unchanged since the last recompute. Zero writes on a no-op.
func (s *HighlightService) RecomputeIncremental(season int) (*RecomputeResult, error) {
	lock := s.seasonLock(season)
	lock.Lock()
	defer lock.Unlock()

	var wm models.RecomputeWatermark
	err := s.DB.Where("season = ?", season).First(&wm).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		pos, _, perr := s.seasonMaxPosition(season)
		if perr != nil {
			return nil, perr
		}
		if pos.DayIndex == wm.MaxDayIndex && pos.DayOrder == wm.MaxDayOrder && pos.MatchID == wm.MaxMatchID {
			return &RecomputeResult{Season: season, NoOp: true}, nil
		}
	}
	return s.recomputeLocked(season)
}

func (s *HighlightService) recomputeLocked(season int) (*RecomputeResult, error) {
	records, warnings, err := NewAggregator(s.DB).DeriveSeason(season)
	if err != nil {
		return nil, err
	}
	pos, _, err := s.seasonMaxPosition(season)
	if err != nil {
		return nil, err
	}

	result := &RecomputeResult{Season: season, Warnings: warnings}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		del := tx.Where("season = ?", season).Delete(&models.HighlightRecord{})
		if del.Error != nil {
			return del.Error
		}
		result.Deleted = int(del.RowsAffected)

		for _, rec := range records {
			if err := s.lookupOrRegisterLabel(tx, rec.LabelCode, rec.LabelName); err != nil {
				return err
			}
			row := models.HighlightRecord{
				ID:             uuid.NewString(),
				CompetitorID:   rec.CompetitorID,
				CompetitorKind: rec.CompetitorKind,
				LabelCode:      rec.LabelCode,
				Season:         rec.Season,
				Championship:   rec.Championship,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			result.Inserted++
		}

		var wm models.RecomputeWatermark
		werr := tx.Where("season = ?", season).First(&wm).Error
		fresh := errors.Is(werr, gorm.ErrRecordNotFound)
		if fresh {
			wm = models.RecomputeWatermark{ID: uuid.NewString(), Season: season}
		} else if werr != nil {
			return werr
		}
		wm.MaxDayIndex = pos.DayIndex
		wm.MaxDayOrder = pos.DayOrder
		wm.MaxMatchID = pos.MatchID
		wm.RecordCount = result.Inserted
		wm.ComputedAt = time.Now()
		if fresh {
			return tx.Create(&wm).Error
		}
		return tx.Save(&wm).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🏆 Recomputed season %d: %d inserted, %d deleted, %d warnings",
		season, result.Inserted, result.Deleted, len(result.Warnings))
	return result, nil
}

// lookupOrRegisterLabel finds a vocabulary entry, or registers the text as a
// custom label. The seeded vocabulary covers every configured championship,
// so hitting the registration path means someone derived off-vocabulary text.
func (s *HighlightService) lookupOrRegisterLabel(tx *gorm.DB, code, name string) error {
	var label models.HighlightLabel
	err := tx.Where("code = ?", code).First(&label).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	log.Printf("⚠️  Registering custom highlight label %q", name)
	return tx.Create(&models.HighlightLabel{Code: code, Name: name, Custom: true}).Error
}

// DryRun derives a season's would-be label set without persisting anything.
func (s *HighlightService) DryRun(season int) ([]DerivedRecord, []string, error) {
	return NewAggregator(s.DB).DeriveSeason(season)
}

// SeasonStatus is one row of the operational status report.
type SeasonStatus struct {
	Season    int                        `json:"season"`
	Records   int64                      `json:"records"`
	Watermark *models.RecomputeWatermark `json:"watermark,omitempty"`
}

// Status reports stored record counts and watermarks per season.
func (s *HighlightService) Status() ([]SeasonStatus, error) {
	type countRow struct {
		Season int
		N      int64
	}
	var counts []countRow
	err := s.DB.Model(&models.HighlightRecord{}).
		Select("season, COUNT(*) AS n").
		Group("season").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	var watermarks []models.RecomputeWatermark
	if err := s.DB.Find(&watermarks).Error; err != nil {
		return nil, err
	}

	bySeason := make(map[int]*SeasonStatus)
	for _, c := range counts {
		bySeason[c.Season] = &SeasonStatus{Season: c.Season, Records: c.N}
	}
	for i := range watermarks {
		wm := watermarks[i]
		st, ok := bySeason[wm.Season]
		if !ok {
			st = &SeasonStatus{Season: wm.Season}
			bySeason[wm.Season] = st
		}
		st.Watermark = &wm
	}

	out := make([]SeasonStatus, 0, len(bySeason))
	for _, st := range bySeason {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Season < out[j].Season })
	return out, nil
}

// HighlightView is one rendered label for a competitor. Per-season queries
// fill Season; aggregated queries fill Count and Seasons instead.
type HighlightView struct {
	Label   string `json:"label"`
	Season  int    `json:"season,omitempty"`
	Count   int    `json:"count,omitempty"`
	Seasons []int  `json:"seasons,omitempty"`
	Display string `json:"display"`
}

// WrestlerHighlights lists a wrestler's labels, one season or all seasons
// merged for presentation.
func (s *HighlightService) WrestlerHighlights(wrestlerID uint, season *int) ([]HighlightView, error) {
	return s.listHighlights(models.KindWrestler, wrestlerID, season)
}

// TeamHighlights lists a team's labels.
func (s *HighlightService) TeamHighlights(teamID uint, season *int) ([]HighlightView, error) {
	return s.listHighlights(models.KindTeam, teamID, season)
}

func (s *HighlightService) listHighlights(kind string, competitorID uint, season *int) ([]HighlightView, error) {
	q := s.DB.Where("competitor_id = ? AND competitor_kind = ?", competitorID, kind)
	if season != nil {
		q = q.Where("season = ?", *season)
	}
	var records []models.HighlightRecord
	if err := q.Order("season ASC, label_code ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []HighlightView{}, nil
	}

	labelNames, err := s.labelNames(records)
	if err != nil {
		return nil, err
	}

	if season != nil {
		views := make([]HighlightView, 0, len(records))
		for _, rec := range records {
			name := labelNames[rec.LabelCode]
			display := name
			if defenses := s.defenseCount(rec, name); defenses > 0 {
				display = fmt.Sprintf("%s (%d defenses)", name, defenses)
			}
			views = append(views, HighlightView{Label: name, Season: rec.Season, Display: display})
		}
		return views, nil
	}

	// Aggregated presentation: identical labels across seasons merge into a
	// count plus season list, e.g. "2 × World Champion (Seasons 1, 3)".
	type group struct {
		name    string
		seasons []int
	}
	groups := make(map[string]*group)
	var order []string
	for _, rec := range records {
		g, ok := groups[rec.LabelCode]
		if !ok {
			g = &group{name: labelNames[rec.LabelCode]}
			groups[rec.LabelCode] = g
			order = append(order, rec.LabelCode)
		}
		g.seasons = append(g.seasons, rec.Season)
	}
	sort.Strings(order)

	views := make([]HighlightView, 0, len(order))
	for _, code := range order {
		g := groups[code]
		sort.Ints(g.seasons)
		views = append(views, HighlightView{
			Label:   g.name,
			Count:   len(g.seasons),
			Seasons: g.seasons,
			Display: formatAggregated(g.name, g.seasons),
		})
	}
	return views, nil
}

func formatAggregated(label string, seasons []int) string {
	if len(seasons) == 1 {
		return fmt.Sprintf("%s (Season %d)", label, seasons[0])
	}
	parts := make([]string, len(seasons))
	for i, n := range seasons {
		parts[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("%d × %s (Seasons %s)", len(seasons), label, strings.Join(parts, ", "))
}

func (s *HighlightService) labelNames(records []models.HighlightRecord) (map[string]string, error) {
	codes := make([]string, 0, len(records))
	seen := make(map[string]bool)
	for _, rec := range records {
		if !seen[rec.LabelCode] {
			seen[rec.LabelCode] = true
			codes = append(codes, rec.LabelCode)
		}
	}
	var labels []models.HighlightLabel
	if err := s.DB.Where("code IN ?", codes).Find(&labels).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(labels))
	for _, l := range labels {
		names[l.Code] = l.Name
	}
	for _, code := range codes {
		if names[code] == "" {
			names[code] = code
		}
	}
	return names, nil
}

// defenseCount fetches the optional title-reign enrichment for champion-tier
// labels. Missing rows simply mean no enrichment.
func (s *HighlightService) defenseCount(rec models.HighlightRecord, labelName string) int {
	if labelName != LabelText(rec.Championship, TierChampion) {
		return 0
	}
	var reign models.TitleReign
	err := s.DB.Where(
		"championship = ? AND season = ? AND competitor_id = ? AND competitor_kind = ?",
		rec.Championship, rec.Season, rec.CompetitorID, rec.CompetitorKind,
	).First(&reign).Error
	if err != nil {
		return 0
	}
	return reign.DefenseCount
}

// ---- Fiber endpoints ----

func parseSeasonParam(c *fiber.Ctx) (int, error) {
	season, err := strconv.Atoi(c.Params("season"))
	if err != nil || season < 1 {
		return 0, fmt.Errorf("season must be a positive integer")
	}
	return season, nil
}

func optionalSeasonQuery(c *fiber.Ctx) (*int, error) {
	raw := c.Query("season")
	if raw == "" {
		return nil, nil
	}
	season, err := strconv.Atoi(raw)
	if err != nil || season < 1 {
		return nil, fmt.Errorf("season must be a positive integer")
	}
	return &season, nil
}

// GetWrestlerHighlights handles GET /wrestlers/:id/highlights.
func (s *HighlightService) GetWrestlerHighlights(c *fiber.Ctx) error {
	return s.getHighlights(c, models.KindWrestler, &models.Wrestler{})
}

// GetTeamHighlights handles GET /teams/:id/highlights.
func (s *HighlightService) GetTeamHighlights(c *fiber.Ctx) error {
	return s.getHighlights(c, models.KindTeam, &models.TagTeam{})
}

func (s *HighlightService) getHighlights(c *fiber.Ctx, kind string, model interface{}) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}
	season, err := optionalSeasonQuery(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if err := s.DB.First(model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": kind + " not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error", "details": err.Error()})
	}
	views, err := s.listHighlights(kind, uint(id), season)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list highlights", "details": err.Error()})
	}
	return c.JSON(fiber.Map{"highlights": views})
}

// RecomputeSeason handles POST /admin/highlights/recompute/:season.
// ?incremental=true consults the watermark first.
func (s *HighlightService) RecomputeSeason(c *fiber.Ctx) error {
	season, err := parseSeasonParam(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	var result *RecomputeResult
	if c.Query("incremental") == "true" {
		result, err = s.RecomputeIncremental(season)
	} else {
		result, err = s.Recompute(season)
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "recompute failed", "details": err.Error()})
	}
	return c.JSON(result)
}

// DryRunSeason handles GET /admin/highlights/recompute/:season/dry-run.
func (s *HighlightService) DryRunSeason(c *fiber.Ctx) error {
	season, err := parseSeasonParam(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	records, warnings, err := s.DryRun(season)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "dry-run failed", "details": err.Error()})
	}
	return c.JSON(fiber.Map{
		"season":   season,
		"records":  records,
		"warnings": warnings,
	})
}

// GetStatus handles GET /admin/highlights/status.
func (s *HighlightService) GetStatus(c *fiber.Ctx) error {
	status, err := s.Status()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load status", "details": err.Error()})
	}
	return c.JSON(fiber.Map{"seasons": status})
}

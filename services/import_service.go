package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"

	"wrestling-universe-tracker/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ImportService loads match history from the two-CSV format: matches.csv
// keyed by a human-friendly Key, participants.csv carrying (Key, Side, Name)
// rows. A participant name may be a registered two-member team, which expands
// into both wrestlers on that side.
type ImportService struct {
	DB *gorm.DB
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{DB: db}
}

type matchCSVRow struct {
	Key         string
	Season      int
	Day         int
	Tournament  string
	Round       string
	Stipulation *string
	Result      string
	WinnerSide  *int
	TimeSeconds *int
}

type participantCSVRow struct {
	Key        string
	Side       int
	Name       string
	ForcedType string // "wrestler" | "team" | ""
}

// parseSeasonValue accepts "S3" or plain "3".
func parseSeasonValue(v string) (int, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(strings.ToLower(v), "s") {
		v = v[1:]
	}
	season, err := strconv.Atoi(v)
	if err != nil || season < 1 {
		return 0, fmt.Errorf("invalid season %q", v)
	}
	return season, nil
}

// parseTimeMMSS converts "MM:SS" to seconds; blank is allowed.
func parseTimeMMSS(v string) (*int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("time must be MM:SS, got %q", v)
	}
	m, merr := strconv.Atoi(parts[0])
	s, serr := strconv.Atoi(parts[1])
	if merr != nil || serr != nil || m < 0 || m > 59 || s < 0 || s > 59 {
		return nil, fmt.Errorf("time out of range: %q", v)
	}
	total := m*60 + s
	return &total, nil
}

// headerIndex maps lowercase header names to column positions, checking the
// required set is present.
func headerIndex(header []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, h := range required {
		if _, ok := idx[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func field(record []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func readMatchesCSV(r io.Reader) (map[string]matchCSVRow, []string, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading matches.csv header: %w", err)
	}
	idx, err := headerIndex(header, []string{"key", "season", "day", "tournament", "round", "stipulation", "result", "winner side", "match time"})
	if err != nil {
		return nil, nil, fmt.Errorf("matches.csv: %w", err)
	}

	rows := make(map[string]matchCSVRow)
	var order []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading matches.csv: %w", err)
		}
		key := field(record, idx, "key")
		if key == "" {
			return nil, nil, fmt.Errorf("matches.csv: empty Key")
		}
		if _, dup := rows[key]; dup {
			return nil, nil, fmt.Errorf("matches.csv: duplicate Key %q", key)
		}

		season, err := parseSeasonValue(field(record, idx, "season"))
		if err != nil {
			return nil, nil, fmt.Errorf("key %s: %w", key, err)
		}
		day, err := strconv.Atoi(field(record, idx, "day"))
		if err != nil || day < 1 {
			return nil, nil, fmt.Errorf("key %s: day must be >= 1", key)
		}
		result := strings.ToLower(field(record, idx, "result"))
		if result != models.ResultWin && result != models.ResultDraw && result != models.ResultNoContest {
			return nil, nil, fmt.Errorf("key %s: invalid result %q", key, result)
		}
		var winnerSide *int
		if ws := field(record, idx, "winner side"); ws != "" {
			side, err := strconv.Atoi(ws)
			if err != nil || side < 1 {
				return nil, nil, fmt.Errorf("key %s: invalid winner side %q", key, ws)
			}
			winnerSide = &side
		}
		if result == models.ResultWin && winnerSide == nil {
			return nil, nil, fmt.Errorf("key %s: winner side required when result is win", key)
		}
		timeSeconds, err := parseTimeMMSS(field(record, idx, "match time"))
		if err != nil {
			return nil, nil, fmt.Errorf("key %s: %w", key, err)
		}
		var stipulation *string
		if stip := field(record, idx, "stipulation"); stip != "" {
			stipulation = &stip
		}

		rows[key] = matchCSVRow{
			Key:         key,
			Season:      season,
			Day:         day,
			Tournament:  field(record, idx, "tournament"),
			Round:       field(record, idx, "round"),
			Stipulation: stipulation,
			Result:      result,
			WinnerSide:  winnerSide,
			TimeSeconds: timeSeconds,
		}
		order = append(order, key)
	}
	return rows, order, nil
}

func readParticipantsCSV(r io.Reader) ([]participantCSVRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading participants.csv header: %w", err)
	}
	idx, err := headerIndex(header, []string{"key", "side", "wrestler"})
	if err != nil {
		return nil, fmt.Errorf("participants.csv: %w", err)
	}

	var rows []participantCSVRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading participants.csv: %w", err)
		}
		key := field(record, idx, "key")
		name := field(record, idx, "wrestler")
		if key == "" || name == "" {
			return nil, fmt.Errorf("participants.csv: Key and Wrestler cannot be empty")
		}
		side, err := strconv.Atoi(field(record, idx, "side"))
		if err != nil || side < 1 {
			return nil, fmt.Errorf("key %s: side must be an integer >= 1", key)
		}
		rows = append(rows, participantCSVRow{
			Key:        key,
			Side:       side,
			Name:       name,
			ForcedType: strings.ToLower(field(record, idx, "type")),
		})
	}
	return rows, nil
}

// resolveNameToIDs maps a participant name to wrestler ids: a roster name
// gives one id, a registered two-member team name gives both members. With a
// forced type only that resolution is tried; otherwise wrestler wins over
// team on a name collision.
func (s *ImportService) resolveNameToIDs(name, forcedType string) ([]uint, error) {
	findWrestler := func() (*uint, error) {
		var w models.Wrestler
		err := s.DB.Where("LOWER(name) = LOWER(?)", name).First(&w).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &w.ID, nil
	}
	findTeamMembers := func() ([]uint, error) {
		var team models.TagTeam
		err := s.DB.Preload("Members").Where("LOWER(name) = LOWER(?)", name).First(&team).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if len(team.Members) != 2 {
			return nil, fmt.Errorf("team %q does not have exactly 2 members (%d)", name, len(team.Members))
		}
		return []uint{team.Members[0].WrestlerID, team.Members[1].WrestlerID}, nil
	}

	switch forcedType {
	case "wrestler":
		id, err := findWrestler()
		if err != nil {
			return nil, err
		}
		if id == nil {
			return nil, fmt.Errorf("unknown wrestler name %q", name)
		}
		return []uint{*id}, nil
	case "team":
		ids, err := findTeamMembers()
		if err != nil {
			return nil, err
		}
		if ids == nil {
			return nil, fmt.Errorf("unknown team name %q", name)
		}
		return ids, nil
	}

	id, err := findWrestler()
	if err != nil {
		return nil, err
	}
	if id != nil {
		return []uint{*id}, nil
	}
	ids, err := findTeamMembers()
	if err != nil {
		return nil, err
	}
	if ids != nil {
		return ids, nil
	}
	return nil, fmt.Errorf("unknown participant name %q (not a wrestler or team)", name)
}

// ImportResult reports what an import inserted.
type ImportResult struct {
	Matches      int  `json:"matches"`
	Participants int  `json:"participants"`
	DryRun       bool `json:"dry_run"`
}

// ImportAll validates both CSVs against the roster, then inserts matches and
// participants in one transaction. Dry-run stops after validation.
func (s *ImportService) ImportAll(matchesR, participantsR io.Reader, dryRun bool) (*ImportResult, error) {
	matches, keyOrder, err := readMatchesCSV(matchesR)
	if err != nil {
		return nil, err
	}
	parts, err := readParticipantsCSV(participantsR)
	if err != nil {
		return nil, err
	}

	// Key -> Side -> wrestler ids, teams expanded.
	sidesByKey := make(map[string]map[int][]uint)
	for _, p := range parts {
		if _, ok := matches[p.Key]; !ok {
			return nil, fmt.Errorf("participants.csv references unknown Key %q", p.Key)
		}
		ids, err := s.resolveNameToIDs(p.Name, p.ForcedType)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", p.Key, err)
		}
		if sidesByKey[p.Key] == nil {
			sidesByKey[p.Key] = make(map[int][]uint)
		}
		sidesByKey[p.Key][p.Side] = append(sidesByKey[p.Key][p.Side], ids...)
	}

	for key, m := range matches {
		if m.Result != models.ResultWin {
			continue
		}
		if _, ok := sidesByKey[key][*m.WinnerSide]; !ok {
			return nil, fmt.Errorf("key %s: winner side %d has no participants", key, *m.WinnerSide)
		}
	}

	result := &ImportResult{DryRun: dryRun}
	if dryRun {
		result.Matches = len(matches)
		for _, sides := range sidesByKey {
			for _, ids := range sides {
				result.Participants += len(ids)
			}
		}
		return result, nil
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Day order continues from whatever the day already holds.
		type dayKey struct {
			Season int
			Day    int
		}
		nextOrder := make(map[dayKey]int)
		for _, key := range keyOrder {
			m := matches[key]
			dk := dayKey{Season: m.Season, Day: m.Day}
			if _, ok := nextOrder[dk]; !ok {
				var maxOrder int
				err := tx.Model(&models.Match{}).
					Where("season = ? AND day_index = ?", m.Season, m.Day).
					Select("COALESCE(MAX(day_order), 0)").
					Scan(&maxOrder).Error
				if err != nil {
					return err
				}
				nextOrder[dk] = maxOrder
			}
			nextOrder[dk]++

			row := models.Match{
				Season:           m.Season,
				Tournament:       m.Tournament,
				Round:            m.Round,
				Result:           m.Result,
				WinnerSide:       m.WinnerSide,
				Stipulation:      m.Stipulation,
				MatchTimeSeconds: m.TimeSeconds,
				DayIndex:         m.Day,
				DayOrder:         nextOrder[dk],
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			result.Matches++

			sides := sidesByKey[key]
			sideNums := make([]int, 0, len(sides))
			for side := range sides {
				sideNums = append(sideNums, side)
			}
			sort.Ints(sideNums)
			for _, side := range sideNums {
				for _, wid := range sides[side] {
					p := models.MatchParticipant{MatchID: row.ID, Side: side, WrestlerID: wid}
					if err := tx.Create(&p).Error; err != nil {
						return err
					}
					result.Participants++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📥 Imported %d matches, %d participants", result.Matches, result.Participants)
	return result, nil
}

// ImportMatches handles POST /admin/import/matches with "matches" and
// "participants" multipart CSV files. ?dry_run=true validates only.
func (s *ImportService) ImportMatches(c *fiber.Ctx) error {
	matchesFile, err := c.FormFile("matches")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "matches CSV file is required"})
	}
	participantsFile, err := c.FormFile("participants")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "participants CSV file is required"})
	}

	mf, err := matchesFile.Open()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to open matches file", "details": err.Error()})
	}
	defer mf.Close()
	pf, err := participantsFile.Open()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to open participants file", "details": err.Error()})
	}
	defer pf.Close()

	result, err := s.ImportAll(mf, pf, c.Query("dry_run") == "true")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "import failed", "details": err.Error()})
	}
	return c.JSON(result)
}

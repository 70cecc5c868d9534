package services

import (
	"testing"

	"wrestling-universe-tracker/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection would see a different empty :memory: DB.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Wrestler{},
		&models.TagTeam{},
		&models.TagTeamMember{},
		&models.Match{},
		&models.MatchParticipant{},
		&models.Championship{},
		&models.HighlightLabel{},
		&models.HighlightRecord{},
		&models.RecomputeWatermark{},
		&models.TitleReign{},
	))
	return db
}

func addWrestler(t *testing.T, db *gorm.DB, name string) models.Wrestler {
	t.Helper()
	w := models.Wrestler{Name: name, Gender: "Male", Active: true}
	require.NoError(t, db.Create(&w).Error)
	return w
}

func addTeam(t *testing.T, db *gorm.DB, name string, members ...models.Wrestler) models.TagTeam {
	t.Helper()
	team := models.TagTeam{Name: name, Active: true}
	require.NoError(t, db.Create(&team).Error)
	for _, m := range members {
		require.NoError(t, db.Create(&models.TagTeamMember{TeamID: team.ID, WrestlerID: m.ID}).Error)
	}
	return team
}

type matchSpec struct {
	Season     int
	Tournament string
	Round      string
	Result     string
	WinnerSide int // 0 means none recorded
	DayIndex   int
	DayOrder   int
	Sides      map[int][]models.Wrestler
}

func addMatch(t *testing.T, db *gorm.DB, spec matchSpec) models.Match {
	t.Helper()
	if spec.Result == "" {
		spec.Result = models.ResultWin
	}
	if spec.DayIndex == 0 {
		spec.DayIndex = 1
	}
	m := models.Match{
		Season:     spec.Season,
		Tournament: spec.Tournament,
		Round:      spec.Round,
		Result:     spec.Result,
		DayIndex:   spec.DayIndex,
		DayOrder:   spec.DayOrder,
	}
	if spec.WinnerSide != 0 {
		ws := spec.WinnerSide
		m.WinnerSide = &ws
	}
	require.NoError(t, db.Create(&m).Error)
	for side, wrestlers := range spec.Sides {
		for _, w := range wrestlers {
			p := models.MatchParticipant{MatchID: m.ID, Side: side, WrestlerID: w.ID}
			require.NoError(t, db.Create(&p).Error)
		}
	}
	return m
}

// seedHighlights installs the default championships and label vocabulary.
func seedHighlights(t *testing.T, db *gorm.DB) *HighlightService {
	t.Helper()
	svc := NewHighlightService(db)
	require.NoError(t, svc.SeedChampionships())
	return svc
}

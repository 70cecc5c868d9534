package models

import (
	"time"
)

// Tournament family vocabulary. The family decides which rounds and tiers the
// rule engine applies for a championship.
const (
	FamilyBracket    = "bracket"     // quarter-final / semi-final / final
	FamilyFinalsOnly = "finals_only" // final match only, no lower tiers
	FamilyOneOff     = "one_off"     // single winner-takes-all match per season
)

// Competitor kinds a highlight can be attributed to.
const (
	KindWrestler = "wrestler"
	KindTeam     = "team"
)

// Championship is a configured tournament the highlights engine derives
// labels for. Seeded at startup; the roster UI reads it for dropdowns.
type Championship struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Family    string    `json:"family" gorm:"type:varchar(16);not null"` // bracket | finals_only | one_off
	TeamBased bool      `json:"team_based" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// HighlightLabel is one entry of the closed label vocabulary. Code is the
// slug of the display name. Labels outside the seeded vocabulary can still be
// registered lazily but are flagged Custom so they stand out.
type HighlightLabel struct {
	Code      string    `json:"code" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Custom    bool      `json:"custom" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// HighlightRecord is one stored achievement: a competitor holding a label for
// a season. At most one row per (competitor, label, season); a season
// recompute replaces the whole season slice in one transaction.
type HighlightRecord struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid"`
	CompetitorID   uint      `json:"competitor_id" gorm:"not null;uniqueIndex:idx_highlight_once;index"`
	CompetitorKind string    `json:"competitor_kind" gorm:"type:varchar(8);not null;uniqueIndex:idx_highlight_once"` // wrestler | team
	LabelCode      string    `json:"label_code" gorm:"not null;uniqueIndex:idx_highlight_once"`
	Season         int       `json:"season" gorm:"not null;uniqueIndex:idx_highlight_once;index"`
	Championship   string    `json:"championship" gorm:"not null;index"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// RecomputeWatermark remembers the max (day index, day order, match id) seen
// when a season was last recomputed. Purely an optimization for incremental
// recompute; a full recompute never consults it.
type RecomputeWatermark struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	Season      int       `json:"season" gorm:"uniqueIndex;not null"`
	MaxDayIndex int       `json:"max_day_index" gorm:"not null;default:0"`
	MaxDayOrder int       `json:"max_day_order" gorm:"not null;default:0"`
	MaxMatchID  uint      `json:"max_match_id" gorm:"not null;default:0"`
	RecordCount int       `json:"record_count" gorm:"not null;default:0"`
	ComputedAt  time.Time `json:"computed_at"`
}

// TitleReign carries the optional defense count for a champion. Display
// enrichment only: highlight queries append it when a row exists, and nothing
// breaks when it doesn't.
type TitleReign struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	Championship   string `json:"championship" gorm:"not null;index:idx_reign_lookup"`
	Season         int    `json:"season" gorm:"not null;index:idx_reign_lookup"`
	CompetitorID   uint   `json:"competitor_id" gorm:"not null;index:idx_reign_lookup"`
	CompetitorKind string `json:"competitor_kind" gorm:"type:varchar(8);not null"`
	DefenseCount   int    `json:"defense_count" gorm:"not null;default:0"`
}

// DefaultChampionships seeds the configured tournaments on first boot.
var DefaultChampionships = []Championship{
	{Name: "World Championship", Family: FamilyBracket, TeamBased: false},
	{Name: "Women's World Championship", Family: FamilyBracket, TeamBased: false},
	{Name: "Tag Team World Championship", Family: FamilyBracket, TeamBased: true},
	{Name: "Intercontinental Championship", Family: FamilyFinalsOnly, TeamBased: false},
	{Name: "Royal Rumble", Family: FamilyOneOff, TeamBased: false},
}

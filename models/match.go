package models

import (
	"time"
)

// Match result vocabulary.
const (
	ResultWin       = "win"
	ResultDraw      = "draw"
	ResultNoContest = "nc"
)

// Match records one match. Sides live in MatchParticipant rows; a match can
// have any number of sides (singles, tag, multi-way). Matches are written by
// the import workflows only — the highlights engine never mutates them.
type Match struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Season           int       `json:"season" gorm:"not null;index"`
	Tournament       string    `json:"tournament" gorm:"not null;index"`
	Round            string    `json:"round" gorm:"not null;default:''"`
	Result           string    `json:"result" gorm:"type:varchar(8);not null;default:'win'"` // win | draw | nc
	WinnerSide       *int      `json:"winner_side,omitempty"` // set only when Result is win
	Stipulation      *string   `json:"stipulation,omitempty"`
	MatchTimeSeconds *int      `json:"match_time_seconds,omitempty"`
	DayIndex         int       `json:"day_index" gorm:"not null;default:1;index"`
	DayOrder         int       `json:"day_order" gorm:"not null;default:0"` // sequence within a day, assigned at import
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`

	Participants []MatchParticipant `json:"participants,omitempty" gorm:"foreignKey:MatchID"`
}

// MatchParticipant places one wrestler on one side of a match. Tag partners
// share a side number; multi-way matches use sides 1..N (not necessarily
// contiguous).
type MatchParticipant struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	MatchID    uint `json:"match_id" gorm:"not null;uniqueIndex:idx_match_side_wrestler"`
	Side       int  `json:"side" gorm:"not null;uniqueIndex:idx_match_side_wrestler"`
	WrestlerID uint `json:"wrestler_id" gorm:"not null;uniqueIndex:idx_match_side_wrestler;index"`
}

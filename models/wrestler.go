package models

import (
	"time"
)

// Wrestler is a singles roster entry.
type Wrestler struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;index"`
	Gender    string    `json:"gender" gorm:"type:varchar(8);not null"` // Male | Female
	Active    bool      `json:"active" gorm:"not null;default:true;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TagTeam is a named two-wrestler team. Membership is exactly two wrestlers;
// the importer and resolver both refuse anything else.
type TagTeam struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Active    bool      `json:"active" gorm:"not null;default:true;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Members []TagTeamMember `json:"members,omitempty" gorm:"foreignKey:TeamID"`
}

// TagTeamMember links a team to one of its wrestlers.
type TagTeamMember struct {
	TeamID     uint `json:"team_id" gorm:"primaryKey;autoIncrement:false"`
	WrestlerID uint `json:"wrestler_id" gorm:"primaryKey;autoIncrement:false"`

	Wrestler Wrestler `json:"wrestler,omitempty" gorm:"foreignKey:WrestlerID"`
}

package services

import (
	"fmt"
	"sort"

	"wrestling-universe-tracker/models"

	"gorm.io/gorm"
)

// pairKey identifies an unordered wrestler pair.
type pairKey struct {
	Lo uint
	Hi uint
}

func makePairKey(a, b uint) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{Lo: a, Hi: b}
}

// ResolvedSide is one logical side of a match: its wrestlers ordered by name,
// and the registered team holding exactly that pair, when one exists.
type ResolvedSide struct {
	Side      int
	Wrestlers []models.Wrestler
	TeamID    *uint
	TeamName  string
}

// WrestlerIDs returns the side's member ids.
func (s *ResolvedSide) WrestlerIDs() []uint {
	ids := make([]uint, 0, len(s.Wrestlers))
	for _, w := range s.Wrestlers {
		ids = append(ids, w.ID)
	}
	return ids
}

// SideResolver groups flat participant rows into sides and resolves exact
// two-member pairs to registered teams. The pair index is rebuilt from the
// current roster every time a resolver is constructed, so a recompute always
// sees live store state rather than a cached snapshot.
type SideResolver struct {
	db         *gorm.DB
	teamByPair map[pairKey]models.TagTeam
	ambiguous  map[pairKey]bool
}

// NewSideResolver loads the two-member team pair index. Teams with any other
// member count never resolve and are skipped here.
func NewSideResolver(db *gorm.DB) (*SideResolver, error) {
	var teams []models.TagTeam
	if err := db.Preload("Members").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("loading tag teams: %w", err)
	}

	r := &SideResolver{
		db:         db,
		teamByPair: make(map[pairKey]models.TagTeam, len(teams)),
		ambiguous:  make(map[pairKey]bool),
	}
	for _, t := range teams {
		if len(t.Members) != 2 {
			continue
		}
		key := makePairKey(t.Members[0].WrestlerID, t.Members[1].WrestlerID)
		if _, exists := r.teamByPair[key]; exists {
			// Roster invariant says this can't happen; refuse to guess.
			r.ambiguous[key] = true
			continue
		}
		r.teamByPair[key] = t
	}
	return r, nil
}

// ResolveMatch returns the match's sides keyed by side number. Only sides
// with at least one participant appear. Warnings cover ambiguous pair
// resolution; a missing match is a caller error and comes back as error.
func (r *SideResolver) ResolveMatch(matchID uint) (map[int]*ResolvedSide, []string, error) {
	var count int64
	if err := r.db.Model(&models.Match{}).Where("id = ?", matchID).Count(&count).Error; err != nil {
		return nil, nil, err
	}
	if count == 0 {
		return nil, nil, fmt.Errorf("match %d not found", matchID)
	}

	var participants []models.MatchParticipant
	if err := r.db.Where("match_id = ?", matchID).Find(&participants).Error; err != nil {
		return nil, nil, err
	}

	wrestlerIDs := make([]uint, 0, len(participants))
	for _, p := range participants {
		wrestlerIDs = append(wrestlerIDs, p.WrestlerID)
	}
	byID := make(map[uint]models.Wrestler, len(wrestlerIDs))
	if len(wrestlerIDs) > 0 {
		var wrestlers []models.Wrestler
		if err := r.db.Where("id IN ?", wrestlerIDs).Find(&wrestlers).Error; err != nil {
			return nil, nil, err
		}
		for _, w := range wrestlers {
			byID[w.ID] = w
		}
	}

	sides := make(map[int]*ResolvedSide)
	var warnings []string
	for _, p := range participants {
		side, ok := sides[p.Side]
		if !ok {
			side = &ResolvedSide{Side: p.Side}
			sides[p.Side] = side
		}
		w, ok := byID[p.WrestlerID]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("match %d side %d: wrestler %d missing from roster", matchID, p.Side, p.WrestlerID))
			continue
		}
		side.Wrestlers = append(side.Wrestlers, w)
	}

	for _, side := range sides {
		sort.Slice(side.Wrestlers, func(i, j int) bool {
			return side.Wrestlers[i].Name < side.Wrestlers[j].Name
		})
		if len(side.Wrestlers) != 2 {
			continue
		}
		key := makePairKey(side.Wrestlers[0].ID, side.Wrestlers[1].ID)
		if r.ambiguous[key] {
			warnings = append(warnings, fmt.Sprintf("match %d side %d: pair matches more than one team, resolved as individuals", matchID, side.Side))
			continue
		}
		if team, ok := r.teamByPair[key]; ok {
			id := team.ID
			side.TeamID = &id
			side.TeamName = team.Name
		}
	}

	return sides, warnings, nil
}

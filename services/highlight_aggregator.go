package services

import (
	"sort"

	"wrestling-universe-tracker/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// DerivedRecord is one would-be highlight row before persistence.
type DerivedRecord struct {
	CompetitorID   uint   `json:"competitor_id"`
	CompetitorKind string `json:"competitor_kind"`
	LabelCode      string `json:"label_code"`
	LabelName      string `json:"label_name"`
	Season         int    `json:"season"`
	Championship   string `json:"championship"`
}

// Aggregator runs the rule engine across every configured championship for a
// season and merges the outcomes into one deterministic record set. Pure with
// respect to the match/roster stores: same snapshot in, same records out.
type Aggregator struct {
	DB *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{DB: db}
}

type competitorKey struct {
	Kind         string
	ID           uint
	Championship string
}

// DeriveSeason computes the full label set for one season. Suppression keeps
// only the highest tier a competitor reached per championship, so a champion
// never doubles as semi-finalist in the same tournament and season.
func (a *Aggregator) DeriveSeason(season int) ([]DerivedRecord, []string, error) {
	var championships []models.Championship
	if err := a.DB.Order("name ASC").Find(&championships).Error; err != nil {
		return nil, nil, err
	}

	resolver, err := NewSideResolver(a.DB)
	if err != nil {
		return nil, nil, err
	}
	engine := NewRuleEngine(a.DB, resolver)

	best := make(map[competitorKey]string)
	var warnings []string

	for _, champ := range championships {
		outcomes, w, err := engine.Derive(champ, season)
		warnings = append(warnings, w...)
		if err != nil {
			return nil, warnings, err
		}
		for _, out := range outcomes {
			for _, key := range a.attribute(champ, out.Side) {
				if TierRank[out.Tier] > TierRank[best[key]] {
					best[key] = out.Tier
				}
			}
		}
	}

	records := make([]DerivedRecord, 0, len(best))
	for key, tier := range best {
		name := LabelText(key.Championship, tier)
		records = append(records, DerivedRecord{
			CompetitorID:   key.ID,
			CompetitorKind: key.Kind,
			LabelCode:      slug.Make(name),
			LabelName:      name,
			Season:         season,
			Championship:   key.Championship,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Championship != b.Championship {
			return a.Championship < b.Championship
		}
		if a.CompetitorKind != b.CompetitorKind {
			return a.CompetitorKind < b.CompetitorKind
		}
		if a.CompetitorID != b.CompetitorID {
			return a.CompetitorID < b.CompetitorID
		}
		return a.LabelCode < b.LabelCode
	})
	return records, warnings, nil
}

// attribute maps a side to the competitors the tier belongs to. Team-shaped
// attribution applies only to championships configured for it; everywhere
// else each wrestler earns the label individually.
func (a *Aggregator) attribute(champ models.Championship, side *ResolvedSide) []competitorKey {
	if champ.TeamBased && side.TeamID != nil {
		return []competitorKey{{Kind: models.KindTeam, ID: *side.TeamID, Championship: champ.Name}}
	}
	keys := make([]competitorKey, 0, len(side.Wrestlers))
	for _, w := range side.Wrestlers {
		keys = append(keys, competitorKey{Kind: models.KindWrestler, ID: w.ID, Championship: champ.Name})
	}
	return keys
}

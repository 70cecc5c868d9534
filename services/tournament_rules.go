package services

import (
	"fmt"
	"strings"

	"wrestling-universe-tracker/models"

	"gorm.io/gorm"
)

// Achievement tiers, highest first. Winner is the sole (apex) tier of one-off
// tournaments; the bracket ladder runs champion > runner-up > semi-finalist >
// quarter-finalist.
const (
	TierChampion        = "champion"
	TierRunnerUp        = "runner-up"
	TierSemiFinalist    = "semi-finalist"
	TierQuarterFinalist = "quarter-finalist"
	TierWinner          = "winner"
)

// TierRank orders tiers for suppression. Higher wins.
var TierRank = map[string]int{
	TierChampion:        4,
	TierWinner:          4,
	TierRunnerUp:        3,
	TierSemiFinalist:    2,
	TierQuarterFinalist: 1,
}

// FamilyTiers lists the label vocabulary each tournament family can produce.
var FamilyTiers = map[string][]string{
	models.FamilyBracket:    {TierChampion, TierRunnerUp, TierSemiFinalist, TierQuarterFinalist},
	models.FamilyFinalsOnly: {TierChampion, TierRunnerUp},
	models.FamilyOneOff:     {TierWinner},
}

// LabelText renders the display label for a championship/tier pair.
// "World Championship" + champion collapses to "World Champion";
// every other tier suffixes the full championship name.
func LabelText(championship, tier string) string {
	switch tier {
	case TierChampion:
		if base, ok := strings.CutSuffix(championship, "Championship"); ok {
			return strings.TrimSpace(base) + " Champion"
		}
		return championship + " Champion"
	case TierRunnerUp:
		return championship + " Runner-up"
	case TierSemiFinalist:
		return championship + " Semi-Finalist"
	case TierQuarterFinalist:
		return championship + " Quarter-Finalist"
	case TierWinner:
		return championship + " Winner"
	}
	return championship
}

// Round name buckets, compared case-insensitively with separators ignored.
const (
	roundFinal        = "final"
	roundSemiFinal    = "semifinal"
	roundQuarterFinal = "quarterfinal"
)

func normalizeRound(round string) string {
	r := strings.ToLower(strings.TrimSpace(round))
	r = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(r)
	switch r {
	case "final", "finals":
		return roundFinal
	case "semifinal", "semifinals", "semi":
		return roundSemiFinal
	case "quarterfinal", "quarterfinals", "quarter":
		return roundQuarterFinal
	}
	return r
}

// TierOutcome assigns one tier to one side of one match.
type TierOutcome struct {
	Side *ResolvedSide
	Tier string
}

// RuleEngine derives per-season tier outcomes for a single championship,
// applying the result-interpretation rules of its tournament family.
type RuleEngine struct {
	db       *gorm.DB
	resolver *SideResolver
}

func NewRuleEngine(db *gorm.DB, resolver *SideResolver) *RuleEngine {
	return &RuleEngine{db: db, resolver: resolver}
}

// Derive computes the (side, tier) outcomes for one championship and season.
// Malformed matches are skipped with a warning and never abort the season.
func (e *RuleEngine) Derive(champ models.Championship, season int) ([]TierOutcome, []string, error) {
	var matches []models.Match
	err := e.db.
		Where("season = ? AND LOWER(tournament) = LOWER(?)", season, champ.Name).
		Order("day_index ASC, day_order ASC, id ASC").
		Find(&matches).Error
	if err != nil {
		return nil, nil, fmt.Errorf("loading matches for %s season %d: %w", champ.Name, season, err)
	}
	if len(matches) == 0 {
		return nil, nil, nil
	}

	switch champ.Family {
	case models.FamilyOneOff:
		return e.deriveOneOff(matches)
	case models.FamilyFinalsOnly:
		return e.deriveBracket(matches, false)
	default:
		return e.deriveBracket(matches, true)
	}
}

// resolvedMatch pairs a match with its resolved sides, or nil when the match
// is excluded for a data-integrity reason.
type resolvedMatch struct {
	match   models.Match
	sides   map[int]*ResolvedSide
	winner  *ResolvedSide // nil unless Result is win and the winner side is sound
	decided bool          // Result is win and winner resolves to a non-empty side
}

func (e *RuleEngine) resolve(m models.Match) (*resolvedMatch, []string, error) {
	sides, warnings, err := e.resolver.ResolveMatch(m.ID)
	if err != nil {
		return nil, warnings, err
	}
	rm := &resolvedMatch{match: m, sides: sides}
	if m.Result != models.ResultWin {
		return rm, warnings, nil
	}
	if m.WinnerSide == nil {
		warnings = append(warnings, fmt.Sprintf("match %d: result is win but no winner side recorded, match excluded", m.ID))
		return nil, warnings, nil
	}
	winner, ok := sides[*m.WinnerSide]
	if !ok || len(winner.Wrestlers) == 0 {
		warnings = append(warnings, fmt.Sprintf("match %d: winner side %d has no participants, match excluded", m.ID, *m.WinnerSide))
		return nil, warnings, nil
	}
	rm.winner = winner
	rm.decided = true
	return rm, warnings, nil
}

// deriveBracket handles the bracketed and finals-only families. Lower tiers
// are computed only when lowerTiers is set; finals-only championships ignore
// semi and quarter rounds even when the data contains them.
func (e *RuleEngine) deriveBracket(matches []models.Match, lowerTiers bool) ([]TierOutcome, []string, error) {
	var finals, semis, quarters []models.Match
	for _, m := range matches {
		switch normalizeRound(m.Round) {
		case roundFinal:
			finals = append(finals, m)
		case roundSemiFinal:
			semis = append(semis, m)
		case roundQuarterFinal:
			quarters = append(quarters, m)
		}
	}

	var outcomes []TierOutcome
	var warnings []string
	finalParticipants := make(map[uint]bool)

	if len(finals) > 0 {
		// Most recent final decides the title; matches arrive position-ordered.
		rm, w, err := e.resolve(finals[len(finals)-1])
		warnings = append(warnings, w...)
		if err != nil {
			return nil, warnings, err
		}
		if rm != nil {
			for _, side := range rm.sides {
				for _, wr := range side.Wrestlers {
					finalParticipants[wr.ID] = true
				}
			}
			if rm.decided {
				outcomes = append(outcomes, TierOutcome{Side: rm.winner, Tier: TierChampion})
				for _, side := range rm.sides {
					if side != rm.winner {
						outcomes = append(outcomes, TierOutcome{Side: side, Tier: TierRunnerUp})
					}
				}
			}
			// Draw or no-contest final: the title is vacant this season.
		}
	}

	if !lowerTiers {
		return outcomes, warnings, nil
	}

	higherTier := make(map[uint]bool, len(finalParticipants))
	for id := range finalParticipants {
		higherTier[id] = true
	}

	// Every semi-final participant who never appeared in the final holds the
	// semi-finalist tier. Winning a semi is presumed to lead to the final, but
	// that presumption is settled by final-participant membership, not by the
	// semi's own outcome: a semi winner missing from the recorded final still
	// earns the tier.
	for _, m := range semis {
		rm, w, err := e.resolve(m)
		warnings = append(warnings, w...)
		if err != nil {
			return nil, warnings, err
		}
		if rm == nil {
			continue
		}
		for _, side := range rm.sides {
			for _, wr := range side.Wrestlers {
				higherTier[wr.ID] = true
			}
		}
		for _, side := range rm.sides {
			if out, ok := filterSide(side, finalParticipants); ok {
				outcomes = append(outcomes, TierOutcome{Side: out, Tier: TierSemiFinalist})
			}
		}
	}

	// Quarter-finals get the same treatment against everyone who reached a
	// semi or the final.
	for _, m := range quarters {
		rm, w, err := e.resolve(m)
		warnings = append(warnings, w...)
		if err != nil {
			return nil, warnings, err
		}
		if rm == nil {
			continue
		}
		for _, side := range rm.sides {
			if out, ok := filterSide(side, higherTier); ok {
				outcomes = append(outcomes, TierOutcome{Side: out, Tier: TierQuarterFinalist})
			}
		}
	}

	return outcomes, warnings, nil
}

// deriveOneOff awards the sole winner tier from the season's most recent
// match. Draw and no-contest leave the season vacant.
func (e *RuleEngine) deriveOneOff(matches []models.Match) ([]TierOutcome, []string, error) {
	rm, warnings, err := e.resolve(matches[len(matches)-1])
	if err != nil {
		return nil, warnings, err
	}
	if rm == nil || !rm.decided {
		return nil, warnings, nil
	}
	return []TierOutcome{{Side: rm.winner, Tier: TierWinner}}, warnings, nil
}

// filterSide drops members already holding a higher tier. Team identity only
// survives when the side stays intact.
func filterSide(side *ResolvedSide, exclude map[uint]bool) (*ResolvedSide, bool) {
	kept := make([]models.Wrestler, 0, len(side.Wrestlers))
	for _, w := range side.Wrestlers {
		if !exclude[w.ID] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return nil, false
	}
	if len(kept) == len(side.Wrestlers) {
		return side, true
	}
	return &ResolvedSide{Side: side.Side, Wrestlers: kept}, true
}

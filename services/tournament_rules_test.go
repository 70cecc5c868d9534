package services

import (
	"testing"

	"wrestling-universe-tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelsFor collects label names per competitor from a derived set.
func labelsFor(records []DerivedRecord, kind string, id uint) []string {
	var out []string
	for _, r := range records {
		if r.CompetitorKind == kind && r.CompetitorID == id {
			out = append(out, r.LabelName)
		}
	}
	return out
}

func TestFinalProducesChampionAndRunnerUp(t *testing.T) {
	db := newTestDB(t)
	seedHighlights(t, db)
	alice := addWrestler(t, db, "Alice")
	bob := addWrestler(t, db, "Bob")

	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Final", WinnerSide: 1,
		Sides: map[int][]models.Wrestler{1: {alice}, 2: {bob}},
	})

	records, warnings, err := NewAggregator(db).DeriveSeason(1)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"World Champion"}, labelsFor(records, models.KindWrestler, alice.ID))
	assert.Equal(t, []string{"World Championship Runner-up"}, labelsFor(records, models.KindWrestler, bob.ID))
}

func TestBracketTierSuppression(t *testing.T) {
	db := newTestDB(t)
	seedHighlights(t, db)
	alice := addWrestler(t, db, "Alice")
	bob := addWrestler(t, db, "Bob")
	carol := addWrestler(t, db, "Carol")
	dana := addWrestler(t, db, "Dana")

	// Bob loses the quarter-final, Carol loses the semi-final after winning
	// her quarter, Dana loses the final. Each should hold exactly one tier.
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Quarter-Final", WinnerSide: 1, DayIndex: 1,
		Sides: map[int][]models.Wrestler{1: {carol}, 2: {bob}},
	})
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Semi-Final", WinnerSide: 1, DayIndex: 2,
		Sides: map[int][]models.Wrestler{1: {alice}, 2: {carol}},
	})
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Final", WinnerSide: 1, DayIndex: 3,
		Sides: map[int][]models.Wrestler{1: {alice}, 2: {dana}},
	})

	records, _, err := NewAggregator(db).DeriveSeason(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"World Champion"}, labelsFor(records, models.KindWrestler, alice.ID))
	assert.Equal(t, []string{"World Championship Runner-up"}, labelsFor(records, models.KindWrestler, dana.ID))
	assert.Equal(t, []string{"World Championship Semi-Finalist"}, labelsFor(records, models.KindWrestler, carol.ID))
	assert.Equal(t, []string{"World Championship Quarter-Finalist"}, labelsFor(records, models.KindWrestler, bob.ID))
}

func TestNoFinalStillComputesLowerTiers(t *testing.T) {
	db := newTestDB(t)
	seedHighlights(t, db)
	alice := addWrestler(t, db, "Alice")
	carol := addWrestler(t, db, "Carol")

	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Semi-Final", WinnerSide: 1,
		Sides: map[int][]models.Wrestler{1: {alice}, 2: {carol}},
	})

	// No final on record, so nobody is a final participant: winner and loser
	// both stop at semi-finalist, and the title stays vacant.
	records, _, err := NewAggregator(db).DeriveSeason(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"World Championship Semi-Finalist"}, labelsFor(records, models.KindWrestler, alice.ID))
	assert.Equal(t, []string{"World Championship Semi-Finalist"}, labelsFor(records, models.KindWrestler, carol.ID))
}

func TestDrawFinalLeavesTitleVacant(t *testing.T) {
	db := newTestDB(t)
	seedHighlights(t, db)
	alice := addWrestler(t, db, "Alice")
	bob := addWrestler(t, db, "Bob")

	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Final", Result: models.ResultDraw,
		Sides: map[int][]models.Wrestler{1: {alice}, 2: {bob}},
	})

	records, _, err := NewAggregator(db).DeriveSeason(1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOneOffWinnerTakesAll(t *testing.T) {
	db := newTestDB(t)
	seedHighlights(t, db)
	grace := addWrestler(t, db, "Grace")
	heidi := addWrestler(t, db, "Heidi")

	addMatch(t, db, matchSpec{
		Season: 2, Tournament: "Royal Rumble", WinnerSide: 1,
		Sides: map[int][]models.Wrestler{1: {grace}, 2: {heidi}},
	})

	records, _, err := NewAggregator(db).DeriveSeason(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Royal Rumble Winner"}, labelsFor(records, models.KindWrestler, grace.ID))
	assert.Empty(t, labelsFor(records, models.KindWrestler, heidi.ID), "one-off matches produce no runner-up")
}

func TestOneOffNoContestIsVacant(t *testing.T) {
	db := newTestDB(t)
	seedHighlights(t, db)
	grace := addWrestler(t, db, "Grace")
	heidi := addWrestler(t, db, "Heidi")

	addMatch(t, db, matchSpec{
		Season: 2, Tournament: "Royal Rumble", Result: models.ResultNoContest,
		Sides: map[int][]models.Wrestler{1: {grace}, 2: {heidi}},
	})

	records, _, err := NewAggregator(db).DeriveSeason(2)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFinalsOnlyIgnoresLowerRounds(t *testing.T) {
	db := newTestDB(t)
	seedHighlights(t, db)
	alice := addWrestler(t, db, "Alice")
	bob := addWrestler(t, db, "Bob")
	carol := addWrestler(t, db, "Carol")

	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "Intercontinental Championship", Round: "Semi-Final", WinnerSide: 1, DayIndex: 1,
		Sides: map[int][]models.Wrestler{1: {alice}, 2: {carol}},
	})
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "Intercontinental Championship", Round: "Final", WinnerSide: 1, DayIndex: 2,
		Sides: map[int][]models.Wrestler{1: {alice}, 2: {bob}},
	})

	records, _, err := NewAggregator(db).DeriveSeason(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Intercontinental Champion"}, labelsFor(records, models.KindWrestler, alice.ID))
	assert.Equal(t, []string{"Intercontinental Championship Runner-up"}, labelsFor(records, models.KindWrestler, bob.ID))
	assert.Empty(t, labelsFor(records, models.KindWrestler, carol.ID), "finals-only tracks no semi-finalist tier")
}

func TestTeamSemiFinalistAttribution(t *testing.T) {
	db := newTestDB(t)
	seedHighlights(t, db)
	carol := addWrestler(t, db, "Carol")
	dana := addWrestler(t, db, "Dana")
	eve := addWrestler(t, db, "Eve")
	fay := addWrestler(t, db, "Fay")
	duo := addTeam(t, db, "The Duo", carol, dana)

	// The Duo wins its semi but the recorded final doesn't include them, so
	// they take the semi-finalist tier as a team. Eve/Fay lose the semi yet
	// appear in the final, which absorbs their semi participation.
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "Tag Team World Championship", Round: "Semi-Final", WinnerSide: 1, DayIndex: 1,
		Sides: map[int][]models.Wrestler{1: {carol, dana}, 2: {eve, fay}},
	})
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "Tag Team World Championship", Round: "Final", WinnerSide: 1, DayIndex: 2,
		Sides: map[int][]models.Wrestler{1: {eve, fay}},
	})

	records, _, err := NewAggregator(db).DeriveSeason(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tag Team World Championship Semi-Finalist"}, labelsFor(records, models.KindTeam, duo.ID))
	assert.Empty(t, labelsFor(records, models.KindWrestler, carol.ID), "tier belongs to the team, not the members")
	assert.NotContains(t, labelsFor(records, models.KindWrestler, eve.ID), "Tag Team World Championship Semi-Finalist", "final participants never drop to semi-finalist")
}

func TestSemiWinnerAbsentFromFinalIsSemiFinalist(t *testing.T) {
	db := newTestDB(t)
	seedHighlights(t, db)
	alice := addWrestler(t, db, "Alice")
	bob := addWrestler(t, db, "Bob")
	carol := addWrestler(t, db, "Carol")
	dana := addWrestler(t, db, "Dana")

	// Carol wins her semi but the recorded final is Alice vs Dana. Reaching
	// the final is decided by final membership, not by the semi outcome.
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Semi-Final", WinnerSide: 1, DayIndex: 1,
		Sides: map[int][]models.Wrestler{1: {carol}, 2: {bob}},
	})
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Final", WinnerSide: 1, DayIndex: 2,
		Sides: map[int][]models.Wrestler{1: {alice}, 2: {dana}},
	})

	records, _, err := NewAggregator(db).DeriveSeason(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"World Championship Semi-Finalist"}, labelsFor(records, models.KindWrestler, carol.ID))
	assert.Equal(t, []string{"World Championship Semi-Finalist"}, labelsFor(records, models.KindWrestler, bob.ID))
	assert.Equal(t, []string{"World Champion"}, labelsFor(records, models.KindWrestler, alice.ID))
}

func TestQuarterWinnerAbsentFromLaterRoundsIsQuarterFinalist(t *testing.T) {
	db := newTestDB(t)
	seedHighlights(t, db)
	alice := addWrestler(t, db, "Alice")
	carol := addWrestler(t, db, "Carol")
	dana := addWrestler(t, db, "Dana")
	eve := addWrestler(t, db, "Eve")
	frank := addWrestler(t, db, "Frank")

	// Eve wins her quarter but never shows up in a semi or the final.
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Quarter-Final", WinnerSide: 1, DayIndex: 1,
		Sides: map[int][]models.Wrestler{1: {eve}, 2: {frank}},
	})
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Semi-Final", WinnerSide: 1, DayIndex: 2,
		Sides: map[int][]models.Wrestler{1: {alice}, 2: {carol}},
	})
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Final", WinnerSide: 1, DayIndex: 3,
		Sides: map[int][]models.Wrestler{1: {alice}, 2: {dana}},
	})

	records, _, err := NewAggregator(db).DeriveSeason(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"World Championship Quarter-Finalist"}, labelsFor(records, models.KindWrestler, eve.ID))
	assert.Equal(t, []string{"World Championship Quarter-Finalist"}, labelsFor(records, models.KindWrestler, frank.ID))
	assert.Equal(t, []string{"World Championship Semi-Finalist"}, labelsFor(records, models.KindWrestler, carol.ID))
}

func TestWinWithoutWinnerSideIsSkippedWithWarning(t *testing.T) {
	db := newTestDB(t)
	seedHighlights(t, db)
	alice := addWrestler(t, db, "Alice")
	bob := addWrestler(t, db, "Bob")

	// Bad row straight into the store: result says win, no winner side.
	addMatch(t, db, matchSpec{
		Season: 1, Tournament: "World Championship", Round: "Final",
		Sides: map[int][]models.Wrestler{1: {alice}, 2: {bob}},
	})

	records, warnings, err := NewAggregator(db).DeriveSeason(1)
	require.NoError(t, err)
	assert.Empty(t, records)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "no winner side")
}

func TestLabelText(t *testing.T) {
	cases := []struct {
		championship string
		tier         string
		want         string
	}{
		{"World Championship", TierChampion, "World Champion"},
		{"Tag Team World Championship", TierChampion, "Tag Team World Champion"},
		{"Royal Rumble", TierWinner, "Royal Rumble Winner"},
		{"World Championship", TierRunnerUp, "World Championship Runner-up"},
		{"World Championship", TierSemiFinalist, "World Championship Semi-Finalist"},
		{"World Championship", TierQuarterFinalist, "World Championship Quarter-Finalist"},
		{"Royal Rumble", TierChampion, "Royal Rumble Champion"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LabelText(tc.championship, tc.tier))
	}
}

package bracket

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrEmptySeries      = errors.New("series has no games")
	ErrSeriesMismatch   = errors.New("series games disagree on rosters or round")
	ErrMissingScore     = errors.New("final matchup is missing a score")
	ErrMissingSeed      = errors.New("series side has no seed")
	ErrUnresolvableTie  = errors.New("tied series between equal seeds")
	ErrSeriesIncomplete = errors.New("series is not complete")
)

// SeriesAggregation is computed from the games of a series and never stored.
type SeriesAggregation struct {
	Key             string
	SeriesID        *uuid.UUID
	BracketType     Type
	Round           int
	BracketPosition int

	Roster1ID int
	Roster2ID int
	Seed1     *int
	Seed2     *int

	// Sums over final games only
	Points1 float64
	Points2 float64

	GamesCompleted int
	SeriesLength   int
	IsComplete     bool
	LastWeek       int

	// Set when a game is final but one of its scores was never recorded
	MissingScores bool
}

// Aggregate sums a series. Only games marked final count; a series with a pending game is never
// complete, whatever its running totals say.
func Aggregate(games []Matchup) (SeriesAggregation, error) {
	if len(games) == 0 {
		return SeriesAggregation{}, ErrEmptySeries
	}

	ordered := make([]Matchup, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SeriesGame < ordered[j].SeriesGame })

	first := ordered[0]
	agg := SeriesAggregation{
		Key:             first.SeriesKey(),
		SeriesID:        first.SeriesID,
		BracketType:     first.Type(),
		Round:           first.Round,
		BracketPosition: first.BracketPosition,
		Roster1ID:       first.Roster1ID,
		Roster2ID:       first.Roster2ID,
		Seed1:           first.Seed1,
		Seed2:           first.Seed2,
		SeriesLength:    first.SeriesLength,
	}
	if agg.SeriesLength < 1 {
		agg.SeriesLength = 1
	}

	for _, g := range ordered {
		if g.SeriesKey() != agg.Key || g.Round != agg.Round ||
			g.Roster1ID != agg.Roster1ID || g.Roster2ID != agg.Roster2ID {
			return SeriesAggregation{}, fmt.Errorf("%w: series %s game %d", ErrSeriesMismatch, agg.Key, g.SeriesGame)
		}
		if g.Week > agg.LastWeek {
			agg.LastWeek = g.Week
		}
		if !g.IsFinal {
			continue
		}
		agg.GamesCompleted++
		if g.Points1 == nil || g.Points2 == nil {
			agg.MissingScores = true
		}
		if g.Points1 != nil {
			agg.Points1 += *g.Points1
		}
		if g.Points2 != nil {
			agg.Points2 += *g.Points2
		}
	}

	agg.IsComplete = agg.GamesCompleted == agg.SeriesLength
	return agg, nil
}

// AggregateAll groups games by series and aggregates each group, ordered by bracket position.
func AggregateAll(games []Matchup) ([]SeriesAggregation, error) {
	groups := make(map[string][]Matchup)
	var keys []string
	for _, g := range games {
		k := g.SeriesKey()
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], g)
	}

	out := make([]SeriesAggregation, 0, len(keys))
	for _, k := range keys {
		agg, err := Aggregate(groups[k])
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BracketPosition < out[j].BracketPosition })
	return out, nil
}

package bracket

import (
	"fmt"
	"math"
)

// Side is one roster's part of a resolved series.
type Side struct {
	RosterID int
	Seed     int
	Points   float64
}

type Result struct {
	Winner Side
	Loser  Side
}

// Resolve decides a complete series. More aggregate points wins; an exact tie goes to the
// better (numerically lower) seed. Points are compared in hundredths, which is exact for scores
// written through RoundScore.
func Resolve(agg SeriesAggregation) (Result, error) {
	if !agg.IsComplete {
		return Result{}, fmt.Errorf("%w: series %s has %d of %d games final", ErrSeriesIncomplete, agg.Key, agg.GamesCompleted, agg.SeriesLength)
	}
	if agg.MissingScores {
		return Result{}, fmt.Errorf("%w: series %s", ErrMissingScore, agg.Key)
	}
	if agg.Seed1 == nil || agg.Seed2 == nil {
		return Result{}, fmt.Errorf("%w: series %s", ErrMissingSeed, agg.Key)
	}

	s1 := Side{RosterID: agg.Roster1ID, Seed: *agg.Seed1, Points: agg.Points1}
	s2 := Side{RosterID: agg.Roster2ID, Seed: *agg.Seed2, Points: agg.Points2}

	p1, p2 := roundPoints(agg.Points1), roundPoints(agg.Points2)
	switch {
	case p1 > p2:
		return Result{Winner: s1, Loser: s2}, nil
	case p2 > p1:
		return Result{Winner: s2, Loser: s1}, nil
	case s1.Seed < s2.Seed:
		return Result{Winner: s1, Loser: s2}, nil
	case s2.Seed < s1.Seed:
		return Result{Winner: s2, Loser: s1}, nil
	}
	return Result{}, fmt.Errorf("%w: series %s", ErrUnresolvableTie, agg.Key)
}

func roundPoints(p float64) int64 {
	return int64(math.Round(p * 100))
}

// RoundScore rounds a score to the two decimals it is stored with.
func RoundScore(p *float64) *float64 {
	if p == nil {
		return nil
	}
	r := float64(roundPoints(*p)) / 100
	return &r
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/AdamBeresnev/league-playoffs/internal/bracket"
	"github.com/AdamBeresnev/league-playoffs/internal/events"
	"github.com/AdamBeresnev/league-playoffs/internal/utils"
	"github.com/google/uuid"
)

// AdvanceResult reports what one sub-bracket did for one week.
type AdvanceResult struct {
	BracketType bracket.Type `json:"bracket_type"`
	// Round whose series completed this week, 0 when nothing did
	Round int `json:"round,omitempty"`

	Advanced        bool          `json:"advanced"`
	SeriesCompleted int           `json:"series_completed"`
	BracketComplete bool          `json:"bracket_complete"`
	Winner          *bracket.Side `json:"winner,omitempty"`

	MatchupsCreated           int `json:"matchups_created"`
	ThirdPlaceMatchupsCreated int `json:"third_place_matchups_created,omitempty"`
}

type pairing struct {
	position int
	a, b     bracket.Side
}

type playoffEngine struct {
	repo   Repository
	events events.Sink
}

// advanceRound moves one sub-bracket forward using the series that closed in week. Every write it
// makes is idempotent, so calling it again for the same week is a no-op.
func (e *playoffEngine) advanceRound(ctx context.Context, b *bracket.Bracket, t bracket.Type, week int) (AdvanceResult, error) {
	res := AdvanceResult{BracketType: t}

	completed, err := e.completedSeriesInWeek(ctx, b, t, week)
	if err != nil {
		return res, err
	}
	if len(completed) == 0 {
		return res, nil
	}

	round := completed[0].Round
	for _, s := range completed[1:] {
		if s.Round != round {
			return res, fmt.Errorf("%w: %s week %d has rounds %d and %d", ErrMixedRounds, t, week, round, s.Round)
		}
	}
	res.Round = round
	res.SeriesCompleted = len(completed)

	terminal := b.TerminalRound(t)
	switch {
	case round == terminal:
		return e.recordTerminal(ctx, b, t, completed, res)
	case round > terminal:
		return res, fmt.Errorf("%w: %s round %d is past the terminal round %d", ErrInvalidRoundState, t, round, terminal)
	}

	// The slowest series in the round decides when it advances
	roundGames, err := e.repo.GetRoundMatchups(ctx, b.LeagueID, b.Season, t, round)
	if err != nil {
		return res, fmt.Errorf("failed to load round %d: %w", round, err)
	}
	series, err := bracket.AggregateAll(roundGames)
	if err != nil {
		return res, err
	}
	for _, s := range series {
		if !s.IsComplete {
			return res, nil
		}
	}

	results := make([]bracket.Result, 0, len(series))
	for _, s := range series {
		r, err := bracket.Resolve(s)
		if err != nil {
			return res, err
		}
		results = append(results, r)
	}

	if t == bracket.Winners && round == b.SemifinalRound() && b.ThirdPlaceEnabled {
		n, err := e.createThirdPlace(ctx, b, results)
		if err != nil {
			return res, err
		}
		res.ThirdPlaceMatchupsCreated = n
		if n > 0 {
			e.events.Queue(events.RoundAdvanced, b.LeagueID, map[string]any{
				"bracket_type": string(bracket.ThirdPlace),
				"round":        b.TerminalRound(bracket.ThirdPlace),
				"matchups":     n,
			})
		}
	}

	next := round + 1
	exists, err := e.repo.HasRoundMatchups(ctx, b.LeagueID, b.Season, t, next)
	if err != nil {
		return res, err
	}
	if !exists {
		pairings, err := e.nextRoundPairings(ctx, b, t, next, results)
		if err != nil {
			return res, err
		}
		for _, p := range pairings {
			n, err := e.createSeries(ctx, b, t, next, p)
			if err != nil {
				return res, err
			}
			res.MatchupsCreated += n
		}
	}

	if res.MatchupsCreated > 0 {
		e.events.Queue(events.RoundAdvanced, b.LeagueID, map[string]any{
			"bracket_type": string(t),
			"round":        next,
			"matchups":     res.MatchupsCreated,
		})
	}
	res.Advanced = res.MatchupsCreated > 0 || res.ThirdPlaceMatchupsCreated > 0
	return res, nil
}

// completedSeriesInWeek returns the complete series whose last game is final in week.
func (e *playoffEngine) completedSeriesInWeek(ctx context.Context, b *bracket.Bracket, t bracket.Type, week int) ([]bracket.SeriesAggregation, error) {
	finals, err := e.repo.GetFinalGamesInWeek(ctx, b.LeagueID, b.Season, t, week)
	if err != nil {
		return nil, fmt.Errorf("failed to load final games: %w", err)
	}

	var completed []bracket.SeriesAggregation
	for _, m := range finals {
		if !m.IsLastGame() {
			continue
		}
		games := []bracket.Matchup{m}
		if m.SeriesID != nil {
			games, err = e.repo.GetSeriesMatchups(ctx, *m.SeriesID)
			if err != nil {
				return nil, fmt.Errorf("failed to load series %s: %w", m.SeriesID, err)
			}
		}
		agg, err := bracket.Aggregate(games)
		if err != nil {
			return nil, err
		}
		if agg.IsComplete {
			completed = append(completed, agg)
		}
	}
	return completed, nil
}

func (e *playoffEngine) recordTerminal(ctx context.Context, b *bracket.Bracket, t bracket.Type, completed []bracket.SeriesAggregation, res AdvanceResult) (AdvanceResult, error) {
	if len(completed) != 1 {
		return res, fmt.Errorf("%w: %s terminal round has %d series", ErrInvalidRoundState, t, len(completed))
	}

	r, err := bracket.Resolve(completed[0])
	if err != nil {
		return res, err
	}

	changed, err := e.repo.SetTerminalWinner(ctx, b.ID, t, r.Winner.RosterID)
	if err != nil {
		return res, err
	}
	if changed {
		e.events.Queue(terminalEvent(t), b.LeagueID, map[string]any{
			"bracket_type": string(t),
			"roster_id":    r.Winner.RosterID,
			"seed":         r.Winner.Seed,
		})
	}

	if _, err := e.finalizeBracketIfComplete(ctx, b.ID); err != nil {
		return res, err
	}

	res.Advanced = changed
	res.BracketComplete = true
	res.Winner = &r.Winner
	return res, nil
}

func terminalEvent(t bracket.Type) events.Type {
	switch t {
	case bracket.ThirdPlace:
		return events.ThirdPlaceDecided
	case bracket.Consolation:
		return events.ConsolationDecided
	}
	return events.ChampionCrowned
}

// createThirdPlace pairs the semifinal losers, better seed at position 1.
func (e *playoffEngine) createThirdPlace(ctx context.Context, b *bracket.Bracket, semifinals []bracket.Result) (int, error) {
	if len(semifinals) != 2 {
		return 0, fmt.Errorf("%w: expected 2 semifinals, got %d", ErrInvalidRoundState, len(semifinals))
	}

	round := b.TerminalRound(bracket.ThirdPlace)
	exists, err := e.repo.HasRoundMatchups(ctx, b.LeagueID, b.Season, bracket.ThirdPlace, round)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	return e.createSeries(ctx, b, bracket.ThirdPlace, round, pairing{
		position: 1,
		a:        semifinals[0].Loser,
		b:        semifinals[1].Loser,
	})
}

func (e *playoffEngine) nextRoundPairings(ctx context.Context, b *bracket.Bracket, t bracket.Type, next int, results []bracket.Result) ([]pairing, error) {
	if b.TeamsIn(t) == 6 && next == 2 {
		pairings, err := e.byePairings(ctx, b, t, results)
		if err == nil {
			return pairings, nil
		}
		if !errors.Is(err, errByeLookup) {
			return nil, err
		}
		slog.Warn("falling back to adjacent pairing", "league_id", b.LeagueID, "season", b.Season,
			"bracket_type", t, "error", err)
	}
	return adjacentPairings(t, next, results)
}

// adjacentPairings pairs winners in bracket position order: 0-1, 2-3, ...
func adjacentPairings(t bracket.Type, next int, results []bracket.Result) ([]pairing, error) {
	if len(results)%2 != 0 {
		return nil, fmt.Errorf("%w: %s round %d would get %d teams", ErrInvalidRoundState, t, next, len(results))
	}

	pairings := make([]pairing, 0, len(results)/2)
	for i := 0; i+1 < len(results); i += 2 {
		pairings = append(pairings, pairing{
			position: i/2 + 1,
			a:        results[i].Winner,
			b:        results[i+1].Winner,
		})
	}
	return pairings, nil
}

// byePairings brings seeds 1 and 2 into round 2: seed 1 meets the winner of 4v5 at position 1,
// seed 2 meets the winner of 3v6 at position 2.
func (e *playoffEngine) byePairings(ctx context.Context, b *bracket.Bracket, t bracket.Type, results []bracket.Result) ([]pairing, error) {
	seeds, err := e.repo.GetSeeds(ctx, b.ID, t)
	if err != nil {
		return nil, fmt.Errorf("failed to load seeds: %w", err)
	}

	byes := make(map[int]bracket.Side)
	for _, s := range seeds {
		if s.HasBye {
			byes[s.Seed] = bracket.Side{RosterID: s.RosterID, Seed: s.Seed}
		}
	}
	top, ok1 := byes[1]
	second, ok2 := byes[2]
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: have %d bye seeds", errByeLookup, len(byes))
	}

	w45, ok1 := winnerOf(results, 4, 5)
	w36, ok2 := winnerOf(results, 3, 6)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: round 1 series do not match the 3v6 and 4v5 template", errByeLookup)
	}

	return []pairing{
		{position: 1, a: top, b: w45},
		{position: 2, a: second, b: w36},
	}, nil
}

func winnerOf(results []bracket.Result, seedA, seedB int) (bracket.Side, bool) {
	for _, r := range results {
		w, l := r.Winner.Seed, r.Loser.Seed
		if (w == seedA && l == seedB) || (w == seedB && l == seedA) {
			return r.Winner, true
		}
	}
	return bracket.Side{}, false
}

// createSeries writes one matchup per game of the round's series. It returns how many were new.
func (e *playoffEngine) createSeries(ctx context.Context, b *bracket.Bracket, t bracket.Type, round int, p pairing) (int, error) {
	first, last, ok := bracket.RoundWeekRange(b.StartWeek, b.WeeksByRound, round)
	if !ok {
		return 0, fmt.Errorf("%w: no weeks configured for round %d", ErrInvalidRoundState, round)
	}
	length := last - first + 1

	// Side 1 is always the better seed
	sides := []bracket.Side{p.a, p.b}
	sort.SliceStable(sides, func(i, j int) bool { return sides[i].Seed < sides[j].Seed })

	var seriesID *uuid.UUID
	if length > 1 {
		seriesID = utils.Ptr(uuid.New())
	}

	created := 0
	for g := 1; g <= length; g++ {
		existed, err := e.repo.CreateMatchup(ctx, &bracket.Matchup{
			ID:              uuid.New(),
			LeagueID:        b.LeagueID,
			Season:          b.Season,
			Week:            first + g - 1,
			IsPlayoff:       true,
			BracketType:     utils.Ptr(t),
			Round:           round,
			BracketPosition: p.position,
			Roster1ID:       sides[0].RosterID,
			Roster2ID:       sides[1].RosterID,
			Seed1:           utils.Ptr(sides[0].Seed),
			Seed2:           utils.Ptr(sides[1].Seed),
			SeriesID:        seriesID,
			SeriesGame:      g,
			SeriesLength:    length,
		})
		if err != nil {
			return created, fmt.Errorf("failed to create %s round %d matchup: %w", t, round, err)
		}
		if !existed {
			created++
		}
	}
	return created, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/league-playoffs/internal/bracket"
	"github.com/AdamBeresnev/league-playoffs/internal/events"
	"github.com/AdamBeresnev/league-playoffs/internal/store"
	"github.com/google/uuid"
)

type GenerateConfig struct {
	LeagueID         uuid.UUID `json:"league_id"`
	Season           int       `json:"season"`
	TeamCount        int       `json:"team_count"`
	ConsolationTeams int       `json:"consolation_teams"`
	StartWeek        int       `json:"start_week"`
	WeeksByRound     []int     `json:"weeks_by_round"`
	ThirdPlace       bool      `json:"third_place"`
}

func (c GenerateConfig) validate() error {
	if !bracket.ValidTeamCount(c.TeamCount) {
		return fmt.Errorf("%w: got %d", ErrInvalidTeamCount, c.TeamCount)
	}
	if c.ConsolationTeams != 0 && !bracket.ValidTeamCount(c.ConsolationTeams) {
		return fmt.Errorf("%w: got %d", ErrInvalidConsolationTeams, c.ConsolationTeams)
	}
	if c.StartWeek < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidStartWeek, c.StartWeek)
	}

	rounds := bracket.TotalRounds(c.TeamCount)
	if len(c.WeeksByRound) != rounds {
		return fmt.Errorf("%w: %d entries for %d rounds", ErrInvalidWeeksByRound, len(c.WeeksByRound), rounds)
	}
	for i, n := range c.WeeksByRound {
		if n != 1 && n != 2 {
			return fmt.Errorf("%w: round %d has %d weeks", ErrInvalidWeeksByRound, i+1, n)
		}
	}

	if c.ConsolationTeams > 0 && bracket.TotalRounds(c.ConsolationTeams) > rounds {
		return fmt.Errorf("%w: %d consolation teams with %d main teams", ErrConsolationDoesNotFit, c.ConsolationTeams, c.TeamCount)
	}
	return nil
}

// generateBracket seeds both sub-brackets from the standings and creates their round 1. Every
// check runs before the first write.
func (e *playoffEngine) generateBracket(ctx context.Context, cfg GenerateConfig) (*bracket.Bracket, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	_, err := e.repo.FindBracket(ctx, cfg.LeagueID, cfg.Season)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: league %s season %d", ErrBracketExists, cfg.LeagueID, cfg.Season)
	case !errors.Is(err, store.ErrBracketNotFound):
		return nil, err
	}

	first, last := bracket.PlayoffWeekRange(cfg.StartWeek, cfg.WeeksByRound)
	scheduled, err := e.repo.CountRegularSeasonMatchups(ctx, cfg.LeagueID, cfg.Season, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to check schedule: %w", err)
	}
	if scheduled > 0 {
		return nil, fmt.Errorf("%w: %d games between weeks %d and %d", ErrScheduleConflict, scheduled, first, last)
	}

	standings, err := e.repo.GetStandings(ctx, cfg.LeagueID, cfg.Season)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings: %w", err)
	}
	if need := cfg.TeamCount + cfg.ConsolationTeams; len(standings) < need {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientTeams, need, len(standings))
	}

	b := &bracket.Bracket{
		ID:                uuid.New(),
		LeagueID:          cfg.LeagueID,
		Season:            cfg.Season,
		TeamCount:         cfg.TeamCount,
		ConsolationTeams:  cfg.ConsolationTeams,
		TotalRounds:       bracket.TotalRounds(cfg.TeamCount),
		StartWeek:         cfg.StartWeek,
		WeeksByRound:      bracket.WeekLengths(cfg.WeeksByRound),
		ThirdPlaceEnabled: cfg.ThirdPlace,
		Status:            bracket.StatusPending,
	}
	if err := e.repo.CreateBracket(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create bracket: %w", err)
	}

	created := 0
	for _, t := range []bracket.Type{bracket.Winners, bracket.Consolation} {
		if !b.Enabled(t) {
			continue
		}
		offset := 0
		if t == bracket.Consolation {
			offset = b.TeamCount
		}
		n, err := e.seedSubBracket(ctx, b, t, standings[offset:offset+b.TeamsIn(t)])
		if err != nil {
			return nil, err
		}
		created += n
	}

	e.events.Queue(events.BracketGenerated, b.LeagueID, map[string]any{
		"bracket_id":        b.ID.String(),
		"season":            b.Season,
		"team_count":        b.TeamCount,
		"consolation_teams": b.ConsolationTeams,
		"matchups":          created,
	})

	return e.repo.GetBracket(ctx, b.ID)
}

// seedSubBracket stores seeds in standings order and creates the round 1 matchups.
func (e *playoffEngine) seedSubBracket(ctx context.Context, b *bracket.Bracket, t bracket.Type, standings []bracket.Standing) (int, error) {
	n := len(standings)
	seeds := make([]bracket.Seed, 0, n)
	sides := make(map[int]bracket.Side, n)
	for i, st := range standings {
		seed := i + 1
		seeds = append(seeds, bracket.Seed{
			ID:          uuid.New(),
			BracketID:   b.ID,
			BracketType: t,
			Seed:        seed,
			RosterID:    st.RosterID,
			Wins:        st.Wins,
			Losses:      st.Losses,
			Ties:        st.Ties,
			PointsFor:   st.PointsFor,
			HasBye:      bracket.HasBye(n, seed),
		})
		sides[seed] = bracket.Side{RosterID: st.RosterID, Seed: seed}
	}
	if err := e.repo.CreateSeeds(ctx, seeds); err != nil {
		return 0, fmt.Errorf("failed to create %s seeds: %w", t, err)
	}

	pairings, _ := bracket.Round1Template(n)
	created := 0
	for _, sp := range pairings {
		c, err := e.createSeries(ctx, b, t, 1, pairing{
			position: sp.Position,
			a:        sides[sp.HighSeed],
			b:        sides[sp.LowSeed],
		})
		if err != nil {
			return created, err
		}
		created += c
	}
	return created, nil
}

// WeekResult aggregates one advance-for-week call across the enabled sub-brackets.
type WeekResult struct {
	LeagueID uuid.UUID       `json:"league_id"`
	Season   int             `json:"season"`
	Week     int             `json:"week"`
	Results  []AdvanceResult `json:"results"`
	Advanced bool            `json:"advanced"`
	Status   bracket.Status  `json:"status"`
	// Set when this call moved the bracket to completed
	Completed bool `json:"completed"`
}

func (e *playoffEngine) advanceForWeek(ctx context.Context, b *bracket.Bracket, week int) (*WeekResult, error) {
	out := &WeekResult{LeagueID: b.LeagueID, Season: b.Season, Week: week}

	for _, t := range []bracket.Type{bracket.Winners, bracket.ThirdPlace, bracket.Consolation} {
		if !b.Enabled(t) {
			continue
		}
		res, err := e.advanceRound(ctx, b, t, week)
		if err != nil {
			return nil, fmt.Errorf("failed to advance %s bracket for week %d: %w", t, week, err)
		}
		out.Results = append(out.Results, res)
		out.Advanced = out.Advanced || res.Advanced
	}

	if out.Advanced {
		if _, err := e.repo.TransitionStatus(ctx, b.ID, bracket.StatusPending, bracket.StatusActive); err != nil {
			return nil, fmt.Errorf("failed to activate bracket: %w", err)
		}
	}

	current, err := e.repo.GetBracket(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	out.Status = current.Status
	out.Completed = b.Status != bracket.StatusCompleted && current.Status == bracket.StatusCompleted
	return out, nil
}

// finalizeBracketIfComplete marks the bracket completed once every enabled sub-bracket has a
// winner. It reports whether this call made the transition.
func (e *playoffEngine) finalizeBracketIfComplete(ctx context.Context, bracketID uuid.UUID) (bool, error) {
	b, err := e.repo.GetBracket(ctx, bracketID)
	if err != nil {
		return false, err
	}
	if !b.IsComplete() || b.Status == bracket.StatusCompleted {
		return false, nil
	}

	moved, err := e.repo.TransitionStatus(ctx, b.ID, b.Status, bracket.StatusCompleted)
	if err != nil {
		return false, fmt.Errorf("failed to complete bracket: %w", err)
	}
	if moved {
		e.events.Queue(events.BracketCompleted, b.LeagueID, map[string]any{
			"bracket_id": b.ID.String(),
			"champion":   *b.ChampionRosterID,
		})
	}
	return moved, nil
}

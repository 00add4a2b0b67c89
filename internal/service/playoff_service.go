package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/league-playoffs/internal/bracket"
	"github.com/AdamBeresnev/league-playoffs/internal/events"
	"github.com/AdamBeresnev/league-playoffs/internal/lock"
	"github.com/AdamBeresnev/league-playoffs/internal/metrics"
	"github.com/AdamBeresnev/league-playoffs/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

// PlayoffService runs the engine for request handlers and jobs. It serializes work per league,
// owns the transaction and dispatches queued events only after commit.
type PlayoffService struct {
	db         *sqlx.DB
	store      *store.PlayoffStore
	locks      *lock.KeyedMutex
	dispatcher events.Dispatcher
}

func NewPlayoffService(db *sqlx.DB, store *store.PlayoffStore, locks *lock.KeyedMutex, dispatcher events.Dispatcher) *PlayoffService {
	if locks == nil {
		locks = lock.NewKeyedMutex()
	}
	if dispatcher == nil {
		dispatcher = events.NewLogDispatcher(nil)
	}
	return &PlayoffService{db: db, store: store, locks: locks, dispatcher: dispatcher}
}

func (s *PlayoffService) inTx(ctx context.Context, fn func(e *playoffEngine) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	outbox := events.NewOutbox()
	engine := &playoffEngine{repo: s.store.WithTx(tx), events: outbox}
	if err := fn(engine); err != nil {
		outbox.Discard()
		return err
	}
	if err := tx.Commit(); err != nil {
		outbox.Discard()
		return fmt.Errorf("failed to commit: %w", err)
	}

	// Committed work stands even if delivery fails
	if err := outbox.Flush(ctx, s.dispatcher); err != nil {
		slog.Error("failed to dispatch playoff events", "error", err)
		metrics.EventDispatchFailures.Inc()
	}
	return nil
}

func (s *PlayoffService) GenerateBracket(ctx context.Context, cfg GenerateConfig) (*BracketView, error) {
	unlock := s.locks.Lock(cfg.LeagueID.String())
	defer unlock()

	err := s.inTx(ctx, func(e *playoffEngine) error {
		_, err := e.generateBracket(ctx, cfg)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.BracketsGenerated.Inc()
	slog.Info("bracket generated", "league_id", cfg.LeagueID, "season", cfg.Season, "team_count", cfg.TeamCount)
	return s.GetBracketView(ctx, cfg.LeagueID, cfg.Season)
}

func (s *PlayoffService) AdvanceForWeek(ctx context.Context, leagueID uuid.UUID, season, week int) (*WeekResult, error) {
	unlock := s.locks.Lock(leagueID.String())
	defer unlock()

	var result *WeekResult
	err := s.inTx(ctx, func(e *playoffEngine) error {
		b, err := e.repo.FindBracket(ctx, leagueID, season)
		if err != nil {
			return err
		}
		result, err = e.advanceForWeek(ctx, b, week)
		return err
	})
	if err != nil {
		metrics.AdvanceCalls.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	recordAdvance(result)
	if result.Advanced {
		slog.Info("playoffs advanced", "league_id", leagueID, "season", season, "week", week, "status", result.Status)
	}
	return result, nil
}

func recordAdvance(r *WeekResult) {
	if !r.Advanced {
		metrics.AdvanceCalls.WithLabelValues(metrics.OutcomeNoop).Inc()
		return
	}
	metrics.AdvanceCalls.WithLabelValues(metrics.OutcomeAdvanced).Inc()
	for _, res := range r.Results {
		metrics.MatchupsCreated.WithLabelValues(string(res.BracketType)).Add(float64(res.MatchupsCreated))
		if res.ThirdPlaceMatchupsCreated > 0 {
			metrics.MatchupsCreated.WithLabelValues(string(bracket.ThirdPlace)).Add(float64(res.ThirdPlaceMatchupsCreated))
		}
		if res.Advanced && res.Winner != nil {
			metrics.TerminalWinners.WithLabelValues(string(res.BracketType)).Inc()
		}
	}
	if r.Completed {
		metrics.BracketsCompleted.Inc()
	}
}

// AdvancePending replays every week holding a finalized series for each open bracket. Replaying
// is safe because advancement is idempotent. It returns how many calls advanced something.
func (s *PlayoffService) AdvancePending(ctx context.Context) (int, error) {
	brackets, err := s.store.ListOpenBrackets(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list open brackets: %w", err)
	}

	advanced := 0
	var errs []error
	for _, b := range brackets {
		weeks, err := s.store.ListFinalPlayoffWeeks(ctx, b.LeagueID, b.Season)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, week := range weeks {
			res, err := s.AdvanceForWeek(ctx, b.LeagueID, b.Season, week)
			if err != nil {
				slog.Error("failed to advance playoffs", "league_id", b.LeagueID, "season", b.Season, "week", week, "error", err)
				errs = append(errs, fmt.Errorf("league %s week %d: %w", b.LeagueID, week, err))
				break
			}
			if res.Advanced {
				advanced++
			}
		}
	}
	return advanced, errors.Join(errs...)
}

type BracketView struct {
	Bracket *bracket.Bracket                `json:"bracket"`
	Seeds   map[bracket.Type][]bracket.Seed `json:"seeds"`
	Rounds  []RoundView                     `json:"rounds"`
}

type RoundView struct {
	BracketType bracket.Type `json:"bracket_type"`
	Round       int          `json:"round"`
	Name        string       `json:"name"`
	Series      []SeriesView `json:"series"`
}

// SeriesView shows running totals. Scores may be partial; no winner is resolved here.
type SeriesView struct {
	BracketPosition int        `json:"bracket_position"`
	SeriesID        *uuid.UUID `json:"series_id,omitempty"`
	Roster1ID       int        `json:"roster_1_id"`
	Roster2ID       int        `json:"roster_2_id"`
	Seed1           *int       `json:"seed_1"`
	Seed2           *int       `json:"seed_2"`
	Points1         float64    `json:"points_1"`
	Points2         float64    `json:"points_2"`
	GamesCompleted  int        `json:"games_completed"`
	SeriesLength    int        `json:"series_length"`
	IsComplete      bool       `json:"is_complete"`
	Weeks           []int      `json:"weeks"`
}

func (s *PlayoffService) GetBracketView(ctx context.Context, leagueID uuid.UUID, season int) (*BracketView, error) {
	b, err := s.store.FindBracket(ctx, leagueID, season)
	if err != nil {
		return nil, err
	}

	var (
		winnerSeeds, consolationSeeds []bracket.Seed
		matchups                      []bracket.Matchup
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		winnerSeeds, err = s.store.GetSeeds(gCtx, b.ID, bracket.Winners)
		return err
	})
	g.Go(func() error {
		if !b.ConsolationEnabled() {
			return nil
		}
		var err error
		consolationSeeds, err = s.store.GetSeeds(gCtx, b.ID, bracket.Consolation)
		return err
	})
	g.Go(func() error {
		var err error
		matchups, err = s.store.GetPlayoffMatchups(gCtx, leagueID, season)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load bracket %s: %w", b.ID, err)
	}

	view := &BracketView{
		Bracket: b,
		Seeds:   map[bracket.Type][]bracket.Seed{bracket.Winners: winnerSeeds},
	}
	if b.ConsolationEnabled() {
		view.Seeds[bracket.Consolation] = consolationSeeds
	}

	rounds, err := buildRounds(b, matchups)
	if err != nil {
		return nil, err
	}
	view.Rounds = rounds
	return view, nil
}

type roundKey struct {
	t     bracket.Type
	round int
}

func buildRounds(b *bracket.Bracket, matchups []bracket.Matchup) ([]RoundView, error) {
	grouped := make(map[roundKey][]bracket.Matchup)
	for _, m := range matchups {
		k := roundKey{t: m.Type(), round: m.Round}
		grouped[k] = append(grouped[k], m)
	}

	var rounds []RoundView
	for _, t := range []bracket.Type{bracket.Winners, bracket.ThirdPlace, bracket.Consolation} {
		for round := 1; round <= b.TerminalRound(t); round++ {
			games, ok := grouped[roundKey{t: t, round: round}]
			if !ok {
				continue
			}
			series, err := bracket.AggregateAll(games)
			if err != nil {
				return nil, err
			}

			rv := RoundView{BracketType: t, Round: round, Name: bracket.RoundLabel(b, t, round)}
			for _, agg := range series {
				rv.Series = append(rv.Series, seriesView(agg, games))
			}
			rounds = append(rounds, rv)
		}
	}
	return rounds, nil
}

func seriesView(agg bracket.SeriesAggregation, games []bracket.Matchup) SeriesView {
	sv := SeriesView{
		BracketPosition: agg.BracketPosition,
		SeriesID:        agg.SeriesID,
		Roster1ID:       agg.Roster1ID,
		Roster2ID:       agg.Roster2ID,
		Seed1:           agg.Seed1,
		Seed2:           agg.Seed2,
		Points1:         agg.Points1,
		Points2:         agg.Points2,
		GamesCompleted:  agg.GamesCompleted,
		SeriesLength:    agg.SeriesLength,
		IsComplete:      agg.IsComplete,
	}
	for _, g := range games {
		if g.SeriesKey() == agg.Key {
			sv.Weeks = append(sv.Weeks, g.Week)
		}
	}
	return sv
}

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/AdamBeresnev/league-playoffs/internal/bracket"
	"github.com/AdamBeresnev/league-playoffs/internal/db"
	"github.com/AdamBeresnev/league-playoffs/internal/events"
	"github.com/AdamBeresnev/league-playoffs/internal/lock"
	"github.com/AdamBeresnev/league-playoffs/internal/store"
	"github.com/AdamBeresnev/league-playoffs/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const testSeason = 2025

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.OpenMemory()
	require.NoError(t, err, "Failed to open migrated in-memory DB")
	t.Cleanup(func() { database.Close() })

	return database
}

type recordingDispatcher struct {
	mu   sync.Mutex
	seen []events.Event
}

func (r *recordingDispatcher) Dispatch(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, e)
	return nil
}

func (r *recordingDispatcher) count(t events.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.seen {
		if e.Type == t {
			n++
		}
	}
	return n
}

// countFor counts events of type t whose payload names bracket type bt.
func (r *recordingDispatcher) countFor(t events.Type, bt bracket.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.seen {
		if e.Type == t && e.Payload["bracket_type"] == string(bt) {
			n++
		}
	}
	return n
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *store.PlayoffStore
	service  *PlayoffService
	events   *recordingDispatcher
	leagueID uuid.UUID
}

// newFixture sets up a league whose standings rank rosters 101, 102, ... in order.
func newFixture(t *testing.T, teams int) *fixture {
	t.Helper()

	database := setupTestDB(t)
	playoffStore := store.NewPlayoffStore(database)
	rec := &recordingDispatcher{}

	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    playoffStore,
		service:  NewPlayoffService(database, playoffStore, lock.NewKeyedMutex(), rec),
		events:   rec,
		leagueID: uuid.New(),
	}

	standings := make([]bracket.Standing, 0, teams)
	for rank := 1; rank <= teams; rank++ {
		standings = append(standings, bracket.Standing{
			LeagueID:  f.leagueID,
			Season:    testSeason,
			Rank:      rank,
			RosterID:  100 + rank,
			TeamName:  fmt.Sprintf("Team %d", rank),
			Wins:      14 - rank,
			Losses:    rank,
			PointsFor: 1800 - float64(rank)*20,
		})
	}
	require.NoError(t, playoffStore.CreateStandings(f.ctx, standings))
	return f
}

func (f *fixture) config(teams int, weeks ...int) GenerateConfig {
	return GenerateConfig{
		LeagueID:     f.leagueID,
		Season:       testSeason,
		TeamCount:    teams,
		StartWeek:    15,
		WeeksByRound: weeks,
	}
}

func (f *fixture) generate(cfg GenerateConfig) *BracketView {
	f.t.Helper()
	view, err := f.service.GenerateBracket(f.ctx, cfg)
	require.NoError(f.t, err)
	return view
}

func (f *fixture) round(t bracket.Type, round int) []bracket.Matchup {
	f.t.Helper()
	matchups, err := f.store.GetRoundMatchups(f.ctx, f.leagueID, testSeason, t, round)
	require.NoError(f.t, err)
	return matchups
}

func (f *fixture) slot(t bracket.Type, round, position int) []bracket.Matchup {
	f.t.Helper()
	var games []bracket.Matchup
	for _, m := range f.round(t, round) {
		if m.BracketPosition == position {
			games = append(games, m)
		}
	}
	require.NotEmpty(f.t, games, "no %s matchups at round %d position %d", t, round, position)
	return games
}

// finish marks every game of a series final with the given per-game scores, side 1 first.
func (f *fixture) finish(t bracket.Type, round, position int, p1, p2 float64) {
	f.t.Helper()
	for _, m := range f.slot(t, round, position) {
		require.NoError(f.t, f.store.RecordScore(f.ctx, m.ID, utils.Ptr(p1), utils.Ptr(p2), true))
	}
}

// finishRound lets side 1 win every series of the round.
func (f *fixture) finishRound(t bracket.Type, round int) {
	f.t.Helper()
	for _, m := range f.round(t, round) {
		require.NoError(f.t, f.store.RecordScore(f.ctx, m.ID, utils.Ptr(110.0), utils.Ptr(100.0), true))
	}
}

func (f *fixture) advance(week int) *WeekResult {
	f.t.Helper()
	res, err := f.service.AdvanceForWeek(f.ctx, f.leagueID, testSeason, week)
	require.NoError(f.t, err)
	return res
}

func (f *fixture) bracket() *bracket.Bracket {
	f.t.Helper()
	b, err := f.store.FindBracket(f.ctx, f.leagueID, testSeason)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) view() *BracketView {
	f.t.Helper()
	view, err := f.service.GetBracketView(f.ctx, f.leagueID, testSeason)
	require.NoError(f.t, err)
	return view
}

func (f *fixture) playoffMatchupCount() int {
	f.t.Helper()
	matchups, err := f.store.GetPlayoffMatchups(f.ctx, f.leagueID, testSeason)
	require.NoError(f.t, err)
	return len(matchups)
}

func seedsOf(m bracket.Matchup) [2]int {
	return [2]int{utils.OrZero(m.Seed1), utils.OrZero(m.Seed2)}
}

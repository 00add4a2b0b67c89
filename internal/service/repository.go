package service

import (
	"context"

	"github.com/AdamBeresnev/league-playoffs/internal/bracket"
	"github.com/AdamBeresnev/league-playoffs/internal/store"
	"github.com/google/uuid"
)

// Repository is everything the engine needs from persistence. All calls of one engine run go
// through the same transaction.
type Repository interface {
	CreateBracket(ctx context.Context, b *bracket.Bracket) error
	GetBracket(ctx context.Context, id uuid.UUID) (*bracket.Bracket, error)
	FindBracket(ctx context.Context, leagueID uuid.UUID, season int) (*bracket.Bracket, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to bracket.Status) (bool, error)
	SetTerminalWinner(ctx context.Context, bracketID uuid.UUID, t bracket.Type, rosterID int) (bool, error)

	CreateSeeds(ctx context.Context, seeds []bracket.Seed) error
	GetSeeds(ctx context.Context, bracketID uuid.UUID, t bracket.Type) ([]bracket.Seed, error)

	CreateMatchup(ctx context.Context, m *bracket.Matchup) (bool, error)
	GetSeriesMatchups(ctx context.Context, seriesID uuid.UUID) ([]bracket.Matchup, error)
	GetFinalGamesInWeek(ctx context.Context, leagueID uuid.UUID, season int, t bracket.Type, week int) ([]bracket.Matchup, error)
	GetRoundMatchups(ctx context.Context, leagueID uuid.UUID, season int, t bracket.Type, round int) ([]bracket.Matchup, error)
	HasRoundMatchups(ctx context.Context, leagueID uuid.UUID, season int, t bracket.Type, round int) (bool, error)
	CountRegularSeasonMatchups(ctx context.Context, leagueID uuid.UUID, season, fromWeek, toWeek int) (int, error)

	GetStandings(ctx context.Context, leagueID uuid.UUID, season int) ([]bracket.Standing, error)
}

var _ Repository = (*store.PlayoffStore)(nil)

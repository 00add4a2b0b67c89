package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/league-playoffs/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrBracketNotFound        = errors.New("bracket not found")
	ErrBracketExists          = errors.New("bracket already exists for this season")
	ErrMatchupNotFound        = errors.New("matchup not found")
	ErrTerminalWinnerConflict = errors.New("a different winner is already recorded")
)

const (
	createBracketQuery = `
		INSERT INTO brackets (id, league_id, season, team_count, consolation_teams, total_rounds, start_week,
			weeks_by_round, third_place_enabled, status)
		VALUES (:id, :league_id, :season, :team_count, :consolation_teams, :total_rounds, :start_week,
			:weeks_by_round, :third_place_enabled, :status)
	`
	createSeedQuery = `
		INSERT INTO bracket_seeds (id, bracket_id, bracket_type, seed, roster_id, wins, losses, ties, points_for, has_bye)
		VALUES (:id, :bracket_id, :bracket_type, :seed, :roster_id, :wins, :losses, :ties, :points_for, :has_bye)
	`
	// The unique playoff slot index turns a repeated insert into a no-op
	createMatchupQuery = `
		INSERT INTO matchups (id, league_id, season, week, is_playoff, bracket_type, round, bracket_position,
			roster_1_id, roster_2_id, seed_1, seed_2, points_1, points_2, is_final, series_id, series_game, series_length)
		VALUES (:id, :league_id, :season, :week, :is_playoff, :bracket_type, :round, :bracket_position,
			:roster_1_id, :roster_2_id, :seed_1, :seed_2, :points_1, :points_2, :is_final, :series_id, :series_game, :series_length)
		ON CONFLICT DO NOTHING
	`
	createStandingQuery = `
		INSERT INTO league_standings (league_id, season, rank, roster_id, team_name, wins, losses, ties, points_for)
		VALUES (:league_id, :season, :rank, :roster_id, :team_name, :wins, :losses, :ties, :points_for)
	`
	finalGamesInWeekQuery = `
		SELECT * FROM matchups
		WHERE league_id = ? AND season = ? AND is_playoff = TRUE AND bracket_type = ?
		AND week = ? AND is_final = TRUE AND series_game = series_length
		ORDER BY round ASC, bracket_position ASC
	`
)

// PlayoffStore reads and writes brackets, seeds, matchups and standings. The zero executor is the
// database handle; WithTx binds a copy to a transaction.
type PlayoffStore struct {
	db   *sqlx.DB
	exec sqlx.ExtContext
}

func NewPlayoffStore(db *sqlx.DB) *PlayoffStore {
	return &PlayoffStore{db: db, exec: db}
}

func (s *PlayoffStore) WithTx(tx *sqlx.Tx) *PlayoffStore {
	return &PlayoffStore{db: s.db, exec: tx}
}

func (s *PlayoffStore) CreateBracket(ctx context.Context, b *bracket.Bracket) error {
	_, err := sqlx.NamedExecContext(ctx, s.exec, createBracketQuery, b)
	if isUniqueViolation(err) {
		return ErrBracketExists
	}
	return err
}

func (s *PlayoffStore) GetBracket(ctx context.Context, id uuid.UUID) (*bracket.Bracket, error) {
	var b bracket.Bracket
	err := sqlx.GetContext(ctx, s.exec, &b, s.exec.Rebind("SELECT * FROM brackets WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBracketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PlayoffStore) FindBracket(ctx context.Context, leagueID uuid.UUID, season int) (*bracket.Bracket, error) {
	var b bracket.Bracket
	err := sqlx.GetContext(ctx, s.exec, &b, s.exec.Rebind("SELECT * FROM brackets WHERE league_id = ? AND season = ?"), leagueID, season)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBracketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PlayoffStore) ListOpenBrackets(ctx context.Context) ([]bracket.Bracket, error) {
	var brackets []bracket.Bracket
	err := sqlx.SelectContext(ctx, s.exec, &brackets, s.exec.Rebind("SELECT * FROM brackets WHERE status <> ? ORDER BY created_at ASC"), bracket.StatusCompleted)
	return brackets, err
}

// TransitionStatus moves a bracket from one status to another and reports whether it did.
func (s *PlayoffStore) TransitionStatus(ctx context.Context, id uuid.UUID, from, to bracket.Status) (bool, error) {
	res, err := s.exec.ExecContext(ctx, s.exec.Rebind("UPDATE brackets SET status = ? WHERE id = ? AND status = ?"), to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n > 0, nil
}

func winnerColumn(t bracket.Type) (string, error) {
	switch t {
	case bracket.Winners:
		return "champion_roster_id", nil
	case bracket.ThirdPlace:
		return "third_place_roster_id", nil
	case bracket.Consolation:
		return "consolation_winner_roster_id", nil
	}
	return "", fmt.Errorf("unknown bracket type %q", t)
}

// SetTerminalWinner records a sub-bracket winner once. Writing the recorded value again is a
// no-op; writing a different one fails with ErrTerminalWinnerConflict.
func (s *PlayoffStore) SetTerminalWinner(ctx context.Context, bracketID uuid.UUID, t bracket.Type, rosterID int) (bool, error) {
	col, err := winnerColumn(t)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("UPDATE brackets SET %s = ? WHERE id = ? AND %s IS NULL", col, col)
	res, err := s.exec.ExecContext(ctx, s.exec.Rebind(query), rosterID, bracketID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	b, err := s.GetBracket(ctx, bracketID)
	if err != nil {
		return false, err
	}
	current := b.Winner(t)
	if current != nil && *current == rosterID {
		return false, nil
	}
	return false, fmt.Errorf("%w: %s has roster %v, got %d", ErrTerminalWinnerConflict, t, current, rosterID)
}

func (s *PlayoffStore) CreateSeeds(ctx context.Context, seeds []bracket.Seed) error {
	if len(seeds) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, s.exec, createSeedQuery, seeds)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: seeds already created", ErrBracketExists)
	}
	return err
}

func (s *PlayoffStore) GetSeeds(ctx context.Context, bracketID uuid.UUID, t bracket.Type) ([]bracket.Seed, error) {
	var seeds []bracket.Seed
	err := sqlx.SelectContext(ctx, s.exec, &seeds,
		s.exec.Rebind("SELECT * FROM bracket_seeds WHERE bracket_id = ? AND bracket_type = ? ORDER BY seed ASC"), bracketID, t)
	return seeds, err
}

// CreateMatchup inserts a matchup unless its playoff slot is taken, and reports whether the slot
// already existed.
func (s *PlayoffStore) CreateMatchup(ctx context.Context, m *bracket.Matchup) (bool, error) {
	if m.IsPlayoff && !m.Type().Valid() {
		return false, fmt.Errorf("invalid bracket type %q for playoff matchup", m.Type())
	}
	m.Points1, m.Points2 = bracket.RoundScore(m.Points1), bracket.RoundScore(m.Points2)

	res, err := sqlx.NamedExecContext(ctx, s.exec, createMatchupQuery, m)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n == 0, nil
}

func (s *PlayoffStore) GetSeriesMatchups(ctx context.Context, seriesID uuid.UUID) ([]bracket.Matchup, error) {
	var matchups []bracket.Matchup
	err := sqlx.SelectContext(ctx, s.exec, &matchups,
		s.exec.Rebind("SELECT * FROM matchups WHERE series_id = ? ORDER BY series_game ASC"), seriesID)
	return matchups, err
}

// GetFinalGamesInWeek returns the final games played in a week that close their series.
func (s *PlayoffStore) GetFinalGamesInWeek(ctx context.Context, leagueID uuid.UUID, season int, t bracket.Type, week int) ([]bracket.Matchup, error) {
	var matchups []bracket.Matchup
	err := sqlx.SelectContext(ctx, s.exec, &matchups, s.exec.Rebind(finalGamesInWeekQuery), leagueID, season, t, week)
	return matchups, err
}

func (s *PlayoffStore) GetRoundMatchups(ctx context.Context, leagueID uuid.UUID, season int, t bracket.Type, round int) ([]bracket.Matchup, error) {
	var matchups []bracket.Matchup
	err := sqlx.SelectContext(ctx, s.exec, &matchups, s.exec.Rebind(`
		SELECT * FROM matchups
		WHERE league_id = ? AND season = ? AND is_playoff = TRUE AND bracket_type = ? AND round = ?
		ORDER BY bracket_position ASC, series_game ASC`), leagueID, season, t, round)
	return matchups, err
}

func (s *PlayoffStore) HasRoundMatchups(ctx context.Context, leagueID uuid.UUID, season int, t bracket.Type, round int) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, s.exec, &count, s.exec.Rebind(`
		SELECT COUNT(*) FROM matchups
		WHERE league_id = ? AND season = ? AND is_playoff = TRUE AND bracket_type = ? AND round = ?`), leagueID, season, t, round)
	return count > 0, err
}

func (s *PlayoffStore) GetPlayoffMatchups(ctx context.Context, leagueID uuid.UUID, season int) ([]bracket.Matchup, error) {
	var matchups []bracket.Matchup
	err := sqlx.SelectContext(ctx, s.exec, &matchups, s.exec.Rebind(`
		SELECT * FROM matchups
		WHERE league_id = ? AND season = ? AND is_playoff = TRUE
		ORDER BY bracket_type ASC, round ASC, bracket_position ASC, series_game ASC`), leagueID, season)
	return matchups, err
}

// ListFinalPlayoffWeeks returns, ascending, the weeks holding a final game that closes a series.
func (s *PlayoffStore) ListFinalPlayoffWeeks(ctx context.Context, leagueID uuid.UUID, season int) ([]int, error) {
	var weeks []int
	err := sqlx.SelectContext(ctx, s.exec, &weeks, s.exec.Rebind(`
		SELECT DISTINCT week FROM matchups
		WHERE league_id = ? AND season = ? AND is_playoff = TRUE AND is_final = TRUE AND series_game = series_length
		ORDER BY week ASC`), leagueID, season)
	return weeks, err
}

func (s *PlayoffStore) CountRegularSeasonMatchups(ctx context.Context, leagueID uuid.UUID, season, fromWeek, toWeek int) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, s.exec, &count, s.exec.Rebind(`
		SELECT COUNT(*) FROM matchups
		WHERE league_id = ? AND season = ? AND is_playoff = FALSE AND week BETWEEN ? AND ?`), leagueID, season, fromWeek, toWeek)
	return count, err
}

// RecordScore is the scoring collaborator's write; the engine only reads scores. Scores are kept
// to two decimals.
func (s *PlayoffStore) RecordScore(ctx context.Context, matchupID uuid.UUID, points1, points2 *float64, final bool) error {
	res, err := s.exec.ExecContext(ctx, s.exec.Rebind("UPDATE matchups SET points_1 = ?, points_2 = ?, is_final = ? WHERE id = ?"),
		bracket.RoundScore(points1), bracket.RoundScore(points2), final, matchupID)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrMatchupNotFound)
}

func (s *PlayoffStore) CreateStandings(ctx context.Context, standings []bracket.Standing) error {
	if len(standings) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, s.exec, createStandingQuery, standings)
	return err
}

// GetStandings returns the final regular season standings, best rank first.
func (s *PlayoffStore) GetStandings(ctx context.Context, leagueID uuid.UUID, season int) ([]bracket.Standing, error) {
	var standings []bracket.Standing
	err := sqlx.SelectContext(ctx, s.exec, &standings,
		s.exec.Rebind("SELECT * FROM league_standings WHERE league_id = ? AND season = ? ORDER BY rank ASC"), leagueID, season)
	return standings, err
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

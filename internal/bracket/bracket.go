package bracket

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Type identifies a sub-bracket. The set is closed: every engine decision that differs
// between sub-brackets switches on it.
type Type string

const (
	Winners     Type = "winners"
	ThirdPlace  Type = "third_place"
	Consolation Type = "consolation"
)

func (t Type) Valid() bool {
	switch t {
	case Winners, ThirdPlace, Consolation:
		return true
	}
	return false
}

type Bracket struct {
	ID       uuid.UUID `db:"id"`
	LeagueID uuid.UUID `db:"league_id"`
	Season   int       `db:"season"`

	TeamCount        int `db:"team_count"`
	ConsolationTeams int `db:"consolation_teams"` // 0 when there is no consolation bracket
	TotalRounds      int `db:"total_rounds"`

	StartWeek    int         `db:"start_week"`
	WeeksByRound WeekLengths `db:"weeks_by_round"`

	ThirdPlaceEnabled bool   `db:"third_place_enabled"`
	Status            Status `db:"status"`

	ChampionRosterID          *int `db:"champion_roster_id"`
	ThirdPlaceRosterID        *int `db:"third_place_roster_id"`
	ConsolationWinnerRosterID *int `db:"consolation_winner_roster_id"`

	CreatedAt time.Time `db:"created_at"`
}

func (b *Bracket) ConsolationEnabled() bool {
	return b.ConsolationTeams > 0
}

// Enabled reports whether the sub-bracket takes part in this bracket at all.
func (b *Bracket) Enabled(t Type) bool {
	switch t {
	case Winners:
		return true
	case ThirdPlace:
		return b.ThirdPlaceEnabled
	case Consolation:
		return b.ConsolationEnabled()
	}
	return false
}

// TeamsIn returns the number of teams that start the sub-bracket.
func (b *Bracket) TeamsIn(t Type) int {
	switch t {
	case Winners:
		return b.TeamCount
	case ThirdPlace:
		return 2
	case Consolation:
		return b.ConsolationTeams
	}
	return 0
}

// TerminalRound is the round whose single series decides the sub-bracket's winner.
func (b *Bracket) TerminalRound(t Type) int {
	switch t {
	case Winners:
		return b.TotalRounds
	case ThirdPlace:
		return b.TotalRounds
	case Consolation:
		return TotalRounds(b.ConsolationTeams)
	}
	return 0
}

// SemifinalRound is the last round before the championship of the winners bracket.
func (b *Bracket) SemifinalRound() int {
	return b.TotalRounds - 1
}

// Winner returns the recorded terminal winner of the sub-bracket, if any.
func (b *Bracket) Winner(t Type) *int {
	switch t {
	case Winners:
		return b.ChampionRosterID
	case ThirdPlace:
		return b.ThirdPlaceRosterID
	case Consolation:
		return b.ConsolationWinnerRosterID
	}
	return nil
}

// IsComplete reports whether every enabled sub-bracket has produced a winner.
func (b *Bracket) IsComplete() bool {
	if b.ChampionRosterID == nil {
		return false
	}
	if b.ThirdPlaceEnabled && b.ThirdPlaceRosterID == nil {
		return false
	}
	if b.ConsolationEnabled() && b.ConsolationWinnerRosterID == nil {
		return false
	}
	return true
}

// WeekLengths is the per-round number of weeks, stored as a comma separated list.
type WeekLengths []int

func (w WeekLengths) Value() (driver.Value, error) {
	parts := make([]string, len(w))
	for i, n := range w {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ","), nil
}

func (w *WeekLengths) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*w = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into WeekLengths", src)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		*w = WeekLengths{}
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(WeekLengths, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("invalid week length %q: %w", p, err)
		}
		out = append(out, n)
	}
	*w = out
	return nil
}

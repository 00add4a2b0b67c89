package bracket

import (
	"time"

	"github.com/google/uuid"
)

// Matchup is one game between two rosters in one calendar week. Regular season games share
// the table with playoff games and carry no bracket type.
type Matchup struct {
	ID       uuid.UUID `db:"id"`
	LeagueID uuid.UUID `db:"league_id"`
	Season   int       `db:"season"`
	Week     int       `db:"week"`

	IsPlayoff   bool  `db:"is_playoff"`
	BracketType *Type `db:"bracket_type"`

	// Position in the bracket for pairing winners across rounds
	Round           int `db:"round"`
	BracketPosition int `db:"bracket_position"`

	Roster1ID int  `db:"roster_1_id"`
	Roster2ID int  `db:"roster_2_id"`
	Seed1     *int `db:"seed_1"`
	Seed2     *int `db:"seed_2"`

	Points1 *float64 `db:"points_1"`
	Points2 *float64 `db:"points_2"`
	IsFinal bool     `db:"is_final"`

	SeriesID     *uuid.UUID `db:"series_id"`
	SeriesGame   int        `db:"series_game"`
	SeriesLength int        `db:"series_length"`

	CreatedAt time.Time `db:"created_at"`
}

// SeriesKey groups the games of one series. A single game series is keyed by its own id.
func (m *Matchup) SeriesKey() string {
	if m.SeriesID != nil {
		return m.SeriesID.String()
	}
	return m.ID.String()
}

// IsLastGame reports whether this game closes its series.
func (m *Matchup) IsLastGame() bool {
	return m.SeriesGame == m.SeriesLength
}

func (m *Matchup) Type() Type {
	if m.BracketType == nil {
		return ""
	}
	return *m.BracketType
}

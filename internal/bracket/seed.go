package bracket

import "github.com/google/uuid"

type Seed struct {
	ID          uuid.UUID `db:"id"`
	BracketID   uuid.UUID `db:"bracket_id"`
	BracketType Type      `db:"bracket_type"`
	Seed        int       `db:"seed"`
	RosterID    int       `db:"roster_id"`

	// Regular season record, for display only
	Wins      int     `db:"wins"`
	Losses    int     `db:"losses"`
	Ties      int     `db:"ties"`
	PointsFor float64 `db:"points_for"`

	HasBye bool `db:"has_bye"`
}

// Standing is one roster's final regular season position.
type Standing struct {
	LeagueID  uuid.UUID `db:"league_id"`
	Season    int       `db:"season"`
	Rank      int       `db:"rank"`
	RosterID  int       `db:"roster_id"`
	TeamName  string    `db:"team_name"`
	Wins      int       `db:"wins"`
	Losses    int       `db:"losses"`
	Ties      int       `db:"ties"`
	PointsFor float64   `db:"points_for"`
}

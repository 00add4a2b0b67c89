package service

import (
	"errors"

	"github.com/AdamBeresnev/league-playoffs/internal/store"
)

// Configuration errors
var (
	ErrInvalidTeamCount        = errors.New("team count must be 4, 6 or 8")
	ErrInvalidConsolationTeams = errors.New("consolation team count must be 0, 4, 6 or 8")
	ErrInvalidWeeksByRound     = errors.New("weeks by round needs one entry of 1 or 2 per round")
	ErrInvalidStartWeek        = errors.New("start week must be at least 1")
	ErrInsufficientTeams       = errors.New("not enough teams in the standings")
	ErrConsolationDoesNotFit   = errors.New("consolation bracket needs more rounds than the main bracket")
)

// Conflict errors
var (
	ErrBracketExists    = store.ErrBracketExists
	ErrScheduleConflict = errors.New("regular season matchups already occupy the playoff weeks")
)

// Invariant errors
var (
	ErrMixedRounds       = errors.New("finalized series span more than one round")
	ErrInvalidRoundState = errors.New("round is in an inconsistent state")
)

var errByeLookup = errors.New("bye seeds or their opponents could not be found")

// IsConfigError reports whether err is a user-correctable configuration error.
func IsConfigError(err error) bool {
	for _, target := range []error{
		ErrInvalidTeamCount,
		ErrInvalidConsolationTeams,
		ErrInvalidWeeksByRound,
		ErrInvalidStartWeek,
		ErrInsufficientTeams,
		ErrConsolationDoesNotFit,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict reports whether err rejected a generation because of existing data.
func IsConflict(err error) bool {
	return errors.Is(err, ErrBracketExists) || errors.Is(err, ErrScheduleConflict)
}

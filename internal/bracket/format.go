package bracket

import "fmt"

// SeedPairing is a round 1 game between two seeds at a fixed bracket position.
type SeedPairing struct {
	Position int
	HighSeed int
	LowSeed  int
}

// ValidTeamCount reports whether a sub-bracket can be built for n teams.
func ValidTeamCount(n int) bool {
	return n == 4 || n == 6 || n == 8
}

// TotalRounds returns the number of rounds for a sub-bracket of n teams, or 0 if n is not a
// supported size. The 8 team format plays quarterfinals as round 1.
func TotalRounds(n int) int {
	switch n {
	case 4:
		return 2
	case 6, 8:
		return 3
	}
	return 0
}

// RoundWeekRange returns the first and last calendar week of a round.
func RoundWeekRange(startWeek int, weeksByRound []int, round int) (first, last int, ok bool) {
	if round < 1 || round > len(weeksByRound) {
		return 0, 0, false
	}
	first = startWeek
	for _, n := range weeksByRound[:round-1] {
		first += n
	}
	last = first + weeksByRound[round-1] - 1
	return first, last, true
}

// PlayoffWeekRange returns the full span of weeks the bracket occupies.
func PlayoffWeekRange(startWeek int, weeksByRound []int) (first, last int) {
	first = startWeek
	last = startWeek - 1
	for _, n := range weeksByRound {
		last += n
	}
	return first, last
}

// Round1Template returns the fixed round 1 pairings for a sub-bracket of n teams and the seeds
// that skip round 1.
func Round1Template(n int) (pairings []SeedPairing, byes []int) {
	switch n {
	case 4:
		return []SeedPairing{
			{Position: 1, HighSeed: 1, LowSeed: 4},
			{Position: 2, HighSeed: 2, LowSeed: 3},
		}, nil
	case 6:
		return []SeedPairing{
			{Position: 1, HighSeed: 3, LowSeed: 6},
			{Position: 2, HighSeed: 4, LowSeed: 5},
		}, []int{1, 2}
	case 8:
		return []SeedPairing{
			{Position: 1, HighSeed: 1, LowSeed: 8},
			{Position: 2, HighSeed: 4, LowSeed: 5},
			{Position: 3, HighSeed: 3, LowSeed: 6},
			{Position: 4, HighSeed: 2, LowSeed: 7},
		}, nil
	}
	return nil, nil
}

// HasBye reports whether a seed skips round 1 in a sub-bracket of n teams.
func HasBye(n, seed int) bool {
	_, byes := Round1Template(n)
	for _, b := range byes {
		if b == seed {
			return true
		}
	}
	return false
}

// RoundName is a display label only.
func RoundName(teamCount, round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return "Championship"
	case 1:
		return "Semifinals"
	case 2:
		if teamCount == 6 {
			return "Wild Card"
		}
		return "Quarterfinals"
	}
	return fmt.Sprintf("Round %d", round)
}

// RoundLabel names a round of any sub-bracket.
func RoundLabel(b *Bracket, t Type, round int) string {
	switch t {
	case ThirdPlace:
		return "Third Place Game"
	case Consolation:
		return "Consolation " + RoundName(b.ConsolationTeams, round, TotalRounds(b.ConsolationTeams))
	}
	return RoundName(b.TeamCount, round, b.TotalRounds)
}

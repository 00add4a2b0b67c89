package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BracketsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playoffs_brackets_generated_total",
		Help: "Brackets generated.",
	})

	AdvanceCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playoffs_advance_calls_total",
		Help: "Advance-for-week calls by outcome.",
	}, []string{"outcome"})

	MatchupsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playoffs_matchups_created_total",
		Help: "Playoff matchups created by advancement, per sub-bracket.",
	}, []string{"bracket_type"})

	TerminalWinners = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playoffs_terminal_winners_total",
		Help: "Sub-bracket winners recorded.",
	}, []string{"bracket_type"})

	BracketsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playoffs_brackets_completed_total",
		Help: "Brackets moved to completed.",
	})

	EventDispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playoffs_event_dispatch_failures_total",
		Help: "Flushes of the event outbox that returned an error.",
	})
)

const (
	OutcomeAdvanced = "advanced"
	OutcomeNoop     = "noop"
	OutcomeError    = "error"
)

package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	BracketGenerated   Type = "bracket_generated"
	RoundAdvanced      Type = "round_advanced"
	ChampionCrowned    Type = "champion_crowned"
	ThirdPlaceDecided  Type = "third_place_decided"
	ConsolationDecided Type = "consolation_decided"
	BracketCompleted   Type = "bracket_completed"
)

type Event struct {
	Type     Type
	LeagueID uuid.UUID
	Payload  map[string]any
	QueuedAt time.Time
}

// Sink accepts events the engine decided to emit. Delivery timing belongs to the caller.
type Sink interface {
	Queue(eventType Type, leagueID uuid.UUID, payload map[string]any)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, e Event) error
}

// Outbox holds events until the transaction that produced them commits.
type Outbox struct {
	events []Event
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Queue(eventType Type, leagueID uuid.UUID, payload map[string]any) {
	o.events = append(o.events, Event{
		Type:     eventType,
		LeagueID: leagueID,
		Payload:  payload,
		QueuedAt: time.Now().UTC(),
	})
}

func (o *Outbox) Len() int {
	return len(o.events)
}

// Discard drops queued events, used when the transaction rolls back.
func (o *Outbox) Discard() {
	o.events = nil
}

// Flush dispatches every queued event in order and empties the outbox. A failed dispatch does not
// stop the rest; all failures are returned joined.
func (o *Outbox) Flush(ctx context.Context, d Dispatcher) error {
	pending := o.events
	o.events = nil

	var errs []error
	for _, e := range pending {
		if err := d.Dispatch(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("failed to dispatch %s: %w", e.Type, err))
		}
	}
	return errors.Join(errs...)
}

// LogDispatcher writes every event to the structured log as an audit trail.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, e Event) error {
	attrs := []any{"event", string(e.Type), "league_id", e.LeagueID.String()}
	for k, v := range e.Payload {
		attrs = append(attrs, k, v)
	}
	d.logger.InfoContext(ctx, "playoff event", attrs...)
	return nil
}

// Multi fans an event out to several dispatchers.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, e Event) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

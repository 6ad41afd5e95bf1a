// internal/game/observer.go
//
// Observers receive a notification for every engine transition.
// They are purely observational: nothing they do can change what Step returns.
//
//   - NopObserver:     discards everything (default).
//   - ConsoleObserver: human-readable progress lines for interactive play.
//   - LogObserver:     structured zerolog events for servers and training runs.
//   - Observers:       fans one event out to several observers.

package game

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// EventKind identifies the transition that produced an Event.
type EventKind string

const (
	EventStart  EventKind = "start"
	EventHit    EventKind = "hit"
	EventMiss   EventKind = "miss"
	EventRepeat EventKind = "repeat"
	EventWin    EventKind = "win"
	EventLoss   EventKind = "loss"
)

// Event describes one transition. Answer is only set on win and loss.
type Event struct {
	Kind   EventKind
	Letter rune
	Board  string
	Lives  int
	Answer string
}

// Observer is notified after each transition.
type Observer interface {
	Observe(ev Event)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) Observe(Event) {}

// Observers broadcasts to every element in order.
type Observers []Observer

func (obs Observers) Observe(ev Event) {
	for _, o := range obs {
		o.Observe(ev)
	}
}

// ConsoleObserver prints the classic interactive progress lines.
type ConsoleObserver struct {
	w io.Writer
}

// NewConsoleObserver writes progress to w.
func NewConsoleObserver(w io.Writer) *ConsoleObserver {
	return &ConsoleObserver{w: w}
}

func (c *ConsoleObserver) Observe(ev Event) {
	switch ev.Kind {
	case EventStart:
		fmt.Fprintln(c.w, "Game Starting")
		fmt.Fprintln(c.w, "Current lives :", ev.Lives)
		c.board(ev.Board)
	case EventRepeat:
		fmt.Fprintln(c.w, "Word used already")
		c.board(ev.Board)
	case EventHit:
		c.board(ev.Board)
	case EventMiss:
		fmt.Fprintln(c.w, "Current lives :", ev.Lives)
		c.board(ev.Board)
	case EventWin:
		fmt.Fprintln(c.w, "You Win")
		fmt.Fprintln(c.w, "Word is", ev.Answer)
	case EventLoss:
		fmt.Fprintln(c.w, "You Lose")
		fmt.Fprintln(c.w, "Word is", ev.Answer)
	}
}

func (c *ConsoleObserver) board(b string) {
	fmt.Fprintln(c.w, b)
	fmt.Fprintln(c.w)
}

// LogObserver turns events into structured log lines.
// Terminal events log at info, everything else at debug.
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver logs through l.
func NewLogObserver(l zerolog.Logger) *LogObserver {
	return &LogObserver{log: l}
}

func (o *LogObserver) Observe(ev Event) {
	e := o.log.Debug()
	if ev.Kind == EventWin || ev.Kind == EventLoss {
		e = o.log.Info().Str("answer", ev.Answer)
	}
	if ev.Letter != 0 {
		e = e.Str("letter", string(ev.Letter))
	}
	e.Str("event", string(ev.Kind)).
		Str("board", ev.Board).
		Int("lives", ev.Lives).
		Msg("episode")
}

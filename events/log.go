// Package events provides the per-cycle event log the engine returns to
// external collaborators: branch predictions, branch resolutions and
// mispredictions, issue stalls, and the halt.
package events

import "fmt"

// Kind classifies an event so collaborators can filter before formatting,
// without parsing Text.
type Kind uint8

const (
	// KindPredict is emitted when Issue dispatches a BEQ and predicts it.
	KindPredict Kind = iota
	// KindResolve is emitted when a branch ROB entry resolves.
	KindResolve
	// KindMisprediction is emitted alongside KindResolve when the
	// prediction was wrong.
	KindMisprediction
	// KindStall is emitted when Issue cannot allocate a resource.
	KindStall
	// KindHalt is emitted the cycle the engine detects halt.
	KindHalt
)

// Event is one entry in a cycle's event log.
type Event struct {
	Kind Kind
	Text string
}

// Log accumulates events for a single Step call.
type Log struct {
	events []Event
}

// Predict appends a branch-prediction event.
func (l *Log) Predict(pc uint64, taken bool, newPC uint64) {
	l.events = append(l.events, Event{
		Kind: KindPredict,
		Text: fmt.Sprintf("predict pc=0x%X taken=%t next_pc=0x%X", pc, taken, newPC),
	})
}

// Resolve appends a branch-resolution event, flagging misprediction.
func (l *Log) Resolve(pc uint64, predicted, actual bool, newPC uint64) {
	l.events = append(l.events, Event{
		Kind: KindResolve,
		Text: fmt.Sprintf("resolve pc=0x%X predicted=%t actual=%t next_pc=0x%X", pc, predicted, actual, newPC),
	})
	if predicted != actual {
		l.events = append(l.events, Event{
			Kind: KindMisprediction,
			Text: fmt.Sprintf("misprediction pc=0x%X", pc),
		})
	}
}

// Stall appends a resource-stall event.
func (l *Log) Stall(reason string) {
	l.events = append(l.events, Event{Kind: KindStall, Text: "stall: " + reason})
}

// Halt appends the halt event.
func (l *Log) Halt(cycle uint64) {
	l.events = append(l.events, Event{Kind: KindHalt, Text: fmt.Sprintf("halted at cycle %d", cycle)})
}

// Events returns the accumulated events.
func (l *Log) Events() []Event {
	return l.events
}

// Strings renders the accumulated events as opaque strings.
func (l *Log) Strings() []string {
	out := make([]string, len(l.events))
	for i, e := range l.events {
		out[i] = e.Text
	}
	return out
}

// Reset clears the log for the next cycle.
func (l *Log) Reset() {
	l.events = l.events[:0]
}

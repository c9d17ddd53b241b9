// Package tally maintains denormalized vote and reaction aggregates.
//
// A subject (poll, binary-choice question, idea, answer) carries a tally
// derived from choice records: either explicit per-option counters plus a
// total, or per-tag membership sets whose count is the set cardinality.
// This package computes the counter deltas for a choice change; persistence
// applies them atomically.
package tally

// Outcome describes the counter updates a choice change requires.
type Outcome struct {
	// Decrement names the option whose counter drops by one, floored at
	// zero. Empty when the user had no prior choice or did not switch.
	Decrement string
	// Increment names the option whose counter rises by one. Empty on a
	// no-op.
	Increment string
	// TotalDelta is 1 for a first-time choice, 0 otherwise.
	TotalDelta int
}

// Changed reports whether any counter moves.
func (o Outcome) Changed() bool {
	return o.Increment != "" || o.Decrement != "" || o.TotalDelta != 0
}

// ApplyChoice computes the minimal counter deltas for a user selecting
// next, given their previous selection (nil when none). Re-selecting the
// current choice is a no-op; switching moves one count between options and
// leaves the total unchanged; a first choice increments both the option
// and the total.
func ApplyChoice(prev *string, next string) Outcome {
	if prev == nil {
		return Outcome{Increment: next, TotalDelta: 1}
	}
	if *prev == next {
		return Outcome{}
	}
	return Outcome{Decrement: *prev, Increment: next}
}

// ApplyToCounts applies a choice change to an in-memory tally. Decrements
// floor at zero so a lost or duplicated update can never drive a counter
// negative. Returns the new total.
func ApplyToCounts(counts map[string]int, total int, prev *string, next string) int {
	out := ApplyChoice(prev, next)
	if out.Decrement != "" && counts[out.Decrement] > 0 {
		counts[out.Decrement]--
	}
	if out.Increment != "" {
		counts[out.Increment]++
	}
	return total + out.TotalDelta
}

// Toggle flips a user's membership in a reaction set and returns the new
// state. The count of a set-based tally is always the set cardinality, so
// no counter bookkeeping is needed.
func Toggle(members map[string]bool, userID string) bool {
	if members[userID] {
		delete(members, userID)
		return false
	}
	members[userID] = true
	return true
}

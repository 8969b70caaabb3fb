package assessment

import "strings"

// Ledger maps question indices to the raw answer the user gave. Re-answering
// a step overwrites; entries are never removed during a session.
type Ledger map[int]string

// NewLedger returns an empty ledger.
func NewLedger() Ledger {
	return make(Ledger)
}

// Record stores value at step, overwriting any earlier answer. Bounds are the
// caller's concern; storing an out-of-table index is harmless because Score
// ignores indices the table does not cover.
func (l Ledger) Record(step int, value string) {
	l[step] = value
}

// Answer returns the recorded answer for step.
func (l Ledger) Answer(step int) (string, bool) {
	v, ok := l[step]
	return v, ok
}

// Score recomputes the total from scratch: every affirmative answer
// contributes its question's weight, everything else contributes 0.
// Indices without a matching question are ignored rather than failing,
// so a stale ledger entry can never take the session down.
func (l Ledger) Score(questions []Question) int {
	total := 0
	for step, value := range l {
		if step < 0 || step >= len(questions) {
			continue
		}
		if isAffirmative(value) {
			total += questions[step].Weight
		}
	}
	return total
}

// isAffirmative reports whether a raw answer counts toward the score.
// Matching is case-insensitive and tolerates surrounding whitespace.
func isAffirmative(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true":
		return true
	default:
		return false
	}
}

package conversation

import "sync"

// Log is an ordered, append-only transcript. Insertion order is display order.
type Log struct {
	// mu guards turns so one session can be served by concurrent requests
	mu sync.RWMutex

	turns []Turn

	// generation counts Clear calls.
	generation uint64
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{}
}

// Append adds turn to the end of the log and returns the log generation the
// turn landed in.
func (l *Log) Append(turn Turn) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = append(l.turns, turn)
	return l.generation
}

// AppendIf adds turn only while the log is still at generation, that is when
// no Clear happened since the generation was observed. It reports whether the
// turn was added.
func (l *Log) AppendIf(generation uint64, turn Turn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.generation != generation {
		return false
	}
	l.turns = append(l.turns, turn)
	return true
}

// Generation returns the number of times the log was cleared.
func (l *Log) Generation() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.generation
}

// All returns a copy of every turn in insertion order. Callers may iterate
// or modify the result freely; the log is unaffected.
func (l *Log) All() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len returns the number of turns in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.turns)
}

// Clear drops every turn. It cannot be undone.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = nil
	l.generation++
}

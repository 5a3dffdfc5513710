package entity

type Scores struct {
	X     int `json:"x"`
	O     int `json:"o"`
	Draws int `json:"draws"`
}

type HistoryEntry struct {
	Board   []string `json:"board"`
	Outcome Outcome  `json:"outcome"`
	Label   string   `json:"label"`
}

type LedgerSnapshot struct {
	Scores  Scores         `json:"scores"`
	History []HistoryEntry `json:"history"`
}

// Ledger accumulates finished games for the lifetime of a table. It outlives any single
// game and is cleared only by ResetAll. It is not safe for concurrent use.
type Ledger struct {
	scores  Scores
	history []HistoryEntry
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// RecordOutcome counts a terminal outcome and appends it to the history.
// Outcomes still in progress are ignored.
func (that *Ledger) RecordOutcome(outcome Outcome, finalBoard []string) {
	switch outcome.Kind {
	case OutcomeWin:
		switch outcome.Winner {
		case MarkX:
			that.scores.X++
		case MarkO:
			that.scores.O++
		default:
			return
		}
	case OutcomeDraw:
		that.scores.Draws++
	default:
		return
	}

	that.history = append(that.history, HistoryEntry{
		Board:   append([]string(nil), finalBoard...),
		Outcome: outcome,
		Label:   outcome.Label(),
	})
}

// ResetAll zeroes the counters and drops the history.
func (that *Ledger) ResetAll() {
	that.scores = Scores{}
	that.history = nil
}

func (that *Ledger) Scores() Scores {
	return that.scores
}

// History returns the finished games oldest first.
func (that *Ledger) History() []HistoryEntry {
	history := make([]HistoryEntry, len(that.history))
	for i, entry := range that.history {
		history[i] = HistoryEntry{
			Board:   append([]string(nil), entry.Board...),
			Outcome: entry.Outcome,
			Label:   entry.Label,
		}
		history[i].Outcome.Line = append([]int(nil), entry.Outcome.Line...)
	}
	return history
}

func (that *Ledger) Snapshot() LedgerSnapshot {
	return LedgerSnapshot{
		Scores:  that.Scores(),
		History: that.History(),
	}
}

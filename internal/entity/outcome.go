package entity

import "fmt"

type OutcomeKind int

const (
	OutcomeInProgress OutcomeKind = iota
	OutcomeWin
	OutcomeDraw
)

const DrawLabel = "Draw"

var outcomeKindNames = map[OutcomeKind]string{
	OutcomeInProgress: "in_progress",
	OutcomeWin:        "win",
	OutcomeDraw:       "draw",
}

func (that OutcomeKind) String() string {
	return outcomeKindNames[that]
}

func (that OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *OutcomeKind) UnmarshalText(text []byte) error {
	for kind, name := range outcomeKindNames {
		if name == string(text) {
			*that = kind
			return nil
		}
	}
	return fmt.Errorf("unknown outcome kind %q", text)
}

// Outcome is the verdict for a board. It is derived from the board, never stored beside it
// as a source of truth.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Winner Mark        `json:"winner,omitempty"`
	Line   []int       `json:"line,omitempty"`
}

func InProgress() Outcome {
	return Outcome{Kind: OutcomeInProgress}
}

func Win(winner Mark, line []int) Outcome {
	return Outcome{Kind: OutcomeWin, Winner: winner, Line: append([]int(nil), line...)}
}

func Draw() Outcome {
	return Outcome{Kind: OutcomeDraw}
}

func (that Outcome) IsTerminal() bool {
	return that.Kind == OutcomeWin || that.Kind == OutcomeDraw
}

// Label is the history label: the winning mark, "Draw", or empty while in progress.
func (that Outcome) Label() string {
	switch that.Kind {
	case OutcomeWin:
		return that.Winner.String()
	case OutcomeDraw:
		return DrawLabel
	default:
		return ""
	}
}

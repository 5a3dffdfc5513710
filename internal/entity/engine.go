package entity

type Status string

const (
	StatusActive    Status = "active"
	StatusFinished  Status = "finished"
	StatusResetting Status = "resetting"
)

// Snapshot is a read-only view of a running game.
type Snapshot struct {
	Board     []string `json:"board"`
	Turn      Mark     `json:"turn"`
	Outcome   Outcome  `json:"outcome"`
	Status    Status   `json:"status"`
	Resetting bool     `json:"resetting"`
}

// Engine is the turn/outcome state machine shared by every game in the catalog.
//
// SubmitMove returns the outcome after an accepted move. A rejected move leaves the engine
// untouched. BeginReset freezes the engine and hands out a generation token. Only the most
// recent token completes the reset, so a superseded settle task cannot clobber newer state.
type Engine interface {
	SubmitMove(move int) (Outcome, error)
	BeginReset() uint64
	CompleteReset(generation uint64) bool
	Snapshot() Snapshot
}

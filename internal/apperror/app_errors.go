package apperror

import "errors"

// Rejected moves. The caller decides whether to surface them to the player.
var (
	ErrGameFinished = errors.New("game is already finished")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrResetting    = errors.New("game is resetting")
)

// Contract violations at the boundary.
var (
	ErrInvalidCell = errors.New("invalid cell index")
	ErrInvalidHand = errors.New("invalid hand")
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrUnknownGame   = errors.New("unknown game")
)

// IsRejected reports whether err is a move the engine refused in its current state.
func IsRejected(err error) bool {
	return errors.Is(err, ErrGameFinished) ||
		errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrResetting)
}

// IsInvariantViolation reports whether err comes from a malformed move.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvalidCell) || errors.Is(err, ErrInvalidHand)
}

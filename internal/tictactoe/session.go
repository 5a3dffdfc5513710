package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/arcade/internal/apperror"
	"github.com/rocketscienceinc/arcade/internal/entity"
)

// Session is one game on a grid. It is not safe for concurrent use; the table that owns it
// serializes access.
type Session struct {
	rules Rules

	board      []entity.Mark
	turn       entity.Mark
	outcome    entity.Outcome
	status     entity.Status
	generation uint64
}

func NewSession(rules Rules) *Session {
	return &Session{
		rules:   rules,
		board:   make([]entity.Mark, rules.Cells()),
		turn:    entity.MarkX,
		outcome: entity.InProgress(),
		status:  entity.StatusActive,
	}
}

func NewClassicSession() *Session {
	return NewSession(ClassicRules())
}

func (that *Session) SubmitMove(cell int) (entity.Outcome, error) {
	if cell < 0 || cell >= len(that.board) {
		return that.outcome, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if err := that.validateMove(cell); err != nil {
		return that.outcome, err
	}

	that.board[cell] = that.turn
	that.updateGameStatus()

	return that.outcome, nil
}

// validateMove - checks whether the session accepts a move into cell.
func (that *Session) validateMove(cell int) error {
	switch {
	case that.status == entity.StatusResetting:
		return apperror.ErrResetting
	case that.status == entity.StatusFinished:
		return apperror.ErrGameFinished
	case that.board[cell] != entity.MarkEmpty:
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - re-evaluates the board after a move.
func (that *Session) updateGameStatus() {
	that.outcome = that.rules.Evaluate(that.board)

	if that.outcome.IsTerminal() {
		that.status = entity.StatusFinished
		return
	}

	that.turn = that.turn.Next()
}

func (that *Session) BeginReset() uint64 {
	that.generation++
	that.status = entity.StatusResetting

	return that.generation
}

func (that *Session) CompleteReset(generation uint64) bool {
	if that.status != entity.StatusResetting || generation != that.generation {
		return false
	}

	that.board = make([]entity.Mark, that.rules.Cells())
	that.turn = entity.MarkX
	that.outcome = entity.InProgress()
	that.status = entity.StatusActive

	return true
}

func (that *Session) Snapshot() entity.Snapshot {
	board := make([]string, len(that.board))
	for i, cell := range that.board {
		board[i] = cell.String()
	}

	outcome := that.outcome
	outcome.Line = append([]int(nil), that.outcome.Line...)

	return entity.Snapshot{
		Board:     board,
		Turn:      that.turn,
		Outcome:   outcome,
		Status:    that.status,
		Resetting: that.status == entity.StatusResetting,
	}
}

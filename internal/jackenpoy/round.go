package jackenpoy

import (
	"fmt"

	"github.com/rocketscienceinc/arcade/internal/apperror"
	"github.com/rocketscienceinc/arcade/internal/entity"
)

type Hand int

const (
	Rock Hand = iota
	Paper
	Scissors
)

var handNames = [...]string{"rock", "paper", "scissors"}

func (that Hand) String() string {
	if !that.valid() {
		return ""
	}
	return handNames[that]
}

func (that Hand) valid() bool {
	return that >= Rock && that <= Scissors
}

// beats reports whether that wins against other.
func (that Hand) beats(other Hand) bool {
	return (that == Rock && other == Scissors) ||
		(that == Paper && other == Rock) ||
		(that == Scissors && other == Paper)
}

// Decide settles a round between X's and O's hands.
func Decide(handX, handO Hand) entity.Outcome {
	switch {
	case handX == handO:
		return entity.Draw()
	case handX.beats(handO):
		return entity.Win(entity.MarkX, nil)
	default:
		return entity.Win(entity.MarkO, nil)
	}
}

// Round is a single Jack-En-Poy throw: X commits a hand, then O, then the round is decided.
// It is not safe for concurrent use.
type Round struct {
	hands      [2]*Hand
	turn       entity.Mark
	outcome    entity.Outcome
	status     entity.Status
	generation uint64
}

func NewRound() *Round {
	return &Round{
		turn:    entity.MarkX,
		outcome: entity.InProgress(),
		status:  entity.StatusActive,
	}
}

// SubmitMove throws the hand with the given ordinal for the player whose turn it is.
func (that *Round) SubmitMove(move int) (entity.Outcome, error) {
	hand := Hand(move)
	if !hand.valid() {
		return that.outcome, fmt.Errorf("%w: %d", apperror.ErrInvalidHand, move)
	}

	switch that.status {
	case entity.StatusResetting:
		return that.outcome, apperror.ErrResetting
	case entity.StatusFinished:
		return that.outcome, apperror.ErrGameFinished
	}

	that.hands[slot(that.turn)] = &hand

	if that.turn == entity.MarkX {
		that.turn = entity.MarkO
		return that.outcome, nil
	}

	that.outcome = Decide(*that.hands[0], *that.hands[1])
	that.status = entity.StatusFinished

	return that.outcome, nil
}

func (that *Round) BeginReset() uint64 {
	that.generation++
	that.status = entity.StatusResetting

	return that.generation
}

func (that *Round) CompleteReset(generation uint64) bool {
	if that.status != entity.StatusResetting || generation != that.generation {
		return false
	}

	that.hands = [2]*Hand{}
	that.turn = entity.MarkX
	that.outcome = entity.InProgress()
	that.status = entity.StatusActive

	return true
}

// Snapshot shows both hands only once the round is decided, so O cannot peek at X's throw.
func (that *Round) Snapshot() entity.Snapshot {
	board := make([]string, len(that.hands))
	for i, hand := range that.hands {
		switch {
		case hand == nil:
		case that.outcome.IsTerminal():
			board[i] = hand.String()
		default:
			board[i] = "ready"
		}
	}

	return entity.Snapshot{
		Board:     board,
		Turn:      that.turn,
		Outcome:   that.outcome,
		Status:    that.status,
		Resetting: that.status == entity.StatusResetting,
	}
}

func slot(mark entity.Mark) int {
	if mark == entity.MarkO {
		return 1
	}
	return 0
}

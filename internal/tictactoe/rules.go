package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/arcade/internal/entity"
)

// Rules describe a square grid and the lines that win it.
type Rules struct {
	Size  int
	Lines [][]int
}

// ClassicRules is the 3x3 game: rows, then columns, then diagonals.
func ClassicRules() Rules {
	return Rules{
		Size: 3,
		Lines: [][]int{
			{0, 1, 2},
			{3, 4, 5},
			{6, 7, 8},
			{0, 3, 6},
			{1, 4, 7},
			{2, 5, 8},
			{0, 4, 8},
			{2, 4, 6},
		},
	}
}

// GridRules builds the winning lines for an n x n grid in the same order as ClassicRules.
func GridRules(n int) Rules {
	if n < 3 {
		panic(fmt.Sprintf("tictactoe: grid size %d is smaller than 3", n))
	}

	lines := make([][]int, 0, 2*n+2)
	for row := range n {
		line := make([]int, n)
		for col := range n {
			line[col] = row*n + col
		}
		lines = append(lines, line)
	}

	for col := range n {
		line := make([]int, n)
		for row := range n {
			line[row] = row*n + col
		}
		lines = append(lines, line)
	}

	diagonal := make([]int, n)
	antiDiagonal := make([]int, n)
	for i := range n {
		diagonal[i] = i*n + i
		antiDiagonal[i] = i*n + (n - 1 - i)
	}
	lines = append(lines, diagonal, antiDiagonal)

	return Rules{Size: n, Lines: lines}
}

// Cells is the number of cells on the board.
func (that Rules) Cells() int {
	return that.Size * that.Size
}

// Evaluate returns the first winning line in table order, a draw on a full board,
// and InProgress otherwise.
func (that Rules) Evaluate(board []entity.Mark) entity.Outcome {
	for _, line := range that.Lines {
		if winner, ok := lineOwner(board, line); ok {
			return entity.Win(winner, line)
		}
	}

	for _, cell := range board {
		if cell == entity.MarkEmpty {
			return entity.InProgress()
		}
	}

	return entity.Draw()
}

func lineOwner(board []entity.Mark, line []int) (entity.Mark, bool) {
	first := board[line[0]]
	if first == entity.MarkEmpty {
		return entity.MarkEmpty, false
	}

	for _, cell := range line[1:] {
		if board[cell] != first {
			return entity.MarkEmpty, false
		}
	}

	return first, true
}

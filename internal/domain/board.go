package domain

import "github.com/samber/lo"

// Board is indexed [row][column]; row 0 is the top row and Rows-1 the bottom.
type Board [Rows][Columns]PlayerID

func NewBoard() Board {
	return Board{}
}

func inBounds(row, column int) bool {
	return row >= 0 && row < Rows && column >= 0 && column < Columns
}

func IsValidMove(board Board, column int) bool {
	if column < 0 || column >= Columns {
		return false
	}

	// only the top cell matters, gravity keeps every column contiguous
	return board[0][column] == Empty
}

// DropDisk places player in the lowest empty row of column and returns that
// row. The board is left untouched when the move cannot be made.
func DropDisk(board *Board, column int, player PlayerID) (int, error) {
	if column < 0 || column >= Columns {
		return -1, ErrInvalidColumn
	}

	for row := Rows - 1; row >= 0; row-- {
		if board[row][column] == Empty {
			board[row][column] = player
			return row, nil
		}
	}

	return -1, ErrColumnFull
}

func IsBoardFull(board Board) bool {
	for c := 0; c < Columns; c++ {
		if board[0][c] == Empty {
			return false
		}
	}

	return true
}

func ValidMoves(board Board) []int {
	return lo.Filter(lo.Range(Columns), func(col int, _ int) bool {
		return IsValidMove(board, col)
	})
}

// SimulateMove plays on a copy and leaves board unchanged.
func SimulateMove(board Board, column int, player PlayerID) (Board, int, error) {
	next := board
	row, err := DropDisk(&next, column, player)
	if err != nil {
		return board, -1, err
	}
	return next, row, nil
}

// CountDiskInDirection counts consecutive player disks starting one step
// away from (row, column), excluding the cell itself.
func CountDiskInDirection(board Board, row, column int, deltaRow, deltaCol int, player PlayerID) int {
	count := 0
	r, c := row+deltaRow, column+deltaCol
	for inBounds(r, c) && board[r][c] == player {
		count++
		r += deltaRow
		c += deltaCol
	}
	return count
}

// Column returns the cells of a column from top to bottom.
func (b Board) Column(column int) [Rows]PlayerID {
	var out [Rows]PlayerID
	for r := 0; r < Rows; r++ {
		out[r] = b[r][column]
	}
	return out
}

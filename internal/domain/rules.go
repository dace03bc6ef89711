package domain

// Directions are the four line orientations a run can take:
// horizontal, vertical, diagonal \ and diagonal /.
var Directions = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{-1, 1},
}

// CheckWin reports whether a run of ToWin player disks passes through
// (row, column). The cell itself must belong to player.
func CheckWin(board Board, row, column int, player PlayerID) bool {
	if !inBounds(row, column) || player == Empty || board[row][column] != player {
		return false
	}

	for _, dir := range Directions {
		total := 1 +
			CountDiskInDirection(board, row, column, dir[0], dir[1], player) +
			CountDiskInDirection(board, row, column, -dir[0], -dir[1], player)
		if total >= ToWin {
			return true
		}
	}

	return false
}

// HasFourInRow scans the whole board for any winning run of player.
func HasFourInRow(board Board, player PlayerID) bool {
	found := false
	ForEachWindow(board, func(window [ToWin]PlayerID) bool {
		for _, cell := range window {
			if cell != player {
				return true
			}
		}
		found = true
		return false
	})
	return found
}

// ForEachWindow visits every run of ToWin consecutive cells in all four
// directions. Returning false from visit stops the walk.
func ForEachWindow(board Board, visit func(window [ToWin]PlayerID) bool) {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			for _, dir := range Directions {
				endRow := row + dir[0]*(ToWin-1)
				endCol := col + dir[1]*(ToWin-1)
				if !inBounds(endRow, endCol) {
					continue
				}

				var window [ToWin]PlayerID
				for i := 0; i < ToWin; i++ {
					window[i] = board[row+dir[0]*i][col+dir[1]*i]
				}
				if !visit(window) {
					return
				}
			}
		}
	}
}

// FindWinningColumn returns the lowest column in which player would
// complete a run with its next disk.
func FindWinningColumn(board Board, player PlayerID) (int, bool) {
	for _, col := range ValidMoves(board) {
		next, row, err := SimulateMove(board, col, player)
		if err != nil {
			continue
		}
		if CheckWin(next, row, col, player) {
			return col, true
		}
	}
	return -1, false
}

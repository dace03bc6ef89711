package bot

import (
	"math"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
)

const MINIMAX_DEPTH = 4

// minimax implements the minimax algorithm with alpha-beta pruning
func (a *AI) minimax(board domain.Board, depth int, alpha, beta int, isMaximizing bool) int {
	if depth == 0 || a.isTerminal(board) {
		return a.Evaluate(board)
	}

	if isMaximizing {
		maxEval := math.MinInt
		for _, col := range domain.ValidMoves(board) {
			next, _, _ := domain.SimulateMove(board, col, a.player)

			eval := a.minimax(next, depth-1, alpha, beta, false)
			maxEval = max(maxEval, eval)
			alpha = max(alpha, eval)

			if beta <= alpha {
				break // Beta cutoff
			}
		}
		return maxEval
	}

	minEval := math.MaxInt
	for _, col := range domain.ValidMoves(board) {
		next, _, _ := domain.SimulateMove(board, col, a.opponent)

		eval := a.minimax(next, depth-1, alpha, beta, true)
		minEval = min(minEval, eval)
		beta = min(beta, eval)

		if beta <= alpha {
			break // Alpha cutoff
		}
	}
	return minEval
}

// either side has four anywhere, or no column is left
func (a *AI) isTerminal(board domain.Board) bool {
	return domain.HasFourInRow(board, a.player) ||
		domain.HasFourInRow(board, a.opponent) ||
		domain.IsBoardFull(board)
}

package bot

import (
	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
)

const (
	SCORE_WIN           = 1000
	SCORE_CENTER_DISK   = 3
	WINDOW_WEIGHT       = 10
	WINDOW_THREE_OPEN   = 5  // 3 own + 1 empty
	WINDOW_TWO_OPEN     = 2  // 2 own + 2 empty
	WINDOW_THREE_THREAT = -4 // 3 other + 1 empty
)

// Evaluate scores board from the bot's point of view. It depends only on
// the board contents.
func (a *AI) Evaluate(board domain.Board) int {
	if domain.HasFourInRow(board, a.player) {
		return SCORE_WIN
	}
	if domain.HasFourInRow(board, a.opponent) {
		return -SCORE_WIN
	}

	score := 0

	// Center column preference
	for _, cell := range board.Column(domain.CenterColumn) {
		switch cell {
		case a.player:
			score += SCORE_CENTER_DISK
		case a.opponent:
			score -= SCORE_CENTER_DISK
		}
	}

	score += evaluateWindows(board, a.player) * WINDOW_WEIGHT
	score -= evaluateWindows(board, a.opponent) * WINDOW_WEIGHT

	return score
}

// evaluateWindows sums scoreWindow over every 4-cell window on the board.
func evaluateWindows(board domain.Board, player domain.PlayerID) int {
	total := 0
	domain.ForEachWindow(board, func(window [domain.ToWin]domain.PlayerID) bool {
		total += scoreWindow(window, player)
		return true
	})
	return total
}

func scoreWindow(window [domain.ToWin]domain.PlayerID, player domain.PlayerID) int {
	own, empty, other := 0, 0, 0
	for _, cell := range window {
		switch cell {
		case player:
			own++
		case domain.Empty:
			empty++
		default:
			other++
		}
	}

	score := 0
	if own == 3 && empty == 1 {
		score += WINDOW_THREE_OPEN
	} else if own == 2 && empty == 2 {
		score += WINDOW_TWO_OPEN
	}

	if other == 3 && empty == 1 {
		score += WINDOW_THREE_THREAT
	}

	return score
}

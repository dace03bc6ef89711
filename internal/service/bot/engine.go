package bot

import (
	"math"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
)

// AI plays one side of a session. It holds no per-game state, so one
// instance can serve every search of a session.
type AI struct {
	player   domain.PlayerID
	opponent domain.PlayerID
	depth    int
}

type Option func(*AI)

// WithDepth overrides the search depth used below the root move.
func WithDepth(depth int) Option {
	return func(a *AI) {
		if depth > 0 {
			a.depth = depth
		}
	}
}

func New(player domain.PlayerID, opts ...Option) *AI {
	a := &AI{
		player:   player,
		opponent: domain.OtherPlayer(player),
		depth:    MINIMAX_DEPTH,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *AI) Player() domain.PlayerID {
	return a.player
}

// GetBestMove takes an immediate win, then blocks an immediate loss, and
// otherwise returns the column with the best minimax score.
func (a *AI) GetBestMove(board domain.Board) int {
	if col, ok := domain.FindWinningColumn(board, a.player); ok {
		return col
	}

	if col, ok := domain.FindWinningColumn(board, a.opponent); ok {
		return col
	}

	bestScore := math.MinInt
	bestCol := domain.CenterColumn

	for _, col := range domain.ValidMoves(board) {
		next, _, _ := domain.SimulateMove(board, col, a.player)
		score := a.minimax(next, a.depth, math.MinInt, math.MaxInt, false)

		// strict comparison keeps the lowest column on ties
		if score > bestScore {
			bestScore = score
			bestCol = col
		}
	}

	return bestCol
}

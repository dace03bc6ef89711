package game

import (
	"time"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/schedule"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/service/bot"
)

// GameSession is one game between two players. Its state only changes
// through place, advanceTurn and finish, which the Registry calls.
type GameSession struct {
	id        string
	player1   string
	player2   string
	board     domain.Board
	turn      domain.PlayerID
	moveCount int
	status    domain.GameStatus
	startedAt time.Time
	endedAt   time.Time

	winner string
	isDraw bool
	reason string

	bot      *bot.AI
	botTimer *schedule.Timer
}

func newGameSession(id, player1, player2 string, startedAt time.Time) *GameSession {
	return &GameSession{
		id:        id,
		player1:   player1,
		player2:   player2,
		board:     domain.NewBoard(),
		turn:      domain.Player1,
		status:    domain.StatusActive,
		startedAt: startedAt,
	}
}

func (gs *GameSession) ID() string                { return gs.id }
func (gs *GameSession) Player1() string           { return gs.player1 }
func (gs *GameSession) Player2() string           { return gs.player2 }
func (gs *GameSession) Board() domain.Board       { return gs.board }
func (gs *GameSession) Turn() domain.PlayerID     { return gs.turn }
func (gs *GameSession) MoveCount() int            { return gs.moveCount }
func (gs *GameSession) Status() domain.GameStatus { return gs.status }
func (gs *GameSession) StartedAt() time.Time      { return gs.startedAt }
func (gs *GameSession) EndedAt() time.Time        { return gs.endedAt }
func (gs *GameSession) Winner() string            { return gs.winner }
func (gs *GameSession) IsDraw() bool              { return gs.isDraw }
func (gs *GameSession) Reason() string            { return gs.reason }

func (gs *GameSession) IsActive() bool {
	return gs.status == domain.StatusActive
}

func (gs *GameSession) IsBotGame() bool {
	return gs.bot != nil
}

// BotToMove reports whether the synthetic player holds the turn.
func (gs *GameSession) BotToMove() bool {
	return gs.IsActive() && gs.bot != nil && gs.turn == gs.bot.Player()
}

// PlayerNumber returns the seat of playerID, or false for a non-participant.
func (gs *GameSession) PlayerNumber(playerID string) (domain.PlayerID, bool) {
	switch playerID {
	case gs.player1:
		return domain.Player1, true
	case gs.player2:
		return domain.Player2, true
	}
	return domain.Empty, false
}

func (gs *GameSession) PlayerAt(number domain.PlayerID) string {
	if number == domain.Player1 {
		return gs.player1
	}
	if number == domain.Player2 {
		return gs.player2
	}
	return ""
}

// Opponent returns the other participant, or "" for a non-participant.
func (gs *GameSession) Opponent(playerID string) string {
	number, ok := gs.PlayerNumber(playerID)
	if !ok {
		return ""
	}
	return gs.PlayerAt(domain.OtherPlayer(number))
}

// HumanPlayers lists the participants that are not the bot.
func (gs *GameSession) HumanPlayers() []string {
	humans := make([]string, 0, 2)
	for _, p := range []string{gs.player1, gs.player2} {
		if !domain.IsBot(p) {
			humans = append(humans, p)
		}
	}
	return humans
}

func (gs *GameSession) place(column int, player domain.PlayerID) (int, error) {
	if !gs.IsActive() {
		return -1, domain.ErrAlreadyOver
	}
	if player != gs.turn {
		return -1, domain.ErrNotYourTurn
	}
	if !domain.IsValidMove(gs.board, column) {
		return -1, domain.ErrInvalidColumn
	}

	row, err := domain.DropDisk(&gs.board, column, player)
	if err != nil {
		return -1, err
	}
	gs.moveCount++
	return row, nil
}

func (gs *GameSession) advanceTurn() {
	gs.turn = domain.OtherPlayer(gs.turn)
}

func (gs *GameSession) finish(winner string, isDraw bool, reason string, at time.Time) {
	gs.status = domain.StatusOver
	gs.winner = winner
	gs.isDraw = isDraw
	gs.reason = reason
	gs.endedAt = at
}

func (gs *GameSession) record() domain.GameRecord {
	return domain.GameRecord{
		SessionID: gs.id,
		Player1:   gs.player1,
		Player2:   gs.player2,
		Winner:    gs.winner,
		IsDraw:    gs.isDraw,
		Reason:    gs.reason,
		Moves:     gs.moveCount,
		StartedAt: gs.startedAt,
		EndedAt:   gs.endedAt,
		Board:     gs.board,
	}
}

package domain

// BotPlayerID is the synthetic identity that stands in for a missing
// second player. It is never indexed as a human and never gets stats.
const BotPlayerID = "Bot"

func IsBot(playerID string) bool {
	return playerID == BotPlayerID
}

type PlayerID int

const (
	Empty   PlayerID = 0
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

// OtherPlayer returns the opponent of p. Empty maps to Empty.
func OtherPlayer(p PlayerID) PlayerID {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	}
	return Empty
}

const (
	Rows    = 6
	Columns = 7
	ToWin   = 4

	// CenterColumn is also the bot's fallback move.
	CenterColumn = Columns / 2
)

// to represent the session status
type GameStatus string

const (
	StatusActive GameStatus = "active"
	StatusOver   GameStatus = "over"
)

// reasons recorded with a finished game
const (
	ReasonConnectFour = "connect_four"
	ReasonDraw        = "draw"
	ReasonForfeit     = "forfeit"
)

package domain

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

// board
const (
	ErrColumnFull Error = "column is full"
)

// matchmaking queue
const (
	ErrAlreadyQueued Error = "player is already in the queue"
)

// game sessions
const (
	ErrSessionNotFound Error = "game not found"
	ErrAlreadyOver     Error = "game is already over"
	ErrNotYourTurn     Error = "not your turn"
	ErrInvalidColumn   Error = "invalid move"
)

// connections
const (
	ErrUnknownPlayer   Error = "unknown player"
	ErrInvalidPlayerID Error = "invalid player id"
	ErrConnectionBound Error = "connection is bound to another player"
)

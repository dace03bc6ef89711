package domain

// Event is an outbound message for a single connection.
type Event interface {
	EventType() string
}

// Notifier delivers events to connections. Delivery to an unknown or
// closed connection is silently dropped.
type Notifier interface {
	Send(connectionID string, event Event)
}

const (
	EventWaitingForOpponent   = "waiting_for_opponent"
	EventGameStart            = "game_start"
	EventPlayerNumber         = "player_number"
	EventGameRejoined         = "game_rejoined"
	EventMoveMade             = "move_made"
	EventTurnChange           = "turn_change"
	EventGameOver             = "game_over"
	EventOpponentDisconnected = "opponent_disconnected"
	EventError                = "error"
)

type WaitingForOpponent struct{}

type GameStart struct {
	SessionID string   `json:"sessionId"`
	Player1   string   `json:"player1"`
	Player2   string   `json:"player2"`
	Board     Board    `json:"board"`
	Turn      PlayerID `json:"turn"`
}

type PlayerNumber struct {
	Number PlayerID `json:"number"`
}

type GameRejoined struct {
	SessionID    string   `json:"sessionId"`
	Board        Board    `json:"board"`
	Turn         PlayerID `json:"turn"`
	Player1      string   `json:"player1"`
	Player2      string   `json:"player2"`
	PlayerNumber PlayerID `json:"playerNumber"`
}

type MoveMade struct {
	Row    int      `json:"row"`
	Col    int      `json:"col"`
	Player PlayerID `json:"player"`
	Board  Board    `json:"board"`
}

type TurnChange struct {
	Turn PlayerID `json:"turn"`
}

// GameOver carries an empty Winner on a draw.
type GameOver struct {
	Winner string `json:"winner"`
	IsDraw bool   `json:"isDraw"`
	Board  Board  `json:"board"`
	Reason string `json:"reason,omitempty"`
}

type OpponentDisconnected struct {
	Message string `json:"message"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

func (WaitingForOpponent) EventType() string   { return EventWaitingForOpponent }
func (GameStart) EventType() string            { return EventGameStart }
func (PlayerNumber) EventType() string         { return EventPlayerNumber }
func (GameRejoined) EventType() string         { return EventGameRejoined }
func (MoveMade) EventType() string             { return EventMoveMade }
func (TurnChange) EventType() string           { return EventTurnChange }
func (GameOver) EventType() string             { return EventGameOver }
func (OpponentDisconnected) EventType() string { return EventOpponentDisconnected }
func (ErrorEvent) EventType() string           { return EventError }

// inbound intents
const (
	IntentJoinQueue = "join_queue"
	IntentMakeMove  = "make_move"
)

type JoinQueueIntent struct {
	PlayerID string `json:"playerId"`
}

type MakeMoveIntent struct {
	SessionID string `json:"sessionId"`
	Col       int    `json:"col"`
	PlayerID  string `json:"playerId"`
}

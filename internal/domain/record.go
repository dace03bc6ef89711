package domain

import "time"

// GameRecord is what a concluded session hands to the persistence store.
type GameRecord struct {
	SessionID string    `json:"sessionId"`
	Player1   string    `json:"player1"`
	Player2   string    `json:"player2"`
	Winner    string    `json:"winner,omitempty"`
	IsDraw    bool      `json:"isDraw"`
	Reason    string    `json:"reason"`
	Moves     int       `json:"moves"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Board     Board     `json:"board"`
}

func (r GameRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// Outcomes maps every human participant to its result. The bot never
// gets an entry.
func (r GameRecord) Outcomes() map[string]Outcome {
	out := make(map[string]Outcome, 2)
	for _, p := range []string{r.Player1, r.Player2} {
		if p == "" || IsBot(p) {
			continue
		}
		switch {
		case r.IsDraw:
			out[p] = OutcomeDraw
		case r.Winner == p:
			out[p] = OutcomeWin
		case r.Winner != "":
			out[p] = OutcomeLoss
		}
	}
	return out
}

// PlayerStats are the per-player counters a store keeps.
type PlayerStats struct {
	PlayerID    string `json:"playerId"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws"`
}

// Apply counts one more game with the given outcome.
func (s *PlayerStats) Apply(outcome Outcome) {
	s.GamesPlayed++
	switch outcome {
	case OutcomeWin:
		s.Wins++
	case OutcomeLoss:
		s.Losses++
	case OutcomeDraw:
		s.Draws++
	}
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// MatchResult is the record of a concluded game. Winner is empty for a draw.
type MatchResult struct {
	ID         string                     `json:"id"`
	RoomID     string                     `json:"room_id"`
	Winner     Mark                       `json:"winner,omitempty"`
	Draw       bool                       `json:"draw"`
	MovesCount int                        `json:"moves_count"`
	Board      [BoardSize][BoardSize]Mark `json:"board"`
	FinishedAt time.Time                  `json:"finished_at"`
}

// NewMatchResult - snapshots a finished game, nil if the game is still running.
func NewMatchResult(roomID string, game *Game) *MatchResult {
	if !game.IsFinished() {
		return nil
	}

	return &MatchResult{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		Winner:     game.Winner,
		Draw:       game.IsDraw(),
		MovesCount: game.MovesCount,
		Board:      game.Rows(),
		FinishedAt: time.Now().UTC(),
	}
}

// Outcome - returns the winning mark or "draw".
func (that *MatchResult) Outcome() string {
	if that.Draw {
		return "draw"
	}
	return string(that.Winner)
}

// ResultTotals counts concluded matches by outcome.
type ResultTotals struct {
	X    int64 `json:"x"`
	O    int64 `json:"o"`
	Draw int64 `json:"draw"`
}

// Add - counts one match with the given outcome.
func (that *ResultTotals) Add(outcome string, n int64) {
	switch outcome {
	case string(PlayerX):
		that.X += n
	case string(PlayerO):
		that.O += n
	case "draw":
		that.Draw += n
	}
}

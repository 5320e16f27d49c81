package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

// Mark identifies a player's side. The zero value is an empty cell or "no mark".
type Mark string

const (
	PlayerX Mark = "x"
	PlayerO Mark = "o"

	EmptyCell Mark = ""
)

const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

const (
	BoardSize = 3
	cellCount = BoardSize * BoardSize

	// RequiredPlayers is the number of connections a game needs to start.
	RequiredPlayers = 2
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Opponent - returns the other mark.
func (that Mark) Opponent() Mark {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Mark) IsEmpty() bool {
	return that == EmptyCell
}

// Game is the state machine of one match on a flat 3x3 board.
// Cell (x, y) lives at index y*3+x: x is the column, y is the row.
type Game struct {
	Board      [cellCount]Mark
	Started    bool
	Turn       Mark
	Winner     Mark
	MovesCount int
}

func NewGame() *Game {
	return &Game{Turn: PlayerX}
}

// CellIndex - converts (x, y) into a board index.
func CellIndex(x, y int) (int, error) {
	if x < 0 || x >= BoardSize || y < 0 || y >= BoardSize {
		return 0, fmt.Errorf("%w: (%d, %d)", apperror.ErrOutOfBounds, x, y)
	}

	return y*BoardSize + x, nil
}

// Cell - returns the mark at (x, y).
func (that *Game) Cell(x, y int) (Mark, error) {
	idx, err := CellIndex(x, y)
	if err != nil {
		return EmptyCell, err
	}

	return that.Board[idx], nil
}

// Start - starts a new match. A running or finished game must be restarted instead.
func (that *Game) Start(players int) error {
	if that.Started {
		return apperror.ErrGameAlreadyStarted
	}

	return that.Restart(players)
}

// Restart - resets the board and starts over regardless of the current state.
func (that *Game) Restart(players int) error {
	if players < RequiredPlayers {
		return fmt.Errorf("%w: %d connected", apperror.ErrNotEnoughPlayers, players)
	}

	that.Board = [cellCount]Mark{}
	that.MovesCount = 0
	that.Winner = EmptyCell
	that.Turn = PlayerX
	that.Started = true

	return nil
}

func (that *Game) MakeMove(mark Mark, x, y int) error {
	if err := that.ConfirmOngoingState(); err != nil {
		return err
	}

	if that.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	idx, err := CellIndex(x, y)
	if err != nil {
		return err
	}

	if !that.Board[idx].IsEmpty() {
		return apperror.ErrCellOccupied
	}

	that.Board[idx] = mark
	that.MovesCount++

	that.UpdateGameState()

	return nil
}

// UpdateGameState - sets the winner or passes the turn after a move. The turn stays put once the game is over.
func (that *Game) UpdateGameState() {
	if winner := that.DetermineWinner(); !winner.IsEmpty() {
		that.Winner = winner
		return
	}

	if that.MovesCount == cellCount {
		return
	}

	that.Turn = that.Turn.Opponent()
}

// DetermineWinner - returns the mark that completed a line, if any.
func (that *Game) DetermineWinner() Mark {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if !a.IsEmpty() && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func (that *Game) IsDraw() bool {
	return that.Started && that.Winner.IsEmpty() && that.MovesCount == cellCount
}

func (that *Game) IsFinished() bool {
	return that.Started && (!that.Winner.IsEmpty() || that.MovesCount == cellCount)
}

func (that *Game) Status() string {
	switch {
	case !that.Started:
		return StatusWaiting
	case that.IsFinished():
		return StatusFinished
	default:
		return StatusInProgress
	}
}

// CurrentTurn - returns the mark to move, or EmptyCell when no move is expected.
func (that *Game) CurrentTurn() Mark {
	if that.Status() != StatusInProgress {
		return EmptyCell
	}

	return that.Turn
}

func (that *Game) ConfirmOngoingState() error {
	switch that.Status() {
	case StatusWaiting:
		return apperror.ErrGameNotStarted
	case StatusFinished:
		return apperror.ErrGameAlreadyFinished
	default:
		return nil
	}
}

// Rows - returns the board as rows of cells.
func (that *Game) Rows() [BoardSize][BoardSize]Mark {
	var rows [BoardSize][BoardSize]Mark

	for idx, cell := range that.Board {
		rows[idx/BoardSize][idx%BoardSize] = cell
	}

	return rows
}

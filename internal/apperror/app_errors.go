package apperror

import "errors"

var (
	ErrRoomFull = errors.New("room is full")

	ErrGameAlreadyStarted  = errors.New("game is already started")
	ErrNotEnoughPlayers    = errors.New("not enough players to start the game")
	ErrGameNotStarted      = errors.New("game is not started")
	ErrGameAlreadyFinished = errors.New("game is already finished")
	ErrNotYourTurn         = errors.New("it's not your turn")
	ErrOutOfBounds         = errors.New("cell is out of bounds")
	ErrCellOccupied        = errors.New("cell is already occupied")

	ErrInvalidJSON        = errors.New("invalid json")
	ErrMissingMovePayload = errors.New("move payload is missing")

	ErrRoomNotFound = errors.New("room not found")
)

// CodeInternal is reported for errors outside the game taxonomy.
const CodeInternal = "internal_error"

var codes = []struct {
	err  error
	code string
}{
	{ErrRoomFull, "room_full"},
	{ErrGameAlreadyStarted, "game_already_started"},
	{ErrNotEnoughPlayers, "not_enough_players"},
	{ErrGameNotStarted, "game_not_started"},
	{ErrGameAlreadyFinished, "game_already_finished"},
	{ErrNotYourTurn, "not_your_turn"},
	{ErrOutOfBounds, "out_of_bounds"},
	{ErrCellOccupied, "cell_occupied"},
	{ErrInvalidJSON, "invalid_json"},
	{ErrMissingMovePayload, "missing_move_payload"},
	{ErrRoomNotFound, "room_not_found"},
}

// Code - returns the stable machine-readable token for err, looking through wrapped errors.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}

	return CodeInternal
}

package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	ActionMakeMove    = "make_move"
	ActionStartGame   = "start_game"
	ActionRestartGame = "restart_game"
)

const (
	TypeRoomState = "room_state"
	TypeGameState = "game_state"
	TypeError     = "error"
)

// Request is a client message.
type Request struct {
	Action      string       `json:"action"`
	MovePayload *MovePayload `json:"move_payload,omitempty"`
}

// MovePayload coordinates are unsigned bytes, so negative or huge values fail to decode.
type MovePayload struct {
	X uint8 `json:"x"`
	Y uint8 `json:"y"`
}

// Decode - parses a client message. Malformed JSON and unknown actions both yield ErrInvalidJSON.
func Decode(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrInvalidJSON, err)
	}

	switch req.Action {
	case ActionMakeMove, ActionStartGame, ActionRestartGame:
		return &req, nil
	default:
		return nil, fmt.Errorf("%w: unknown action %q", apperror.ErrInvalidJSON, req.Action)
	}
}

// Envelope wraps every server message.
type Envelope struct {
	ResponseType string `json:"response_type"`
	Response     any    `json:"response"`
}

type RoomState struct {
	RoomID         string  `json:"room_id"`
	NumConnections int     `json:"num_connections"`
	Message        string  `json:"message"`
	Success        bool    `json:"success"`
	MyMark         *string `json:"my_mark"`
}

type GameState struct {
	RoomID      string                                      `json:"room_id"`
	Board       [entity.BoardSize][entity.BoardSize]*string `json:"board"`
	CurrentTurn *string                                     `json:"current_turn"`
	Winner      *string                                     `json:"winner"`
	Started     bool                                        `json:"started"`
	MovesCount  int                                         `json:"moves_count"`
}

type Error struct {
	RoomID  string `json:"room_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewGameState - builds the public view of a room's game.
func NewGameState(roomID string, game *entity.Game) GameState {
	state := GameState{
		RoomID:      roomID,
		CurrentTurn: markPtr(game.CurrentTurn()),
		Winner:      markPtr(game.Winner),
		Started:     game.Started,
		MovesCount:  game.MovesCount,
	}

	for y, row := range game.Rows() {
		for x, cell := range row {
			state.Board[y][x] = markPtr(cell)
		}
	}

	return state
}

func NewRoomState(roomID string, numConnections int, message string, success bool, mark entity.Mark) RoomState {
	return RoomState{
		RoomID:         roomID,
		NumConnections: numConnections,
		Message:        message,
		Success:        success,
		MyMark:         markPtr(mark),
	}
}

// NewError - builds an error reply; the code doubles as the message.
func NewError(roomID string, err error) Error {
	code := apperror.Code(err)

	return Error{
		RoomID:  roomID,
		Code:    code,
		Message: code,
	}
}

func EncodeRoomState(state RoomState) ([]byte, error) {
	return encode(TypeRoomState, state)
}

func EncodeGameState(state GameState) ([]byte, error) {
	return encode(TypeGameState, state)
}

func EncodeError(reply Error) ([]byte, error) {
	return encode(TypeError, reply)
}

func encode(responseType string, response any) ([]byte, error) {
	data, err := json.Marshal(Envelope{ResponseType: responseType, Response: response})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", responseType, err)
	}

	return data, nil
}

func markPtr(mark entity.Mark) *string {
	if mark.IsEmpty() {
		return nil
	}

	s := string(mark)
	return &s
}

package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

type Mark string

const (
	MarkX  Mark = "X"
	MarkO  Mark = "O"
	NoMark Mark = ""

	EmptyCell = NoMark
)

// Winner is empty while the game is in progress.
type Winner string

const (
	WinnerX    Winner = "X"
	WinnerO    Winner = "O"
	WinnerDraw Winner = "Draw"
	NoWinner   Winner = ""
)

const BoardSize = 9

var (
	ErrInvalidBoard = errors.New("invalid board")
	ErrInvalidMark  = errors.New("invalid mark")
)

func (that Mark) Valid() bool {
	return that == MarkX || that == MarkO
}

func (that Mark) Opposite() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return NoMark
	}
}

// Board is a row-major 3x3 grid mirrored from the server.
type Board [BoardSize]Mark

func (that Board) IsEmpty(idx int) bool {
	return that[idx] == EmptyCell
}

// UnmarshalJSON accepts exactly nine cells of "", "X" or "O". A null board decodes as blank.
func (that *Board) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*that = Board{}
		return nil
	}

	var cells []string
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBoard, err)
	}

	if len(cells) != BoardSize {
		return fmt.Errorf("%w: %d cells", ErrInvalidBoard, len(cells))
	}

	var board Board
	for i, cell := range cells {
		mark := Mark(cell)
		if mark != EmptyCell && !mark.Valid() {
			return fmt.Errorf("%w: cell %d holds %q", ErrInvalidBoard, i, cell)
		}
		board[i] = mark
	}

	*that = board

	return nil
}

type Game struct {
	ID       ID     `json:"id"`
	Board    Board  `json:"board"`
	NextMark Mark   `json:"next_mark"`
	Winner   Winner `json:"winner"`
	WinCombo []int  `json:"win_combo"`
	PlayerX  ID     `json:"player_x"`
	PlayerO  ID     `json:"player_o"`
}

// IsTerminal reports whether the server decided a winner or a draw.
func (that *Game) IsTerminal() bool {
	return that.Winner != NoWinner
}

// Clone returns a copy that shares no memory with the receiver.
func (that *Game) Clone() *Game {
	if that == nil {
		return nil
	}

	clone := *that
	clone.WinCombo = slices.Clone(that.WinCombo)

	return &clone
}

// Outcome is the decided result of a game together with its winning line.
type Outcome struct {
	Winner      Winner
	WinningLine []int
}

func OutcomeOf(game *Game) Outcome {
	if game == nil || !game.IsTerminal() {
		return Outcome{}
	}

	return Outcome{
		Winner:      game.Winner,
		WinningLine: slices.Clone(game.WinCombo),
	}
}

func (that Outcome) IsDecided() bool {
	return that.Winner != NoWinner
}

// Highlight returns the overlay of cells on the winning line. Indices outside the board are ignored.
func (that Outcome) Highlight() [BoardSize]bool {
	var overlay [BoardSize]bool

	for _, idx := range that.WinningLine {
		if idx >= 0 && idx < BoardSize {
			overlay[idx] = true
		}
	}

	return overlay
}

package tictactoe

import (
	"errors"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

// CanAttemptMove decides locally whether a move is worth sending to the server.
// A nil result means the move may be attempted; otherwise the first failing rule is returned.
// The server stays the final arbiter and may still reject an allowed move.
func CanAttemptMove(
	idx int,
	board entity.Board,
	busy bool,
	outcome entity.Outcome,
	activeMark, currentUserMark entity.Mark,
) error {
	if idx < 0 || idx >= len(board) {
		return apperror.ErrOutOfRange
	}

	if busy {
		return apperror.ErrBusy
	}

	if outcome.IsDecided() {
		return apperror.ErrGameOver
	}

	if !board.IsEmpty(idx) {
		return apperror.ErrCellOccupied
	}

	if activeMark != currentUserMark {
		return apperror.ErrNotYourTurn
	}

	return nil
}

// IsSilent reports rejections that are not operator mistakes worth a message.
func IsSilent(err error) bool {
	return errors.Is(err, apperror.ErrOutOfRange) || errors.Is(err, apperror.ErrCellOccupied)
}

// Reason is a stable label for a rejection, used in logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "allowed"
	case errors.Is(err, apperror.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, apperror.ErrBusy):
		return "busy"
	case errors.Is(err, apperror.ErrGameOver):
		return "game_over"
	case errors.Is(err, apperror.ErrCellOccupied):
		return "cell_occupied"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "not_your_turn"
	default:
		return "unknown"
	}
}

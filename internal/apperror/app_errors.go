package apperror

import (
	"errors"
	"fmt"
)

// ErrTurnRejected is wrapped by every local move rejection.
var ErrTurnRejected = errors.New("move rejected")

var (
	ErrOutOfRange   = fmt.Errorf("%w: cell index out of range", ErrTurnRejected)
	ErrBusy         = fmt.Errorf("%w: a request is already in flight", ErrTurnRejected)
	ErrGameOver     = fmt.Errorf("%w: game is already finished", ErrTurnRejected)
	ErrCellOccupied = fmt.Errorf("%w: cell is already occupied", ErrTurnRejected)
	ErrNotYourTurn  = fmt.Errorf("%w: it's not your turn", ErrTurnRejected)
)

var (
	ErrRegistration   = errors.New("could not create users")
	ErrEmptyName      = errors.New("player name is empty")
	ErrNoActiveGame   = errors.New("no active game")
	ErrEmptyGameID    = errors.New("game id is empty")
	ErrViewingHistory = errors.New("a history game is displayed")
	ErrStaleResponse  = errors.New("response belongs to a previous session")
	ErrStopped        = errors.New("controller is stopped")

	ErrRequestFailed = errors.New("request failed")
)

// RequestFailedError reports a gateway call that did not complete with a 2xx response.
type RequestFailedError struct {
	Operation string
	Status    int
	Err       error
}

func (that *RequestFailedError) Error() string {
	switch {
	case that.Err != nil:
		return fmt.Sprintf("%s: %s: %v", ErrRequestFailed, that.Operation, that.Err)
	case that.Status != 0:
		return fmt.Sprintf("%s: %s: status %d", ErrRequestFailed, that.Operation, that.Status)
	default:
		return fmt.Sprintf("%s: %s", ErrRequestFailed, that.Operation)
	}
}

func (that *RequestFailedError) Unwrap() error {
	return that.Err
}

func (that *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

// RequestFailed builds a RequestFailedError for operation.
func RequestFailed(operation string, status int, err error) error {
	return &RequestFailedError{Operation: operation, Status: status, Err: err}
}

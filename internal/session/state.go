package session

import (
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/history"
	"github.com/rocketscienceinc/tictactoe-client/internal/tictactoe"
)

const (
	msgCouldNotCreateUsers = "Could not create users."
	msgCouldNotStartGame   = "Could not start new game."
	msgWaitForTurn         = "Wait for your turn!"
	msgViewingHistory      = "Viewing history game #%s"
	msgRequestFailed       = "Request failed: %s"
	msgHistoryReadOnly     = "A past game is displayed; type live to return."
)

// State is the client's record of the live session. Only the controller loop touches it.
type State struct {
	CurrentUser entity.Participant
	Opponent    entity.Participant
	Game        *entity.Game
	Board       entity.Board
	ActiveMark  entity.Mark
	Outcome     entity.Outcome
	Scores      entity.ScoreTally
	Users       []entity.User
	Message     string
	History     *history.Browser

	inflight int
	loading  int
	epoch    uint64
}

func NewState() *State {
	return &State{
		ActiveMark: entity.MarkX,
		Scores:     entity.NewScoreTally(nil),
		History:    history.NewBrowser(),
	}
}

// ApplyServerGame replaces board, active mark and outcome from a server game. It is the only
// way the board changes. A decided game stays decided: a later in-progress copy of the same game
// is ignored and false is returned.
func (that *State) ApplyServerGame(game *entity.Game) bool {
	if game == nil {
		return false
	}

	if that.Game != nil && that.Game.ID == game.ID && that.Outcome.IsDecided() && !game.IsTerminal() {
		return false
	}

	snapshot := game.Clone()

	that.Game = snapshot
	that.Board = snapshot.Board
	that.ActiveMark = snapshot.NextMark
	if !that.ActiveMark.Valid() {
		that.ActiveMark = entity.MarkX
	}
	that.Outcome = entity.OutcomeOf(snapshot)

	return true
}

// MarkBusy counts outstanding requests; the session is busy while any is in flight.
func (that *State) MarkBusy(flag bool) {
	if flag {
		that.inflight++
		return
	}

	if that.inflight > 0 {
		that.inflight--
	}
}

func (that *State) Busy() bool {
	return that.inflight > 0
}

// Loading reports game-affecting requests in flight. Read-only refreshes keep the session busy
// without showing as loading.
func (that *State) Loading() bool {
	return that.loading > 0
}

func (that *State) beginRequest(readOnly bool) {
	that.MarkBusy(true)
	if !readOnly {
		that.loading++
	}
}

func (that *State) endRequest(readOnly bool) {
	that.MarkBusy(false)
	if !readOnly && that.loading > 0 {
		that.loading--
	}
}

func (that *State) CanAttemptMove(idx int) error {
	return tictactoe.CanAttemptMove(idx, that.Board, that.Busy(), that.Outcome, that.ActiveMark, that.CurrentUser.Mark)
}

// beginSession commits a new epoch once the new game exists. Responses tagged with an older epoch
// no longer touch the session.
func (that *State) beginSession() uint64 {
	that.epoch++
	that.inflight = 0
	that.loading = 0
	that.Message = ""
	that.History.Reset()

	return that.epoch
}

// establishSession binds the local operator to X and the opponent to O; the convention is fixed.
func (that *State) establishSession(userX, userO *entity.User, game *entity.Game) {
	that.CurrentUser = entity.NewParticipant(userX, entity.MarkX)
	that.Opponent = entity.NewParticipant(userO, entity.MarkO)
	that.Game = nil
	that.Outcome = entity.Outcome{}
	that.ApplyServerGame(game)
}

func (that *State) setScores(rows []entity.ScoreRow) {
	that.Scores = entity.NewScoreTally(rows)
}

func (that *State) shouldPoll() bool {
	return that.Game != nil &&
		!that.Outcome.IsDecided() &&
		!that.Busy() &&
		that.CurrentUser.Mark.Valid() &&
		that.ActiveMark != that.CurrentUser.Mark
}

func (that *State) nameOf(mark entity.Mark) string {
	switch mark {
	case that.CurrentUser.Mark:
		return that.CurrentUser.Name
	case that.Opponent.Mark:
		return that.Opponent.Name
	default:
		return ""
	}
}

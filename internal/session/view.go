package session

import (
	"slices"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/history"
)

// View is a detached copy of everything the renderer shows.
type View struct {
	Board       entity.Board
	Highlight   [entity.BoardSize]bool
	Winner      entity.Winner
	ActiveMark  entity.Mark
	NextPlayer  string
	HasGame     bool
	Loading     bool
	Message     string
	Scores      entity.ScoreTally
	PlayerXName string
	PlayerOName string

	Mode        history.Mode
	ViewingID   entity.ID
	ShowHistory bool
	History     []entity.HistoryEntry
	Users       []entity.User
}

// View derives the displayed board: the history snapshot in Viewing mode, the live game otherwise.
func (that *State) View() View {
	view := View{
		Board:       that.Board,
		Highlight:   that.Outcome.Highlight(),
		Winner:      that.Outcome.Winner,
		ActiveMark:  that.ActiveMark,
		NextPlayer:  that.nameOf(that.ActiveMark),
		HasGame:     that.Game != nil,
		Loading:     that.Loading(),
		Message:     that.Message,
		Scores:      that.Scores.Clone(),
		PlayerXName: that.CurrentUser.Name,
		PlayerOName: that.Opponent.Name,
		Mode:        that.History.Mode(),
		ShowHistory: that.History.Visible(),
		History:     that.History.Entries(),
		Users:       slices.Clone(that.Users),
	}

	snapshot := that.History.Snapshot()
	if snapshot == nil {
		return view
	}

	outcome := entity.OutcomeOf(snapshot)
	view.Board = snapshot.Board
	view.Highlight = outcome.Highlight()
	view.Winner = outcome.Winner
	view.ActiveMark = snapshot.NextMark
	view.HasGame = true
	view.ViewingID = snapshot.ID

	if entry, ok := that.History.Entry(snapshot.ID); ok {
		view.PlayerXName = entry.PlayerXName
		view.PlayerOName = entry.PlayerOName
	}

	view.NextPlayer = view.PlayerXName
	if view.ActiveMark == entity.MarkO {
		view.NextPlayer = view.PlayerOName
	}

	return view
}

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/history"
)

func newEstablishedState(t *testing.T, game *entity.Game) *State {
	t.Helper()

	st := NewState()
	st.beginSession()
	st.establishSession(&entity.User{ID: "1", Name: "Ann"}, &entity.User{ID: "2", Name: "Bo"}, game)

	return st
}

func TestState_ApplyServerGame(t *testing.T) {
	t.Run("Is idempotent", func(t *testing.T) {
		// Given: a session with game 7
		game := &entity.Game{ID: "7", Board: entity.Board{entity.MarkX}, NextMark: entity.MarkO}
		st := newEstablishedState(t, game)

		// When: the same server game is applied twice
		first := st.View()
		applied := st.ApplyServerGame(game)
		second := st.View()

		// Then: the observable state does not change
		assert.True(t, applied)
		assert.Equal(t, first, second)
	})

	t.Run("Keeps a decided game decided", func(t *testing.T) {
		// Given: game 7 won by X on the top row
		won := &entity.Game{
			ID:       "7",
			Board:    entity.Board{entity.MarkX, entity.MarkX, entity.MarkX, entity.MarkO, entity.MarkO},
			NextMark: entity.MarkO,
			Winner:   entity.WinnerX,
			WinCombo: []int{0, 1, 2},
		}
		st := newEstablishedState(t, won)

		// When: an older in-progress copy of the same game arrives
		applied := st.ApplyServerGame(&entity.Game{ID: "7", NextMark: entity.MarkX})

		// Then: it is ignored
		assert.False(t, applied)
		assert.Equal(t, entity.WinnerX, st.Outcome.Winner)
		assert.Equal(t, entity.MarkX, st.Board[0])
	})

	t.Run("Does not alias the server game", func(t *testing.T) {
		game := &entity.Game{ID: "7", Winner: entity.WinnerO, WinCombo: []int{2, 4, 6}}
		st := newEstablishedState(t, game)

		game.Board[0] = entity.MarkO
		game.WinCombo[0] = 0

		assert.Equal(t, entity.EmptyCell, st.Board[0])
		assert.Equal(t, []int{2, 4, 6}, st.Outcome.WinningLine)
	})

	t.Run("Defaults an unknown next mark to X", func(t *testing.T) {
		st := newEstablishedState(t, &entity.Game{ID: "7"})

		assert.Equal(t, entity.MarkX, st.ActiveMark)
	})

	t.Run("Ignores nil", func(t *testing.T) {
		st := NewState()

		assert.False(t, st.ApplyServerGame(nil))
		assert.Nil(t, st.Game)
	})
}

func TestState_MarkBusy(t *testing.T) {
	st := NewState()

	st.MarkBusy(true)
	st.MarkBusy(true)
	st.MarkBusy(false)
	assert.True(t, st.Busy())

	st.MarkBusy(false)
	st.MarkBusy(false)
	assert.False(t, st.Busy())
}

func TestState_Loading(t *testing.T) {
	st := NewState()

	st.beginRequest(true)
	assert.True(t, st.Busy())
	assert.False(t, st.Loading())

	st.beginRequest(false)
	assert.True(t, st.Loading())

	st.endRequest(false)
	assert.False(t, st.Loading())
	assert.True(t, st.Busy())

	st.endRequest(true)
	assert.False(t, st.Busy())
}

func TestState_CanAttemptMove(t *testing.T) {
	t.Run("Allows the operator on their turn", func(t *testing.T) {
		st := newEstablishedState(t, &entity.Game{ID: "7", NextMark: entity.MarkX})

		assert.NoError(t, st.CanAttemptMove(4))
	})

	t.Run("Rejects while a request is in flight", func(t *testing.T) {
		st := newEstablishedState(t, &entity.Game{ID: "7", NextMark: entity.MarkX})
		st.MarkBusy(true)

		assert.ErrorIs(t, st.CanAttemptMove(4), apperror.ErrBusy)
	})

	t.Run("Rejects on the opponent's turn", func(t *testing.T) {
		st := newEstablishedState(t, &entity.Game{ID: "7", NextMark: entity.MarkO})

		assert.ErrorIs(t, st.CanAttemptMove(4), apperror.ErrNotYourTurn)
	})
}

func TestState_BeginSession(t *testing.T) {
	// Given: a busy session that is viewing a past game
	st := newEstablishedState(t, &entity.Game{ID: "7"})
	st.beginRequest(false)
	st.Message = msgWaitForTurn
	st.History.Select("42")
	require.True(t, st.History.Receive(&entity.Game{ID: "42"}))

	// When: a new session begins
	before := st.epoch
	epoch := st.beginSession()

	// Then: the epoch advances and the transient state is cleared
	assert.Equal(t, before+1, epoch)
	assert.False(t, st.Busy())
	assert.False(t, st.Loading())
	assert.Empty(t, st.Message)
	assert.Equal(t, history.Live, st.History.Mode())
}

func TestState_View(t *testing.T) {
	t.Run("Shows the live game with names and a winning overlay", func(t *testing.T) {
		st := newEstablishedState(t, &entity.Game{
			ID:       "7",
			Board:    entity.Board{entity.MarkX, entity.MarkO, entity.MarkO, entity.EmptyCell, entity.MarkX, entity.EmptyCell, entity.EmptyCell, entity.EmptyCell, entity.MarkX},
			Winner:   entity.WinnerX,
			WinCombo: []int{0, 4, 8},
		})
		st.setScores([]entity.ScoreRow{{UserID: "1", Symbol: entity.MarkX, Score: 3}})

		view := st.View()

		assert.True(t, view.HasGame)
		assert.Equal(t, history.Live, view.Mode)
		assert.Equal(t, "Ann", view.PlayerXName)
		assert.Equal(t, "Bo", view.PlayerOName)
		assert.Equal(t, entity.WinnerX, view.Winner)
		assert.Equal(t, [entity.BoardSize]bool{true, false, false, false, true, false, false, false, true}, view.Highlight)
		assert.Equal(t, entity.ScoreTally{entity.MarkX: 3, entity.MarkO: 0}, view.Scores)
	})

	t.Run("Shows the snapshot while viewing history", func(t *testing.T) {
		// Given: live game 7 and history game 42 on display
		st := newEstablishedState(t, &entity.Game{ID: "7", Board: entity.Board{entity.MarkX}, NextMark: entity.MarkO})
		st.History.SetEntries([]entity.HistoryEntry{{ID: "42", Winner: entity.WinnerO, PlayerXName: "Cy", PlayerOName: "Di"}})
		st.History.Select("42")
		require.True(t, st.History.Receive(&entity.Game{ID: "42", Board: entity.Board{entity.MarkO}, Winner: entity.WinnerO, WinCombo: []int{0, 3, 6}}))

		// When: the view is derived
		view := st.View()

		// Then: the board and names come from game 42 while the live game is untouched
		assert.Equal(t, history.Viewing, view.Mode)
		assert.Equal(t, entity.ID("42"), view.ViewingID)
		assert.Equal(t, entity.MarkO, view.Board[0])
		assert.Equal(t, "Cy", view.PlayerXName)
		assert.Equal(t, "Di", view.PlayerOName)
		assert.Equal(t, entity.WinnerO, view.Winner)
		assert.Equal(t, entity.MarkX, st.Board[0])
	})
}

func TestState_ShouldPoll(t *testing.T) {
	st := newEstablishedState(t, &entity.Game{ID: "7", NextMark: entity.MarkO})
	assert.True(t, st.shouldPoll())

	st.MarkBusy(true)
	assert.False(t, st.shouldPoll())
	st.MarkBusy(false)

	st.ApplyServerGame(&entity.Game{ID: "7", NextMark: entity.MarkX})
	assert.False(t, st.shouldPoll())
}

package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/session"
)

type mockSession struct {
	mock.Mock
}

func done(err error) <-chan error {
	result := make(chan error, 1)
	result <- err
	return result
}

func (that *mockSession) StartSession(nameX, nameO string) <-chan error {
	return done(that.Called(nameX, nameO).Error(0))
}

func (that *mockSession) SubmitMove(idx int) <-chan error {
	return done(that.Called(idx).Error(0))
}

func (that *mockSession) SyncLive() <-chan error {
	return done(that.Called().Error(0))
}

func (that *mockSession) RefreshScoreboard() <-chan error {
	return done(that.Called().Error(0))
}

func (that *mockSession) RefreshHistory() <-chan error {
	return done(that.Called().Error(0))
}

func (that *mockSession) ViewHistory(id entity.ID) <-chan error {
	return done(that.Called(id).Error(0))
}

func (that *mockSession) ReturnToLive() <-chan error {
	return done(that.Called().Error(0))
}

func (that *mockSession) LoadUsers() <-chan error {
	return done(that.Called().Error(0))
}

func (that *mockSession) View() (session.View, error) {
	args := that.Called()
	return args.Get(0).(session.View), args.Error(1)
}

func newTestServer(t *testing.T, sess *mockSession) (*Server, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return New(logger, sess, &out), &out
}

func TestServer_Start(t *testing.T) {
	t.Run("Starts a game with both names and plays a move", func(t *testing.T) {
		// Given: a session that accepts everything
		sess := &mockSession{}
		sess.On("View").Return(session.View{HasGame: true, ActiveMark: entity.MarkX, NextPlayer: "Ann"}, nil)
		sess.On("StartSession", "Ann", "Bo").Return(nil).Once()
		sess.On("SubmitMove", 4).Return(nil).Once()
		srv, out := newTestServer(t, sess)

		// When: the operator types start, move and quit
		err := srv.Start(context.Background(), strings.NewReader("start Ann Bo\nmove 4\nquit\nmove 5\n"))

		// Then: both commands reach the session and input after quit is ignored
		require.NoError(t, err)
		sess.AssertExpectations(t)
		sess.AssertNotCalled(t, "SubmitMove", 5)
		assert.Contains(t, out.String(), "Next move: X Ann")
	})

	t.Run("Asks for missing names", func(t *testing.T) {
		sess := &mockSession{}
		sess.On("View").Return(session.View{}, nil)
		sess.On("StartSession", "Ann", "Bo").Return(nil).Once()
		srv, out := newTestServer(t, sess)

		err := srv.Start(context.Background(), strings.NewReader("start\nAnn\nBo\n"))

		require.NoError(t, err)
		sess.AssertExpectations(t)
		assert.Contains(t, out.String(), "Player X name: ")
		assert.Contains(t, out.String(), "Player O name: ")
	})

	t.Run("Refuses an empty name", func(t *testing.T) {
		sess := &mockSession{}
		sess.On("View").Return(session.View{}, nil)
		srv, out := newTestServer(t, sess)

		err := srv.Start(context.Background(), strings.NewReader("start Ann\n\n"))

		require.NoError(t, err)
		assert.Contains(t, out.String(), "Player names must not be empty.")
		sess.AssertNotCalled(t, "StartSession", mock.Anything, mock.Anything)
	})

	t.Run("Quit while asking for names leaves without starting", func(t *testing.T) {
		// Given: a start command that prompts for names
		sess := &mockSession{}
		sess.On("View").Return(session.View{}, nil)
		srv, out := newTestServer(t, sess)

		// When: the operator types quit at the prompt
		err := srv.Start(context.Background(), strings.NewReader("start\nquit\nZed\n"))

		// Then: the loop ends and no session is started
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Player X name: ")
		assert.NotContains(t, out.String(), "Player O name: ")
		sess.AssertNotCalled(t, "StartSession", mock.Anything, mock.Anything)
	})

	t.Run("Stops when ctx is done", func(t *testing.T) {
		sess := &mockSession{}
		sess.On("View").Return(session.View{}, nil)
		srv, _ := newTestServer(t, sess)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		reader, writer := io.Pipe()
		defer writer.Close()

		assert.NoError(t, srv.Start(ctx, reader))
	})
}

func TestServer_HandleLine(t *testing.T) {
	t.Run("Validates move arguments", func(t *testing.T) {
		sess := &mockSession{}
		srv, out := newTestServer(t, sess)

		require.NoError(t, srv.HandleLine(context.Background(), "move"))
		require.NoError(t, srv.HandleLine(context.Background(), "move x"))

		assert.Contains(t, out.String(), "Usage: move <0-8>")
		assert.Contains(t, out.String(), "Cell must be a number from 0 to 8.")
		sess.AssertNotCalled(t, "SubmitMove", mock.Anything)
	})

	t.Run("Prints errors the view does not explain", func(t *testing.T) {
		sess := &mockSession{}
		sess.On("SubmitMove", 4).Return(apperror.ErrBusy).Once()
		sess.On("View").Return(session.View{HasGame: true, Loading: true}, nil)
		srv, out := newTestServer(t, sess)

		require.NoError(t, srv.HandleLine(context.Background(), "move 4"))

		assert.Contains(t, out.String(), apperror.ErrBusy.Error())
		assert.Contains(t, out.String(), "Loading...")
	})

	t.Run("Stays quiet on occupied cells", func(t *testing.T) {
		sess := &mockSession{}
		sess.On("SubmitMove", 0).Return(apperror.ErrCellOccupied).Once()
		sess.On("View").Return(session.View{HasGame: true}, nil)
		srv, out := newTestServer(t, sess)

		require.NoError(t, srv.HandleLine(context.Background(), "move 0"))

		assert.NotContains(t, out.String(), apperror.ErrCellOccupied.Error())
	})

	t.Run("Opens a history game by id", func(t *testing.T) {
		sess := &mockSession{}
		sess.On("ViewHistory", entity.ID("42")).Return(nil).Once()
		sess.On("View").Return(session.View{Message: "Viewing history game #42"}, nil)
		srv, out := newTestServer(t, sess)

		require.NoError(t, srv.HandleLine(context.Background(), "view #42"))

		sess.AssertExpectations(t)
		assert.Contains(t, out.String(), "Viewing history game #42")
	})

	t.Run("Lists users", func(t *testing.T) {
		sess := &mockSession{}
		sess.On("LoadUsers").Return(nil).Once()
		sess.On("View").Return(session.View{Users: []entity.User{{ID: "1", Name: "Ann"}}}, nil)
		srv, out := newTestServer(t, sess)

		require.NoError(t, srv.HandleLine(context.Background(), "users"))

		assert.Contains(t, out.String(), "#1  Ann")
	})

	t.Run("Routes the remaining commands", func(t *testing.T) {
		sess := &mockSession{}
		sess.On("SyncLive").Return(nil).Once()
		sess.On("RefreshScoreboard").Return(nil).Once()
		sess.On("RefreshHistory").Return(nil).Once()
		sess.On("ReturnToLive").Return(nil).Once()
		sess.On("View").Return(session.View{}, nil)
		srv, out := newTestServer(t, sess)

		for _, line := range []string{"sync", "scores", "history", "live", "board", "help"} {
			require.NoError(t, srv.HandleLine(context.Background(), line))
		}

		sess.AssertExpectations(t)
		assert.Contains(t, out.String(), "Commands:")
	})

	t.Run("Reports unknown commands", func(t *testing.T) {
		srv, out := newTestServer(t, &mockSession{})

		require.NoError(t, srv.HandleLine(context.Background(), "dance"))
		require.NoError(t, srv.HandleLine(context.Background(), "   "))

		assert.Equal(t, "Unknown command \"dance\". Type help for the list.\n", out.String())
	})

	t.Run("A command at the name prompt cancels it", func(t *testing.T) {
		// Given: the operator gave the X name and is asked for O
		sess := &mockSession{}
		sess.On("View").Return(session.View{}, nil)
		sess.On("StartSession", "Ann", "Bo").Return(nil).Once()
		srv, out := newTestServer(t, sess)

		require.NoError(t, srv.HandleLine(context.Background(), "start Ann"))

		// When: help is typed instead of a name
		require.NoError(t, srv.HandleLine(context.Background(), "HELP"))

		// Then: help is shown and the next line is a command again
		assert.Contains(t, out.String(), "Commands:")
		require.NoError(t, srv.HandleLine(context.Background(), "Bo"))
		assert.Contains(t, out.String(), "Unknown command \"Bo\"")
		sess.AssertNotCalled(t, "StartSession", mock.Anything, mock.Anything)

		require.NoError(t, srv.HandleLine(context.Background(), "start Ann Bo"))
		sess.AssertExpectations(t)
	})

	t.Run("Quit ends the loop", func(t *testing.T) {
		srv, _ := newTestServer(t, &mockSession{})

		assert.ErrorIs(t, srv.HandleLine(context.Background(), "quit"), errQuit)
	})
}

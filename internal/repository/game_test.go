package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/testing/suite"
)

func finishedGame(id entity.ID) *entity.Game {
	return &entity.Game{
		ID:       id,
		Board:    entity.Board{entity.MarkX, entity.MarkX, entity.MarkX, entity.MarkO, entity.MarkO},
		NextMark: entity.MarkO,
		Winner:   entity.WinnerX,
		WinCombo: []int{0, 1, 2},
		PlayerX:  "1",
		PlayerO:  "2",
	}
}

func TestGameRepository_CreateOrUpdate(t *testing.T) {
	t.Run("Stores a finished game", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, time.Hour)

		// When: CreateOrUpdate is called with a finished game
		err := gameRepo.CreateOrUpdate(ctx, finishedGame("123"))

		// Then: no error should be returned, and the game is stored
		require.NoError(t, err)
	})

	t.Run("Refuses a game in progress", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, time.Hour)

		// Given: a game without a winner
		game := &entity.Game{ID: "123", NextMark: entity.MarkX}

		// When: CreateOrUpdate is called
		err := gameRepo.CreateOrUpdate(ctx, game)

		// Then: the game is not cached
		require.ErrorIs(t, err, ErrGameNotOver)

		_, err = gameRepo.GetByID(ctx, "123")
		require.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("Refuses a game without id", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, 0)

		err := gameRepo.CreateOrUpdate(ctx, &entity.Game{Winner: entity.WinnerDraw})

		require.ErrorIs(t, err, ErrEmptyGameID)
	})
}

func TestGameRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, time.Hour)

		// Given: a cached finished game
		game := finishedGame("123")
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, game))

		// When: GetByID is called with existing ID
		retrievedGame, err := gameRepo.GetByID(ctx, game.ID)

		// Then: the retrieved game should match the saved game
		require.NoError(t, err)
		assert.Equal(t, game, retrievedGame)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage, time.Hour)

		// When: GetByID is called with non-existent ID
		retrievedGame, err := gameRepo.GetByID(ctx, "9999999")

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, ErrGameNotFound)
		assert.Nil(t, retrievedGame)
	})

	t.Run("GetByID_Expired", func(t *testing.T) {
		ctx, st, server := suite.NewInMemory(t)

		gameRepo := NewGameRepository(st.Storage, time.Minute)
		require.NoError(t, gameRepo.CreateOrUpdate(ctx, finishedGame("5")))

		// When: the TTL elapses
		server.FastForward(2 * time.Minute)

		// Then: the snapshot is gone
		_, err := gameRepo.GetByID(ctx, "5")
		require.ErrorIs(t, err, ErrGameNotFound)
	})
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

const defaultSnapshotTTL = 24 * time.Hour

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameNotOver  = errors.New("only finished games can be cached")
	ErrEmptyGameID  = errors.New("game id is empty")
)

// GameRepository caches snapshots of finished games. Finished games never change on the server.
type GameRepository interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id entity.ID) (*entity.Game, error)
}

type dbGame struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGameRepository(client *redis.Client, ttl time.Duration) GameRepository {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}

	return &dbGame{
		client: client,
		ttl:    ttl,
	}
}

func gameKey(id entity.ID) string {
	return "game:" + string(id)
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	if game.ID == "" {
		return ErrEmptyGameID
	}

	if !game.IsTerminal() {
		return fmt.Errorf("%w: game %s", ErrGameNotOver, game.ID)
	}

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	if err = that.client.Set(ctx, gameKey(game.ID), gameJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id entity.ID) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

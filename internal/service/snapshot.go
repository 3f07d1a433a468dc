package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/repository"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id entity.ID) (*entity.Game, error)
}

type gameFetcher interface {
	FetchGame(ctx context.Context, id entity.ID) (*entity.Game, error)
}

type cacheObserver interface {
	ObserveCache(hit bool)
}

// SnapshotService loads full games for the history browser, reading through an optional cache.
type SnapshotService struct {
	logger   *slog.Logger
	gameRepo gameRepo
	api      gameFetcher
	observer cacheObserver
}

// NewSnapshotService accepts a nil gameRepo, in which case every snapshot comes from the server.
func NewSnapshotService(logger *slog.Logger, gameRepo gameRepo, api gameFetcher, observer cacheObserver) *SnapshotService {
	return &SnapshotService{
		logger:   logger.With("component", "snapshots"),
		gameRepo: gameRepo,
		api:      api,
		observer: observer,
	}
}

// Snapshot returns the game with the given id. Cache failures are logged and never fail the call.
func (that *SnapshotService) Snapshot(ctx context.Context, id entity.ID) (*entity.Game, error) {
	log := that.logger.With("method", "Snapshot", "gameID", id)

	if that.gameRepo != nil {
		cached, err := that.gameRepo.GetByID(ctx, id)
		switch {
		case err == nil:
			that.observe(true)
			log.Debug("snapshot served from cache")
			return cached, nil
		case errors.Is(err, repository.ErrGameNotFound):
			that.observe(false)
		default:
			that.observe(false)
			log.Warn("could not read snapshot cache", "error", err)
		}
	}

	game, err := that.api.FetchGame(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game: %w", err)
	}

	if that.gameRepo != nil && game.IsTerminal() {
		if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
			log.Warn("could not cache snapshot", "error", err)
		}
	}

	return game, nil
}

func (that *SnapshotService) observe(hit bool) {
	if that.observer != nil {
		that.observer.ObserveCache(hit)
	}
}

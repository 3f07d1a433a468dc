package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/history"
	"github.com/rocketscienceinc/tictactoe-client/internal/tictactoe"
)

const (
	opRegister   = "register_users"
	opCreateGame = "create_game"
	opMove       = "submit_move"
	opSync       = "sync_game"
	opScoreboard = "scoreboard"
	opHistory    = "history"
	opSnapshot   = "history_snapshot"
	opUsers      = "list_users"
)

const (
	defaultRequestTimeout = 10 * time.Second
	eventQueueSize        = 64
	msgGameOver           = "The game is over. Start a new game."
)

type apiGateway interface {
	ListUsers(ctx context.Context) ([]entity.User, error)
	CreateUser(ctx context.Context, name string) (*entity.User, error)
	CreateGame(ctx context.Context, playerX, playerO entity.ID) (*entity.Game, error)
	FetchGame(ctx context.Context, id entity.ID) (*entity.Game, error)
	SubmitMove(ctx context.Context, id entity.ID, cell int) (*entity.Game, error)
	Scoreboard(ctx context.Context) ([]entity.ScoreRow, error)
	History(ctx context.Context) ([]entity.HistoryEntry, error)
}

type snapshotLoader interface {
	Snapshot(ctx context.Context, id entity.ID) (*entity.Game, error)
}

type snapshotFunc func(ctx context.Context, id entity.ID) (*entity.Game, error)

func (that snapshotFunc) Snapshot(ctx context.Context, id entity.ID) (*entity.Game, error) {
	return that(ctx, id)
}

type observer interface {
	ObserveRejection(reason string)
	ObserveStale(operation string)
}

type nopObserver struct{}

func (nopObserver) ObserveRejection(string) {}
func (nopObserver) ObserveStale(string)     {}

// Controller drives the session as a single-threaded event loop. Operator commands and network
// completions are events handled one at a time on the loop goroutine; requests run off-loop and
// post their completion back. Every command returns a channel that receives its final result once.
type Controller struct {
	logger       *slog.Logger
	api          apiGateway
	snapshots    snapshotLoader
	observer     observer
	timeout      time.Duration
	pollInterval time.Duration

	state *State
	// starts numbers StartSession calls; only the latest may commit its session.
	starts uint64
	events chan func()
	done   chan struct{}
	ctx    context.Context
}

type Option func(*Controller)

func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPollInterval re-fetches the live game on this interval while waiting for the opponent. Zero disables polling.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) { c.pollInterval = d }
}

func WithSnapshotLoader(loader snapshotLoader) Option {
	return func(c *Controller) { c.snapshots = loader }
}

func WithObserver(o observer) Option {
	return func(c *Controller) { c.observer = o }
}

func New(logger *slog.Logger, api apiGateway, opts ...Option) *Controller {
	that := &Controller{
		logger:    logger.With("component", "session"),
		api:       api,
		snapshots: snapshotFunc(api.FetchGame),
		observer:  nopObserver{},
		timeout:   defaultRequestTimeout,

		state:  NewState(),
		events: make(chan func(), eventQueueSize),
		done:   make(chan struct{}),
		ctx:    context.Background(),
	}

	for _, opt := range opts {
		opt(that)
	}

	return that
}

// Run processes events until ctx is done. It must be called exactly once.
func (that *Controller) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	that.ctx = ctx
	defer close(that.done)

	if that.pollInterval > 0 {
		go that.poll(ctx)
	}

	log.Info("session loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info("session loop stopped")
			return nil
		case event := <-that.events:
			event()
		}
	}
}

// Await blocks until a command result arrives or ctx is done.
func Await(ctx context.Context, result <-chan error) error {
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartSession registers both players and creates a new game. nameX is the local operator.
func (that *Controller) StartSession(nameX, nameO string) <-chan error {
	return that.command(func(result chan<- error) { that.handleStart(nameX, nameO, result) })
}

func (that *Controller) SubmitMove(idx int) <-chan error {
	return that.command(func(result chan<- error) { that.handleMove(idx, result) })
}

func (that *Controller) SyncLive() <-chan error {
	return that.command(that.handleSync)
}

func (that *Controller) RefreshScoreboard() <-chan error {
	return that.command(that.handleScoreboard)
}

func (that *Controller) RefreshHistory() <-chan error {
	return that.command(that.handleHistory)
}

func (that *Controller) LoadUsers() <-chan error {
	return that.command(that.handleUsers)
}

func (that *Controller) ViewHistory(id entity.ID) <-chan error {
	return that.command(func(result chan<- error) { that.handleViewHistory(id, result) })
}

func (that *Controller) ReturnToLive() <-chan error {
	return that.command(that.handleReturnToLive)
}

// Bootstrap loads users, scoreboard and history, the way the client opens.
func (that *Controller) Bootstrap(ctx context.Context) error {
	users := that.LoadUsers()
	scores := that.RefreshScoreboard()
	games := that.RefreshHistory()

	return errors.Join(Await(ctx, users), Await(ctx, scores), Await(ctx, games))
}

// View returns a consistent copy of the displayed state.
func (that *Controller) View() (View, error) {
	views := make(chan View, 1)
	if !that.post(func() { views <- that.state.View() }) {
		return View{}, apperror.ErrStopped
	}

	select {
	case view := <-views:
		return view, nil
	case <-that.done:
		return View{}, apperror.ErrStopped
	}
}

func (that *Controller) post(event func()) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.events <- event:
		return true
	case <-that.done:
		return false
	}
}

func (that *Controller) command(handle func(result chan<- error)) <-chan error {
	result := make(chan error, 1)
	if !that.post(func() { handle(result) }) {
		result <- apperror.ErrStopped
	}

	return result
}

// request tags an outgoing call with the session epoch it was issued in.
type request struct {
	operation string
	epoch     uint64
	readOnly  bool
}

func (that *Controller) newRequest(operation string, readOnly bool) request {
	return request{operation: operation, epoch: that.state.epoch, readOnly: readOnly}
}

func (that *Controller) isCurrent(req request) bool {
	return req.epoch == that.state.epoch
}

// reportFailure sets the failure message unless a newer session started after req was issued.
func (that *Controller) reportFailure(req request) {
	if that.isCurrent(req) {
		that.state.Message = fmt.Sprintf(msgRequestFailed, req.operation)
	}
}

// dispatch marks the session busy, runs call off-loop and posts complete back onto the loop.
// Responses from an older epoch release nothing: a new session already reset the counters.
// Session-affecting responses from an older epoch are discarded; read-only ones still apply.
func dispatch[T any](that *Controller, req request, result chan<- error, call func(context.Context) (T, error), complete func(T, error)) {
	that.state.beginRequest(req.readOnly)
	ctx := that.ctx

	go func() {
		callCtx, cancel := context.WithTimeout(ctx, that.timeout)
		value, err := call(callCtx)
		cancel()

		posted := that.post(func() {
			current := that.isCurrent(req)
			if current {
				that.state.endRequest(req.readOnly)
			}

			if !current && !req.readOnly {
				that.logger.Debug("discarding stale response", "operation", req.operation, "epoch", req.epoch)
				that.observer.ObserveStale(req.operation)
				result <- apperror.ErrStaleResponse
				return
			}

			complete(value, err)
		})
		if !posted {
			result <- apperror.ErrStopped
		}
	}()
}

func (that *Controller) handleStart(nameX, nameO string, result chan<- error) {
	log := that.logger.With("method", "handleStart")
	st := that.state

	nameX, nameO = strings.TrimSpace(nameX), strings.TrimSpace(nameO)
	if nameX == "" || nameO == "" {
		st.Message = msgCouldNotCreateUsers
		result <- fmt.Errorf("%w: %w", apperror.ErrRegistration, apperror.ErrEmptyName)
		return
	}

	that.starts++
	start := that.starts
	log.Info("starting session", "start", start, "playerX", nameX, "playerO", nameO)

	dispatch(that, that.newRequest(opRegister, false), result,
		func(ctx context.Context) ([2]*entity.User, error) {
			return that.register(ctx, nameX, nameO)
		},
		func(users [2]*entity.User, err error) {
			if that.superseded(start, opRegister, result) {
				return
			}

			if err != nil {
				log.Warn("could not register players", "error", err)
				st.Message = msgCouldNotCreateUsers
				result <- fmt.Errorf("%w: %w", apperror.ErrRegistration, err)
				return
			}

			that.createGame(start, users, result)
		})
}

// superseded reports a start chain that a later StartSession replaced. The current session is left alone.
func (that *Controller) superseded(start uint64, operation string, result chan<- error) bool {
	if start == that.starts {
		return false
	}

	that.logger.Debug("discarding superseded start", "operation", operation, "start", start)
	that.observer.ObserveStale(operation)
	result <- apperror.ErrStaleResponse

	return true
}

func (that *Controller) register(ctx context.Context, nameX, nameO string) ([2]*entity.User, error) {
	userX, err := that.api.CreateUser(ctx, nameX)
	if err != nil {
		return [2]*entity.User{}, fmt.Errorf("failed to create player X: %w", err)
	}

	userO, err := that.api.CreateUser(ctx, nameO)
	if err != nil {
		return [2]*entity.User{}, fmt.Errorf("failed to create player O: %w", err)
	}

	return [2]*entity.User{userX, userO}, nil
}

// createGame opens the new session only once the server has created its game. Until then the previous
// session stays live and its in-flight responses still apply.
func (that *Controller) createGame(start uint64, users [2]*entity.User, result chan<- error) {
	log := that.logger.With("method", "createGame")
	st := that.state

	dispatch(that, that.newRequest(opCreateGame, false), result,
		func(ctx context.Context) (*entity.Game, error) {
			return that.api.CreateGame(ctx, users[0].ID, users[1].ID)
		},
		func(game *entity.Game, err error) {
			if that.superseded(start, opCreateGame, result) {
				return
			}

			if err != nil {
				log.Warn("could not create game", "error", err)
				st.Message = msgCouldNotStartGame
				result <- err
				return
			}

			epoch := st.beginSession()
			st.establishSession(users[0], users[1], game)
			log.Info("session started", "gameID", game.ID, "epoch", epoch)
			result <- nil
		})
}

func (that *Controller) handleMove(idx int, result chan<- error) {
	log := that.logger.With("method", "handleMove", "cell", idx)
	st := that.state

	if st.Game == nil {
		result <- apperror.ErrNoActiveGame
		return
	}

	if st.History.Mode() == history.Viewing {
		st.Message = msgHistoryReadOnly
		result <- apperror.ErrViewingHistory
		return
	}

	if err := st.CanAttemptMove(idx); err != nil {
		reason := tictactoe.Reason(err)
		that.observer.ObserveRejection(reason)
		log.Debug("move rejected locally", "reason", reason)

		switch {
		case errors.Is(err, apperror.ErrNotYourTurn):
			st.Message = msgWaitForTurn
		case errors.Is(err, apperror.ErrGameOver):
			st.Message = msgGameOver
		}

		result <- err
		return
	}

	gameID := st.Game.ID

	dispatch(that, that.newRequest(opMove, false), result,
		func(ctx context.Context) (*entity.Game, error) {
			return that.api.SubmitMove(ctx, gameID, idx)
		},
		func(game *entity.Game, err error) {
			if err != nil {
				log.Warn("move failed, resynchronising", "gameID", gameID, "error", err)
				st.Message = fmt.Sprintf(msgRequestFailed, opMove)
				that.handleSync(make(chan error, 1))
				result <- err
				return
			}

			if game.ID != gameID {
				log.Warn("discarding move response for another game", "got", game.ID)
				result <- apperror.ErrStaleResponse
				return
			}

			st.ApplyServerGame(game)
			st.Message = ""
			that.handleScoreboard(make(chan error, 1))
			result <- nil
		})
}

func (that *Controller) handleSync(result chan<- error) {
	st := that.state

	if st.Game == nil {
		result <- apperror.ErrNoActiveGame
		return
	}

	gameID := st.Game.ID

	dispatch(that, that.newRequest(opSync, false), result,
		func(ctx context.Context) (*entity.Game, error) {
			return that.api.FetchGame(ctx, gameID)
		},
		func(game *entity.Game, err error) {
			if err != nil {
				st.Message = fmt.Sprintf(msgRequestFailed, opSync)
				result <- err
				return
			}

			if game.ID != gameID {
				result <- apperror.ErrStaleResponse
				return
			}

			st.ApplyServerGame(game)
			result <- nil
		})
}

func (that *Controller) handleScoreboard(result chan<- error) {
	st := that.state
	req := that.newRequest(opScoreboard, true)

	dispatch(that, req, result,
		that.api.Scoreboard,
		func(rows []entity.ScoreRow, err error) {
			if err != nil {
				that.reportFailure(req)
				result <- err
				return
			}

			st.setScores(rows)
			result <- nil
		})
}

func (that *Controller) handleHistory(result chan<- error) {
	st := that.state
	req := that.newRequest(opHistory, true)

	dispatch(that, req, result,
		that.api.History,
		func(entries []entity.HistoryEntry, err error) {
			if err != nil {
				that.reportFailure(req)
				result <- err
				return
			}

			st.History.SetEntries(entries)
			result <- nil
		})
}

func (that *Controller) handleUsers(result chan<- error) {
	st := that.state
	req := that.newRequest(opUsers, true)

	dispatch(that, req, result,
		that.api.ListUsers,
		func(users []entity.User, err error) {
			if err != nil {
				that.reportFailure(req)
				result <- err
				return
			}

			st.Users = users
			result <- nil
		})
}

func (that *Controller) handleViewHistory(id entity.ID, result chan<- error) {
	log := that.logger.With("method", "handleViewHistory", "gameID", id)
	st := that.state

	if id == "" {
		result <- apperror.ErrEmptyGameID
		return
	}

	st.History.Select(id)

	req := that.newRequest(opSnapshot, true)

	dispatch(that, req, result,
		func(ctx context.Context) (*entity.Game, error) {
			return that.snapshots.Snapshot(ctx, id)
		},
		func(game *entity.Game, err error) {
			if err != nil {
				log.Warn("could not open history game", "error", err)
				if that.isCurrent(req) {
					st.History.Abandon(id)
				}
				that.reportFailure(req)
				result <- err
				return
			}

			if !st.History.Receive(game) {
				result <- apperror.ErrStaleResponse
				return
			}

			st.Message = fmt.Sprintf(msgViewingHistory, id)
			result <- nil
		})
}

func (that *Controller) handleReturnToLive(result chan<- error) {
	that.state.History.ReturnToLive()
	that.state.Message = ""
	result <- nil
}

func (that *Controller) poll(ctx context.Context) {
	ticker := time.NewTicker(that.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			posted := that.post(func() {
				if that.state.shouldPoll() {
					that.handleSync(make(chan error, 1))
				}
			})
			if !posted {
				return
			}
		}
	}
}

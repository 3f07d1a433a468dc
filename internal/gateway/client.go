package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

// Operation names used in errors, logs and metrics.
const (
	OpListUsers  = "list_users"
	OpCreateUser = "create_user"
	OpCreateGame = "create_game"
	OpFetchGame  = "fetch_game"
	OpSubmitMove = "submit_move"
	OpScoreboard = "scoreboard"
	OpHistory    = "history"
)

const (
	defaultTimeout  = 10 * time.Second
	headerRequestID = "X-Request-ID"
)

type observer interface {
	ObserveRequest(operation string, elapsed time.Duration, err error)
}

// Client is the only channel to the game server. Every failure comes back as *apperror.RequestFailedError.
// No call is retried.
type Client struct {
	logger   *slog.Logger
	baseURL  string
	http     *fasthttp.Client
	timeout  time.Duration
	observer observer
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithObserver(o observer) Option {
	return func(c *Client) { c.observer = o }
}

func New(logger *slog.Logger, baseURL string, opts ...Option) *Client {
	that := &Client{
		logger:  logger.With("component", "gateway"),
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			ReadTimeout:     defaultTimeout,
			WriteTimeout:    defaultTimeout,
			MaxConnsPerHost: 16,
			// ids are escaped into the path; normalizing would decode and resolve them again.
			DisablePathNormalizing: true,
		},
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(that)
	}

	return that
}

func (that *Client) ListUsers(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := that.doJSON(ctx, OpListUsers, fasthttp.MethodGet, "/users/", nil, &users); err != nil {
		return nil, err
	}

	return users, nil
}

func (that *Client) CreateUser(ctx context.Context, name string) (*entity.User, error) {
	req := createUserRequest{Name: name}

	var user entity.User
	if err := that.doJSON(ctx, OpCreateUser, fasthttp.MethodPost, "/users/", req, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (that *Client) CreateGame(ctx context.Context, playerX, playerO entity.ID) (*entity.Game, error) {
	req := createGameRequest{PlayerX: playerX, PlayerO: playerO}

	var game entity.Game
	if err := that.doJSON(ctx, OpCreateGame, fasthttp.MethodPost, "/games/", req, &game); err != nil {
		return nil, err
	}

	return &game, nil
}

func (that *Client) FetchGame(ctx context.Context, id entity.ID) (*entity.Game, error) {
	var game entity.Game
	if err := that.doJSON(ctx, OpFetchGame, fasthttp.MethodGet, gamePath(id), nil, &game); err != nil {
		return nil, err
	}

	return &game, nil
}

func (that *Client) SubmitMove(ctx context.Context, id entity.ID, cell int) (*entity.Game, error) {
	req := moveRequest{Move: cell}

	var game entity.Game
	if err := that.doJSON(ctx, OpSubmitMove, fasthttp.MethodPost, gamePath(id)+"move/", req, &game); err != nil {
		return nil, err
	}

	return &game, nil
}

func (that *Client) Scoreboard(ctx context.Context) ([]entity.ScoreRow, error) {
	var rows []entity.ScoreRow
	if err := that.doJSON(ctx, OpScoreboard, fasthttp.MethodGet, "/scoreboard/", nil, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// History returns an empty list when the server answers with anything other than a JSON array.
func (that *Client) History(ctx context.Context) ([]entity.HistoryEntry, error) {
	var raw json.RawMessage
	if err := that.doJSON(ctx, OpHistory, fasthttp.MethodGet, "/games/history/", nil, &raw); err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return []entity.HistoryEntry{}, nil
	}

	var entries []entity.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, apperror.RequestFailed(OpHistory, 0, fmt.Errorf("decode response: %w", err))
	}

	return entries, nil
}

func gamePath(id entity.ID) string {
	return "/games/" + url.PathEscape(string(id)) + "/"
}

func (that *Client) doJSON(ctx context.Context, operation, method, path string, in, out any) (err error) {
	requestID := uuid.NewString()
	log := that.logger.With("method", "doJSON", "operation", operation, "request_id", requestID)

	started := time.Now()
	defer func() {
		elapsed := time.Since(started)
		if that.observer != nil {
			that.observer.ObserveRequest(operation, elapsed, err)
		}

		if err != nil {
			log.Warn("request failed", "elapsed", elapsed, "error", err)
			return
		}
		log.Debug("request completed", "elapsed", elapsed)
	}()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(that.baseURL + path)
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	if in != nil {
		payload, marshalErr := json.Marshal(in)
		if marshalErr != nil {
			return apperror.RequestFailed(operation, 0, fmt.Errorf("marshal request: %w", marshalErr))
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	if doErr := that.http.DoDeadline(req, resp, that.deadline(ctx)); doErr != nil {
		return apperror.RequestFailed(operation, 0, doErr)
	}

	status := resp.StatusCode()
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		return apperror.RequestFailed(operation, status, nil)
	}

	if out != nil {
		if decodeErr := json.Unmarshal(resp.Body(), out); decodeErr != nil {
			return apperror.RequestFailed(operation, status, fmt.Errorf("decode response: %w", decodeErr))
		}
	}

	return nil
}

// deadline is the earlier of the context deadline and the client timeout.
func (that *Client) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(that.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		return dl
	}

	return deadline
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/session"
	"github.com/rocketscienceinc/tictactoe-client/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-client/internal/view"
)

const helpText = `Commands:
  start [X name] [O name]  start a new game; missing names are asked for
  move <0-8>               place your mark (cells are numbered row by row)
  sync                     re-fetch the live game
  scores                   refresh the scoreboard
  history                  refresh and show past games
  view <id>                show a past game
  live                     return to the live game
  users                    list registered users
  board                    redraw the screen
  help                     show this help
  quit                     leave
`

var errQuit = errors.New("quit")

type sessionController interface {
	StartSession(nameX, nameO string) <-chan error
	SubmitMove(idx int) <-chan error
	SyncLive() <-chan error
	RefreshScoreboard() <-chan error
	RefreshHistory() <-chan error
	ViewHistory(id entity.ID) <-chan error
	ReturnToLive() <-chan error
	LoadUsers() <-chan error
	View() (session.View, error)
}

// Server reads operator commands line by line and renders the session after each one.
type Server struct {
	logger  *slog.Logger
	session sessionController
	out     io.Writer

	// names collects player names for a start command given without them.
	names      []string
	collecting bool

	handlers map[string]func(ctx context.Context, args []string) error
}

func New(logger *slog.Logger, controller sessionController, out io.Writer) *Server {
	server := &Server{
		logger:  logger.With("component", "cli"),
		session: controller,
		out:     out,

		handlers: make(map[string]func(context.Context, []string) error),
	}

	server.handlers["start"] = server.handleStart
	server.handlers["move"] = server.handleMove
	server.handlers["sync"] = server.handleSync
	server.handlers["scores"] = server.handleScores
	server.handlers["history"] = server.handleHistory
	server.handlers["view"] = server.handleView
	server.handlers["live"] = server.handleLive
	server.handlers["users"] = server.handleUsers
	server.handlers["board"] = server.handleBoard
	server.handlers["help"] = server.handleHelp
	server.handlers["quit"] = server.handleQuit
	server.handlers["exit"] = server.handleQuit

	return server
}

// Start - processes commands from in until quit, end of input or ctx is done.
func (that *Server) Start(ctx context.Context, in io.Reader) error {
	log := that.logger.With("method", "Start")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	if err := that.handleBoard(ctx, nil); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("input loop stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}

			err := that.HandleLine(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				log.Error("error processing command", "line", line, "error", err)
			}
		}
	}
}

// HandleLine runs one operator line. It returns errQuit on quit and an error only when output fails.
func (that *Server) HandleLine(ctx context.Context, line string) error {
	fields := strings.Fields(line)

	if that.collecting {
		// A known command abandons the prompt and runs instead.
		if len(fields) == 0 || !that.isCommand(fields[0]) {
			return that.collectName(ctx, strings.TrimSpace(line))
		}

		that.collecting = false
		that.names = nil
	}

	if len(fields) == 0 {
		return nil
	}

	handler, ok := that.handlers[strings.ToLower(fields[0])]
	if !ok {
		return that.printf("Unknown command %q. Type help for the list.\n", fields[0])
	}

	return handler(ctx, fields[1:])
}

func (that *Server) isCommand(word string) bool {
	_, ok := that.handlers[strings.ToLower(word)]
	return ok
}

func (that *Server) handleStart(ctx context.Context, args []string) error {
	if len(args) >= 2 {
		return that.startSession(ctx, args[0], args[1])
	}

	that.collecting = true
	that.names = append(that.names[:0], args...)

	return that.promptName()
}

func (that *Server) collectName(ctx context.Context, name string) error {
	if name == "" {
		that.collecting = false
		that.names = nil
		return that.printf("Player names must not be empty.\n")
	}

	that.names = append(that.names, name)
	if len(that.names) < 2 {
		return that.promptName()
	}

	nameX, nameO := that.names[0], that.names[1]
	that.collecting = false
	that.names = nil

	return that.startSession(ctx, nameX, nameO)
}

func (that *Server) promptName() error {
	if len(that.names) == 0 {
		return that.printf("Player X name: ")
	}

	return that.printf("Player O name: ")
}

func (that *Server) startSession(ctx context.Context, nameX, nameO string) error {
	return that.run(ctx, that.session.StartSession(nameX, nameO))
}

func (that *Server) handleMove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return that.printf("Usage: move <0-8>\n")
	}

	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return that.printf("Cell must be a number from 0 to 8.\n")
	}

	return that.run(ctx, that.session.SubmitMove(idx))
}

func (that *Server) handleSync(ctx context.Context, _ []string) error {
	return that.run(ctx, that.session.SyncLive())
}

func (that *Server) handleScores(ctx context.Context, _ []string) error {
	return that.run(ctx, that.session.RefreshScoreboard())
}

func (that *Server) handleHistory(ctx context.Context, _ []string) error {
	return that.run(ctx, that.session.RefreshHistory())
}

func (that *Server) handleView(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return that.printf("Usage: view <id>\n")
	}

	return that.run(ctx, that.session.ViewHistory(entity.ID(strings.TrimPrefix(args[0], "#"))))
}

func (that *Server) handleLive(ctx context.Context, _ []string) error {
	return that.run(ctx, that.session.ReturnToLive())
}

func (that *Server) handleUsers(ctx context.Context, _ []string) error {
	if err := session.Await(ctx, that.session.LoadUsers()); err != nil {
		that.logger.Warn("could not load users", "error", err)
	}

	v, err := that.session.View()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	return view.RenderUsers(that.out, v.Users)
}

func (that *Server) handleBoard(_ context.Context, _ []string) error {
	v, err := that.session.View()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	return view.Render(that.out, v)
}

func (that *Server) handleHelp(_ context.Context, _ []string) error {
	return that.printf("%s", helpText)
}

func (that *Server) handleQuit(_ context.Context, _ []string) error {
	return errQuit
}

// run awaits a command, reports errors the view does not already explain and redraws.
func (that *Server) run(ctx context.Context, result <-chan error) error {
	log := that.logger.With("method", "run")

	cmdErr := session.Await(ctx, result)

	v, err := that.session.View()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if cmdErr != nil {
		log.Debug("command failed", "error", cmdErr)

		if v.Message == "" && !tictactoe.IsSilent(cmdErr) && !errors.Is(cmdErr, apperror.ErrStaleResponse) {
			if err = that.printf("%v\n", cmdErr); err != nil {
				return err
			}
		}
	}

	return view.Render(that.out, v)
}

func (that *Server) printf(format string, args ...any) error {
	if _, err := fmt.Fprintf(that.out, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

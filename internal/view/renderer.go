package view

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/session"
)

const (
	rowSeparator  = "---+---+---"
	missingName   = "--"
	finishedAtFmt = "2006-01-02 15:04"
)

// Render writes the board, status line, players, scoreboard, message and, when shown, the history list.
func Render(w io.Writer, v session.View) error {
	var b strings.Builder

	writeBoard(&b, v)
	b.WriteString(Status(v))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Players: X %s | O %s\n", nameOrDash(v.PlayerXName), nameOrDash(v.PlayerOName))
	fmt.Fprintf(&b, "Score:   X %d | O %d\n", v.Scores[entity.MarkX], v.Scores[entity.MarkO])

	if v.Message != "" {
		b.WriteString(v.Message)
		b.WriteByte('\n')
	}

	if v.ShowHistory {
		writeHistory(&b, v)
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("failed to write view: %w", err)
	}

	return nil
}

// Status is the one-line summary under the board.
func Status(v session.View) string {
	switch {
	case v.Loading:
		return "Loading..."
	case !v.HasGame:
		return "No game yet. Type: start <X name> <O name>"
	case v.Winner == entity.WinnerDraw:
		return "It's a Draw"
	case v.Winner != entity.NoWinner:
		return "Winner: " + string(v.Winner)
	default:
		return strings.TrimSpace(fmt.Sprintf("Next move: %s %s", v.ActiveMark, v.NextPlayer))
	}
}

// Cell renders one square. Winning cells are bracketed and empty cells show their index.
func Cell(v session.View, idx int) string {
	mark := v.Board[idx]

	switch {
	case v.Highlight[idx]:
		return "[" + string(mark) + "]"
	case mark == entity.EmptyCell:
		return " " + strconv.Itoa(idx) + " "
	default:
		return " " + string(mark) + " "
	}
}

func writeBoard(b *strings.Builder, v session.View) {
	for row := range 3 {
		if row > 0 {
			b.WriteString(rowSeparator)
			b.WriteByte('\n')
		}

		cells := make([]string, 3)
		for col := range 3 {
			cells[col] = Cell(v, row*3+col)
		}

		b.WriteString(strings.Join(cells, "|"))
		b.WriteByte('\n')
	}
}

func writeHistory(b *strings.Builder, v session.View) {
	b.WriteString("History:\n")

	if len(v.History) == 0 {
		b.WriteString("  No past games yet.\n")
		return
	}

	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	for _, entry := range v.History {
		marker := " "
		if v.ViewingID != "" && entry.ID == v.ViewingID {
			marker = ">"
		}

		finished := ""
		if entry.FinishedAt != nil {
			finished = entry.FinishedAt.Format(finishedAtFmt)
		}

		fmt.Fprintf(tw, "%s #%s\t%s\t%s vs %s\t%s\n",
			marker, entry.ID, entry.Label(), nameOrDash(entry.PlayerXName), nameOrDash(entry.PlayerOName), finished)
	}
	_ = tw.Flush()
}

// RenderUsers lists the registered users.
func RenderUsers(w io.Writer, users []entity.User) error {
	if len(users) == 0 {
		_, err := io.WriteString(w, "No users yet.\n")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, user := range users {
		fmt.Fprintf(tw, "#%s\t%s\n", user.ID, user.Name)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write users: %w", err)
	}

	return nil
}

func nameOrDash(name string) string {
	if name == "" {
		return missingName
	}

	return name
}

package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var finishedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// HistoryEntry is an immutable summary of a past game. Its board is fetched only when opened.
type HistoryEntry struct {
	ID          ID
	Winner      Winner
	PlayerXName string
	PlayerOName string
	FinishedAt  *time.Time
}

type historyEntryJSON struct {
	ID         ID      `json:"id"`
	Winner     Winner  `json:"winner"`
	PlayerX    string  `json:"player_x"`
	PlayerO    string  `json:"player_o"`
	FinishedAt *string `json:"finished_at"`
}

func (that *HistoryEntry) UnmarshalJSON(data []byte) error {
	var raw historyEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal history entry: %w", err)
	}

	*that = HistoryEntry{
		ID:          raw.ID,
		Winner:      raw.Winner,
		PlayerXName: raw.PlayerX,
		PlayerOName: raw.PlayerO,
		FinishedAt:  parseFinishedAt(raw.FinishedAt),
	}

	return nil
}

// parseFinishedAt drops timestamps it cannot read; the field is informational only.
func parseFinishedAt(value *string) *time.Time {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}

	for _, layout := range finishedAtLayouts {
		if ts, err := time.Parse(layout, *value); err == nil {
			return &ts
		}
	}

	return nil
}

// Label is the short result shown in the history list.
func (that HistoryEntry) Label() string {
	switch that.Winner {
	case WinnerDraw:
		return "Draw"
	case NoWinner:
		return "In Progress"
	default:
		return string(that.Winner) + " won"
	}
}

package history

import (
	"slices"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

type Mode int

const (
	Live Mode = iota
	Viewing
)

func (that Mode) String() string {
	if that == Viewing {
		return "viewing"
	}

	return "live"
}

// Browser switches the displayed game between the live session and read-only snapshots of past games.
// It never holds the live game; snapshots are private copies.
type Browser struct {
	mode     Mode
	selected entity.ID
	pending  entity.ID
	snapshot *entity.Game
	entries  []entity.HistoryEntry
	visible  bool
}

func NewBrowser() *Browser {
	return &Browser{}
}

func (that *Browser) Mode() Mode {
	return that.mode
}

// Selected is the entry currently displayed in Viewing mode.
func (that *Browser) Selected() (entity.ID, bool) {
	return that.selected, that.mode == Viewing
}

// Pending is the entry whose snapshot is being fetched.
func (that *Browser) Pending() (entity.ID, bool) {
	return that.pending, that.pending != ""
}

// Select starts opening id. The displayed game changes only once its snapshot arrives.
func (that *Browser) Select(id entity.ID) {
	that.pending = id
}

// Receive installs a fetched snapshot. Snapshots for anything but the pending entry are dropped.
func (that *Browser) Receive(game *entity.Game) bool {
	if game == nil || that.pending == "" || game.ID != that.pending {
		return false
	}

	that.mode = Viewing
	that.selected = that.pending
	that.pending = ""
	that.snapshot = game.Clone()

	return true
}

// Abandon forgets a pending selection whose fetch failed, leaving the displayed game as it was.
func (that *Browser) Abandon(id entity.ID) {
	if that.pending == id {
		that.pending = ""
	}
}

// Snapshot returns a copy of the displayed history game, or nil in Live mode.
func (that *Browser) Snapshot() *entity.Game {
	if that.mode != Viewing {
		return nil
	}

	return that.snapshot.Clone()
}

// SetEntries replaces the list. The current selection survives a refresh.
func (that *Browser) SetEntries(entries []entity.HistoryEntry) {
	that.entries = slices.Clone(entries)
	that.visible = true
}

func (that *Browser) Entries() []entity.HistoryEntry {
	return slices.Clone(that.entries)
}

func (that *Browser) Entry(id entity.ID) (entity.HistoryEntry, bool) {
	for _, entry := range that.entries {
		if entry.ID == id {
			return entry, true
		}
	}

	return entity.HistoryEntry{}, false
}

func (that *Browser) Visible() bool {
	return that.visible
}

// ReturnToLive shows the live session again. The list is kept.
func (that *Browser) ReturnToLive() {
	that.mode = Live
	that.selected = ""
	that.pending = ""
	that.snapshot = nil
}

// Reset is applied when a new session starts: back to Live with the panel hidden.
func (that *Browser) Reset() {
	that.ReturnToLive()
	that.visible = false
}

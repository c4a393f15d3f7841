package service

import (
	"time"

	"github.com/wricardo/mcp-training/battleship/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string     `json:"id"`
	LayoutID       string     `json:"layout_id"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	Board          *BoardView `json:"board"`
}

// BoardView is the player's view of a board. Ship positions are only
// revealed once the game is complete.
type BoardView struct {
	Rows     []string   `json:"rows"`
	Progress float64    `json:"progress"`
	Complete bool       `json:"complete"`
	State    string     `json:"state"`
	Shots    int        `json:"shots"`
	Hits     int        `json:"hits"`
	Ships    []ShipView `json:"ships,omitempty"`
	Grid     []string   `json:"grid,omitempty"`
}

// ShipView describes one ship of a revealed fleet.
type ShipView struct {
	Type  string            `json:"type"`
	Name  string            `json:"name"`
	Size  int               `json:"size"`
	Cells []engine.Position `json:"cells"`
}

// FireResult contains the result of a single shot
type FireResult struct {
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Hit      bool       `json:"hit"`
	Result   string     `json:"result"` // hit|miss|game_complete
	Complete bool       `json:"complete"`
	Score    int        `json:"score,omitempty"`
	Message  string     `json:"message"`
	Board    *BoardView `json:"board"`
}

// SalvoResult contains the result of several shots fired in order
type SalvoResult struct {
	Requested    int          `json:"requested"`
	Fired        int          `json:"fired"`
	Hits         int          `json:"hits"`
	Shots        []ShotRecord `json:"shots"`
	Complete     bool         `json:"complete"`
	Score        int          `json:"score,omitempty"`
	StoppedEarly bool         `json:"stopped_early,omitempty"`
	Message      string       `json:"message"`
	Board        *BoardView   `json:"board"`
}

// ShotRecord is one entry of a session's shot history
type ShotRecord struct {
	Seq       int       `json:"seq"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Hit       bool      `json:"hit"`
	Result    string    `json:"result"`
	Progress  float64   `json:"progress"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryOptions configures shot history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated shot history
type HistoryResponse struct {
	Shots       []ShotRecord `json:"shots"`
	TotalShots  int          `json:"total_shots"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
	TotalPages  int          `json:"total_pages"`
	HasNext     bool         `json:"has_next"`
	HasPrevious bool         `json:"has_previous"`
}

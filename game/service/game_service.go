package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/battleship/game/engine"
	"github.com/wricardo/mcp-training/battleship/game/layout"
	"github.com/wricardo/mcp-training/battleship/game/protocol"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, layoutName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Fire(ctx context.Context, sessionID string, x, y int) (*FireResult, error)
	Salvo(ctx context.Context, sessionID string, targets []engine.Position) (*SalvoResult, error)
	Restart(ctx context.Context, sessionID string) (*BoardView, error)

	// Game State
	GetBoard(ctx context.Context, sessionID string) (*BoardView, error)
	GetShotHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Layouts
	ListLayouts(ctx context.Context) ([]*layout.Info, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, layoutID string, game *protocol.Session) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// LayoutManager loads fleet layouts
type LayoutManager interface {
	Load(name string) (*layout.Layout, error)
	List() ([]*layout.Info, error)
}

// Session represents an active game session
type Session struct {
	ID             string
	LayoutID       string
	Game           *protocol.Session
	History        []ShotRecord
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Board returns the session's current board.
func (s *Session) Board() *engine.Board {
	return s.Game.Board()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/battleship/game/engine"
	"github.com/wricardo/mcp-training/battleship/game/layout"
	"github.com/wricardo/mcp-training/battleship/game/protocol"
)

// MaxSalvoSize bounds the number of targets in one Salvo call.
const MaxSalvoSize = engine.GridRows * engine.GridCols

var (
	ErrLayoutUnavailable = errors.New("layout unavailable")
	ErrSetupFailed       = errors.New("could not set up board")
	ErrEmptySalvo        = errors.New("salvo has no targets")
	ErrSalvoTooLarge     = errors.New("salvo has too many targets")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	layouts  LayoutManager
	newBoard protocol.BoardFactory
	mu       sync.RWMutex
}

// Option customises the game service.
type Option func(*gameServiceImpl)

// WithBoardFactory overrides how boards are created for new games.
func WithBoardFactory(f protocol.BoardFactory) Option {
	return func(s *gameServiceImpl) {
		s.newBoard = f
	}
}

// WithSeed makes auto placement reproducible. Each new board draws from its
// own RNG seeded with seed, seed+1, ...; zero keeps time-based seeding.
func WithSeed(seed uint64) Option {
	return func(s *gameServiceImpl) {
		if seed == 0 {
			return
		}
		var mu sync.Mutex
		next := seed
		s.newBoard = func() *engine.Board {
			mu.Lock()
			defer mu.Unlock()
			b := engine.NewBoard(engine.WithRand(engine.NewRand(next)))
			next++
			return b
		}
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, layouts LayoutManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		layouts:  layouts,
		newBoard: func() *engine.Board { return engine.NewBoard() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session and starts its first game
func (s *gameServiceImpl) CreateSession(ctx context.Context, layoutName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layouts.Load(layoutName)
	if err != nil {
		if errors.Is(err, layout.ErrLayoutNotFound) {
			var ids []string
			if infos, listErr := s.layouts.List(); listErr == nil {
				for _, info := range infos {
					ids = append(ids, info.LayoutID)
				}
			}
			return nil, fmt.Errorf("%w: layout '%s' not found. Available layouts: %v", ErrLayoutUnavailable, layoutName, ids)
		}
		return nil, fmt.Errorf("%w: failed to load layout %s: %v", ErrLayoutUnavailable, layoutName, err)
	}

	cfg, err := l.BoardConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLayoutUnavailable, err)
	}

	game := protocol.NewSession(protocol.WithBoardFactory(s.newBoard), protocol.WithBoardConfig(cfg))
	if res := game.Handle(protocol.StartGame()); res.Kind != protocol.ResultStarted {
		return nil, fmt.Errorf("%w: %v", ErrSetupFailed, res.Err)
	}

	layoutID := layoutName
	if layoutID == "" {
		layoutID = layout.AutoID
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", layoutID, game)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().Str("session", sess.ID).Str("layout", layoutID).Msg("session created")
	return sessionInfo(sess), nil
}

// GetSession retrieves session information. It touches the access time, so
// it takes the write lock.
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Fire shoots at one cell. Coordinates outside the grid are a miss.
func (s *gameServiceImpl) Fire(ctx context.Context, sessionID string, x, y int) (*FireResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	res, rec := s.fire(sess, x, y)
	board := newBoardView(sess.Board())

	log.Debug().
		Str("session", sess.ID).
		Int("x", x).Int("y", y).
		Str("result", rec.Result).
		Float64("progress", board.Progress).
		Msg("shot")

	return &FireResult{
		X:        x,
		Y:        y,
		Hit:      res.Hit,
		Result:   rec.Result,
		Complete: board.Complete,
		Score:    res.Score,
		Message:  res.Message(),
		Board:    board,
	}, nil
}

// Salvo fires at each target in order and stops once the fleet is sunk.
func (s *gameServiceImpl) Salvo(ctx context.Context, sessionID string, targets []engine.Position) (*SalvoResult, error) {
	if len(targets) == 0 {
		return nil, ErrEmptySalvo
	}
	if len(targets) > MaxSalvoSize {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrSalvoTooLarge, len(targets), MaxSalvoSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &SalvoResult{
		Requested: len(targets),
		Shots:     make([]ShotRecord, 0, len(targets)),
	}

	var last protocol.Result
	for _, p := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, rec := s.fire(sess, p.X, p.Y)
		last = res
		result.Fired++
		if res.Hit {
			result.Hits++
		}
		result.Shots = append(result.Shots, rec)
		if res.Kind == protocol.ResultGameComplete {
			break
		}
	}

	result.Board = newBoardView(sess.Board())
	result.Complete = result.Board.Complete
	result.Score = last.Score
	result.StoppedEarly = result.Fired < result.Requested
	result.Message = last.Message()
	if !result.Complete {
		result.Message = fmt.Sprintf("%d of %d shots hit. Progress: %.0f%%", result.Hits, result.Fired, result.Board.Progress)
	}

	log.Debug().
		Str("session", sess.ID).
		Int("fired", result.Fired).
		Int("hits", result.Hits).
		Bool("complete", result.Complete).
		Msg("salvo")

	return result, nil
}

// Restart starts a new game in the session with the same layout
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*BoardView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	if res := sess.Game.Handle(protocol.StartGame()); res.Kind != protocol.ResultStarted {
		return nil, fmt.Errorf("%w: %v", ErrSetupFailed, res.Err)
	}
	sess.History = nil

	log.Info().Str("session", sess.ID).Msg("game restarted")
	return newBoardView(sess.Board()), nil
}

// GetBoard returns the player's view of the current board
func (s *gameServiceImpl) GetBoard(ctx context.Context, sessionID string) (*BoardView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return newBoardView(sess.Board()), nil
}

// GetShotHistory retrieves paginated shot history for a session
func (s *gameServiceImpl) GetShotHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.History
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	shots := []ShotRecord{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				shots = append(shots, history[i])
			}
		} else {
			shots = append(shots, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Shots:       shots,
		TotalShots:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListLayouts returns the available fleet layouts
func (s *gameServiceImpl) ListLayouts(ctx context.Context) ([]*layout.Info, error) {
	return s.layouts.List()
}

// fire applies one shot through the protocol adapter and records it.
func (s *gameServiceImpl) fire(sess *Session, x, y int) (protocol.Result, ShotRecord) {
	res := sess.Game.Handle(protocol.Cell(x, y))
	rec := ShotRecord{
		Seq:       len(sess.History) + 1,
		X:         x,
		Y:         y,
		Hit:       res.Hit,
		Result:    res.Kind.String(),
		Progress:  sess.Board().Progress(),
		Timestamp: time.Now(),
	}
	sess.History = append(sess.History, rec)
	return res, rec
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		LayoutID:       sess.LayoutID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Board:          newBoardView(sess.Board()),
	}
}

// newBoardView builds the player's view of b. A nil board yields an empty view.
func newBoardView(b *engine.Board) *BoardView {
	if b == nil {
		return &BoardView{State: engine.StateEmpty.String()}
	}

	hits := 0
	for _, p := range b.OccupiedPositions() {
		if c, ok := b.Cell(p); ok && c.HitCount > 0 {
			hits++
		}
	}

	view := &BoardView{
		Rows:     b.TargetRows(),
		Progress: b.Progress(),
		Complete: b.IsComplete(),
		State:    b.State().String(),
		Shots:    b.Shots(),
		Hits:     hits,
	}
	if view.Complete {
		view.Grid = b.Rows()
		for _, ship := range b.Ships() {
			view.Ships = append(view.Ships, ShipView{
				Type:  string(ship.Type),
				Name:  ship.Type.Name(),
				Size:  ship.Type.Size(),
				Cells: ship.Cells,
			})
		}
	}
	return view
}

package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/battleship/game/engine"
	"github.com/wricardo/mcp-training/battleship/game/layout"
	"github.com/wricardo/mcp-training/battleship/game/protocol"
	"github.com/wricardo/mcp-training/battleship/game/service"
	"github.com/wricardo/mcp-training/battleship/game/session"
)

var errMockNotFound = errors.New("session not found")

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, layoutID string, game *protocol.Session) (*service.Session, error) {
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	session := &service.Session{
		ID:             id,
		LayoutID:       layoutID,
		Game:           game,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errMockNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errMockNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	session, exists := m.sessions[id]
	if !exists {
		return errMockNotFound
	}
	session.LastAccessedAt = time.Now()
	return nil
}

// MockLayoutManager implements service.LayoutManager for testing
type MockLayoutManager struct {
	layouts map[string]*layout.Layout
}

func NewMockLayoutManager() *MockLayoutManager {
	return &MockLayoutManager{
		layouts: map[string]*layout.Layout{
			"patrol": {
				Name: "Patrol",
				Ships: []layout.ShipPlacement{
					{Ship: "A2", X: 1, Y: 1, Direction: "right"},
				},
			},
			"broken": {
				Name: "Broken",
				Ships: []layout.ShipPlacement{
					{Ship: "C5", X: 7, Y: 1, Direction: "right"},
				},
			},
		},
	}
}

func (m *MockLayoutManager) Load(name string) (*layout.Layout, error) {
	if name == "" || name == layout.AutoID {
		return layout.Auto(), nil
	}
	l, ok := m.layouts[name]
	if !ok {
		return nil, layout.ErrLayoutNotFound
	}
	return l, nil
}

func (m *MockLayoutManager) List() ([]*layout.Info, error) {
	return []*layout.Info{
		{LayoutID: layout.AutoID, Name: layout.AutoID, Auto: true},
		{LayoutID: "patrol", Name: "Patrol", Ships: 1},
	}, nil
}

func newTestService(t *testing.T) (service.GameService, *MockSessionManager) {
	t.Helper()
	sessions := NewMockSessionManager()
	return service.NewGameService(sessions, NewMockLayoutManager(), service.WithSeed(11)), sessions
}

func TestGameService_CreateSession(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	t.Run("auto layout", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.LayoutID != layout.AutoID {
			t.Errorf("Expected layout auto, got %s", info.LayoutID)
		}
		if info.Board == nil || info.Board.State != "populated" {
			t.Fatalf("Expected populated board, got %+v", info.Board)
		}
		for _, row := range info.Board.Rows {
			if row != "........." {
				t.Errorf("Expected hidden row, got %q", row)
			}
		}
		sess, _ := sessions.Get(info.ID)
		if n := len(sess.Board().OccupiedPositions()); n != engine.FleetSize() {
			t.Errorf("Expected %d occupied cells, got %d", engine.FleetSize(), n)
		}
	})

	t.Run("named layout", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "patrol")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.LayoutID != "patrol" {
			t.Errorf("Expected layout patrol, got %s", info.LayoutID)
		}
	})

	t.Run("unknown layout", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, "nonexistent")
		if !errors.Is(err, service.ErrLayoutUnavailable) {
			t.Fatalf("Expected ErrLayoutUnavailable, got %v", err)
		}
		if !strings.Contains(err.Error(), "patrol") {
			t.Errorf("Expected available layouts in error, got %v", err)
		}
	})

	t.Run("layout that cannot be placed", func(t *testing.T) {
		before := len(sessions.List())
		_, err := svc.CreateSession(ctx, "broken")
		if !errors.Is(err, service.ErrSetupFailed) {
			t.Errorf("Expected ErrSetupFailed, got %v", err)
		}
		if len(sessions.List()) != before {
			t.Error("Expected no session to be registered after a failed setup")
		}
	})
}

func TestGameService_Fire(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	info, _ := svc.CreateSession(ctx, "patrol")

	miss, err := svc.Fire(ctx, info.ID, 5, 5)
	if err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	if miss.Hit || miss.Result != "miss" || miss.Message != "MISS" {
		t.Errorf("Expected miss, got %+v", miss)
	}
	if miss.Board.Rows[4] != "....o...." {
		t.Errorf("Expected miss marker, got %q", miss.Board.Rows[4])
	}

	hit, _ := svc.Fire(ctx, info.ID, 1, 1)
	if !hit.Hit || hit.Result != "hit" || hit.Board.Progress != 50 {
		t.Errorf("Expected hit at 50%%, got %+v", hit)
	}
	if hit.Board.Ships != nil {
		t.Error("Expected ships hidden before completion")
	}

	repeat, _ := svc.Fire(ctx, info.ID, 1, 1)
	if repeat.Hit {
		t.Error("Expected repeat shot to miss")
	}

	outside, _ := svc.Fire(ctx, info.ID, 0, 10)
	if outside.Hit || outside.Complete {
		t.Errorf("Expected out-of-grid shot to miss, got %+v", outside)
	}

	done, _ := svc.Fire(ctx, info.ID, 2, 1)
	if !done.Complete || done.Result != "game_complete" {
		t.Fatalf("Expected game complete, got %+v", done)
	}
	if done.Score != 4 {
		t.Errorf("Expected score 4, got %d", done.Score)
	}
	if len(done.Board.Ships) != 1 || done.Board.Ships[0].Name != "Armidale" {
		t.Errorf("Expected revealed fleet, got %+v", done.Board.Ships)
	}
	if done.Board.Grid[0] != "XX0000000" {
		t.Errorf("Expected revealed grid, got %q", done.Board.Grid[0])
	}

	if _, err := svc.Fire(ctx, "missing", 1, 1); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestGameService_Salvo(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	info, _ := svc.CreateSession(ctx, "patrol")

	targets := []engine.Position{
		engine.NewPosition(9, 9),
		engine.NewPosition(1, 1),
		engine.NewPosition(2, 1),
		engine.NewPosition(3, 1),
	}
	res, err := svc.Salvo(ctx, info.ID, targets)
	if err != nil {
		t.Fatalf("Salvo failed: %v", err)
	}
	if res.Fired != 3 || !res.StoppedEarly {
		t.Errorf("Expected salvo to stop after 3 shots, got fired=%d stopped=%v", res.Fired, res.StoppedEarly)
	}
	if res.Hits != 2 || !res.Complete || res.Score != 3 {
		t.Errorf("Unexpected salvo result %+v", res)
	}

	if _, err := svc.Salvo(ctx, info.ID, nil); !errors.Is(err, service.ErrEmptySalvo) {
		t.Errorf("Expected ErrEmptySalvo, got %v", err)
	}
	big := make([]engine.Position, service.MaxSalvoSize+1)
	if _, err := svc.Salvo(ctx, info.ID, big); !errors.Is(err, service.ErrSalvoTooLarge) {
		t.Errorf("Expected ErrSalvoTooLarge, got %v", err)
	}
}

func TestGameService_Restart(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	info, _ := svc.CreateSession(ctx, "patrol")

	svc.Fire(ctx, info.ID, 1, 1)
	board, err := svc.Restart(ctx, info.ID)
	if err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if board.Shots != 0 || board.Progress != 0 {
		t.Errorf("Expected fresh board, got %+v", board)
	}

	history, _ := svc.GetShotHistory(ctx, info.ID, service.HistoryOptions{})
	if history.TotalShots != 0 {
		t.Errorf("Expected history cleared, got %d", history.TotalShots)
	}
}

func TestGameService_GetShotHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	info, _ := svc.CreateSession(ctx, "")

	for x := 1; x <= 5; x++ {
		svc.Fire(ctx, info.ID, x, 9)
	}

	t.Run("defaults to newest first", func(t *testing.T) {
		h, err := svc.GetShotHistory(ctx, info.ID, service.HistoryOptions{})
		if err != nil {
			t.Fatalf("GetShotHistory failed: %v", err)
		}
		if h.TotalShots != 5 || len(h.Shots) != 5 {
			t.Fatalf("Expected 5 shots, got %d/%d", h.TotalShots, len(h.Shots))
		}
		if h.Shots[0].Seq != 5 || h.Shots[0].X != 5 {
			t.Errorf("Expected newest shot first, got %+v", h.Shots[0])
		}
	})

	t.Run("ascending pages", func(t *testing.T) {
		h, _ := svc.GetShotHistory(ctx, info.ID, service.HistoryOptions{Page: 2, Limit: 2, Order: "asc"})
		if len(h.Shots) != 2 || h.Shots[0].Seq != 3 {
			t.Errorf("Expected shots 3-4, got %+v", h.Shots)
		}
		if h.TotalPages != 3 || !h.HasNext || !h.HasPrevious {
			t.Errorf("Unexpected pagination %+v", h)
		}
	})

	t.Run("descending last page", func(t *testing.T) {
		h, _ := svc.GetShotHistory(ctx, info.ID, service.HistoryOptions{Page: 3, Limit: 2})
		if len(h.Shots) != 1 || h.Shots[0].Seq != 1 {
			t.Errorf("Expected only the first shot, got %+v", h.Shots)
		}
		if h.HasNext {
			t.Error("Expected no next page")
		}
	})

	t.Run("past the end", func(t *testing.T) {
		h, _ := svc.GetShotHistory(ctx, info.ID, service.HistoryOptions{Page: 10, Limit: 2})
		if len(h.Shots) != 0 {
			t.Errorf("Expected empty page, got %d shots", len(h.Shots))
		}
	})
}

func TestGameService_SessionsAndLayouts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.CreateSession(ctx, "")
	svc.CreateSession(ctx, "patrol")

	list, err := svc.ListSessions(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("Expected 2 sessions, got %d (%v)", len(list), err)
	}

	got, err := svc.GetSession(ctx, a.ID)
	if err != nil || got.ID != a.ID {
		t.Errorf("Expected session %s, got %+v (%v)", a.ID, got, err)
	}

	if err := svc.DeleteSession(ctx, a.ID); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, a.ID); err == nil {
		t.Error("Expected deleted session to be gone")
	}
	if _, err := svc.GetBoard(ctx, a.ID); err == nil {
		t.Error("Expected board lookup to fail for deleted session")
	}

	layouts, err := svc.ListLayouts(ctx)
	if err != nil || len(layouts) != 2 {
		t.Errorf("Expected 2 layouts, got %d (%v)", len(layouts), err)
	}
}

func TestGameService_SeedIsReproducible(t *testing.T) {
	ctx := context.Background()
	occupied := func() []engine.Position {
		sessions := NewMockSessionManager()
		svc := service.NewGameService(sessions, NewMockLayoutManager(), service.WithSeed(99))
		info, err := svc.CreateSession(ctx, "")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		sess, _ := sessions.Get(info.ID)
		return sess.Board().OccupiedPositions()
	}

	a, b := occupied(), occupied()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Expected identical fleets with the same seed, differ at %d", i)
		}
	}
}

func TestGameService_ConcurrentReads(t *testing.T) {
	sessions := session.NewManager()
	svc := service.NewGameService(sessions, NewMockLayoutManager(), service.WithSeed(5))
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "patrol")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	const workers, calls = 8, 100
	var wg sync.WaitGroup
	errs := make(chan error, workers*calls)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				got, err := svc.GetSession(ctx, info.ID)
				if err != nil {
					errs <- err
					return
				}
				if got.LastAccessedAt.IsZero() {
					errs <- fmt.Errorf("zero access time")
					return
				}
				switch j % 4 {
				case 1:
					_, err = svc.GetBoard(ctx, info.ID)
				case 2:
					_, err = svc.ListSessions(ctx)
				case 3:
					sessions.CleanupExpiredSessions(time.Hour)
				}
				if err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent read failed: %v", err)
	}
	if sessions.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", sessions.Count())
	}
}

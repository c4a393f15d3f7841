package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/battleship/game/engine"
	"github.com/wricardo/mcp-training/battleship/game/layout"
	"github.com/wricardo/mcp-training/battleship/game/service"
	"github.com/wricardo/mcp-training/battleship/game/session"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateSessionFunc  func(ctx context.Context, layoutName string) (*service.SessionInfo, error)
	GetSessionFunc     func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc   func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc  func(ctx context.Context, sessionID string) error
	FireFunc           func(ctx context.Context, sessionID string, x, y int) (*service.FireResult, error)
	SalvoFunc          func(ctx context.Context, sessionID string, targets []engine.Position) (*service.SalvoResult, error)
	RestartFunc        func(ctx context.Context, sessionID string) (*service.BoardView, error)
	GetBoardFunc       func(ctx context.Context, sessionID string) (*service.BoardView, error)
	GetShotHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	ListLayoutsFunc    func(ctx context.Context) ([]*layout.Info, error)
}

func (m *MockGameService) CreateSession(ctx context.Context, layoutName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, layoutName)
	}
	return &service.SessionInfo{ID: "test-session", LayoutID: layoutName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, LayoutID: "auto", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Fire(ctx context.Context, sessionID string, x, y int) (*service.FireResult, error) {
	if m.FireFunc != nil {
		return m.FireFunc(ctx, sessionID, x, y)
	}
	return &service.FireResult{X: x, Y: y, Result: "miss", Message: "MISS", Board: &service.BoardView{}}, nil
}

func (m *MockGameService) Salvo(ctx context.Context, sessionID string, targets []engine.Position) (*service.SalvoResult, error) {
	if m.SalvoFunc != nil {
		return m.SalvoFunc(ctx, sessionID, targets)
	}
	return &service.SalvoResult{Requested: len(targets), Fired: len(targets), Board: &service.BoardView{}}, nil
}

func (m *MockGameService) Restart(ctx context.Context, sessionID string) (*service.BoardView, error) {
	if m.RestartFunc != nil {
		return m.RestartFunc(ctx, sessionID)
	}
	return &service.BoardView{State: "populated"}, nil
}

func (m *MockGameService) GetBoard(ctx context.Context, sessionID string) (*service.BoardView, error) {
	if m.GetBoardFunc != nil {
		return m.GetBoardFunc(ctx, sessionID)
	}
	return &service.BoardView{State: "populated"}, nil
}

func (m *MockGameService) GetShotHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetShotHistoryFunc != nil {
		return m.GetShotHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{Shots: []service.ShotRecord{}, Page: opts.Page, PageSize: opts.Limit}, nil
}

func (m *MockGameService) ListLayouts(ctx context.Context) ([]*layout.Info, error) {
	if m.ListLayoutsFunc != nil {
		return m.ListLayoutsFunc(ctx)
	}
	return []*layout.Info{{LayoutID: "auto", Auto: true}}, nil
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v (body %q)", err, rr.Body.String())
	}
}

func TestHandleCreateSession(t *testing.T) {
	var gotLayout string
	mock := &MockGameService{
		CreateSessionFunc: func(ctx context.Context, layoutName string) (*service.SessionInfo, error) {
			gotLayout = layoutName
			if layoutName == "missing" {
				return nil, fmt.Errorf("%w: layout 'missing' not found", service.ErrLayoutUnavailable)
			}
			return &service.SessionInfo{ID: "ab12", LayoutID: layoutName}, nil
		},
	}
	srv := NewServer(mock, nil)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantLayout string
	}{
		{"layout_id", map[string]string{"layout_id": "classic"}, http.StatusCreated, "classic"},
		{"layout alias", map[string]string{"layout": "corners"}, http.StatusCreated, "corners"},
		{"empty body", nil, http.StatusCreated, ""},
		{"unknown layout", map[string]string{"layout_id": "missing"}, http.StatusBadRequest, "missing"},
		{"bad json", "{not json", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLayout = ""
			rr := doRequest(t, srv, "POST", "/api/sessions", tt.body)
			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d (%s)", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if gotLayout != tt.wantLayout {
				t.Errorf("Expected layout %q, got %q", tt.wantLayout, gotLayout)
			}
		})
	}
}

func TestHandleListSessions(t *testing.T) {
	now := time.Now()
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now},
				{ID: "mid", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now, LastAccessedAt: now.Add(-2 * time.Hour)},
			}, nil
		},
	}
	srv := NewServer(mock, nil)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"old", "mid", "new"}},
		{"?sort=created", []string{"new", "mid", "old"}},
		{"?sort=created&order=asc", []string{"old", "mid", "new"}},
		{"?sort=created&limit=1", []string{"new"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := doRequest(t, srv, "GET", "/api/sessions"+tt.query, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", rr.Code)
			}
			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			decode(t, rr, &resp)
			if resp.Total != 3 || resp.Count != len(tt.want) {
				t.Errorf("Expected count %d of 3, got %d of %d", len(tt.want), resp.Count, resp.Total)
			}
			for i, id := range tt.want {
				if resp.Sessions[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, resp.Sessions[i].ID)
				}
			}
		})
	}
}

func TestHandleSessionNotFound(t *testing.T) {
	notFound := fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
	mock := &MockGameService{
		GetSessionFunc:    func(ctx context.Context, id string) (*service.SessionInfo, error) { return nil, notFound },
		DeleteSessionFunc: func(ctx context.Context, id string) error { return session.ErrSessionNotFound },
		GetBoardFunc:      func(ctx context.Context, id string) (*service.BoardView, error) { return nil, notFound },
		FireFunc: func(ctx context.Context, id string, x, y int) (*service.FireResult, error) {
			return nil, notFound
		},
		RestartFunc: func(ctx context.Context, id string) (*service.BoardView, error) { return nil, notFound },
		GetShotHistoryFunc: func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			return nil, notFound
		},
	}
	srv := NewServer(mock, nil)

	requests := []struct {
		method, path string
		body         interface{}
	}{
		{"GET", "/api/sessions/zzzz", nil},
		{"DELETE", "/api/sessions/zzzz", nil},
		{"GET", "/api/sessions/zzzz/board", nil},
		{"POST", "/api/sessions/zzzz/fire", map[string]int{"x": 1, "y": 1}},
		{"POST", "/api/sessions/zzzz/restart", nil},
		{"GET", "/api/sessions/zzzz/history", nil},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rr := doRequest(t, srv, r.method, r.path, r.body)
			if rr.Code != http.StatusNotFound {
				t.Errorf("Expected 404, got %d", rr.Code)
			}
			var resp map[string]string
			decode(t, rr, &resp)
			if resp["error"] == "" {
				t.Error("Expected error message in body")
			}
		})
	}
}

func TestHandleFire(t *testing.T) {
	var gotX, gotY int
	mock := &MockGameService{
		FireFunc: func(ctx context.Context, id string, x, y int) (*service.FireResult, error) {
			gotX, gotY = x, y
			return &service.FireResult{X: x, Y: y, Hit: true, Result: "hit", Message: "HIT", Board: &service.BoardView{Progress: 10}}, nil
		},
	}
	srv := NewServer(mock, nil)

	t.Run("valid", func(t *testing.T) {
		rr := doRequest(t, srv, "POST", "/api/sessions/ab12/fire", map[string]int{"x": 3, "y": 7})
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rr.Code)
		}
		var result service.FireResult
		decode(t, rr, &result)
		if !result.Hit || result.Message != "HIT" {
			t.Errorf("Unexpected result %+v", result)
		}
		if gotX != 3 || gotY != 7 {
			t.Errorf("Expected (3,7), got (%d,%d)", gotX, gotY)
		}
	})

	t.Run("zero coordinates are passed through", func(t *testing.T) {
		rr := doRequest(t, srv, "POST", "/api/sessions/ab12/fire", map[string]int{"x": 0, "y": 0})
		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rr.Code)
		}
	})

	t.Run("missing coordinate", func(t *testing.T) {
		rr := doRequest(t, srv, "POST", "/api/sessions/ab12/fire", map[string]int{"x": 3})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rr.Code)
		}
	})

	t.Run("bad body", func(t *testing.T) {
		rr := doRequest(t, srv, "POST", "/api/sessions/ab12/fire", "nope")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rr.Code)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		rr := doRequest(t, srv, "GET", "/api/sessions/ab12/fire", nil)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", rr.Code)
		}
	})
}

func TestHandleSalvo(t *testing.T) {
	mock := &MockGameService{
		SalvoFunc: func(ctx context.Context, id string, targets []engine.Position) (*service.SalvoResult, error) {
			if len(targets) == 0 {
				return nil, service.ErrEmptySalvo
			}
			return &service.SalvoResult{Requested: len(targets), Fired: len(targets), Board: &service.BoardView{}}, nil
		},
	}
	srv := NewServer(mock, nil)

	rr := doRequest(t, srv, "POST", "/api/sessions/ab12/salvo", map[string]interface{}{
		"targets": []map[string]int{{"x": 1, "y": 1}, {"x": 2, "y": 1}},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var result service.SalvoResult
	decode(t, rr, &result)
	if result.Fired != 2 {
		t.Errorf("Expected 2 shots fired, got %d", result.Fired)
	}

	rr = doRequest(t, srv, "POST", "/api/sessions/ab12/salvo", map[string]interface{}{"targets": []int{}})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty salvo, got %d", rr.Code)
	}
}

func TestHandleGetHistoryParams(t *testing.T) {
	var got service.HistoryOptions
	mock := &MockGameService{
		GetShotHistoryFunc: func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{}, nil
		},
	}
	srv := NewServer(mock, nil)

	tests := []struct {
		query string
		want  service.HistoryOptions
	}{
		{"", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"?page=2&limit=5&order=asc", service.HistoryOptions{Page: 2, Limit: 5, Order: "asc"}},
		{"?page=-1&limit=abc&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			doRequest(t, srv, "GET", "/api/sessions/ab12/history"+tt.query, nil)
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestHandleLayoutsAndHealth(t *testing.T) {
	srv := NewServer(&MockGameService{}, nil)

	rr := doRequest(t, srv, "GET", "/api/layouts", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var layouts []*layout.Info
	decode(t, rr, &layouts)
	if len(layouts) != 1 || !layouts[0].Auto {
		t.Errorf("Unexpected layouts %+v", layouts)
	}

	rr = doRequest(t, srv, "GET", "/api/health", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 from health, got %d", rr.Code)
	}
}

func TestHandleWebSocketValidation(t *testing.T) {
	srv := NewServer(&MockGameService{}, nil)
	rr := doRequest(t, srv, "GET", "/ws?session=ab12", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without a hub, got %d", rr.Code)
	}
}

// TestFullGameOverHTTP drives a real service through the router.
func TestFullGameOverHTTP(t *testing.T) {
	dir := t.TempDir()
	content := `{"name": "Pair", "ships": [{"ship": "A2", "x": 4, "y": 4, "direction": "down"}]}`
	if err := os.WriteFile(filepath.Join(dir, "pair.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	layouts, err := layout.NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create layout manager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), layouts)
	srv := httptest.NewServer(NewServer(svc, nil))
	defer srv.Close()

	post := func(path string, body interface{}) *http.Response {
		data, _ := json.Marshal(body)
		resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
		if err != nil {
			t.Fatalf("POST %s failed: %v", path, err)
		}
		return resp
	}

	resp := post("/api/sessions", map[string]string{"layout_id": "pair"})
	var info service.SessionInfo
	json.NewDecoder(resp.Body).Decode(&info)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || info.ID == "" {
		t.Fatalf("Expected created session, got %d %+v", resp.StatusCode, info)
	}

	shots := []struct {
		x, y   int
		result string
	}{
		{4, 4, "hit"},
		{4, 4, "miss"},
		{1, 1, "miss"},
		{4, 5, "game_complete"},
	}
	var last service.FireResult
	for _, s := range shots {
		resp := post("/api/sessions/"+info.ID+"/fire", map[string]int{"x": s.x, "y": s.y})
		last = service.FireResult{}
		json.NewDecoder(resp.Body).Decode(&last)
		resp.Body.Close()
		if last.Result != s.result {
			t.Errorf("Shot (%d,%d): expected %s, got %s", s.x, s.y, s.result, last.Result)
		}
	}
	if last.Score != 4 || !last.Complete {
		t.Errorf("Expected completed game with score 4, got %+v", last)
	}
	if last.Message != "Game successfully completed. Score: 4" {
		t.Errorf("Unexpected message %q", last.Message)
	}

	resp, err = http.Get(srv.URL + "/api/sessions/" + info.ID + "/history?order=asc")
	if err != nil {
		t.Fatal(err)
	}
	var history service.HistoryResponse
	json.NewDecoder(resp.Body).Decode(&history)
	resp.Body.Close()
	if history.TotalShots != 4 || history.Shots[0].X != 4 {
		t.Errorf("Unexpected history %+v", history)
	}
}

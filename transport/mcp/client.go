package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/battleship/game/engine"
	"github.com/wricardo/mcp-training/battleship/game/layout"
	"github.com/wricardo/mcp-training/battleship/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Fleet Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Fleet Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Sink the hidden fleet on a 9x9 grid by firing at cells. Fewer shots is a better score.

AVAILABLE TOOLS:
- create_session: Start a new game, optionally with a named layout
- list_sessions: List all active sessions
- get_session: Get session details
- board_state: Show your view of the board
- fire: Fire one shot at (x, y) - requires intent explanation
- salvo: Fire several shots in order - requires intent explanation
- restart_game: Start over with the same layout
- shot_history: View past shots
- list_layouts: List available fleet layouts
- game_instructions: Get the full rules

NOTE: The 'intent' parameter on fire/salvo serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func intentProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Why you are taking this shot",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional layout selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"layout_id": map[string]interface{}{
					"type":        "string",
					"description": "Layout to use (optional, defaults to random placement)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Show the board as seen by the player: '.' unknown, 'o' miss, 'X' hit",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleBoardState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "fire",
		Description: "Fire one shot at cell (x, y). Columns x and rows y run from 1 to 9.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Column, 1-9",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Row, 1-9",
				},
				"intent": intentProperty(),
			},
			Required: []string{"session_id", "x", "y", "intent"},
		},
	}, c.handleFire)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "salvo",
		Description: "Fire several shots in order. Stops early once the fleet is sunk.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"targets": map[string]interface{}{
					"type":        "array",
					"description": `Cells as "x,y" strings, e.g. ["1,1", "2,1"]`,
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"intent": intentProperty(),
			},
			Required: []string{"session_id", "targets", "intent"},
		},
	}, c.handleSalvo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Start a new game in the session with the same layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRestart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "shot_history",
		Description: "List past shots with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Shots per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"description": "asc or desc (default desc)",
					"enum":        []string{"asc", "desc"},
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleShotHistory)

	// Layouts
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_layouts",
		Description: "List available fleet layouts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLayouts)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeStdio serves MCP over stdin/stdout until the input closes.
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

// ServeHTTP handles a single JSON-RPC message posted to the MCP endpoint.
func (c *Client) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}

	response := c.mcpServer.HandleMessage(r.Context(), body)
	if response == nil {
		// Notifications have no response
		w.WriteHeader(http.StatusAccepted)
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// intArg reads a numeric argument. JSON numbers arrive as float64; numeric
// strings are accepted too.
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), v == float64(int(v))
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

// parseTarget accepts "x,y", "[x,y]" or "CELL:[x,y]".
func parseTarget(s string) (engine.Position, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "CELL:")
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return engine.Position{}, fmt.Errorf("invalid target %q, expected \"x,y\"", s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errX != nil || errY != nil {
		return engine.Position{}, fmt.Errorf("invalid target %q, expected \"x,y\"", s)
	}
	return engine.NewPosition(x, y), nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	layoutID, _ := args["layout_id"].(string)

	body := map[string]string{}
	if layoutID != "" {
		body["layout_id"] = layoutID
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nLayout: %s\n\n%s", info.ID, info.LayoutID, formatBoard(info.Board))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active sessions (%d):\n", len(resp.Sessions))
	for _, s := range resp.Sessions {
		sb.WriteString(formatSessionLine(s))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+url.PathEscape(sessionID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionLine(&info) + "\n\n" + formatBoard(info.Board)), nil
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var board service.BoardView
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+url.PathEscape(sessionID)+"/board", nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoard(&board)), nil
}

func (c *Client) handleFire(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_, _ = args["intent"].(string)

	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y must be integers"), nil
	}

	var result service.FireResult
	err := c.apiCall(ctx, "POST", "/api/sessions/"+url.PathEscape(sessionID)+"/fire", map[string]int{"x": x, "y": y}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatFireResult(&result)), nil
}

func (c *Client) handleSalvo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	_, _ = args["intent"].(string)

	raw, _ := args["targets"].([]interface{})
	targets := make([]engine.Position, 0, len(raw))
	for _, item := range raw {
		var p engine.Position
		var err error
		switch v := item.(type) {
		case string:
			p, err = parseTarget(v)
		case map[string]interface{}:
			x, okX := intArg(v, "x")
			y, okY := intArg(v, "y")
			if !okX || !okY {
				err = fmt.Errorf("invalid target %v", v)
			}
			p = engine.NewPosition(x, y)
		default:
			err = fmt.Errorf("invalid target %v", v)
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		targets = append(targets, p)
	}

	var result service.SalvoResult
	err := c.apiCall(ctx, "POST", "/api/sessions/"+url.PathEscape(sessionID)+"/salvo", map[string]interface{}{"targets": targets}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSalvoResult(&result)), nil
}

func (c *Client) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var resp struct {
		Message string             `json:"message"`
		Board   *service.BoardView `json:"board"`
	}
	if err := c.apiCall(ctx, "POST", "/api/sessions/"+url.PathEscape(sessionID)+"/restart", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(resp.Message + "\n\n" + formatBoard(resp.Board)), nil
}

func (c *Client) handleShotHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", strconv.Itoa(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", strconv.Itoa(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		query.Set("order", order)
	}

	path := "/api/sessions/" + url.PathEscape(sessionID) + "/history"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListLayouts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var layouts []*layout.Info
	if err := c.apiCall(ctx, "GET", "/api/layouts", nil, &layouts); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString("Available layouts:\n")
	for _, l := range layouts {
		fmt.Fprintf(&sb, "- %s", l.LayoutID)
		if l.Auto {
			sb.WriteString(" (random placement of the full fleet)")
		} else {
			fmt.Fprintf(&sb, ": %s, %d ships", l.Name, l.Ships)
			if l.Description != "" {
				fmt.Fprintf(&sb, " - %s", l.Description)
			}
		}
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString(`Fleet Game - Complete Instructions

GAME OBJECTIVE:
A fleet is hidden on a 9x9 grid. Sink it by hitting every cell it occupies.
Your score is the number of shots you needed, so lower is better.

GRID:
• Columns x and rows y both run from 1 to 9; (1,1) is the top-left cell
• Shots outside the grid are misses and are not counted

FLEET:
`)
	for _, t := range engine.ShipTypes {
		fmt.Fprintf(&sb, "• %s %s-class, %d cells\n", t, t.Name(), t.Size())
	}
	sb.WriteString(`
Ships lie in straight horizontal or vertical lines and never overlap.
Named layouts may place only part of the fleet.

SHOOTING:
• The first shot on a ship cell is a HIT
• Any later shot on the same cell is a MISS, and still counts as a shot
• The game is complete when every ship cell has been hit

BOARD LEGEND:
• . - not fired at yet
• o - miss
• X - hit
Once the game is complete the full grid is shown: 0 water, 1 ship, X hit.

TIPS:
• After a hit, try the four neighbouring cells to find the ship's direction
• Ships are at least 2 cells long, so a checkerboard sweep finds every ship
• Use salvo to fire a planned sequence in one call
`)
	return mcp.NewToolResultText(sb.String()), nil
}

// Formatting helpers

func formatSessionLine(s *service.SessionInfo) string {
	line := fmt.Sprintf("- %s (layout: %s, created: %s)", s.ID, s.LayoutID, s.CreatedAt.Format(time.RFC3339))
	if s.Board != nil {
		line += fmt.Sprintf(" shots=%d progress=%.0f%%", s.Board.Shots, s.Board.Progress)
		if s.Board.Complete {
			line += " COMPLETE"
		}
	}
	return line
}

func formatBoard(b *service.BoardView) string {
	if b == nil {
		return "No board"
	}

	var sb strings.Builder
	rows := b.Rows
	if b.Complete && len(b.Grid) > 0 {
		rows = b.Grid
	}

	sb.WriteString("    1 2 3 4 5 6 7 8 9\n")
	for i, row := range rows {
		fmt.Fprintf(&sb, "%2d  %s\n", i+1, strings.Join(strings.Split(row, ""), " "))
	}
	fmt.Fprintf(&sb, "\nShots: %d | Hits: %d | Progress: %.0f%%", b.Shots, b.Hits, b.Progress)
	if b.Complete {
		sb.WriteString(" | COMPLETE")
		for _, ship := range b.Ships {
			fmt.Fprintf(&sb, "\n%s %s-class: %v", ship.Type, ship.Name, ship.Cells)
		}
	}
	return sb.String()
}

func formatFireResult(r *service.FireResult) string {
	return fmt.Sprintf("Shot at (%d,%d): %s\n\n%s", r.X, r.Y, r.Message, formatBoard(r.Board))
}

func formatSalvoResult(r *service.SalvoResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Salvo: fired %d/%d, %d hits\n", r.Fired, r.Requested, r.Hits)
	for _, s := range r.Shots {
		fmt.Fprintf(&sb, "  #%d (%d,%d) %s\n", s.Seq, s.X, s.Y, strings.ToUpper(s.Result))
	}
	if r.StoppedEarly {
		sb.WriteString("Stopped early: fleet sunk\n")
	}
	sb.WriteString(r.Message)
	sb.WriteString("\n\n")
	sb.WriteString(formatBoard(r.Board))
	return sb.String()
}

func formatHistory(h *service.HistoryResponse) string {
	if h.TotalShots == 0 {
		return "No shots fired yet"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Shot history (page %d/%d, %d shots total):\n", h.Page, h.TotalPages, h.TotalShots)
	for _, s := range h.Shots {
		fmt.Fprintf(&sb, "  #%d (%d,%d) %s progress=%.0f%%\n", s.Seq, s.X, s.Y, strings.ToUpper(s.Result), s.Progress)
	}
	return sb.String()
}

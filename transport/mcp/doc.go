// Package mcp exposes the fleet game to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call is translated into a request
// against the REST API, so agents and HTTP players share the same sessions.
//
// MCP Tools:
//   - create_session: Start a game, optionally with a named layout
//   - list_sessions: List active sessions
//   - get_session: Session details and board
//   - board_state: The player's view of the board
//   - fire: One shot at (x, y)
//   - salvo: Several shots in order, stopping once the fleet is sunk
//   - restart_game: New game with the same layout
//   - shot_history: Paginated list of past shots
//   - list_layouts: Available fleet layouts
//   - game_instructions: Rules of the game
//
// Transport Modes:
//
//	// Stdio mode
//	client := mcp.NewClient("http://localhost:8080")
//	client.ServeStdio()
//
//	// HTTP mode
//	router.Handle("/mcp", client)
package mcp

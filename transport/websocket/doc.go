// Package websocket provides WebSocket transport for the fleet game server.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - Board broadcasting after every shot
//   - Shooting from the socket itself
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub owns all
// connections. Each client runs a read pump and a write pump goroutine; only
// the hub's Run loop touches the client registry.
//
// Message Protocol:
//
// Messages are JSON-encoded:
//   - Incoming: {"action": "fire", "x": 3, "y": 1}
//   - Outgoing: {"session_id": "ab12", "event": "board_update", "board": {...}}
//
// Shots fired over the socket are broadcast to every watcher of the session
// as a "shot" event carrying the fire result. Failures are sent back to the
// sender only, as an "error" event.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithFire(gameService.Fire))
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket

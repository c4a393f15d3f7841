// Package api provides HTTP REST API handlers for the fleet game server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session, body {"layout_id": "classic"}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/board - Player's view of the board
//   - POST /api/sessions/{id}/fire - Fire one shot, body {"x": 3, "y": 1}
//   - POST /api/sessions/{id}/salvo - Fire several shots, body {"targets": [{"x": 1, "y": 1}]}
//   - POST /api/sessions/{id}/restart - Start a new game with the same layout
//   - GET /api/sessions/{id}/history - Shot history (?page=1&limit=20&order=desc)
//
// Layouts:
//   - GET /api/layouts - List fleet layouts
//
// Other:
//   - GET /api/health - Liveness
//   - GET /ws?session={id} - WebSocket board updates
//
// Board rows use '.' for cells not fired at, 'o' for misses and 'X' for hits.
// Once the fleet is sunk the response also carries the full grid and ships.
//
// Error Handling:
//
// Errors are returned as JSON with an appropriate HTTP status code:
//
//	{"error": "session not found: ..."}
//
// Unknown sessions map to 404, bad input and unknown layouts to 400, and a
// layout that cannot be placed to 422.
package api

// Package service provides the business logic layer for the fleet game server.
//
// The service package implements:
//   - Multi-session game management
//   - Fleet layout selection
//   - Shot processing, single and in salvos
//   - Shot history tracking
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LayoutManager loads named fleet layouts.
//
// Architecture:
//
// The service layer sits between the transports (HTTP/WebSocket/MCP) and the
// game. Every session wraps its own protocol.Session, so shots follow exactly
// the same rules as on the line protocol, and boards are never shared.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	layoutMgr, _ := layout.NewManager("layouts")
//	gameService := service.NewGameService(sessionMgr, layoutMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Fire(ctx, info.ID, 3, 1)
//
// Board views hide unhit ship cells until the game is complete; after that
// the full grid and ship positions are included.
package service

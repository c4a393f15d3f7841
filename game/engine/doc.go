// Package engine provides the board and fleet logic for the fleet game.
//
// The engine package implements:
//   - A fixed 9x9 grid with 1-based coordinates and directional stepping
//   - Per-cell occupancy and hit tracking
//   - Manual and randomised fleet placement sharing one collision check
//   - Hit resolution with progress and completion tracking
//
// Core Types:
//
// Board owns a CellStore and the placed fleet. BoardConfig selects automatic
// or manual placement for Board.Setup. Ship and ShipType describe the four
// ships of the fleet (C5, H4, L3, A2).
//
// Usage:
//
//	board := engine.NewBoard(engine.WithRand(engine.NewRand(42)))
//	if err := board.Setup(engine.AutoConfig()); err != nil {
//		log.Fatal(err)
//	}
//
//	hit := board.Hit(engine.NewPosition(3, 4))
//	fmt.Println(hit, board.Progress(), board.IsComplete())
//
// Placement:
//
// Automatic placement samples a free start cell and a direction uniformly and
// retries until the ship fits. The retry loop is bounded; when it runs out
// Setup fails with ErrPlacementExhausted and the board stays empty. Manual
// placement is validated on a scratch grid, so a collision or out-of-bounds
// ship never leaves a partially populated board.
//
// Concurrency:
//
// Boards are not safe for concurrent use. Callers that share a board across
// goroutines must serialise access themselves.
package engine

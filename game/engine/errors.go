package engine

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds        = errors.New("placement leaves the grid")
	ErrCollision          = errors.New("placement overlaps an occupied cell")
	ErrPlacementExhausted = errors.New("no valid placement found within attempt limit")
	ErrAlreadySetup       = errors.New("board already set up")
	ErrDuplicateShip      = errors.New("ship type placed more than once")
	ErrEmptyFleet         = errors.New("fleet has no ships")
	ErrUnknownShipType    = errors.New("unknown ship type")
	ErrUnknownDirection   = errors.New("unknown direction")
)

// PlacementError describes why a single ship could not be placed.
type PlacementError struct {
	Ship     ShipType
	Position Position // first offending cell
	Err      error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("place %s at %s: %v", e.Ship, e.Position, e.Err)
}

func (e *PlacementError) Unwrap() error {
	return e.Err
}

// SetupError is returned by Board.Setup when the fleet cannot be placed.
// The board is left untouched.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return "board setup failed: " + e.Err.Error()
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

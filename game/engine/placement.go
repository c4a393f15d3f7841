package engine

import (
	"math/rand/v2"
	"time"
)

// DefaultMaxPlacementAttempts bounds the rejection-sampling loop in PlaceAuto.
const DefaultMaxPlacementAttempts = 10000

// NewRand returns a PCG-backed generator. A zero seed uses the current time.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// tracePlacement walks the cells a ship of the given type would cover from
// start in direction dir. It fails on the first cell that is off the grid or
// already occupied and never modifies the store.
func tracePlacement(store *CellStore, ship ShipType, start Position, dir Direction) ([]Position, error) {
	size := ship.Size()
	if size == 0 {
		return nil, ErrUnknownShipType
	}

	cells := make([]Position, 0, size)
	pos := start
	for i := 0; i < size; i++ {
		if i > 0 {
			pos = Step(pos, dir)
		}
		cell, ok := store.Get(pos)
		if !ok {
			return nil, &PlacementError{Ship: ship, Position: pos, Err: ErrOutOfBounds}
		}
		if cell.Occupied {
			return nil, &PlacementError{Ship: ship, Position: pos, Err: ErrCollision}
		}
		cells = append(cells, pos)
	}
	return cells, nil
}

// PlaceManual places a ship at an explicit start cell and direction. Either
// every cell is claimed or, on error, none are.
func PlaceManual(store *CellStore, ship ShipType, start Position, dir Direction) ([]Position, error) {
	cells, err := tracePlacement(store, ship, start, dir)
	if err != nil {
		return nil, err
	}
	for _, p := range cells {
		store.MarkOccupied(p)
	}
	return cells, nil
}

// PlaceAuto places a ship at a random free cell and direction, resampling
// until a full-length run fits or maxAttempts is spent. A maxAttempts of zero
// or less uses DefaultMaxPlacementAttempts.
func PlaceAuto(store *CellStore, ship ShipType, rng *rand.Rand, maxAttempts int) ([]Position, error) {
	if !ship.Valid() {
		return nil, ErrUnknownShipType
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxPlacementAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		free := store.UnoccupiedPositions()
		if len(free) == 0 {
			break
		}
		start := free[rng.IntN(len(free))]
		dir := Directions[rng.IntN(len(Directions))]

		cells, err := tracePlacement(store, ship, start, dir)
		if err != nil {
			continue
		}
		for _, p := range cells {
			store.MarkOccupied(p)
		}
		return cells, nil
	}
	return nil, &PlacementError{Ship: ship, Err: ErrPlacementExhausted}
}

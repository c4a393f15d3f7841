package engine

import "fmt"

// PlacementMode selects how Board.Setup positions the fleet.
type PlacementMode int

const (
	ModeAuto PlacementMode = iota
	ModeManual
)

func (m PlacementMode) String() string {
	if m == ModeManual {
		return "manual"
	}
	return "auto"
}

// ManualPlacement pins one ship to a start cell and direction.
type ManualPlacement struct {
	Ship      ShipType  `json:"ship"`
	Start     Position  `json:"start"`
	Direction Direction `json:"direction"`
}

// BoardConfig describes how to populate a board. It is consumed by Setup and
// not retained afterwards.
type BoardConfig struct {
	Mode       PlacementMode
	Placements []ManualPlacement
}

// AutoConfig lets the engine place the whole fleet randomly.
func AutoConfig() BoardConfig {
	return BoardConfig{Mode: ModeAuto}
}

// ManualConfig places exactly the given ships, in order.
func ManualConfig(placements ...ManualPlacement) BoardConfig {
	return BoardConfig{Mode: ModeManual, Placements: placements}
}

// Validate checks the static shape of a manual config: at least one ship,
// known ship types and no ship type listed twice. Geometry is checked by Setup.
func (c BoardConfig) Validate() error {
	if c.Mode == ModeAuto {
		return nil
	}
	if len(c.Placements) == 0 {
		return ErrEmptyFleet
	}
	seen := make(map[ShipType]bool, len(c.Placements))
	for _, p := range c.Placements {
		if !p.Ship.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownShipType, p.Ship)
		}
		if seen[p.Ship] {
			return fmt.Errorf("%w: %s", ErrDuplicateShip, p.Ship)
		}
		seen[p.Ship] = true
	}
	return nil
}

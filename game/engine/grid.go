package engine

import (
	"fmt"
	"strings"
)

// Grid dimensions are fixed for this version of the game.
const (
	GridRows = 9
	GridCols = 9
)

// Position is a 1-based grid coordinate. X is the column, Y is the row.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewPosition is shorthand for Position{X: x, Y: y}.
func NewPosition(x, y int) Position {
	return Position{X: x, Y: y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is one of the four cardinal directions a ship can extend in.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every direction in sampling order.
var Directions = [...]Direction{Up, Down, Left, Right}

// Vector returns the unit step for the direction. Up decreases Y.
func (d Direction) Vector() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection converts a direction name (case-insensitive) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	if d < Up || d > Right {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDirection, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts any name ParseDirection does.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsValidPosition reports whether p lies inside the 9x9 grid.
func IsValidPosition(p Position) bool {
	return p.X >= 1 && p.X <= GridCols && p.Y >= 1 && p.Y <= GridRows
}

// Step moves one cell from p in direction d. The result is not bounds checked.
func Step(p Position, d Direction) Position {
	dx, dy := d.Vector()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

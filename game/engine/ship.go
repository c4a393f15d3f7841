package engine

import (
	"fmt"
	"strings"
)

// ShipType identifies a class of ship. A board holds at most one ship per type.
type ShipType string

const (
	C5 ShipType = "C5" // Canberra-class landing helicopter dock
	H4 ShipType = "H4" // Hobart-class destroyer
	L3 ShipType = "L3" // Leeuwin-class survey vessel
	A2 ShipType = "A2" // Armidale-class patrol boat
)

// ShipTypes is the fixed fleet in placement order.
var ShipTypes = [...]ShipType{C5, H4, L3, A2}

// Size returns the number of cells the ship occupies.
func (t ShipType) Size() int {
	switch t {
	case C5:
		return 5
	case H4:
		return 4
	case L3:
		return 3
	case A2:
		return 2
	}
	return 0
}

// Name returns the ship's class name.
func (t ShipType) Name() string {
	switch t {
	case C5:
		return "Canberra"
	case H4:
		return "Hobart"
	case L3:
		return "Leeuwin"
	case A2:
		return "Armidale"
	}
	return string(t)
}

// Valid reports whether t is one of the known ship types.
func (t ShipType) Valid() bool {
	return t.Size() > 0
}

// ParseShipType accepts the two-character code in any case.
func ParseShipType(s string) (ShipType, error) {
	t := ShipType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownShipType, s)
	}
	return t, nil
}

// FleetSize is the total number of cells the full fleet occupies.
func FleetSize() int {
	n := 0
	for _, t := range ShipTypes {
		n += t.Size()
	}
	return n
}

// Ship is a placed ship and the cells it covers, starting from its bow.
type Ship struct {
	Type  ShipType   `json:"type"`
	Cells []Position `json:"cells"`
}

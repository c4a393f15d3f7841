package layout

import (
	"fmt"

	"github.com/wricardo/mcp-training/battleship/game/engine"
)

// AutoID is the reserved identifier for random placement.
const AutoID = "auto"

// ShipPlacement is one ship entry in a layout file.
type ShipPlacement struct {
	Ship      string `json:"ship" yaml:"ship"`
	X         int    `json:"x" yaml:"x"`
	Y         int    `json:"y" yaml:"y"`
	Direction string `json:"direction" yaml:"direction"`
}

// Layout is a named fleet arrangement. A layout without ships means auto
// placement.
type Layout struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Ships       []ShipPlacement `json:"ships" yaml:"ships"`
}

// Info summarises a layout for listings.
type Info struct {
	Filename    string `json:"filename,omitempty"`
	LayoutID    string `json:"layout_id"` // The identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Ships       int    `json:"ships"`
	Auto        bool   `json:"auto"`
}

// Auto returns the reserved random-placement layout.
func Auto() *Layout {
	return &Layout{
		Name:        AutoID,
		Description: "Random placement of the full fleet",
	}
}

// IsAuto reports whether the layout leaves placement to the engine.
func (l *Layout) IsAuto() bool {
	return len(l.Ships) == 0
}

// BoardConfig converts the layout into an engine placement config.
func (l *Layout) BoardConfig() (engine.BoardConfig, error) {
	if l.IsAuto() {
		return engine.AutoConfig(), nil
	}

	placements := make([]engine.ManualPlacement, 0, len(l.Ships))
	for i, s := range l.Ships {
		ship, err := engine.ParseShipType(s.Ship)
		if err != nil {
			return engine.BoardConfig{}, fmt.Errorf("ship %d: %w", i+1, err)
		}
		dir, err := engine.ParseDirection(s.Direction)
		if err != nil {
			return engine.BoardConfig{}, fmt.Errorf("ship %d (%s): %w", i+1, ship, err)
		}
		placements = append(placements, engine.ManualPlacement{
			Ship:      ship,
			Start:     engine.NewPosition(s.X, s.Y),
			Direction: dir,
		})
	}
	return engine.ManualConfig(placements...), nil
}

// Validate checks that the layout can populate a board.
func (l *Layout) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("layout name is required")
	}
	cfg, err := l.BoardConfig()
	if err != nil {
		return err
	}
	if cfg.Mode == engine.ModeAuto {
		return nil
	}
	return engine.NewBoard().Setup(cfg)
}

func (l *Layout) info(id, filename string) *Info {
	return &Info{
		Filename:    filename,
		LayoutID:    id,
		Name:        l.Name,
		Description: l.Description,
		Ships:       len(l.Ships),
		Auto:        l.IsAuto(),
	}
}

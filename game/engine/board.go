package engine

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/dariubs/percent"
)

// BoardState is the lifecycle stage of a board.
type BoardState int

const (
	StateEmpty BoardState = iota
	StatePopulated
	StateComplete
)

func (s BoardState) String() string {
	switch s {
	case StatePopulated:
		return "populated"
	case StateComplete:
		return "complete"
	}
	return "empty"
}

// Board is the state of one game: the grid, the fleet and derived progress.
// A Board is not safe for concurrent use; each session owns its own.
type Board struct {
	cells       *CellStore
	ships       []Ship
	rng         *rand.Rand
	maxAttempts int
	populated   bool
	progress    float64
	complete    bool
	shots       int
}

// BoardOption customises a new board.
type BoardOption func(*Board)

// WithRand sets the random source used for automatic placement.
func WithRand(rng *rand.Rand) BoardOption {
	return func(b *Board) {
		b.rng = rng
	}
}

// WithMaxPlacementAttempts bounds automatic placement retries per ship.
func WithMaxPlacementAttempts(n int) BoardOption {
	return func(b *Board) {
		b.maxAttempts = n
	}
}

// NewBoard returns an empty board: no ships, every cell free.
func NewBoard(opts ...BoardOption) *Board {
	b := &Board{
		cells:       NewCellStore(),
		maxAttempts: DefaultMaxPlacementAttempts,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = NewRand(0)
	}
	return b
}

// Setup populates the fleet. All placements are done on a scratch copy of the
// grid, so a failure leaves the board empty. Setup may only succeed once.
func (b *Board) Setup(cfg BoardConfig) error {
	if b.populated {
		return ErrAlreadySetup
	}
	if err := cfg.Validate(); err != nil {
		return &SetupError{Err: err}
	}

	scratch := b.cells.clone()
	var ships []Ship

	switch cfg.Mode {
	case ModeManual:
		for _, p := range cfg.Placements {
			cells, err := PlaceManual(scratch, p.Ship, p.Start, p.Direction)
			if err != nil {
				return &SetupError{Err: err}
			}
			ships = append(ships, Ship{Type: p.Ship, Cells: cells})
		}
	default:
		for _, t := range ShipTypes {
			cells, err := PlaceAuto(scratch, t, b.rng, b.maxAttempts)
			if err != nil {
				return &SetupError{Err: err}
			}
			ships = append(ships, Ship{Type: t, Cells: cells})
		}
	}

	b.cells = scratch
	b.ships = ships
	b.populated = true
	b.Recompute()
	return nil
}

// Hit fires at p. Shots outside the grid return false and change nothing.
// Every in-grid shot increments the cell's hit counter; the result is true
// only for the first hit on an occupied cell.
func (b *Board) Hit(p Position) bool {
	cell, ok := b.cells.Get(p)
	if !ok {
		return false
	}
	cell.HitCount++
	b.shots++
	b.Recompute()
	return cell.Occupied && cell.HitCount == 1
}

// Recompute refreshes progress and completion with a full scan of the grid.
func (b *Board) Recompute() {
	occupied, hit := 0, 0
	for i := range b.cells.cells {
		c := &b.cells.cells[i]
		if !c.Occupied {
			continue
		}
		occupied++
		if c.HitCount > 0 {
			hit++
		}
	}
	if occupied == 0 {
		b.progress = 0
		return
	}
	b.progress = percent.PercentOf(hit, occupied)
	if math.Abs(b.progress-100) < 1e-9 {
		b.complete = true
	}
}

// Progress is the percentage of ship cells hit at least once.
func (b *Board) Progress() float64 {
	return b.progress
}

// IsComplete reports whether every ship cell has been hit. Once true it stays true.
func (b *Board) IsComplete() bool {
	return b.complete
}

// State returns the lifecycle stage.
func (b *Board) State() BoardState {
	switch {
	case b.complete:
		return StateComplete
	case b.populated:
		return StatePopulated
	}
	return StateEmpty
}

// Shots counts in-grid Hit calls, including repeats and misses.
func (b *Board) Shots() int {
	return b.shots
}

// Ships returns a copy of the fleet in placement order.
func (b *Board) Ships() []Ship {
	out := make([]Ship, len(b.ships))
	for i, s := range b.ships {
		out[i] = Ship{Type: s.Type, Cells: append([]Position(nil), s.Cells...)}
	}
	return out
}

// Cell returns a copy of the cell at p.
func (b *Board) Cell(p Position) (Cell, bool) {
	c, ok := b.cells.Get(p)
	if !ok {
		return Cell{}, false
	}
	return *c, true
}

// OccupiedPositions lists every ship cell.
func (b *Board) OccupiedPositions() []Position {
	return b.cells.OccupiedPositions()
}

// Render draws the grid row by row: '0' free, '1' ship, 'X' ship hit.
// The result is indexed [y-1][x-1].
func (b *Board) Render() [GridRows][GridCols]rune {
	var out [GridRows][GridCols]rune
	for i := range b.cells.cells {
		c := &b.cells.cells[i]
		r := '0'
		if c.Occupied {
			r = '1'
			if c.HitCount > 0 {
				r = 'X'
			}
		}
		out[c.Position.Y-1][c.Position.X-1] = r
	}
	return out
}

// Rows returns Render as one string per row.
func (b *Board) Rows() []string {
	grid := b.Render()
	rows := make([]string, GridRows)
	for y := range grid {
		rows[y] = string(grid[y][:])
	}
	return rows
}

// String prints the grid with cells separated by spaces, one row per line.
func (b *Board) String() string {
	var sb strings.Builder
	grid := b.Render()
	for y := range grid {
		for x, r := range grid[y] {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteRune(r)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// TargetRows is the opponent's view of the grid: '.' not fired at, 'o' a
// shot into open water, 'X' a ship cell that has been hit. Unhit ship cells
// look like '.'.
func (b *Board) TargetRows() []string {
	rows := make([]string, GridRows)
	line := make([]byte, GridCols)
	for y := 1; y <= GridRows; y++ {
		for x := 1; x <= GridCols; x++ {
			c, _ := b.cells.Get(Position{X: x, Y: y})
			switch {
			case c.HitCount == 0:
				line[x-1] = '.'
			case c.Occupied:
				line[x-1] = 'X'
			default:
				line[x-1] = 'o'
			}
		}
		rows[y-1] = string(line)
	}
	return rows
}

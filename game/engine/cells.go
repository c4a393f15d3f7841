package engine

const cellCount = GridRows * GridCols

// Cell is one grid square. HitCount only grows and Occupied never reverts.
type Cell struct {
	Position Position `json:"position"`
	Occupied bool     `json:"occupied"`
	HitCount int      `json:"hit_count"`
}

// WasHitSuccessfully reports whether the cell holds part of a ship that has been hit.
func (c *Cell) WasHitSuccessfully() bool {
	return c.Occupied && c.HitCount > 0
}

// CellStore holds the per-cell state for the whole grid in row-major order.
type CellStore struct {
	cells [cellCount]Cell
}

// NewCellStore returns a store with every cell unoccupied and unhit.
func NewCellStore() *CellStore {
	s := &CellStore{}
	for y := 1; y <= GridRows; y++ {
		for x := 1; x <= GridCols; x++ {
			s.cells[index(Position{X: x, Y: y})].Position = Position{X: x, Y: y}
		}
	}
	return s
}

func index(p Position) int {
	return (p.Y-1)*GridCols + (p.X - 1)
}

// Get returns the cell at p, or false when p is outside the grid.
func (s *CellStore) Get(p Position) (*Cell, bool) {
	if !IsValidPosition(p) {
		return nil, false
	}
	return &s.cells[index(p)], true
}

// MarkOccupied flags the cell at p as part of a ship. Out-of-grid positions are ignored.
func (s *CellStore) MarkOccupied(p Position) {
	if c, ok := s.Get(p); ok {
		c.Occupied = true
	}
}

// RecordHit increments the hit counter of the cell at p, occupied or not.
func (s *CellStore) RecordHit(p Position) {
	if c, ok := s.Get(p); ok {
		c.HitCount++
	}
}

// OccupiedPositions scans the grid for cells that belong to a ship.
func (s *CellStore) OccupiedPositions() []Position {
	return s.collect(true)
}

// UnoccupiedPositions scans the grid for free cells.
func (s *CellStore) UnoccupiedPositions() []Position {
	return s.collect(false)
}

func (s *CellStore) collect(occupied bool) []Position {
	var out []Position
	for i := range s.cells {
		if s.cells[i].Occupied == occupied {
			out = append(out, s.cells[i].Position)
		}
	}
	return out
}

// clone returns an independent copy, used as a scratch board for validation.
func (s *CellStore) clone() *CellStore {
	c := *s
	return &c
}

package engine

import "testing"

func TestNewCellStore(t *testing.T) {
	s := NewCellStore()

	if n := len(s.UnoccupiedPositions()); n != GridRows*GridCols {
		t.Errorf("Expected %d free cells, got %d", GridRows*GridCols, n)
	}
	if n := len(s.OccupiedPositions()); n != 0 {
		t.Errorf("Expected no occupied cells, got %d", n)
	}

	c, ok := s.Get(Position{2, 2})
	if !ok {
		t.Fatal("Expected cell (2,2) to exist")
	}
	if c.Position != (Position{2, 2}) {
		t.Errorf("Expected cell to describe (2,2), got %v", c.Position)
	}

	if _, ok := s.Get(Position{0, 9}); ok {
		t.Error("Expected no cell outside the grid")
	}
}

func TestCellStore_MarkAndHit(t *testing.T) {
	s := NewCellStore()
	p := Position{4, 7}

	s.MarkOccupied(p)
	s.MarkOccupied(p)
	if n := len(s.OccupiedPositions()); n != 1 {
		t.Errorf("Expected MarkOccupied to be idempotent, got %d occupied", n)
	}

	s.RecordHit(p)
	s.RecordHit(Position{1, 1})
	s.RecordHit(Position{1, 1})

	c, _ := s.Get(p)
	if !c.WasHitSuccessfully() {
		t.Error("Expected occupied cell with a hit to report success")
	}
	miss, _ := s.Get(Position{1, 1})
	if miss.HitCount != 2 {
		t.Errorf("Expected hits on free cells to count, got %d", miss.HitCount)
	}
	if miss.WasHitSuccessfully() {
		t.Error("Expected free cell never to report a successful hit")
	}

	// Out-of-grid calls are ignored.
	s.MarkOccupied(Position{10, 10})
	s.RecordHit(Position{10, 10})
	if n := len(s.OccupiedPositions()); n != 1 {
		t.Errorf("Expected 1 occupied cell, got %d", n)
	}
}

func TestCellStore_Clone(t *testing.T) {
	s := NewCellStore()
	c := s.clone()
	c.MarkOccupied(Position{3, 3})

	if n := len(s.OccupiedPositions()); n != 0 {
		t.Errorf("Expected clone to be independent, original has %d occupied", n)
	}
}

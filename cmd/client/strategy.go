package main

import (
	"fmt"

	"github.com/wricardo/mcp-training/battleship/game/engine"
)

// Strategy picks the next cell to fire at.
type Strategy interface {
	// Next returns the next target, or false once every cell has been tried.
	Next() (engine.Position, bool)
	// Record reports the result of the last shot.
	Record(p engine.Position, hit bool)
}

// NewStrategy returns the strategy registered under name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "sweep":
		return NewSweep(), nil
	case "hunt":
		return NewHunt(), nil
	}
	return nil, fmt.Errorf("unknown strategy %q (use sweep or hunt)", name)
}

// Sweep fires at every cell in row-major order.
type Sweep struct {
	next int
}

func NewSweep() *Sweep {
	return &Sweep{}
}

func (s *Sweep) Next() (engine.Position, bool) {
	if s.next >= engine.GridRows*engine.GridCols {
		return engine.Position{}, false
	}
	p := engine.NewPosition(s.next%engine.GridCols+1, s.next/engine.GridCols+1)
	s.next++
	return p, true
}

func (s *Sweep) Record(engine.Position, bool) {}

// Hunt searches on a checkerboard, which every ship of two or more cells
// must cross, then falls back to the remaining cells. After a hit it works
// through the neighbours of the hit cell before searching again.
type Hunt struct {
	search  []engine.Position
	targets []engine.Position
	fired   map[engine.Position]bool
}

func NewHunt() *Hunt {
	h := &Hunt{fired: make(map[engine.Position]bool)}
	for _, parity := range []int{0, 1} {
		for y := 1; y <= engine.GridRows; y++ {
			for x := 1; x <= engine.GridCols; x++ {
				if (x+y)%2 == parity {
					h.search = append(h.search, engine.NewPosition(x, y))
				}
			}
		}
	}
	return h
}

func (h *Hunt) Next() (engine.Position, bool) {
	for len(h.targets) > 0 {
		p := h.targets[len(h.targets)-1]
		h.targets = h.targets[:len(h.targets)-1]
		if !h.fired[p] {
			return p, true
		}
	}
	for len(h.search) > 0 {
		p := h.search[0]
		h.search = h.search[1:]
		if !h.fired[p] {
			return p, true
		}
	}
	return engine.Position{}, false
}

func (h *Hunt) Record(p engine.Position, hit bool) {
	h.fired[p] = true
	if !hit {
		return
	}
	for _, d := range engine.Directions {
		n := engine.Step(p, d)
		if engine.IsValidPosition(n) && !h.fired[n] {
			h.targets = append(h.targets, n)
		}
	}
}

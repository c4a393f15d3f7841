// Command analyze measures where random fleet placement puts ships. It sets up
// a batch of seeded boards, counts how often each cell is occupied and prints
// a heatmap plus the cells most worth firing at first.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dariubs/percent"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/battleship/game/engine"
)

// Heatmap counts ship occupancy per cell over a batch of boards.
type Heatmap struct {
	Boards int
	Counts [engine.GridRows][engine.GridCols]int
}

// CellStat is one cell's occupancy share.
type CellStat struct {
	Pos     engine.Position
	Percent float64
}

// analyzePlacements sets up the given number of auto-placed boards, seeded from
// seed upwards, and accumulates their occupied cells.
func analyzePlacements(boards int, seed uint64) (*Heatmap, error) {
	if boards <= 0 {
		return nil, fmt.Errorf("boards must be positive, got %d", boards)
	}
	if seed == 0 {
		seed = 1
	}

	h := &Heatmap{Boards: boards}
	for i := 0; i < boards; i++ {
		b := engine.NewBoard(engine.WithRand(engine.NewRand(seed + uint64(i))))
		if err := b.Setup(engine.AutoConfig()); err != nil {
			return nil, fmt.Errorf("board %d: %w", i+1, err)
		}
		for _, p := range b.OccupiedPositions() {
			h.Counts[p.Y-1][p.X-1]++
		}
	}
	return h, nil
}

// Percent returns how often p was occupied across all boards.
func (h *Heatmap) Percent(p engine.Position) float64 {
	if !engine.IsValidPosition(p) || h.Boards == 0 {
		return 0
	}
	return percent.PercentOf(h.Counts[p.Y-1][p.X-1], h.Boards)
}

// Ranked lists every cell from most to least often occupied. Ties keep
// row-major order.
func (h *Heatmap) Ranked() []CellStat {
	stats := make([]CellStat, 0, engine.GridRows*engine.GridCols)
	for y := 1; y <= engine.GridRows; y++ {
		for x := 1; x <= engine.GridCols; x++ {
			p := engine.NewPosition(x, y)
			stats = append(stats, CellStat{Pos: p, Percent: h.Percent(p)})
		}
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Percent > stats[j].Percent
	})
	return stats
}

// Write prints the heatmap as whole percentages with row and column labels.
func (h *Heatmap) Write(w io.Writer) {
	var sb strings.Builder
	sb.WriteString("    ")
	for x := 1; x <= engine.GridCols; x++ {
		fmt.Fprintf(&sb, "%4d", x)
	}
	sb.WriteByte('\n')
	for y := 1; y <= engine.GridRows; y++ {
		fmt.Fprintf(&sb, "%2d  ", y)
		for x := 1; x <= engine.GridCols; x++ {
			fmt.Fprintf(&sb, "%4.0f", h.Percent(engine.NewPosition(x, y)))
		}
		sb.WriteByte('\n')
	}
	io.WriteString(w, sb.String())
}

func report(w io.Writer, h *Heatmap, top int) {
	fmt.Fprintf(w, "=== Placement heatmap over %d boards (%% of boards with a ship in the cell) ===\n", h.Boards)
	h.Write(w)

	ranked := h.Ranked()
	if top > len(ranked) {
		top = len(ranked)
	}
	fmt.Fprintf(w, "\nBest opening shots:\n")
	for i, s := range ranked[:top] {
		fmt.Fprintf(w, "  %d. %s %.1f%%\n", i+1, s.Pos, s.Percent)
	}
	coldest := ranked[len(ranked)-1]
	fmt.Fprintf(w, "Least likely cell: %s %.1f%%\n", coldest.Pos, coldest.Percent)
	fmt.Fprintf(w, "Expected fleet coverage: %.1f%%\n", percent.PercentOf(engine.FleetSize(), engine.GridRows*engine.GridCols))
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Heatmap of random fleet placement",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "boards", Value: 10000, Usage: "Number of boards to sample"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "First seed"},
			&cli.IntFlag{Name: "top", Value: 10, Usage: "How many cells to list"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			h, err := analyzePlacements(int(cmd.Int("boards")), uint64(cmd.Int("seed")))
			if err != nil {
				return err
			}
			report(os.Stdout, h, int(cmd.Int("top")))
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

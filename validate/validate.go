// Command validate checks the fleet layout files in the ../layouts directory
// (or the directory given as the first argument). For each file it reports:
//   - parse errors in the JSON or YAML document
//   - unknown ship classes, bad directions and duplicate ships
//   - ships that leave the grid or overlap
//
// Valid files additionally get a short summary of fleet coverage, missing
// ship classes and ships that touch each other.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dariubs/percent"

	"github.com/wricardo/mcp-training/battleship/game/engine"
	"github.com/wricardo/mcp-training/battleship/game/layout"
)

// ValidationResult captures the outcome of validating a single file.
// Errors is populated only when Valid is false; Info holds summary lines
// for valid files.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
	Board  *engine.Board
}

// validateLayout loads a layout file, places its fleet on a scratch board
// and summarizes the result.
func validateLayout(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	l, err := layout.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	cfg, err := l.BoardConfig()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	board := engine.NewBoard(engine.WithRand(engine.NewRand(1)))
	if err := board.Setup(cfg); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Board = board

	if l.IsAuto() {
		result.Info = append(result.Info, "✓ No ships listed, the full fleet is placed at random")
		return result
	}

	occupied := len(board.OccupiedPositions())
	result.Info = append(result.Info,
		fmt.Sprintf("✓ %d ships, %d of %d fleet cells", len(board.Ships()), occupied, engine.FleetSize()),
		fmt.Sprintf("✓ Grid coverage: %.1f%%", percent.PercentOf(occupied, engine.GridRows*engine.GridCols)),
	)

	if missing := missingShips(board.Ships()); len(missing) > 0 {
		result.Info = append(result.Info, "ℹ Missing ship classes: "+strings.Join(missing, ", "))
	}
	for _, pair := range touchingShips(board.Ships()) {
		result.Info = append(result.Info, "ℹ Ships touching: "+pair)
	}

	return result
}

// missingShips lists the fleet classes a layout leaves out.
func missingShips(ships []engine.Ship) []string {
	placed := make(map[engine.ShipType]bool, len(ships))
	for _, s := range ships {
		placed[s.Type] = true
	}
	var missing []string
	for _, t := range engine.ShipTypes {
		if !placed[t] {
			missing = append(missing, string(t))
		}
	}
	return missing
}

// touchingShips reports pairs of ships with orthogonally adjacent cells.
func touchingShips(ships []engine.Ship) []string {
	owner := make(map[engine.Position]engine.ShipType)
	for _, s := range ships {
		for _, c := range s.Cells {
			owner[c] = s.Type
		}
	}

	seen := make(map[string]bool)
	for _, s := range ships {
		for _, c := range s.Cells {
			for _, d := range engine.Directions {
				other, ok := owner[engine.Step(c, d)]
				if !ok || other == s.Type {
					continue
				}
				a, b := string(s.Type), string(other)
				if a > b {
					a, b = b, a
				}
				seen[a+"/"+b] = true
			}
		}
	}

	pairs := make([]string, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)
	return pairs
}

// layoutFiles returns every layout file in dir, sorted by name.
func layoutFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates every layout file, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	layoutDir := "../layouts"
	if len(os.Args) > 1 {
		layoutDir = os.Args[1]
	}

	files, err := layoutFiles(layoutDir)
	if err != nil {
		fmt.Printf("Error finding layout files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No layout files found in %s\n", layoutDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateLayout(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
			fmt.Print(result.Board.String())
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All layouts are valid!")
	} else {
		fmt.Println("❌ Some layouts have errors")
		os.Exit(1)
	}
}

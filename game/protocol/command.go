package protocol

import (
	"fmt"
	"regexp"
	"strings"
)

// CommandKind identifies a parsed command.
type CommandKind int

const (
	CommandInvalid CommandKind = iota
	CommandStartGame
	CommandCell
	CommandQuit
)

func (k CommandKind) String() string {
	switch k {
	case CommandStartGame:
		return "StartGame"
	case CommandCell:
		return "Cell"
	case CommandQuit:
		return "Quit"
	}
	return "InvalidCommand"
}

// Command is a parsed client request. X and Y are set only for CommandCell.
type Command struct {
	Kind CommandKind
	X, Y int
}

func (c Command) String() string {
	if c.Kind == CommandCell {
		return fmt.Sprintf("Cell(%d,%d)", c.X, c.Y)
	}
	return c.Kind.String()
}

// Wire keywords.
const (
	KeywordStartGame = "STARTGAME"
	KeywordQuit      = "QUIT"
)

var cellPattern = regexp.MustCompile(`^CELL:\[([0-9]),([0-9])\]$`)

// StartGame, Cell and Quit build commands without going through the parser.
func StartGame() Command { return Command{Kind: CommandStartGame} }
func Cell(x, y int) Command { return Command{Kind: CommandCell, X: x, Y: y} }
func Quit() Command { return Command{Kind: CommandQuit} }

// ParseCommand parses one line of client input. It never fails; input that
// does not match the grammar yields a CommandInvalid.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)

	switch line {
	case KeywordStartGame:
		return StartGame()
	case KeywordQuit:
		return Quit()
	}

	if m := cellPattern.FindStringSubmatch(line); m != nil {
		// Each group is a single ASCII digit.
		return Cell(int(m[1][0]-'0'), int(m[2][0]-'0'))
	}

	return Command{Kind: CommandInvalid}
}

// FormatCell renders the wire form of a Cell command.
func FormatCell(x, y int) string {
	return fmt.Sprintf("CELL:[%d,%d]", x, y)
}

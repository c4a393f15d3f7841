// Package layout manages named fleet layouts for the game server.
//
// A layout pins every ship of a fleet to a start cell and a direction. Layouts
// are stored one per file in a directory, as JSON or YAML:
//
//	{
//	  "name": "Classic",
//	  "description": "Carrier along the top edge",
//	  "ships": [
//	    {"ship": "C5", "x": 1, "y": 1, "direction": "right"},
//	    {"ship": "A2", "x": 9, "y": 9, "direction": "up"}
//	  ]
//	}
//
// The identifier of a layout is its file name without the extension. The
// name "auto" is reserved: it never reads a file and places the whole fleet
// at random.
//
// Usage:
//
//	manager, err := layout.NewManager("layouts")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	l, err := manager.Load("classic")
//	cfg, err := l.BoardConfig()
//	err = board.Setup(cfg)
//
// Layouts are validated when loaded and before they are saved, by running a
// full setup against a scratch board.
package layout

// Package line serves the text game protocol over TCP.
//
// Each connection gets its own protocol.Session, so boards are never shared
// between clients. Commands are newline-terminated:
//
//	STARTGAME
//	CELL:[x,y]
//	QUIT
//
// Every command receives exactly one reply line. The connection is closed
// after QUIT and after the move that completes the game.
package line

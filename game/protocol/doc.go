// Package protocol turns parsed game commands into board operations.
//
// A line such as "CELL:[3,4]" is parsed by ParseCommand into a Command. A
// Session holds the single board of one client and applies commands to it,
// producing a Result that carries both the outcome and the reply text.
//
// Grammar:
//
//	STARTGAME      start (or restart) a game with an automatically placed fleet
//	CELL:[x,y]     fire at column x, row y (single digits, 1-9 are on the grid)
//	QUIT           end the session
//
// Anything else is an invalid command, answered with "Nothing to do".
package protocol

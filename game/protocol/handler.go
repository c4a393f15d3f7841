package protocol

import (
	"fmt"

	"github.com/wricardo/mcp-training/battleship/game/engine"
)

// ResultKind classifies the outcome of a command.
type ResultKind int

const (
	ResultNothingToDo ResultKind = iota
	ResultStarted
	ResultSetupFailed
	ResultHit
	ResultMiss
	ResultNotStarted
	ResultGameComplete
	ResultQuit
)

func (k ResultKind) String() string {
	switch k {
	case ResultStarted:
		return "started"
	case ResultSetupFailed:
		return "setup_failed"
	case ResultHit:
		return "hit"
	case ResultMiss:
		return "miss"
	case ResultNotStarted:
		return "not_started"
	case ResultGameComplete:
		return "game_complete"
	case ResultQuit:
		return "quit"
	}
	return "nothing_to_do"
}

// Result is the outcome of Session.Handle.
type Result struct {
	Kind  ResultKind
	Hit   bool  // set for Cell commands on an existing board
	Score int   // set for ResultGameComplete
	Err   error // set for ResultSetupFailed
}

// Message returns the reply line sent to the client, without a newline.
func (r Result) Message() string {
	switch r.Kind {
	case ResultStarted:
		return "Starting new game."
	case ResultSetupFailed:
		return fmt.Sprintf("Could not start game: %v", r.Err)
	case ResultHit:
		return "HIT"
	case ResultMiss:
		return "MISS"
	case ResultNotStarted:
		return "No game started."
	case ResultGameComplete:
		return fmt.Sprintf("Game successfully completed. Score: %d", r.Score)
	case ResultQuit:
		return "Goodbye."
	}
	return "Nothing to do"
}

// Terminal reports whether the connection should be closed after replying.
func (r Result) Terminal() bool {
	return r.Kind == ResultQuit || r.Kind == ResultGameComplete
}

// BoardFactory creates the board for a new game.
type BoardFactory func() *engine.Board

// Session is the per-client game state: one board, or none before STARTGAME.
// A Session is used by a single goroutine.
type Session struct {
	board    *engine.Board
	newBoard BoardFactory
	config   engine.BoardConfig
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithBoardFactory overrides how boards are created, e.g. to seed placement.
func WithBoardFactory(f BoardFactory) SessionOption {
	return func(s *Session) {
		s.newBoard = f
	}
}

// WithBoardConfig sets the placement used when a game starts. Defaults to auto.
func WithBoardConfig(cfg engine.BoardConfig) SessionOption {
	return func(s *Session) {
		s.config = cfg
	}
}

// NewSession returns a session with no game in progress.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		newBoard: func() *engine.Board { return engine.NewBoard() },
		config:   engine.AutoConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Board returns the current board, or nil if no game has been started.
func (s *Session) Board() *engine.Board {
	return s.board
}

// Handle applies cmd to the session.
func (s *Session) Handle(cmd Command) Result {
	switch cmd.Kind {
	case CommandStartGame:
		return s.start()
	case CommandCell:
		return s.fire(cmd.X, cmd.Y)
	case CommandQuit:
		return Result{Kind: ResultQuit}
	}
	return Result{Kind: ResultNothingToDo}
}

// start replaces any current board with a freshly populated one. On failure
// the previous board is kept.
func (s *Session) start() Result {
	board := s.newBoard()
	if err := board.Setup(s.config); err != nil {
		return Result{Kind: ResultSetupFailed, Err: err}
	}
	s.board = board
	return Result{Kind: ResultStarted}
}

func (s *Session) fire(x, y int) Result {
	if s.board == nil {
		return Result{Kind: ResultNotStarted}
	}

	hit := s.board.Hit(engine.NewPosition(x, y))
	if s.board.IsComplete() {
		return Result{Kind: ResultGameComplete, Hit: hit, Score: s.board.Shots()}
	}
	if hit {
		return Result{Kind: ResultHit, Hit: true}
	}
	return Result{Kind: ResultMiss}
}

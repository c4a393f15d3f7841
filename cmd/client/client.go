package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/battleship/game/engine"
	"github.com/wricardo/mcp-training/battleship/game/protocol"
)

var (
	ErrNotStarted      = errors.New("server reports no game started")
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// Server replies to a CELL command, as the protocol package formats them.
var (
	hitReply        = protocol.Result{Kind: protocol.ResultHit}.Message()
	missReply       = protocol.Result{Kind: protocol.ResultMiss}.Message()
	notStartedReply = protocol.Result{Kind: protocol.ResultNotStarted}.Message()
	completePrefix  = strings.TrimSuffix(protocol.Result{Kind: protocol.ResultGameComplete}.Message(), "0")
)

// Reply is a parsed answer to a shot.
type Reply struct {
	Hit      bool
	Complete bool
	Score    int
}

// parseReply interprets the server's answer to a CELL command.
func parseReply(line string) (Reply, error) {
	switch {
	case line == hitReply:
		return Reply{Hit: true}, nil
	case line == missReply:
		return Reply{}, nil
	case line == notStartedReply:
		return Reply{}, ErrNotStarted
	case strings.HasPrefix(line, completePrefix):
		score, err := strconv.Atoi(strings.TrimPrefix(line, completePrefix))
		if err != nil {
			return Reply{}, fmt.Errorf("%w: %q", ErrUnexpectedReply, line)
		}
		// A finished board answers every cell this way, so the reply says
		// nothing about whether this shot hit.
		return Reply{Complete: true, Score: score}, nil
	}
	return Reply{}, fmt.Errorf("%w: %q", ErrUnexpectedReply, line)
}

// Client speaks the line protocol over a single connection.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: 10 * time.Second,
	}
}

// Dial connects to a line protocol server.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewClient(conn), nil
}

// Send writes one command line and returns the reply without its newline.
func (c *Client) Send(line string) (string, error) {
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if _, err := fmt.Fprintf(c.conn, "%s\n", line); err != nil {
		return "", fmt.Errorf("send %q: %w", line, err)
	}
	reply, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read reply to %q: %w", line, err)
	}
	return strings.TrimRight(reply, "\r\n"), nil
}

// StartGame asks the server for a new board.
func (c *Client) StartGame() error {
	reply, err := c.Send(protocol.KeywordStartGame)
	if err != nil {
		return err
	}
	if reply != "Starting new game." {
		return fmt.Errorf("%w: %q", ErrUnexpectedReply, reply)
	}
	return nil
}

// Fire shoots at p.
func (c *Client) Fire(p engine.Position) (Reply, error) {
	reply, err := c.Send(protocol.FormatCell(p.X, p.Y))
	if err != nil {
		return Reply{}, err
	}
	return parseReply(reply)
}

// Quit ends the conversation. The server closes the connection afterwards.
func (c *Client) Quit() error {
	reply, err := c.Send(protocol.KeywordQuit)
	if err != nil {
		return err
	}
	if reply != "Goodbye." {
		return fmt.Errorf("%w: %q", ErrUnexpectedReply, reply)
	}
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Outcome summarises one game.
type Outcome struct {
	Shots    int
	Hits     int
	Score    int
	Complete bool
}

// Play starts a game and fires where the strategy says until the fleet is
// sunk, the strategy runs dry or maxShots is reached. An unfinished game is
// ended with QUIT.
func Play(c *Client, s Strategy, maxShots int) (*Outcome, error) {
	if err := c.StartGame(); err != nil {
		return nil, err
	}

	out := &Outcome{}
	for maxShots <= 0 || out.Shots < maxShots {
		p, ok := s.Next()
		if !ok {
			break
		}
		reply, err := c.Fire(p)
		if err != nil {
			return out, err
		}
		out.Shots++
		// The first complete reply answers the shot that sank the last ship.
		hit := reply.Hit || reply.Complete
		if hit {
			out.Hits++
		}
		s.Record(p, hit)
		if reply.Complete {
			out.Complete = true
			out.Score = reply.Score
			return out, nil
		}
	}

	return out, c.Quit()
}

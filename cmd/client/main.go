// Command client plays the fleet game over the line protocol. It connects to
// the server, starts a game and fires until the fleet is sunk, optionally
// repeating for several games and reporting the average score.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/battleship/transport/line"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "client",
		Usage: "Play the fleet game over the line protocol",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "localhost" + line.DefaultAddr, Usage: "Line protocol server address", Sources: cli.EnvVars("LINE_ADDR")},
			&cli.StringFlag{Name: "strategy", Value: "hunt", Usage: "Firing strategy: sweep or hunt"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "Number of games to play"},
			&cli.IntFlag{Name: "max-shots", Value: 0, Usage: "Give up after this many shots, 0 for no limit"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: run,
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("client failed")
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("v") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	addr := cmd.String("addr")
	games := int(cmd.Int("games"))
	log.Info().Str("addr", addr).Str("strategy", cmd.String("strategy")).Int("games", games).Msg("Connecting to game server")

	total, completed := 0, 0
	for i := 1; i <= games; i++ {
		if ctx.Err() != nil {
			break
		}
		strategy, err := NewStrategy(cmd.String("strategy"))
		if err != nil {
			return err
		}

		out, err := playOne(ctx, addr, strategy, int(cmd.Int("max-shots")))
		if err != nil {
			return fmt.Errorf("game %d: %w", i, err)
		}

		if out.Complete {
			completed++
			total += out.Score
			log.Info().Int("game", i).Int("score", out.Score).Int("hits", out.Hits).Msg("Fleet sunk")
		} else {
			log.Warn().Int("game", i).Int("shots", out.Shots).Int("hits", out.Hits).Msg("Gave up")
		}
	}

	if completed > 0 {
		log.Info().
			Int("completed", completed).
			Float64("average_score", float64(total)/float64(completed)).
			Msg("Done")
	}
	return nil
}

func playOne(ctx context.Context, addr string, s Strategy, maxShots int) (*Outcome, error) {
	c, err := Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return Play(c, s, maxShots)
}

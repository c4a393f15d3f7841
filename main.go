// Command battleship starts the fleet game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket,
//     an /mcp HTTP endpoint and the line protocol listener
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control listen addresses, the layouts directory, logging, session
// expiry and optional ngrok tunneling for external access during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/battleship/api"
	"github.com/wricardo/mcp-training/battleship/game/layout"
	"github.com/wricardo/mcp-training/battleship/game/service"
	"github.com/wricardo/mcp-training/battleship/game/session"
	"github.com/wricardo/mcp-training/battleship/transport/line"
	"github.com/wricardo/mcp-training/battleship/transport/mcp"
	"github.com/wricardo/mcp-training/battleship/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Fleet Game Server"
)

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newCommand()
	cmd.Before = func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		setupLogging(os.Stderr, cmd.String("log-level"), cmd.Bool("debug"))
		if envErr == nil {
			log.Debug().Msg("Loaded environment variables from .env file")
		} else if !os.IsNotExist(envErr) {
			log.Warn().Err(envErr).Msg("Error loading .env file")
		}
		return ctx, nil
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("exit")
	}
}

// newCommand builds the command tree. Flags declared on the root are visible
// to every subcommand.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "battleship",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "line-addr",
				Value:   line.DefaultAddr,
				Usage:   "Line protocol listen address, empty to disable",
				Sources: cli.EnvVars("LINE_ADDR"),
			},
			&cli.StringFlag{
				Name:    "layouts-dir",
				Value:   "layouts",
				Usage:   "Directory containing fleet layouts",
				Sources: cli.EnvVars("LAYOUTS_DIR"),
			},
			&cli.IntFlag{
				Name:    "seed",
				Usage:   "Seed for auto placement, 0 for time based",
				Sources: cli.EnvVars("SEED"),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Value:   24 * time.Hour,
				Usage:   "Remove sessions idle for longer than this, 0 keeps them forever",
				Sources: cli.EnvVars("SESSION_TTL"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, MCP endpoint and line protocol (default)",
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCP,
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
					return err
				},
			},
		},
	}
}

// setupLogging configures the global zerolog logger. Terminals get the
// console writer; anything else gets JSON lines.
func setupLogging(out io.Writer, level string, debug bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// services bundles everything the transports share.
type services struct {
	game     service.GameService
	sessions *session.Manager
	layouts  *layout.Manager
}

// initializeServices wires the session and layout managers into the game service.
func initializeServices(layoutsDir string, seed uint64) (*services, error) {
	layouts, err := layout.NewManager(layoutsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create layout manager: %w", err)
	}

	sessions := session.NewManager()
	game := service.NewGameService(sessions, layouts, service.WithSeed(seed))

	return &services{game: game, sessions: sessions, layouts: layouts}, nil
}

// newRouter combines the REST API, WebSocket and the /mcp endpoint.
func newRouter(gameService service.GameService, hub *websocket.Hub, mcpClient *mcp.Client) http.Handler {
	router := mux.NewRouter()
	router.Handle("/mcp", mcpClient)
	router.PathPrefix("/").Handler(api.NewServer(gameService, hub))
	return router
}

// runServer starts the HTTP server, the line protocol listener and, when
// enabled, an ngrok tunnel. It blocks until ctx is cancelled.
func runServer(ctx context.Context, cmd *cli.Command) error {
	seed := uint64(cmd.Int("seed"))
	svc, err := initializeServices(cmd.String("layouts-dir"), seed)
	if err != nil {
		return err
	}

	log.Info().Str("version", Version).Str("mode", "server").Msgf("Starting %s", AppName)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub(websocket.WithFire(svc.game.Fire))
	go hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	mcpClient := mcp.NewClient("http://" + addr)
	router := newRouter(svc.game, hub, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().
			Str("addr", addr).
			Str("api", fmt.Sprintf("http://%s/api", addr)).
			Str("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if lineAddr := cmd.String("line-addr"); lineAddr != "" {
		lineServer := line.NewServer(lineAddr)
		lineServer.NewSession = line.SeededSessions(seed)
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Str("addr", lineAddr).Msg("Line protocol listening")
			if err := lineServer.ListenAndServe(ctx); err != nil {
				errs <- fmt.Errorf("line server failed: %w", err)
				cancel()
			}
		}()
	}

	if ttl := cmd.Duration("session-ttl"); ttl > 0 {
		go sessionCleanupRoutine(ctx, svc.sessions, ttl)
	}

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), router)
		}()
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("Server stopped")

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

// runNgrok exposes handler through an ngrok tunnel until ctx is cancelled.
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Warn().Msg("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Info().Msg("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("Failed to start ngrok tunnel")
		return
	}

	stop := context.AfterFunc(ctx, func() {
		if err := tun.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close ngrok tunnel")
		}
	})
	defer stop()

	url := tun.URL()
	log.Info().
		Str("url", url).
		Str("api", url+"/api").
		Str("websocket", url+"/ws?session=<session_id>").
		Str("mcp", url+"/mcp").
		Msg("Ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("Ngrok server error")
	}
	log.Info().Msg("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	interval := min(ttl, time.Hour)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.Info().Int("removed", removed).Int("remaining", manager.Count()).Msg("Cleaned up expired sessions")
			}
		}
	}
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening on
// host:port; otherwise it starts an internal one on a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	externalURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), cmd.Int("port"))
	baseURL, shutdown, err := resolveAPI(ctx, externalURL, func() (*services, error) {
		return initializeServices(cmd.String("layouts-dir"), uint64(cmd.Int("seed")))
	})
	if err != nil {
		return err
	}
	defer shutdown()

	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")
	return mcp.NewClient(baseURL).ServeStdio()
}

// resolveAPI returns externalURL when an API answers there. Otherwise it starts
// an internal API on 127.0.0.1 and returns its URL with a shutdown func.
func resolveAPI(ctx context.Context, externalURL string, init func() (*services, error)) (string, func(), error) {
	log.Debug().Str("url", externalURL).Msg("Checking for external API server")

	hc := &http.Client{Timeout: 2 * time.Second}
	resp, err := hc.Get(externalURL + "/api/health")
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode < 500 {
			log.Info().Str("url", externalURL).Msg("External API server found, using it for MCP")
			return externalURL, func() {}, nil
		}
	}

	log.Info().Msg("No external API server found, starting internal HTTP server")

	svc, err := init()
	if err != nil {
		return "", nil, err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hubCtx, cancel := context.WithCancel(ctx)
	hub := websocket.NewHub(websocket.WithFire(svc.game.Fire))
	go hub.Run(hubCtx)

	httpServer := &http.Server{Handler: api.NewServer(svc.game, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Internal HTTP server error")
		}
	}()

	shutdown := func() {
		cancel()
		httpServer.Close()
	}
	return "http://" + listener.Addr().String(), shutdown, nil
}

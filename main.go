// Command controlrelay starts the classroom control relay.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the WebSocket relay, REST API, metrics and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server against a running relay, or an internal one if none is reachable
//
// Settings come from the environment (and an optional .env file); flags
// override them. An optional ngrok tunnel exposes the relay publicly during
// development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/controlrelay/api"
	"github.com/wricardo/mcp-training/controlrelay/classroom"
	"github.com/wricardo/mcp-training/controlrelay/config"
	"github.com/wricardo/mcp-training/controlrelay/metrics"
	"github.com/wricardo/mcp-training/controlrelay/transport/mcp"
	"github.com/wricardo/mcp-training/controlrelay/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Classroom Control Relay"
)

const shutdownTimeout = 10 * time.Second

var errEnvFileSkipped = errors.New(".env not loaded")

// envFileErr is the outcome of loading .env, reported once a logger exists.
var envFileErr = errEnvFileSkipped

func main() {
	// Load .env file if it exists
	envFileErr = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "controlrelay",
		Usage:   "Relay a shared game between one teacher and a class of students",
		Version: Version,
		Flags:   serveFlags(),
		Action:  runServe,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run the HTTP server with WebSocket relay, REST API and MCP endpoint",
				Flags:   serveFlags(),
				Action:  runServe,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run an MCP stdio server that drives a relay over its REST API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "relay-url",
						Usage: "Base URL of the relay (default RELAY_URL)",
					},
					&cli.StringFlag{
						Name:  "log-level",
						Usage: "Log level (default LOG_LEVEL)",
					},
				},
				Action: runStdioMCP,
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

// serveFlags returns fresh flag values; a flag instance can only be
// attached to one command.
func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "port", Usage: "HTTP server port (default PORT or 3000)"},
		&cli.StringFlag{Name: "host", Usage: "HTTP server host (default HOST, all interfaces)"},
		&cli.StringFlag{Name: "static-dir", Usage: "Directory with the browser client (default STATIC_DIR or public)"},
		&cli.StringFlag{Name: "log-level", Usage: "Log level: debug, info, warn, error (default LOG_LEVEL)"},
		&cli.StringFlag{Name: "log-format", Usage: "Log format: console or json (default LOG_FORMAT)"},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (default NGROK_ENABLED)"},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (default NGROK_DOMAIN)"},
	}
}

// loadConfig reads the environment and applies any flags set on cmd.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("static-dir") {
		cfg.StaticDir = cmd.String("static-dir")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = strings.ToLower(cmd.String("log-level"))
	}
	if cmd.IsSet("log-format") {
		cfg.LogFormat = strings.ToLower(cmd.String("log-format"))
	}
	if cmd.IsSet("ngrok") {
		cfg.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	}
	if cmd.IsSet("relay-url") {
		cfg.RelayURL = cmd.String("relay-url")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the root logger and reports how the .env file loaded.
func newLogger(cfg *config.Config) zerolog.Logger {
	logger := cfg.NewLogger(os.Stderr)

	switch {
	case envFileErr == nil:
		logger.Info().Msg("Loaded environment variables from .env file")
	case errors.Is(envFileErr, errEnvFileSkipped), errors.Is(envFileErr, os.ErrNotExist):
	default:
		logger.Warn().Err(envFileErr).Msg("Error loading .env file")
	}
	return logger
}

// buildRelay wires router, hub and HTTP surface. When mcpBaseURL is set an
// MCP endpoint proxying to that URL is mounted at /mcp.
func buildRelay(cfg *config.Config, logger zerolog.Logger, mcpBaseURL string) (*websocket.Hub, http.Handler) {
	router := classroom.NewRouter(logger.With().Str("component", "router").Logger())
	hub := websocket.NewHub(router, logger.With().Str("component", "hub").Logger(), websocket.Options{
		MaxMessageSize: cfg.MaxMessageSize,
		SendBuffer:     cfg.SendBuffer,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	apiServer := api.NewServer(hub, cfg.StaticDir, logger.With().Str("component", "api").Logger())
	if mcpBaseURL != "" {
		apiServer.Handle("/mcp", mcp.NewClient(mcpBaseURL, Version))
	}
	return hub, apiServer
}

// selfURL is the loopback URL the in-process MCP endpoint calls back on.
func selfURL(cfg *config.Config) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, fmt.Sprint(cfg.Port))
}

// runServe starts the relay and blocks until ctx is cancelled or a listener
// fails.
func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	metrics.Register()

	hub, handler := buildRelay(cfg, logger, selfURL(cfg))
	addr := cfg.Addr()

	logger.Info().Str("version", Version).Str("addr", addr).Msg("Starting " + AppName)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info().
			Str("websocket", "ws://"+addr+"/ws").
			Str("api", "http://"+addr+"/api").
			Str("mcp", "http://"+addr+"/mcp").
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Ngrok.Enabled {
		g.Go(func() error {
			return serveNgrok(gctx, cfg.Ngrok, handler, logger.With().Str("component", "ngrok").Logger())
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
		}
		return nil
	})

	err = g.Wait()
	logger.Info().Msg("Server stopped")
	return err
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is done. A
// tunnel that fails to start is logged and does not stop the relay.
func serveNgrok(ctx context.Context, cfg config.NgrokConfig, handler http.Handler, logger zerolog.Logger) error {
	logger.Info().Msg("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
		logger.Info().Str("domain", cfg.Domain).Msg("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start ngrok tunnel")
		return nil
	}

	ngrokURL := tun.URL()
	logger.Info().
		Str("url", ngrokURL).
		Str("websocket", strings.Replace(ngrokURL, "https://", "wss://", 1)+"/ws").
		Str("mcp", ngrokURL+"/mcp").
		Msg("Ngrok tunnel established")

	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ngrok serve: %w", err)
	}
	logger.Info().Msg("Ngrok tunnel closed")
	return nil
}

// relayReachable reports whether a relay answers its health check at baseURL.
func relayReachable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It targets the relay at RELAY_URL
// when one answers; otherwise it starts an internal relay bound to a random
// loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	baseURL := cfg.RelayURL
	logger.Info().Str("url", baseURL).Msg("Checking for relay")

	if !relayReachable(ctx, baseURL) {
		logger.Info().Msg("No relay found, starting internal relay")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}

		hub, handler := buildRelay(cfg, logger, "")
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: handler}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		logger.Info().Str("url", baseURL).Msg("Internal relay listening")
	}

	mcpClient := mcp.NewClient(baseURL, Version)
	logger.Info().Str("relay", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}

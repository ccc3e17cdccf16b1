package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sammcj/mcp-git-ops/internal/cli"
	"github.com/sammcj/mcp-git-ops/internal/config"
	"github.com/sammcj/mcp-git-ops/internal/registry"
	"github.com/sirupsen/logrus"
	urfavecli "github.com/urfave/cli/v3"

	// Import all tool packages to register them
	_ "github.com/sammcj/mcp-git-ops/internal/imports"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global resources that need cleanup
// Using atomic operations to prevent race conditions between signal handlers and cleanup
var (
	debugLogFile atomic.Pointer[os.File]
	isStdioMode  atomic.Bool
)

// parseLogLevel parses the LOG_LEVEL environment variable (falling back to the
// config file value) and returns the appropriate logrus level.
func parseLogLevel(configured string) logrus.Level {
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = configured
	}

	switch strings.ToLower(strings.TrimSpace(logLevelStr)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}

// orDefault returns value unless it is empty.
func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func main() {
	// Load .env if present; absence is fine
	_ = godotenv.Load()

	// Create context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create a logger with default configuration
	// Initially discard output - will be reconfigured once the transport mode is known
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Optional server defaults from ~/.mcp-git-ops/config.yaml
	cfg, cfgErr := config.Load()
	if cfg == nil {
		cfg = &config.ServerConfig{}
	}
	logger.SetLevel(parseLogLevel(cfg.LogLevel))

	// Initialise the registry
	registry.Init(logger)

	// Ensure cleanup runs on normal exit OR signal
	defer performCleanup()

	app := &urfavecli.Command{
		Name:    "mcp-git-ops",
		Usage:   "MCP server exposing git staging, commit, push and status tools",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   orDefault(cfg.Transport, "stdio"),
				Usage:   "Transport type (stdio, sse, or http)",
			},
			&urfavecli.StringFlag{
				Name:  "port",
				Value: orDefault(cfg.Port, "5001"),
				Usage: "Port to use for HTTP transports (SSE and Streamable HTTP)",
			},
			&urfavecli.StringFlag{
				Name:  "base-url",
				Value: orDefault(cfg.BaseURL, "http://localhost"),
				Usage: "Base URL for HTTP transports",
			},
			&urfavecli.StringFlag{
				Name:  "auth-token",
				Value: cfg.AuthToken,
				Usage: "Bearer token for the Streamable HTTP transport (optional)",
			},
			&urfavecli.StringFlag{
				Name:  "endpoint-path",
				Value: orDefault(cfg.EndpointPath, "/http"),
				Usage: "Endpoint path for Streamable HTTP transport",
			},
		},
		Commands: []*urfavecli.Command{
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *urfavecli.Command) error {
					fmt.Printf("mcp-git-ops version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
			{
				Name:  "cli",
				Usage: "Invoke tools directly without starting a server",
				Commands: []*urfavecli.Command{
					{
						Name:  "list",
						Usage: "List available tools",
						Action: func(ctx context.Context, cmd *urfavecli.Command) error {
							return newCLIRunner(logger, cfg).ListTools()
						},
					},
					{
						Name:      "help",
						Usage:     "Show parameters and usage for a tool",
						ArgsUsage: "<tool>",
						Action: func(ctx context.Context, cmd *urfavecli.Command) error {
							name := cmd.Args().First()
							if name == "" {
								return fmt.Errorf("usage: mcp-git-ops cli help <tool>")
							}
							return newCLIRunner(logger, cfg).HelpTool(name)
						},
					},
					{
						Name:      "run",
						Usage:     "Run a tool with --key=value flags or a JSON object",
						ArgsUsage: "<tool> [args...]",
						Action: func(ctx context.Context, cmd *urfavecli.Command) error {
							name := cmd.Args().First()
							if name == "" {
								return fmt.Errorf("usage: mcp-git-ops cli run <tool> [args...]")
							}
							return newCLIRunner(logger, cfg).RunTool(ctx, name, cmd.Args().Tail())
						},
					},
				},
			},
		},
		Action: func(cliCtx context.Context, cmd *urfavecli.Command) error {
			transport := cmd.String("transport")
			port := cmd.String("port")
			baseURL := cmd.String("base-url")

			// Track stdio mode for error handling (atomic to prevent races with signal handlers)
			isStdioMode.Store(transport == "stdio")

			// Configure logger - ALWAYS use file logging to avoid breaking the stdio protocol
			configureLogging(logger, cfg)

			if cfgErr != nil {
				logger.WithError(cfgErr).Warn("Failed to load config file, using defaults")
			}

			if transport != "stdio" {
				logger.Infof("Starting mcp-git-ops version %s (commit: %s, built: %s)",
					Version, Commit, BuildDate)
			}

			mcpSrv := mcpserver.NewMCPServer("mcp-git-ops", Version)

			registered := registry.GetTools()
			logger.WithField("tool_count", len(registered)).Debug("MCP server created, registering tools")

			for toolName := range registered {
				name := toolName
				tool := registered[name]

				if transport != "stdio" {
					logger.Infof("Registering tool: %s", name)
				}

				mcpSrv.AddTool(tool.Definition(), func(toolCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
					currentTool, ok := registry.GetTool(name)
					if !ok {
						return nil, fmt.Errorf("tool not found: %s", name)
					}

					args, ok := request.Params.Arguments.(map[string]any)
					if !ok {
						return nil, fmt.Errorf("invalid arguments type: expected map[string]interface{}, got %T", request.Params.Arguments)
					}

					result, err := currentTool.Execute(toolCtx, registry.GetLogger(), registry.GetCache(), args)
					if err != nil {
						if transport != "stdio" {
							logger.WithError(err).Errorf("Tool execution failed: %s", name)
						}
						return nil, fmt.Errorf("tool execution failed: %w", err)
					}
					return result, nil
				})
			}

			logger.WithField("transport", transport).Debug("Starting server")
			switch transport {
			case "stdio":
				return mcpserver.ServeStdio(mcpSrv)
			case "sse":
				logger.WithField("port", port).Debug("Starting SSE server")
				sseServer := mcpserver.NewSSEServer(mcpSrv, mcpserver.WithBaseURL(baseURL+"/sse"))
				return sseServer.Start(":" + port)
			case "http":
				logger.WithField("port", port).Debug("Starting HTTP server")
				return startStreamableHTTPServer(cmd, mcpSrv, logger)
			default:
				return fmt.Errorf("unsupported transport: %s", transport)
			}
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		// In stdio mode nothing may be written to stdout or stderr, as it
		// breaks the MCP protocol.
		if !isStdioMode.Load() {
			logger.SetOutput(os.Stderr)
			logger.Fatalf("Error: %v", err)
		}
		os.Exit(1)
	}
}

// newCLIRunner builds a Runner for direct tool invocation. CLI output goes to
// stdout; logs go to stderr since no protocol runs on the std streams here.
func newCLIRunner(logger *logrus.Logger, cfg *config.ServerConfig) *cli.Runner {
	logger.SetOutput(os.Stderr)
	logger.SetLevel(parseLogLevel(cfg.LogLevel))
	return cli.NewRunner(logger, registry.GetCache(), os.Stdout)
}

// configureLogging routes logs to ~/.mcp-git-ops/logs/mcp-git-ops.log. When
// the log file cannot be opened, stdio mode discards logs entirely while
// other transports fall back to stderr.
func configureLogging(logger *logrus.Logger, cfg *config.ServerConfig) {
	logLevel := parseLogLevel(cfg.LogLevel)
	if isStdioMode.Load() && logLevel < logrus.WarnLevel {
		logLevel = logrus.WarnLevel // Minimum warn level for stdio mode
	}
	logger.SetLevel(logLevel)

	homeDir, err := os.UserHomeDir()
	if err == nil {
		logDir := filepath.Join(homeDir, ".mcp-git-ops", "logs")
		if err := os.MkdirAll(logDir, 0700); err == nil {
			logFile := filepath.Join(logDir, "mcp-git-ops.log")
			if file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
				debugLogFile.Store(file)
				logger.SetOutput(file)
				logger.WithField("level", logLevel.String()).Debug("Logging configured")
				return
			}
		}
	}

	if isStdioMode.Load() {
		logger.SetOutput(io.Discard)
	} else {
		logger.SetOutput(os.Stderr)
	}
}

// performCleanup handles cleanup of resources on shutdown
func performCleanup() {
	// Close the debug log file if it was opened (atomic load to prevent races)
	if file := debugLogFile.Load(); file != nil {
		// Silently close - we're in cleanup and can't safely log errors
		_ = file.Close()
	}
}

// startStreamableHTTPServer configures and starts the Streamable HTTP server
func startStreamableHTTPServer(cmd *urfavecli.Command, mcpServer *mcpserver.MCPServer, logger *logrus.Logger) error {
	port := cmd.String("port")
	authToken := cmd.String("auth-token")
	endpointPath := cmd.String("endpoint-path")

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(endpointPath),
		mcpserver.WithHeartbeatInterval(30 * time.Second),
		mcpserver.WithLogger(&logrusAdapter{logger: logger}),
	}

	if authToken != "" {
		opts = append(opts, mcpserver.WithHTTPContextFunc(createAuthMiddleware(authToken, logger)))
		logger.Info("Bearer token authentication enabled")
	}

	httpServer := mcpserver.NewStreamableHTTPServer(mcpServer, opts...)

	logger.Infof("Starting Streamable HTTP server on port %s with endpoint %s", port, endpointPath)
	return httpServer.Start(":" + port)
}

// createAuthMiddleware creates an HTTP context function for token authentication
func createAuthMiddleware(expectedToken string, logger *logrus.Logger) mcpserver.HTTPContextFunc {
	return func(ctx context.Context, req *http.Request) context.Context {
		authHeader := req.Header.Get("Authorization")
		if authHeader == "" {
			logger.Warn("Request missing Authorization header")
			return ctx
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			logger.Warn("Invalid authorization format, expected Bearer token")
			return ctx
		}

		if strings.TrimPrefix(authHeader, bearerPrefix) != expectedToken {
			logger.Warn("Invalid authentication token")
			return ctx
		}

		logger.Debug("Request authenticated successfully")
		return ctx
	}
}

// logrusAdapter adapts logrus.Logger to the mcp-go util.Logger interface
type logrusAdapter struct {
	logger *logrus.Logger
}

func (l *logrusAdapter) Debugf(format string, args ...any) {
	l.logger.Debugf(format, args...)
}

func (l *logrusAdapter) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *logrusAdapter) Warnf(format string, args ...any) {
	l.logger.Warnf(format, args...)
}

func (l *logrusAdapter) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}

package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

var version = "dev"

// Global is shared with every command.
type Global struct {
	Logger *slog.Logger
	Level  slog.LevelVar
}

type CLI struct {
	LogLevel string           `name:"log-level" help:"Log level (debug, info, warn, error). Overrides LOG_LEVEL."`
	EnvFile  []string         `name:"env-file" help:"Load environment variables from these files before reading configuration." type:"path"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve  ServeCmd  `cmd:"" default:"1" help:"Serve the documentation site"`
	Routes RoutesCmd `cmd:"" help:"Print the route table compiled from the manifest"`
	Check  CheckCmd  `cmd:"" help:"Validate the manifest and report pages without a document"`
	MCP    MCPCmd    `cmd:"" name:"mcp" help:"Serve navigation tools over MCP stdio"`
}

// AfterApply loads env files and sets up logging once flags are parsed.
func (c *CLI) AfterApply(g *Global) error {
	if len(c.EnvFile) > 0 {
		if err := godotenv.Load(c.EnvFile...); err != nil {
			return err
		}
	}
	level := c.LogLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	g.Level.Set(parseLevel(level))
	g.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &g.Level}))
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	// A .env next to the binary is optional.
	_ = godotenv.Load()

	var cli CLI
	g := &Global{}
	ctx := kong.Parse(&cli,
		kong.Name("docnav"),
		kong.Description("Versioned documentation navigator."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Bind(g),
	)
	ctx.FatalIfErrorf(ctx.Run(g))
}

package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/cranial-tools-mcp/internal/config"
	log "github.com/ironsheep/cranial-tools-mcp/internal/log"
	"github.com/ironsheep/cranial-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// envFile is read at startup when present.
const envFile = ".env"

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("cranial-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("cranial-tools-mcp - MCP server for cranial photo measurement")
			fmt.Println()
			fmt.Println("Usage: cranial-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from ./.env):")
			fmt.Printf("  %-28s debug|info|warn|error (default info)\n", config.EnvLogLevel)
			fmt.Printf("  %-28s Also write a rotated log to this file\n", config.EnvLogFile)
			fmt.Printf("  %-28s scientific|dashboard (default scientific)\n", config.EnvThresholds)
			fmt.Printf("  %-28s JSON file overriding threshold bands\n", config.EnvThresholdsFile)
			fmt.Printf("  %-28s JSON growth reference table\n", config.EnvGrowthFile)
			fmt.Printf("  %-28s width|aspect (default width)\n", config.EnvAxisScaling)
			fmt.Printf("  %-28s en|pt-BR (default en)\n", config.EnvLocale)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	// Logs go to stderr; stdout is for the MCP protocol.
	if _, err := log.NewLogger(log.Options{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(2)
	}
	log.Debug(log.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"commit":     GitCommit,
		"thresholds": cfg.ThresholdsPreset,
		"axis":       cfg.AxisScaling,
		"locale":     cfg.Locale,
	}, "cranial MCP server starting")

	server.Version = Version
	srv, err := server.New(cfg)
	if err != nil {
		log.Error(log.Fields{"error": err}, "failed to start server")
		os.Exit(1)
	}
	if err := srv.Run(); err != nil {
		log.Error(log.Fields{"error": err}, "server error")
		os.Exit(1)
	}
}

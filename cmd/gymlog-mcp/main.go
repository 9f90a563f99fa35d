package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/gymlog/internal/identity"
	gymmcp "github.com/claude/gymlog/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// gymlog-mcp serves the MCP tools over stdio against a remote gymlog server.
func main() {
	serverURL := flag.String("server", "", "gymlog server URL (required)")
	flag.Parse()

	// stdout carries the protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: gymlog-mcp -server <URL>\n")
		os.Exit(1)
	}

	s := gymmcp.New(gymmcp.NewHTTPClient(*serverURL), Version, log)
	log.Info("gymlog-mcp serving on stdio", "server", *serverURL)
	if err := gymmcp.ServeStdio(s, identity.DevUser); err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}

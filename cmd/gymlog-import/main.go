package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/claude/gymlog/internal/importer"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "gymlog server URL (e.g. https://gymlog.tail1234.ts.net)")
	path := flag.String("path", "", "Alpha Progression CSV export, or a directory of exports")
	dryRun := flag.Bool("dry-run", false, "parse and convert but don't send to server")
	perSecond := flag.Float64("rate", 5, "maximum logs sent per second (0 = unlimited)")
	stateDir := flag.String("state-dir", "", "directory for import state (default ~/.gymlog-import)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("gymlog-import", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: gymlog-import -server <URL> -path <export.csv|dir> [-dry-run] [-rate N]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}
	*serverURL = strings.TrimRight(*serverURL, "/")

	if *stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		*stateDir = filepath.Join(home, ".gymlog-import")
	}
	state, err := importer.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	var sender importer.Sender
	if *dryRun {
		log.Info("DRY RUN mode: sessions are parsed and converted but not sent")
	} else {
		sender = importer.NewClient(*serverURL, *perSecond)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := importer.New(sender, state, *dryRun, log).Run(ctx, *path)
	printStats(stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	if stats.FilesErrored > 0 {
		log.Warn("import finished with errors", "files", stats.FilesErrored)
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(stats *importer.Stats) {
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files imported:   %d\n", stats.FilesImported)
	fmt.Printf("  Files skipped:    %d (already imported)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions parsed:  %d\n", stats.SessionsParsed)
	fmt.Printf("  Logs inserted:    %d\n", stats.LogsInserted)
	fmt.Printf("  Logs duplicate:   %d\n", stats.LogsDuplicate)
	fmt.Printf("  Sessions errored: %d\n", stats.SessionsErrored)
	fmt.Println()
}

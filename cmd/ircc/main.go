package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dalnet/ircc/internal/config"
	"github.com/dalnet/ircc/internal/irc"
	"github.com/pkg/errors"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	// Command line flags
	configPath := flag.String("c", "./config.yaml", "Path to configuration file")
	showVersion := flag.Bool("v", false, "Show version information and exit")
	showVersionLong := flag.Bool("version", false, "Show version information and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [-c config.yaml] [<host> [<port> [<nickname> [#channel...]]]]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Show version and exit
	if *showVersion || *showVersionLong {
		fmt.Printf("ircc version %s\n", version)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	// Set version info in irc package
	irc.Version = version
	irc.BuildDate = buildDate
	irc.GitCommit = gitCommit

	// Load configuration
	cfg, err := loadConfig(*configPath, flag.Args())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		flag.Usage()
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Run the client
	os.Exit(run(cfg))
}

// loadConfig reads the configuration file and applies the positional
// overrides. A missing file is only an error when no server is given on the
// command line
func loadConfig(path string, args []string) (*config.Config, error) {
	// Make config path absolute
	if !filepath.IsAbs(path) {
		wd, _ := os.Getwd()
		path = filepath.Join(wd, path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		if len(args) == 0 || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &config.Config{}
	}

	// Positional arguments override the file
	if len(args) > 0 {
		cfg.Server = args[0]
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", args[1], err)
		}
		cfg.Port = port
	}
	if len(args) > 2 {
		if cfg.Username == "" || cfg.Username == cfg.Nick {
			cfg.Username = args[2]
		}
		cfg.Nick = args[2]
	}
	if len(args) > 3 {
		cfg.Channels = args[3:]
	}

	cfg.SetDefaults()
	return cfg, nil
}

func run(cfg *config.Config) int {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Create IRC client
	client, err := irc.NewClient(cfg, log.Default())
	if err != nil {
		log.Fatalf("Failed to create IRC client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	con := newConsole(ctx, client, cfg, os.Stdout)
	con.register()

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		if err := client.Quit("Received shutdown signal"); err != nil {
			cancel()
		}
	}()

	// Connect and run
	log.Printf("Connecting to %s:%d...", cfg.Server, cfg.Port)
	if err := client.Connect(ctx); err != nil {
		log.Printf("Failed to connect: %v", err)
		return 1
	}

	done := make(chan error, 1)
	go func() { done <- client.Loop(ctx) }()
	go con.readInput(os.Stdin, cancel)

	err = <-done
	con.closeSessions()
	if err != nil && !errors.Is(err, context.Canceled) {
		return 1
	}
	return 0
}

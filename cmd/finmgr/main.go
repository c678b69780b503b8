package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"github.com/jask/finmgr/internal/config"
	"github.com/jask/finmgr/internal/logging"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&uiCmd{}, "")
	commander.Register(&serveCmd{}, "")
	commander.Register(&userAddCmd{}, "admin")
	commander.Register(&backupCmd{}, "admin")
	commander.Register(&demoCmd{}, "admin")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the bare command starts the UI
	if flag.NArg() == 0 {
		os.Exit(int((&uiCmd{}).Execute(ctx, flag.CommandLine)))
	}
	os.Exit(int(commander.Execute(ctx)))
}

// setup loads the configuration and opens the log. The returned func closes
// the log file.
func setup() (config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("config: %w", err)
	}
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("logging: %w", err)
	}
	return cfg, logger, func() { _ = closer.Close() }, nil
}

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}

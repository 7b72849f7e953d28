// voicelink-server runs the VoiceLink signaling server: it keeps user
// accounts, relays call signaling and chat between clients, and leases
// the UDP ports their media sessions use.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/opd-ai/voicelink/server"
	"github.com/opd-ai/voicelink/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := server.DefaultConfig()
	var dbPath, logLevel string

	flagSet := pflag.NewFlagSet("voicelink-server", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "TCP address to listen on")
	flagSet.StringVar(&dbPath, "db", "voicelink.db", "path to the SQLite account database")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	logrus.SetLevel(level)

	store, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("opening account database: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, store).Run(ctx)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rvasanth/cardpipe/internal/config"
	"github.com/rvasanth/cardpipe/internal/ocr"
	"github.com/rvasanth/cardpipe/internal/pipeline"
	"github.com/rvasanth/cardpipe/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "cardpipe: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cardpipe",
		Short: "Ingest PAN card images from a watch directory",
		Long: `cardpipe watches a directory for newly captured PAN card images, extracts
structured fields from each through an external OCR service, validates and
normalizes the result, persists it and archives the image.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newRunCmd(),
		newCheckCmd(),
	)
	return cmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process every pending image in the source directory once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			st, err := newStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			extractor := ocr.NewClient(cfg.OCRURL, cfg.OCRAPIKey, cfg.OCRAPIHost, cfg.TaskID, cfg.GroupID, cfg.OCRTimeout)
			_, err = pipeline.New(cfg, extractor, st, log).Run(ctx)
			return err
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and store connectivity, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			st, err := newStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := pingStore(ctx, st); err != nil {
				return err
			}
			log.Info().Str("backend", string(cfg.StoreBackend)).Msg("configuration ok")
			return nil
		},
	}
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.BackendObject:
		return store.NewObjectStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func pingStore(ctx context.Context, st store.Store) error {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if p, ok := st.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if cfg.LogFormat == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
}

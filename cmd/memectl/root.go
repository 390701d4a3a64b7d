package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
	"github.com/tendant/meme-catalog/pkg/memecatalog/config"
)

// serviceBuilder opens the catalog; the returned func releases it
type serviceBuilder func(ctx context.Context) (memecatalog.Service, func(), error)

// buildFromEnv uses the same environment configuration as memes-server
func buildFromEnv(ctx context.Context) (memecatalog.Service, func(), error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return cfg.BuildService(ctx, memecatalog.WithLogger(logger))
}

type app struct {
	build   serviceBuilder
	service memecatalog.Service
	closeFn func()
}

func newRootCmd(build serviceBuilder) (*cobra.Command, *app) {
	a := &app{build: build}

	root := &cobra.Command{
		Use:   "memectl",
		Short: "Manage the meme catalog directly through its stores",
		Long: `memectl drives the catalog coordinator without the HTTP server.

It reads the same environment as memes-server (DATABASE_URL, BLOB_STORE,
S3_* and so on) and loads an optional .env file from the working directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.build(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to open catalog: %w", err)
			}
			a.service = svc
			a.closeFn = closeFn
			return nil
		},
	}

	root.AddCommand(
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newRenameCmd(a),
		newDeleteCmd(a),
		newEnvCmd(),
	)
	return root, a
}

// close releases the catalog opened by the pre-run hook. It runs after
// Execute returns so failing commands release it too.
func (a *app) close() {
	if a.closeFn != nil {
		a.closeFn()
		a.closeFn = nil
	}
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the supported environment variables",
		// no catalog needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Usage())
		},
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/htol/bookshelf/config"
	"github.com/htol/bookshelf/logger"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/htol/bookshelf/app.Version=..."
var Version = "dev"

// runtimeError marks failures that happen after the arguments were accepted
type runtimeError struct {
	err error
}

func (e runtimeError) Error() string { return e.err.Error() }
func (e runtimeError) Unwrap() error { return e.err }

func CLI(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		var rt runtimeError
		if errors.As(err, &rt) {
			logger.Error("Runtime error", "error", rt.err)
			return 1
		}
		fmt.Fprintln(root.ErrOrStderr(), err)
		fmt.Fprintln(root.ErrOrStderr(), root.UsageString())
		return 2
	}
	return 0
}

type serveFlags struct {
	port  int
	store string
	db    string
	seed  string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookshelf",
		Short:         "In-memory book shelf served over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var fl serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// CLI flags override environment variables
			if err := fl.apply(cmd, cfg); err != nil {
				return err
			}

			logger.InitWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := serve(ctx, cfg); err != nil {
				return runtimeError{err}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&fl.port, "port", "p", 0, "Port number")
	cmd.Flags().StringVar(&fl.store, "store", "", "Store driver (memory or sqlite)")
	cmd.Flags().StringVar(&fl.db, "db", "", "Path to the SQLite database")
	cmd.Flags().StringVar(&fl.seed, "seed", "", "YAML seed file or directory")
	return cmd
}

func (fl serveFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = fl.port
	}
	if flags.Changed("store") {
		cfg.Store.Driver = strings.ToLower(fl.store)
	}
	if flags.Changed("db") {
		cfg.Store.Path = fl.db
	}
	if flags.Changed("seed") {
		cfg.Seed.Path = fl.seed
	}
	return cfg.Validate()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "bookshelf", Version)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	srv, err := NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("Closing storage...")
		if err := srv.Close(); err != nil {
			logger.Error("Error closing storage", "error", err)
		}
	}()

	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

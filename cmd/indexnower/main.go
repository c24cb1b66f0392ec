// Command indexnower manages tracked sites and submits their URLs to
// IndexNow, working directly against the configured state store.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/indexnow-service/internal/app"
	"github.com/user/indexnow-service/pkg/config"
	"github.com/user/indexnow-service/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cli carries state shared by all subcommands.
type cli struct {
	envFile string
	siteID  string
	verbose bool

	cfg *config.Config
	app *app.App
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "indexnower",
		Short:         "Track site URLs and submit new or changed ones to IndexNow",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown()
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env", ".env", "optional env file with configuration")
	root.PersistentFlags().StringVar(&c.siteID, "site", "", "site id (default is the active site)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		c.sitesCmd(),
		c.settingsCmd(),
		c.urlsCmd(),
		c.submitCmd(),
		c.exportCmd(),
		c.importCmd(),
	)
	return root
}

func (c *cli) setup(ctx context.Context) error {
	log, err := logger.NewCLI(c.verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	c.log = log

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger.Init(os.Stderr, level)

	cfg, err := config.LoadFile(c.envFile)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	c.app = a
	c.log.Debug("store opened", zap.String("backend", cfg.StoreBackend))
	return nil
}

func (c *cli) teardown() error {
	if c.log != nil {
		_ = c.log.Sync()
	}
	if c.app != nil {
		return c.app.Close()
	}
	return nil
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

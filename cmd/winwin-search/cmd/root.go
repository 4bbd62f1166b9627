// Package cmd provides the CLI commands for winwin-search.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heibaibufen/winwin-search/internal/config"
	"github.com/heibaibufen/winwin-search/internal/kb"
	"github.com/heibaibufen/winwin-search/internal/logging"
	"github.com/heibaibufen/winwin-search/internal/output"
	"github.com/heibaibufen/winwin-search/pkg/version"
)

var (
	configPath string
	debugMode  bool
)

// NewRootCmd creates the root command for the winwin-search CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "winwin-search",
		Short: "Local full-text search over your knowledge bases",
		Long: `winwin-search indexes local document collections and answers
full-text queries with BM25 ranking. It handles both English and
Chinese content and keeps indexes fresh with incremental passes.

Typical flow:
  winwin-search kb add docs ~/my-docs
  winwin-search index docs
  winwin-search search "how does replication work"`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("winwin-search version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.winwin-search/config.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newKBCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI, cancelling work on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)
	if err := root.ExecuteContext(ctx); err != nil {
		output.New(os.Stderr).Error(err.Error())
		return err
	}
	return nil
}

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg      *config.Config
	registry *config.Registry
	manager  *kb.Manager
	logger   *slog.Logger

	cleanups []func()
}

// newApp loads configuration, logging, the registry, and the manager.
func newApp() (*app, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	// Log to file only; stderr stays clean for command output and MCP stdio.
	logCfg.WriteToStderr = false
	if debugMode {
		logCfg.Level = "debug"
	}
	if cfg.Logging.File != "" {
		logCfg.FilePath = cfg.Logging.File
	}
	logger, logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, err
	}

	registry, err := config.LoadRegistry(cfg.RegistryPath())
	if err != nil {
		logCleanup()
		return nil, err
	}

	manager, err := kb.NewManager(cfg, registry, logger)
	if err != nil {
		logCleanup()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		registry: registry,
		manager:  manager,
		logger:   logger,
		cleanups: []func(){func() { _ = manager.Close() }, logCleanup},
	}, nil
}

// Close releases app resources in reverse acquisition order.
func (a *app) Close() {
	for _, f := range a.cleanups {
		f()
	}
}

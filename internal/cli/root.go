// Package cli implements the mentora command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mentora-ai/mentora/internal/backend"
	"github.com/mentora-ai/mentora/internal/bridge"
	"github.com/mentora-ai/mentora/internal/config"
	"github.com/mentora-ai/mentora/internal/course"
	"github.com/mentora-ai/mentora/internal/extract"
	"github.com/mentora-ai/mentora/internal/logging"
	"github.com/mentora-ai/mentora/internal/model"
	"github.com/mentora-ai/mentora/internal/prefs"
	"github.com/mentora-ai/mentora/internal/prompt"
	"github.com/mentora-ai/mentora/internal/stats"
)

// Version is set at build time.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mentora",
	Short: "Mentora host: web app, native bridge and on-device AI",
	Long: `Mentora hosts the course-creator web app, exposes native capabilities to it
through the bridge and generates learning content with an on-device model,
falling back to the Mentora backend when the device cannot.

Use "mentora [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.mentora/config.toml)")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Mentora %s\n", Version)
	},
}

// app holds the wired components for one command invocation.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	prefs  *prefs.Store
	models *model.Manager
	svc    *course.Service
	host   *bridge.Host
	disp   *bridge.Dispatcher

	logCloser io.Closer
}

// newApp loads the configuration and wires every component. The host is
// bound to ctx.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	store, err := prefs.Open(cfg.Paths.PrefsDB)
	if err != nil {
		closer.Close()
		return nil, err
	}

	engine, err := model.NewEngine(cfg.Engine)
	if err != nil {
		store.Close()
		closer.Close()
		return nil, err
	}

	models := model.NewManager(engine, model.Options{
		Simulate:       cfg.Generation.Simulate,
		RequestTimeout: cfg.Engine.RequestTimeout.Duration,
		Logger:         logger,
		Stats:          stats.NewCollector(),
	})

	host := bridge.NewHost(ctx, logger)
	native := bridge.NewHostNative(cfg.App.NetworkProbe, logger)
	svc := course.NewService(models, course.Options{
		Backend:      backend.New(cfg.Backend, logger),
		Web:          extract.NewWeb(0),
		Files:        extract.NewFiles(),
		Prompts:      prompt.NewBuilder(cfg.Generation.ContentBudget),
		ProgressStep: cfg.Generation.ProgressStep,
		Notify:       bridge.Notifier(host, native),
		Logger:       logger,
	})

	a := &app{
		cfg:       cfg,
		log:       logger,
		prefs:     store,
		models:    models,
		svc:       svc,
		host:      host,
		disp:      bridge.NewDispatcher(host, svc, store, native, logger),
		logCloser: closer,
	}
	if store.IsFirstLaunch() {
		logger.Info("first launch", "data_dir", cfg.Paths.DataDir)
		if err := store.SetFirstLaunch(false); err != nil {
			logger.Warn("failed to record first launch", "error", err)
		}
	}
	return a, nil
}

// Close stops background work and releases resources.
func (a *app) Close() {
	a.host.Close()
	if err := a.prefs.Close(); err != nil {
		a.log.Warn("closing preferences failed", "error", err)
	}
	a.logCloser.Close()
}

// printJSON writes v indented to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stderr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}

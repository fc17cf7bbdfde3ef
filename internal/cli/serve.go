package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mentora-ai/mentora/internal/api"
	"github.com/mentora-ai/mentora/internal/bridge"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: app.listen_addr)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bridgeCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web app and the bridge over HTTP",
	Long: `Start the local HTTP server. It serves the web app from app.web_dir,
accepts bridge calls on POST /bridge (events are streamed back as NDJSON)
and exposes /health and /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.App.ListenAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(a.disp, a.svc, a.cfg.App, a.log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("serving", "addr", addr, "web_dir", a.cfg.App.WebDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Run the bridge over stdin/stdout",
	Long: `Read length-prefixed JSON bridge requests from stdin and write events to
stdout. A webview shell spawns this command and pipes messages through it.
Logs go to stderr and the log file.`,
	Args: cobra.NoArgs,
	RunE: runBridge,
}

func runBridge(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.log.Info("bridge ready", "engine", a.models.Engine().Name(), "entry", a.cfg.EntryPath())
	return bridge.Serve(ctx, a.disp, cmd.InOrStdin(), cmd.OutOrStdout())
}

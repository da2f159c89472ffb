package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/daviddao/nexus/internal/api"
	"github.com/daviddao/nexus/internal/config"
	"github.com/daviddao/nexus/internal/dashboard"
	"github.com/daviddao/nexus/internal/display"
	"github.com/daviddao/nexus/internal/journal"
	"github.com/daviddao/nexus/internal/logging"
	"github.com/daviddao/nexus/internal/metrics"
	"github.com/daviddao/nexus/internal/tui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set via ldflags at build time.
var Version = "dev"

// drainTimeout bounds how long exit waits for cancelled requests to settle.
const drainTimeout = 2 * time.Second

var (
	configPath  string
	apiURL      string
	logFile     string
	metricsAddr string
	jsonOutput  bool
	quietFlag   bool
	verboseFlag bool

	cfg           *config.Config
	logger        *zap.Logger
	recorder      *metrics.Recorder
	metricsServer *http.Server
	activity      *journal.Journal
	shell         *dashboard.Shell
)

var rootCmd = &cobra.Command{
	Use:   "nx",
	Short: "nx - campus dashboard in the terminal",
	Long: `Nexus: mess menu, sentiment analysis, mail summaries and deadline
extraction from the campus backend, in one terminal dashboard.

Run without arguments for the interactive dashboard. When stdout is not a
terminal, nx prints the mess menu instead.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "version":
			return nil
		}
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal(os.Stdout) {
			return runMenu(cmd)
		}
		return runDashboard(cmd.Context())
	},
}

// runDashboard runs the TUI. Leaving it cancels requests still in flight and
// waits for their outcomes to be journaled before teardown closes the journal.
func runDashboard(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	m := tui.New(ctx, shell, cfg.Mail.DisplayLimit)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	cancel()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer drainCancel()
	if derr := shell.Drain(drainCtx); derr != nil {
		logger.Warn("requests still running at exit", zap.Error(derr))
	}

	if err != nil && parent.Err() == nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nx version %s\n", Version)
	},
}

// setup loads configuration and builds the shared shell.
func setup(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = logFile
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err = logging.New(cfg.Logging.Level, cfg.Logging.File, verboseFlag)
	if err != nil {
		return err
	}

	recorder = metrics.NewRecorder()
	if cfg.Metrics.Addr != "" {
		startMetricsServer(cfg.Metrics.Addr)
	}

	activity, err = journal.Open()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	client := api.NewClient(cfg.API.BaseURL,
		api.WithLogger(logger),
		api.WithMetrics(recorder),
	)
	shell = dashboard.New(client,
		dashboard.WithSubject(cfg.Mail.Subject),
		dashboard.WithJournal(activity),
		dashboard.WithLogger(logger),
	)
	logger.Debug("nx started",
		zap.String("version", Version),
		zap.String("api", client.BaseURL()),
		zap.String("config", path),
	)
	return nil
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server starting", zap.String("addr", addr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}

func teardown() {
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
		cancel()
		metricsServer = nil
	}
	if activity != nil {
		activity.Close()
		activity = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/nexus/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend base URL (default "+config.DefaultBaseURL+")")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Debug-level logging")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	// PersistentPostRun is skipped when RunE fails.
	teardown()
	if err != nil {
		display.ErrorMsg(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

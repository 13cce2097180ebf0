package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"semestercalc/internal/calculator"
	"semestercalc/internal/config"
	"semestercalc/internal/logging"
	"semestercalc/internal/storage"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	backend    string
	dbPath     string

	// Logger
	logger *zap.Logger

	cfg  *config.Config
	calc *calculator.Calculator
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "semcalc",
	Short: "semcalc - semester grade sheets with undo timelines",
	Long: `semcalc tracks semester grade sheets ("histories"), each with its own
undo/redo timeline and named snapshots.

A sheet holds module rows: name, coefficient, exam score, continuous
assessment (CA) score, and the exam/CA weighting. Every edit is
recorded, so any grading experiment can be walked back. Sheets are
instantiated from reusable templates and everything persists across
runs.

Run without arguments to show the current sheet.`,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
	RunE:              showWorkspace,
}

func setup(cmd *cobra.Command, args []string) error {
	zapConfig := zap.NewProductionConfig()
	if verbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	var err error
	logger, err = zapConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if workspace == "" {
		workspace = "."
	}
	if err := logging.Initialize(workspace); err != nil {
		logger.Warn("File logging unavailable", zap.Error(err))
	}

	path := configPath
	if path == "" {
		path = filepath.Join(workspace, ".semcalc", "config.yaml")
	}
	cfg, err = config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	gateway, err := openGateway()
	if err != nil {
		return err
	}

	calc, err = calculator.New(calculator.Options{
		Gateway:         gateway,
		HistoryLimit:    cfg.Limits.HistoryLimit,
		MaxTemplates:    cfg.Limits.MaxTemplates,
		SnapshotLimit:   cfg.Limits.SnapshotLimit,
		HistoryDebounce: cfg.HistoryDebounce(),
		PersistDebounce: cfg.PersistDebounce(),
	})
	if err != nil {
		gateway.Close()
		return err
	}

	watchSignals()
	return nil
}

// watchSignals flushes and closes the calculator on interrupt so a
// mid-command Ctrl-C never loses a scheduled write.
func watchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		if calc != nil {
			_ = calc.Close()
		}
		logging.CloseAll()
		os.Exit(1)
	}()
}

func teardown(cmd *cobra.Command, args []string) {
	if calc != nil {
		if err := calc.Close(); err != nil {
			logger.Warn("Shutdown flush failed", zap.Error(err))
		}
		calc = nil
	}
	logging.CloseAll()
	if logger != nil {
		_ = logger.Sync()
	}
}

func openGateway() (storage.Gateway, error) {
	if cfg.Storage.Backend == "memory" {
		return storage.NewMemory(), nil
	}
	path := cfg.Storage.DatabasePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(workspace, path)
	}
	return storage.NewLocal(path)
}

// requireSelection guards commands that operate on the selected sheet.
func requireSelection() error {
	if calc.SelectedHistoryID() == "" {
		return fmt.Errorf("no history selected (run \"semcalc history new <template-id>\" first)")
	}
	return nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <workspace>/.semcalc/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Storage backend override: sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path override")

	// Add commands to root
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(moduleCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"venturemap/internal/config"
	"venturemap/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	localeFlag string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "venturemap",
	Short: "venturemap - guided business plan builder",
	Long: `venturemap walks a startup idea through a guided journey of
business-plan stages: core concept, market analysis, business modeling,
branding, product, marketing, organization, and investor outputs.

Answers are saved continuously; summaries and analytical sections are
generated for you. Run without arguments to open the interactive chat
on your most recent project.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if localeFlag != "" {
			cfg.Journey.Locale = localeFlag
		}

		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Logging.Level))
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		// The chat TUI owns the terminal; keep logs out of it.
		logFile := cfg.Logging.File
		if logFile == "" {
			logFile = filepath.Join(cfg.Store.Dir, "venturemap.log")
		}
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		zapCfg.OutputPaths = []string{logFile}
		zapCfg.ErrorOutputPaths = []string{logFile}

		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), "")
	},
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// openStore opens the project database from the configured directory.
func openStore() (*store.Store, error) {
	s, err := store.Open(cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open project store: %w", err)
	}
	return s, nil
}

func init() {
	defaultConfig := "config.yaml"
	if home, err := os.UserHomeDir(); err == nil {
		defaultConfig = filepath.Join(home, ".venturemap", "config.yaml")
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "config file path")
	rootCmd.PersistentFlags().StringVar(&localeFlag, "locale", "", "language for questions and system messages (en, fa)")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

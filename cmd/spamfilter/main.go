package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zcline91/spam-filter/internal/config"
)

var version = "dev"

var (
	noColor bool
	verbose bool
	quiet   bool
	logFile string
)

// logCloser closes the --log file once the command finishes.
var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:   "spamfilter",
	Short: "Prepare public spam corpora for classifier training",
	Long: `spamfilter extracts the Enron-Spam, Ling-Spam and TREC public corpora
into uniform CSV files, cleans and splits them into train and test sets,
and caches the per-email documents a classifier is trained on.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose && quiet {
			return fmt.Errorf("--verbose and --quiet are mutually exclusive")
		}
		if os.Getenv("NO_COLOR") != "" {
			noColor = true
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
			logCloser = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log errors only")
	rootCmd.PersistentFlags().StringVarP(&logFile, "log", "l", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(extractCmd, classesCmd, docsCmd, checkCmd, runsCmd, configCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := setupLogging(cfg.Log.Level); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func setupLogging(configured string) error {
	level, err := logLevel(configured, verbose, quiet)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logCloser = f
		w = f
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func logLevel(configured string, verbose, quiet bool) (slog.Level, error) {
	switch {
	case verbose:
		return slog.LevelDebug, nil
	case quiet:
		return slog.LevelError, nil
	}
	var level slog.Level
	if configured == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(configured))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Package cli provides the riskctl command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"early-warning/internal/config"
	"early-warning/internal/patterns"
	"early-warning/internal/repository"
	"early-warning/internal/rules"
)

// Version is set at build time.
var Version = "0.1.0"

const defaultRecordKey = "patterns"

// options holds the global flags and what PersistentPreRunE derives from them.
type options struct {
	storeDir  string
	recordKey string
	rulesFile string
	logFile   string
	verbose   bool

	logger  *slog.Logger
	cleanup func() error
	now     func() time.Time
}

// NewRootCmd builds the riskctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{now: time.Now})
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "riskctl",
		Short: "Run the early-warning risk engine locally",
		Long: `riskctl runs the early-warning risk engine against a conversation
history file and keeps the longitudinal pattern record in a local directory.

The same rule table and analyzers back the Lambda deployment; use riskctl to
try rule overrides and inspect how predictions evolve over time.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			if opts.logFile != "" {
				opts.logger, opts.cleanup = config.SetupLogger(opts.logFile, level)
				return nil
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			opts.cleanup = func() error { return nil }
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if opts.cleanup == nil {
				return nil
			}
			if err := opts.cleanup(); err != nil {
				return fmt.Errorf("close log file: %w", err)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.storeDir, "store-dir", defaultStoreDir(), "directory holding pattern records")
	flags.StringVar(&opts.recordKey, "record-key", defaultRecordKey, "pattern record key")
	flags.StringVar(&opts.rulesFile, "rules", "", "YAML rule override file")
	flags.StringVar(&opts.logFile, "log-file", "", "also write JSON logs to this file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newPredictCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newRulesCmd(opts))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func defaultStoreDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "early-warning")
	}
	return ".early-warning"
}

func (o *options) loadRules() (rules.Table, error) {
	if o.rulesFile == "" {
		return rules.Default(), nil
	}
	return rules.LoadFile(o.rulesFile)
}

func (o *options) openStore(ctx context.Context) (*patterns.Store, error) {
	backend, err := repository.NewFileClient(o.storeDir)
	if err != nil {
		return nil, err
	}
	return patterns.Open(ctx, backend, o.recordKey,
		patterns.WithLogger(o.logger),
		patterns.WithClock(o.now),
	)
}

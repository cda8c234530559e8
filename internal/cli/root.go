package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"okinoko_gov/archive"
	"okinoko_gov/host"
	"okinoko_gov/internal/config"
	"okinoko_gov/internal/node"
	"okinoko_gov/sdk"
	"okinoko_gov/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const programName = "okinoko-gov"

var (
	globalFlags = struct {
		debug  bool
		sender string
		at     string
	}{}
	configFile string
)

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Run governance transactions against a local ledger",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().
		StringVarP(&globalFlags.sender, "sender", "s", "", "account signing the transaction (defaults to config sender)")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.at, "at", "", "block time as unix seconds or 2006-01-02T15:04:05 (defaults to now)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if globalFlags.debug {
			cfg.Debug = true
		}
		if globalFlags.sender != "" {
			cfg.Sender = globalFlags.sender
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(initCommand())
	rootCmd.AddCommand(mintCommand())
	rootCmd.AddCommand(balanceCommand())
	rootCmd.AddCommand(proposeCommand())
	rootCmd.AddCommand(addStepCommand())
	rootCmd.AddCommand(submitCommand())
	rootCmd.AddCommand(voteCommand())
	rootCmd.AddCommand(finishCommand())
	rootCmd.AddCommand(executeCommand())
	rootCmd.AddCommand(reenterCommand())
	rootCmd.AddCommand(retrieveFeeCommand())
	rootCmd.AddCommand(hurryCommand())
	rootCmd.AddCommand(setParamsCommand())
	rootCmd.AddCommand(showCommand())
	rootCmd.AddCommand(paramsCommand())
	rootCmd.AddCommand(historyCommand())
	rootCmd.AddCommand(stakeCommand())
	return rootCmd
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo
	addSource := false
	if cfg.Debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	// results go to stdout, logs to stderr
	logger := slog.New(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			AddSource: addSource,
			Level:     logLevel,
		}),
	)
	slog.SetDefault(logger)
	return logger
}

// session is one command's view of the node: config, signer and block time.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	node     *node.Node
	registry *prometheus.Registry
	sender   sdk.Address
	at       int64
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, errors.New("no config found in context")
	}
	logger := newLogger(cfg)
	var at int64
	if globalFlags.at != "" {
		v, ok := sdk.ParseTimestamp(globalFlags.at)
		if !ok {
			return nil, fmt.Errorf("invalid --at value %q", globalFlags.at)
		}
		at = v
	}
	db, err := store.NewBadger(
		store.WithDataDir(filepath.Join(cfg.DataDir, "state")),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open state: %w", err)
	}
	registry := prometheus.NewRegistry()
	opts := []node.OptionFunc{
		node.WithBackend(db),
		node.WithLogger(logger),
		node.WithPromRegistry(registry),
	}
	if cfg.Archive {
		a, err := archive.New(
			archive.WithDataDir(cfg.DataDir),
			archive.WithLogger(logger),
		)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
		opts = append(opts, node.WithArchive(a))
	}
	n, err := node.New(opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &session{
		cfg:      cfg,
		logger:   logger,
		node:     n,
		registry: registry,
		sender:   parseAddress(cfg.Sender),
		at:       at,
	}, nil
}

func (s *session) Close() {
	s.logMetrics()
	if err := s.node.Close(); err != nil {
		s.logger.Error("failed to close node", "error", err)
	}
}

// logMetrics dumps the chain counters at debug level when the command is done.
func (s *session) logMetrics() {
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.Debug("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"metric", mf.GetName(), "value", m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			s.logger.Debug("metric", attrs...)
		}
	}
}

// exec runs fn as the session's sender and logs the committed event lines.
func (s *session) exec(ctx context.Context, fn func(tx *host.Tx) error) error {
	rec, err := s.node.Exec(ctx, s.sender, s.at, fn)
	if err != nil {
		return err
	}
	for _, line := range rec.Logs {
		s.logger.Info("event", "tx", rec.TxID, "line", line)
	}
	return nil
}

// withSession opens a session around run and closes it afterwards.
func withSession(run func(cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		return run(cmd, s, args)
	}
}

// parseAddress accepts "account:x", "component:x" or a bare account name.
func parseAddress(v string) sdk.Address {
	addr := sdk.Address(strings.TrimSpace(v))
	if addr.IsValid() {
		return addr
	}
	return sdk.Account(addr.String())
}

// parseAsset accepts "resource:x" or a bare resource name.
func parseAsset(v string) sdk.Asset {
	asset := sdk.Asset(strings.TrimSpace(v))
	if asset.IsValid() {
		return asset
	}
	return sdk.Resource(asset.String())
}

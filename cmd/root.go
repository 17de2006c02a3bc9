// Package cmd hosts the relaymesh command line interface.
package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/config"
	"github.com/relaymesh/go-relaymesh/node"
	"github.com/relaymesh/go-relaymesh/nonce"
	"github.com/relaymesh/go-relaymesh/sql"
	"github.com/relaymesh/go-relaymesh/sql/leaves"
	"github.com/relaymesh/go-relaymesh/tracker"
)

var (
	// Version is the app's semantic version. Designed to be overwritten by make.
	Version string

	cfg = config.DefaultConfig()

	// capabilities is installed by the chain-specific build wiring the
	// binary; the core repository ships none.
	capabilities func(config.Config, *zap.Logger) (node.Capabilities, error)
)

// SetCapabilitiesProvider installs the factory producing the chain
// clients the node runs with. Chain-specific distributions call this
// before Execute.
func SetCapabilitiesProvider(p func(config.Config, *zap.Logger) (node.Capabilities, error)) {
	capabilities = p
}

// RootCmd builds the relaymesh command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "relaymesh",
		Short:         "interchain message relayer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadConfig(cfg.ConfigFile, &cfg)
		},
	}
	addFlags(root.PersistentFlags(), &cfg)
	root.AddCommand(runCmd(), inspectCmd(), resetNonceCmd(), versionCmd())
	return root
}

func addFlags(flags *pflag.FlagSet, cfg *config.Config) {
	flags.StringVarP(&cfg.ConfigFile,
		"config", "c", cfg.ConfigFile, "load configuration from file")
	flags.StringVarP(&cfg.DataDir,
		"data-folder", "d", cfg.DataDir, "data directory")
	flags.Uint32Var(&cfg.OriginDomain,
		"origin-domain", cfg.OriginDomain, "domain identifier of the origin chain")
	flags.StringVar(&cfg.LOGGING.Level,
		"log-level", cfg.LOGGING.Level, "minimum log level")
	flags.BoolVar(&cfg.CollectMetrics,
		"metrics", cfg.CollectMetrics, "expose node metrics")
	flags.IntVar(&cfg.MetricsPort,
		"metrics-port", cfg.MetricsPort, "metrics server port")
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the relayer node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := buildLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if capabilities == nil {
				return fmt.Errorf("no chain capabilities linked into this binary")
			}
			caps, err := capabilities(cfg, logger)
			if err != nil {
				return err
			}
			n, err := node.New(cfg, caps, logger)
			if err != nil {
				return err
			}
			defer n.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return n.Run(ctx)
		},
	}
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "print the persisted tree state of the origin domain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := buildLogger()
			if err != nil {
				return err
			}
			db, err := sql.Open("file:" + cfg.DatabasePath())
			if err != nil {
				return err
			}
			defer db.Close()
			origin := types.Domain(cfg.OriginDomain)
			trk, err := tracker.New(db, origin, nil, logger)
			if err != nil {
				return err
			}
			count, err := leaves.Count(db, origin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "domain:     %s\n", origin)
			fmt.Fprintf(cmd.OutOrStdout(), "leaves:     %d\n", count)
			fmt.Fprintf(cmd.OutOrStdout(), "root:       %s\n", trk.Root().Hex())
			fmt.Fprintf(cmd.OutOrStdout(), "last block: %d\n", trk.LastIndexedBlock())
			return nil
		},
	}
}

func resetNonceCmd() *cobra.Command {
	var (
		signerHex string
		desired   uint64
	)
	cmd := &cobra.Command{
		Use:   "reset-nonce",
		Short: "lower a signer's upper nonce watermark",
		Long: `Lower a signer's upper nonce watermark and clear local nonce tracking
above the target. Repairs a signer whose local record diverged from the
on-chain account nonce. Transactions holding the cleared nonces must be
dropped first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := buildLogger()
			if err != nil {
				return err
			}
			signer, err := types.StringToAddress(signerHex)
			if err != nil {
				return err
			}
			db, err := sql.Open("file:" + cfg.DatabasePath())
			if err != nil {
				return err
			}
			defer db.Close()
			return nonce.NewManager(db, logger).ResetTo(cmd.Context(), signer, desired)
		},
	}
	cmd.Flags().StringVar(&signerHex, "signer", "", "signer address, hex")
	cmd.Flags().Uint64Var(&desired, "nonce", 0, "target upper nonce")
	cmd.MarkFlagRequired("signer")
	cmd.MarkFlagRequired("nonce")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

func buildLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LOGGING.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.LOGGING.Level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = cfg.LOGGING.Encoder
	return zcfg.Build()
}

package cli

import (
	"log/slog"
	"os"

	"github.com/kenn-williamson/cherub/internal/config"
	"github.com/spf13/cobra"
)

// NewRoot builds the cherub root command. Grounded on internal/cli/root.go's
// shape: a single persistent flag set attached to the root
// command, subcommands self-registering via newXCmd() constructors. Cherub
// drops --server/--transport/--grpc-addr/--api-key flags
// (there is no client/server RPC transport in scope, §1's Non-goals) in
// favor of --config/--policy, since every cherub subcommand runs against a
// local policy file and local audit log rather than a remote agentsh
// server.
func NewRoot(version string) *cobra.Command {
	cfg := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "cherub",
		Short:         "cherub: capability-gated tool execution for LLM agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.SetVersionTemplate("cherub {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&cfg.configPath, "config", getenvDefault("CHERUB_CONFIG", ""), "Runtime config file path (YAML)")
	cmd.PersistentFlags().StringVar(&cfg.policyPath, "policy", getenvDefault("CHERUB_POLICY_PATH", ""), "Policy file path (TOML); overrides config.policy.path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newPolicyCmd())
	cmd.AddCommand(newAuditCmd())
	cmd.AddCommand(newApproveCmd())

	return cmd
}

type rootFlags struct {
	configPath string
	policyPath string
}

func getRootFlags(cmd *cobra.Command) *rootFlags {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	policyPath, _ := cmd.Root().PersistentFlags().GetString("policy")
	return &rootFlags{configPath: configPath, policyPath: policyPath}
}

// DefaultPolicyPath is the well-known location checked when neither --policy
// nor a config file's policy.path names one (§6's three-step chain:
// "the binary accepts a policy path via --policy; absent → load from a
// default path; absent → empty (deny-all) policy"). Mirrors the
// /etc/<tool>/<config> convention a single-host daemon with no packaging
// system of its own falls back to.
const DefaultPolicyPath = "/etc/cherub/policy.toml"

// loadConfig resolves a Config for the invoked subcommand: a --config file
// if given, otherwise built-in defaults; --policy always overrides
// config.Policy.Path; if neither --policy nor the config file named a
// policy, DefaultPolicyPath is used when it exists on disk, and the policy
// manager falls through to an empty (deny-all) policy only if that default
// is also absent (§6's three-step chain).
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := getRootFlags(cmd)

	var cfg *config.Config
	if flags.configPath != "" {
		c, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		c, err := config.LoadFromBytes([]byte{})
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	if flags.policyPath != "" {
		cfg.Policy.Path = flags.policyPath
	} else if cfg.Policy.Path == "" {
		if _, err := os.Stat(DefaultPolicyPath); err == nil {
			cfg.Policy.Path = DefaultPolicyPath
		}
	}
	return cfg, nil
}

// newLogger builds the root structured logger from a LoggingConfig, matching
// slog-everywhere convention (§AMBIENT "Logging").
func newLogger(lc config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kenn-williamson/cherub/internal/approval"
	"github.com/kenn-williamson/cherub/internal/audit"
	"github.com/kenn-williamson/cherub/internal/audit/kms"
	"github.com/kenn-williamson/cherub/internal/config"
	"github.com/kenn-williamson/cherub/internal/enforcement"
	"github.com/kenn-williamson/cherub/internal/policy"
	"github.com/kenn-williamson/cherub/internal/tool"
	"github.com/kenn-williamson/cherub/internal/tool/bash"
	"github.com/kenn-williamson/cherub/internal/tool/httptool"
	"github.com/kenn-williamson/cherub/pkg/types"
	"github.com/spf13/cobra"
)

// proposalLine is the wire shape cherub serve reads from stdin, one JSON
// object per line: the agent-facing side of §4.G's Enforce call. This
// stands in for the in-process agent loop the original prototype drives
// directly (providers/mod.rs, tools/mod.rs) — stdin/stdout framing is the
// narrowest thing that exercises the same Facade.Enforce -> Tool.Execute
// path without pulling in a provider implementation that's out of scope
// (§1 Non-goals).
type proposalLine struct {
	Tool     string `json:"tool"`
	Action   string `json:"action"`
	Argument string `json:"argument"`
}

type resultLine struct {
	Tool     string       `json:"tool"`
	Action   string       `json:"action"`
	Decision string       `json:"decision"`
	Output   *tool.Output `json:"output,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// newServeCmd runs cherub's long-lived enforcement loop: build the policy
// manager, approval coordinator, audit sink, and tool registry once, then
// evaluate a stream of proposals read from stdin until EOF or signal.
// Grounded on internal/cli/server.go wiring order (config ->
// logger -> stores -> long-lived loop), narrowed to Cherub's in-process
// components instead of HTTP/gRPC server stack (§1
// Non-goals).
func newServeCmd() *cobra.Command {
	var adminSockPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the enforcement loop, reading tool proposals as JSON lines from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return exitErrorf(1, "load config: %v", err)
			}
			logger := newLogger(cfg.Logging)

			pm, err := policy.NewManager(cfg.Policy.Path, cfg.Policy.MaxSizeByte)
			if err != nil {
				return exitErrorf(1, "load policy: %v", err)
			}
			logger.Info("policy loaded", "path", cfg.Policy.Path, "tool_count", pm.Get().ToolCount())

			sink, err := buildSink(cfg.Audit)
			if err != nil {
				return exitErrorf(1, "build audit sink: %v", err)
			}
			defer sink.Close()

			approvalTimeout, err := time.ParseDuration(cfg.Approvals.Timeout)
			if err != nil {
				return exitErrorf(1, "invalid approvals.timeout %q: %v", cfg.Approvals.Timeout, err)
			}
			coord := approval.NewCoordinator(approvalTimeout, approval.NewSlogNotifier(logger))

			facade := enforcement.NewFacade(pm, coord, sink)

			bashTimeout, err := time.ParseDuration(cfg.Tools.Bash.Timeout)
			if err != nil {
				return exitErrorf(1, "invalid tools.bash.timeout %q: %v", cfg.Tools.Bash.Timeout, err)
			}
			httpTimeout, err := time.ParseDuration(cfg.Tools.HTTP.Timeout)
			if err != nil {
				return exitErrorf(1, "invalid tools.http.timeout %q: %v", cfg.Tools.HTTP.Timeout, err)
			}
			registry := tool.NewRegistry(
				bash.New(bashTimeout, cfg.Tools.Bash.MaxOutputByte),
				httptool.New(httpTimeout, cfg.Tools.HTTP.MaxBodyByte),
			)

			if adminSockPath == "" {
				adminSockPath = defaultAdminSocketPath()
			}
			_ = os.Remove(adminSockPath)
			listener, err := net.Listen("unix", adminSockPath)
			if err != nil {
				return exitErrorf(1, "listen on admin socket %s: %v", adminSockPath, err)
			}
			defer listener.Close()
			defer os.Remove(adminSockPath)
			go serveAdmin(listener, coord)
			logger.Info("admin socket listening", "path", adminSockPath)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go watchPolicyReload(ctx, pm, logger)

			return runProposalLoop(ctx, cmd, facade, registry)
		},
	}
	cmd.Flags().StringVar(&adminSockPath, "admin-sock", "", "Admin socket path (default: $CHERUB_ADMIN_SOCK or /tmp/cherub-admin.sock)")
	return cmd
}

func runProposalLoop(ctx context.Context, cmd *cobra.Command, facade *enforcement.Facade, registry *tool.Registry) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	out := cmd.OutOrStdout()

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var pl proposalLine
		if err := json.Unmarshal(line, &pl); err != nil {
			fmt.Fprintf(out, "%s\n", mustJSON(resultLine{Error: fmt.Sprintf("invalid proposal line: %v", err)}))
			continue
		}

		proposal := enforcement.NewProposal(pl.Tool, pl.Action, pl.Argument, nil)
		evaluated, decision := facade.Enforce(ctx, proposal)

		if decision.Kind != enforcement.Allow {
			fmt.Fprintf(out, "%s\n", mustJSON(resultLine{Tool: pl.Tool, Action: pl.Action, Decision: decision.Kind.String(), Error: enforcement.RejectionMessage}))
			continue
		}

		t, ok := registry.Lookup(pl.Tool)
		if !ok {
			fmt.Fprintf(out, "%s\n", mustJSON(resultLine{Tool: pl.Tool, Action: pl.Action, Decision: "allow", Error: fmt.Sprintf("no tool registered for %q", pl.Tool)}))
			continue
		}
		output, err := t.Execute(ctx, evaluated, decision.Token())
		if err != nil {
			fmt.Fprintf(out, "%s\n", mustJSON(resultLine{Tool: pl.Tool, Action: pl.Action, Decision: "allow", Error: err.Error()}))
			continue
		}
		fmt.Fprintf(out, "%s\n", mustJSON(resultLine{Tool: pl.Tool, Action: pl.Action, Decision: "allow", Output: &output}))
	}
	return scanner.Err()
}

// watchPolicyReload reloads pm's policy on SIGHUP, the conventional unix
// signal for "reread your config file." Each reload attempt is stamped as a
// types.Event: an internal lifecycle notification, never returned to agent-
// facing code, that exists so an operator tailing cherub's logs can see a
// reload's id and outcome without the event itself ever touching the
// decision sink (that's DecisionRecord's job, not Event's).
func watchPolicyReload(ctx context.Context, pm *policy.Manager, logger *slog.Logger) {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sighup:
			ev := types.NewEvent("policy_reload_requested", nil)
			logger.Info("policy reload requested", "event_id", ev.ID, "event_type", ev.Type)

			if err := pm.Reload(); err != nil {
				fail := types.NewEvent("policy_reload_failed", map[string]any{"error": err.Error()})
				logger.Error("policy reload failed", "event_id", fail.ID, "error", err)
				continue
			}
			ok := types.NewEvent("policy_reload_succeeded", map[string]any{"tool_count": pm.Get().ToolCount()})
			logger.Info("policy reloaded", "event_id", ok.ID, "tool_count", pm.Get().ToolCount())
		}
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(b)
}

// buildSink constructs the decision sink from AuditConfig, sourcing the
// integrity chain's HMAC key from a kms.Provider when integrity is enabled.
// This is the one place internal/cli translates AuditIntegrityConfig into a
// kms.Config, by design (DESIGN.md "integrity.go" entry): internal/audit
// never imports internal/config.
func buildSink(cfg config.AuditConfig) (audit.Sink, error) {
	var chain *audit.IntegrityChain
	if cfg.Integrity.Enabled {
		provider, err := kms.NewProvider(kms.Config{
			Source:  cfg.Integrity.KeySource,
			KeyFile: cfg.Integrity.KeyFile,
			KeyEnv:  cfg.Integrity.KeyEnv,
		})
		if err != nil {
			return nil, fmt.Errorf("build kms provider: %w", err)
		}
		key, err := provider.GetKey(context.Background())
		if err != nil {
			return nil, fmt.Errorf("fetch integrity key: %w", err)
		}
		c, err := audit.NewIntegrityChainWithAlgorithm(key, cfg.Integrity.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("build integrity chain: %w", err)
		}
		chain = c
	}

	return audit.NewJSONLSink(cfg.Path, cfg.Rotation.MaxSizeMB, cfg.Rotation.MaxBackups, chain)
}

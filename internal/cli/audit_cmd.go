package cli

import (
	"bufio"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/kenn-williamson/cherub/internal/audit"
	"github.com/spf13/cobra"
)

// newAuditCmd groups operator-only access to the decision sink (§4.I; per
// audit.Sink's contract, this operator-facing audit subcommand is the only
// caller of Query in this repo — no agent-facing code ever reaches these
// paths).
// Grounded on internal/cli/audit.go's shape, generalized from its
// single "verify" subcommand to also cover Cherub's glob+time-range Query
// (a capability jsonl.Store.QueryEvents explicitly does
// not support, per DESIGN.md).
func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit log inspection commands",
	}
	cmd.AddCommand(newAuditQueryCmd())
	cmd.AddCommand(newAuditVerifyCmd())
	return cmd
}

func newAuditQueryCmd() *cobra.Command {
	var (
		toolGlob    string
		verdictGlob string
		sinceStr    string
	)

	cmd := &cobra.Command{
		Use:   "query LOG_FILE",
		Short: "Query the decision log by tool glob, verdict glob, and time range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := audit.QueryFilter{ToolGlob: toolGlob, VerdictGlob: verdictGlob}
			if sinceStr != "" {
				since, err := time.Parse(time.RFC3339, sinceStr)
				if err != nil {
					return exitErrorf(2, "invalid --since (want RFC3339): %v", err)
				}
				filter.Since = since
			}

			sink, err := audit.NewJSONLSink(args[0], 0, 0, nil)
			if err != nil {
				return exitErrorf(1, "open audit log: %v", err)
			}
			defer sink.Close()

			records, err := sink.Query(cmd.Context(), filter)
			if err != nil {
				return exitErrorf(1, "query audit log: %v", err)
			}
			return printJSON(cmd, records)
		},
	}
	cmd.Flags().StringVar(&toolGlob, "tool", "", "Glob matched against the tool field")
	cmd.Flags().StringVar(&verdictGlob, "verdict", "", "Glob matched against the verdict field")
	cmd.Flags().StringVar(&sinceStr, "since", "", "RFC3339 timestamp lower bound")
	return cmd
}

func newAuditVerifyCmd() *cobra.Command {
	var (
		keyFile   string
		keyEnv    string
		algorithm string
	)

	cmd := &cobra.Command{
		Use:   "verify LOG_FILE",
		Short: "Verify the HMAC integrity chain of a decision log",
		Long: `Verify the integrity chain of a JSONL decision log.

Reads each line, checking that:
  1. its prev_hash matches the previous entry's entry_hash
  2. its entry_hash is the correct HMAC of sequence|prev_hash|payload

Examples:
  cherub audit verify decisions.jsonl --key-file=/etc/cherub/hmac.key
  cherub audit verify decisions.jsonl --key-env=CHERUB_AUDIT_KEY --algorithm=hmac-sha512`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyFile == "" && keyEnv == "" {
				return exitErrorf(2, "either --key-file or --key-env is required")
			}
			switch algorithm {
			case "hmac-sha256", "hmac-sha512":
			default:
				return exitErrorf(2, "unsupported algorithm %q: use hmac-sha256 or hmac-sha512", algorithm)
			}

			key, err := loadAuditKey(keyFile, keyEnv)
			if err != nil {
				return exitErrorf(1, "load key: %v", err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return exitErrorf(1, "open log file: %v", err)
			}
			defer f.Close()

			result, err := verifyIntegrityChain(f, key, algorithm)
			if err != nil {
				return exitErrorf(1, "%v", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Verified %d entries (%d skipped without integrity)\n", result.verified, result.skipped)
			if result.chainIntact {
				fmt.Fprintln(cmd.OutOrStdout(), "Chain intact: OK")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chain BROKEN at entry %d: %s\n", result.brokenAt, result.brokenReason)
			return exitErrorf(1, "integrity verification failed")
		},
	}
	cmd.Flags().StringVar(&keyFile, "key-file", "", "Path to HMAC key file")
	cmd.Flags().StringVar(&keyEnv, "key-env", "", "Environment variable containing the HMAC key")
	cmd.Flags().StringVar(&algorithm, "algorithm", "hmac-sha256", "HMAC algorithm (hmac-sha256 or hmac-sha512)")
	return cmd
}

func loadAuditKey(keyFile, keyEnv string) ([]byte, error) {
	if keyFile != "" {
		b, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	v := os.Getenv(keyEnv)
	if v == "" {
		return nil, fmt.Errorf("environment variable %s is empty or unset", keyEnv)
	}
	return []byte(v), nil
}

type verifyResult struct {
	verified     int
	skipped      int
	chainIntact  bool
	brokenAt     int
	brokenReason string
}

type integrityEntry struct {
	Integrity struct {
		Sequence  int64  `json:"sequence"`
		PrevHash  string `json:"prev_hash"`
		EntryHash string `json:"entry_hash"`
	} `json:"integrity"`
}

// verifyIntegrityChain replays the same hash computation
// audit.IntegrityChain.Wrap performs, entry by entry, from outside the
// audit package — grounded on internal/cli/audit.go
// verifyIntegrityChain nearly line for line, since this is the one place a
// read-only, key-holding verifier needs to recompute the chain without
// mutating any live IntegrityChain's sequence counter.
func verifyIntegrityChain(r io.Reader, key []byte, algorithm string) (*verifyResult, error) {
	result := &verifyResult{chainIntact: true}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1<<20)

	var prevEntryHash string
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry integrityEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			result.skipped++
			continue
		}
		if entry.Integrity.EntryHash == "" {
			result.skipped++
			continue
		}

		if entry.Integrity.PrevHash != prevEntryHash {
			result.chainIntact = false
			result.brokenAt = lineNum
			result.brokenReason = fmt.Sprintf("prev_hash mismatch: expected %q, got %q", prevEntryHash, entry.Integrity.PrevHash)
			return result, nil
		}

		originalPayload, err := extractOriginalPayload(line)
		if err != nil {
			result.chainIntact = false
			result.brokenAt = lineNum
			result.brokenReason = fmt.Sprintf("failed to extract payload: %v", err)
			return result, nil
		}

		computed := computeEntryHash(key, algorithm, entry.Integrity.Sequence, entry.Integrity.PrevHash, originalPayload)
		if computed != entry.Integrity.EntryHash {
			result.chainIntact = false
			result.brokenAt = lineNum
			result.brokenReason = fmt.Sprintf("entry_hash mismatch: computed %q, got %q", computed, entry.Integrity.EntryHash)
			return result, nil
		}

		result.verified++
		prevEntryHash = entry.Integrity.EntryHash
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	return result, nil
}

func extractOriginalPayload(line []byte) ([]byte, error) {
	var data map[string]any
	if err := json.Unmarshal(line, &data); err != nil {
		return nil, err
	}
	delete(data, "integrity")
	return json.Marshal(data)
}

func computeEntryHash(key []byte, algorithm string, sequence int64, prevHash string, payload []byte) string {
	var h hash.Hash
	if algorithm == "hmac-sha512" {
		h = hmac.New(sha512.New, key)
	} else {
		h = hmac.New(sha256.New, key)
	}
	h.Write([]byte(strconv.FormatInt(sequence, 10)))
	h.Write([]byte("|"))
	h.Write([]byte(prevHash))
	h.Write([]byte("|"))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

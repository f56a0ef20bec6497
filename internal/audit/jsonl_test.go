package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJSONLSinkAppendAndQuery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decisions.jsonl")

	chain, err := NewIntegrityChain(testKey())
	if err != nil {
		t.Fatal(err)
	}
	sink, err := NewJSONLSink(path, 0, 0, chain)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	ctx := context.Background()
	records := []DecisionRecord{
		{Timestamp: time.Now().UTC(), Tool: "bash", Action: "read", ArgumentDigest: "aaa", MatchedRuleID: "bash/read", Verdict: "allow"},
		{Timestamp: time.Now().UTC(), Tool: "bash", Action: "destructive", ArgumentDigest: "bbb", Verdict: "reject"},
		{Timestamp: time.Now().UTC(), Tool: "http", Action: "get", ArgumentDigest: "ccc", MatchedRuleID: "http/get", Verdict: "allow"},
	}
	for _, rec := range records {
		if err := sink.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	all, err := sink.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}

	bashOnly, err := sink.Query(ctx, QueryFilter{ToolGlob: "bash"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bashOnly) != 2 {
		t.Fatalf("expected 2 bash records, got %d", len(bashOnly))
	}

	allowOnly, err := sink.Query(ctx, QueryFilter{VerdictGlob: "allow"})
	if err != nil {
		t.Fatal(err)
	}
	if len(allowOnly) != 2 {
		t.Fatalf("expected 2 allow records, got %d", len(allowOnly))
	}

	none, err := sink.Query(ctx, QueryFilter{ToolGlob: "docker*"})
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("expected 0 records for non-matching glob, got %d", len(none))
	}
}

func TestJSONLSinkSealsEntriesWhenChainConfigured(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decisions.jsonl")

	chain, err := NewIntegrityChain(testKey())
	if err != nil {
		t.Fatal(err)
	}
	sink, err := NewJSONLSink(path, 0, 0, chain)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	if err := sink.Append(context.Background(), DecisionRecord{Verdict: "allow"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !contains(string(data), `"integrity"`) {
		t.Fatal("expected sealed entry to include an integrity field")
	}
}

func TestJSONLSinkRejectsEmptyPath(t *testing.T) {
	if _, err := NewJSONLSink("", 0, 0, nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}

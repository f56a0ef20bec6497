package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gobwas/glob"
)

// JSONLSink is the append-only decision sink: one JSON object per line,
// each sealed with an IntegrityChain link before it hits disk. Grounded on
// internal/store/jsonl.Store's shape, adapted to Cherub's
// DecisionRecord/QueryFilter shape and to actually support Query (the
// jsonl store refuses queries outright; Cherub's "audit query"
// CLI subcommand needs one, so Query scans the file under lock instead).
type JSONLSink struct {
	path       string
	maxBytes   int64
	maxBackups int
	chain      *IntegrityChain

	mu   sync.Mutex
	file *os.File
}

// NewJSONLSink opens (creating if needed) the decision log at path. chain
// may be nil, in which case entries are appended unsealed — callers that
// care about tamper evidence must supply one built from a kms.Provider key.
func NewJSONLSink(path string, maxSizeMB, maxBackups int, chain *IntegrityChain) (*JSONLSink, error) {
	if path == "" {
		return nil, fmt.Errorf("jsonl sink: path is empty")
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 100
	}
	if maxBackups <= 0 {
		maxBackups = 3
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir audit log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	return &JSONLSink{
		path:       path,
		maxBytes:   int64(maxSizeMB) * 1024 * 1024,
		maxBackups: maxBackups,
		chain:      chain,
		file:       f,
	}, nil
}

// Append writes rec as the next line, sealing it through the integrity
// chain first when one is configured.
func (s *JSONLSink) Append(_ context.Context, rec DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rotateIfNeededLocked(); err != nil {
		return err
	}

	var line []byte
	var err error
	if s.chain != nil {
		line, err = s.chain.Seal(rec)
		if err != nil {
			return fmt.Errorf("seal decision record: %w", err)
		}
	} else {
		line, err = json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal decision record: %w", err)
		}
	}

	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Query scans the current decision log, returning every record matching
// filter. Rotated backup files are not searched — an operator needing
// historical coverage reads them directly off disk.
func (s *JSONLSink) Query(_ context.Context, filter QueryFilter) ([]DecisionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	toolGlob, err := compileGlob(filter.ToolGlob)
	if err != nil {
		return nil, fmt.Errorf("compile tool glob: %w", err)
	}
	verdictGlob, err := compileGlob(filter.VerdictGlob)
	if err != nil {
		return nil, fmt.Errorf("compile verdict glob: %w", err)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log for query: %w", err)
	}
	defer f.Close()

	var out []DecisionRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec DecisionRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if toolGlob != nil && !toolGlob.Match(rec.Tool) {
			continue
		}
		if verdictGlob != nil && !verdictGlob.Match(rec.Verdict) {
			continue
		}
		if !filter.Since.IsZero() && rec.Timestamp.Before(filter.Since) {
			continue
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return out, nil
}

// Close flushes and closes the underlying file.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

func (s *JSONLSink) rotateIfNeededLocked() error {
	if s.file == nil {
		return fmt.Errorf("audit log file not open")
	}
	st, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("stat audit log: %w", err)
	}
	if st.Size() < s.maxBytes {
		return nil
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close for rotate: %w", err)
	}

	for i := s.maxBackups - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", s.path, i)
		to := fmt.Sprintf("%s.%d", s.path, i+1)
		if _, err := os.Stat(from); err == nil {
			_ = os.Rename(from, to)
		}
	}
	_ = os.Rename(s.path, fmt.Sprintf("%s.1", s.path))

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("reopen audit log: %w", err)
	}
	s.file = f
	return nil
}

func compileGlob(pattern string) (glob.Glob, error) {
	if pattern == "" {
		return nil, nil
	}
	return glob.Compile(pattern)
}

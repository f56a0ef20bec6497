package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"strconv"
	"sync"
)

// IntegrityMetadata is the tamper-evident chain fields attached to every
// sealed DecisionRecord, making the append-only decision sink hash-chained.
type IntegrityMetadata struct {
	Sequence  int64  `json:"sequence"`
	PrevHash  string `json:"prev_hash"`
	EntryHash string `json:"entry_hash"`
}

// IntegrityChain maintains HMAC chain state so each sealed entry's hash
// depends on the entry before it: an operator detects truncation or
// reordering of the JSONL file by recomputing the chain and finding a break.
// Grounded on internal/audit/integrity.go's IntegrityChain,
// narrowed to take a kms.Provider-sourced key directly rather than routing
// through a config.AuditIntegrityConfig translation layer — internal/audit
// has no reason to know about internal/config's shape.
type IntegrityChain struct {
	mu        sync.Mutex
	key       []byte
	algorithm string
	sequence  int64
	prevHash  string
}

// MinKeyLength is the minimum recommended key length for HMAC-SHA256.
const MinKeyLength = 32

// ChainState is the chain's persistable position, for resuming across a
// process restart without repeating sequence numbers.
type ChainState struct {
	Sequence int64  `json:"sequence"`
	PrevHash string `json:"prev_hash"`
}

// NewIntegrityChain creates a chain using hmac-sha256. Returns an error if
// key is shorter than MinKeyLength bytes.
func NewIntegrityChain(key []byte) (*IntegrityChain, error) {
	return NewIntegrityChainWithAlgorithm(key, "hmac-sha256")
}

// NewIntegrityChainWithAlgorithm creates a chain using the named algorithm
// ("hmac-sha256" or "hmac-sha512").
func NewIntegrityChainWithAlgorithm(key []byte, algorithm string) (*IntegrityChain, error) {
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("key too short: got %d bytes, need at least %d", len(key), MinKeyLength)
	}
	if algorithm == "" {
		algorithm = "hmac-sha256"
	}
	switch algorithm {
	case "hmac-sha256", "hmac-sha512":
	default:
		return nil, fmt.Errorf("unsupported algorithm %q: use hmac-sha256 or hmac-sha512", algorithm)
	}
	return &IntegrityChain{key: key, algorithm: algorithm}, nil
}

// Seal computes the next link in the chain for rec and returns rec re-marshaled
// with an "integrity" field attached. Go's json.Marshal on a map produces
// deterministic, sorted-key output, which Wrap relies on for a verifiable
// canonical payload across independent chain-verification runs.
func (c *IntegrityChain) Seal(rec DecisionRecord) ([]byte, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal decision record: %w", err)
	}
	return c.Wrap(payload)
}

// Wrap adds integrity metadata to an arbitrary JSON object payload.
func (c *IntegrityChain) Wrap(payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}

	canonicalPayload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}

	c.sequence++
	entryHash := c.computeHash(c.sequence, c.prevHash, canonicalPayload)

	data["integrity"] = IntegrityMetadata{
		Sequence:  c.sequence,
		PrevHash:  c.prevHash,
		EntryHash: entryHash,
	}

	result, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal wrapped payload: %w", err)
	}

	c.prevHash = entryHash
	return result, nil
}

// State returns the current chain position for persistence across restarts.
func (c *IntegrityChain) State() ChainState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChainState{Sequence: c.sequence, PrevHash: c.prevHash}
}

// Restore resumes the chain from a previously persisted position.
func (c *IntegrityChain) Restore(sequence int64, prevHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sequence = sequence
	c.prevHash = prevHash
}

func (c *IntegrityChain) computeHash(sequence int64, prevHash string, payload []byte) string {
	var h hash.Hash
	switch c.algorithm {
	case "hmac-sha512":
		h = hmac.New(sha512.New, c.key)
	default:
		h = hmac.New(sha256.New, c.key)
	}

	h.Write([]byte(strconv.FormatInt(sequence, 10)))
	h.Write([]byte("|"))
	h.Write([]byte(prevHash))
	h.Write([]byte("|"))
	h.Write(payload)

	return hex.EncodeToString(h.Sum(nil))
}

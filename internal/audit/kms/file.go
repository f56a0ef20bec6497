package kms

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FileProvider sources the audit integrity chain's HMAC key from a local
// file or an environment variable — the only key source a single-host
// Cherub daemon needs, since the key never leaves the operator's machine
// and there is no fleet of daemons to share it across.
type FileProvider struct {
	keyFile   string
	keyEnv    string
	cachedKey []byte
}

// NewFileProvider builds a provider reading from keyFile, or keyEnv if
// keyFile is empty. At least one of the two must be set; when both are,
// keyFile is used.
func NewFileProvider(keyFile, keyEnv string) (*FileProvider, error) {
	if keyFile == "" && keyEnv == "" {
		return nil, fmt.Errorf("kms: no key source configured, set audit.integrity.key_file or key_env")
	}
	return &FileProvider{
		keyFile: keyFile,
		keyEnv:  keyEnv,
	}, nil
}

// Name identifies the provider for startup logging.
func (p *FileProvider) Name() string {
	if p.keyFile != "" {
		return "file:" + p.keyFile
	}
	return "env:" + p.keyEnv
}

// GetKey returns the HMAC key, reading it once and caching the result —
// cherub serve holds one FileProvider for the lifetime of the process, and
// rereading the key on every decision would let an operator's key rotation
// silently change what an in-flight IntegrityChain signs with mid-run.
func (p *FileProvider) GetKey(ctx context.Context) ([]byte, error) {
	if p.cachedKey != nil {
		return p.cachedKey, nil
	}

	var key []byte
	var err error
	if p.keyFile != "" {
		key, err = p.loadFromFile()
	} else {
		key, err = p.loadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	p.cachedKey = key
	return key, nil
}

func (p *FileProvider) loadFromFile() ([]byte, error) {
	data, err := os.ReadFile(p.keyFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: key file %q does not exist", ErrKeyNotFound, p.keyFile)
		}
		return nil, fmt.Errorf("read key file %q: %w", p.keyFile, err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return nil, fmt.Errorf("%w: key file %q is empty", ErrKeyNotFound, p.keyFile)
	}
	return []byte(key), nil
}

func (p *FileProvider) loadFromEnv() ([]byte, error) {
	key := os.Getenv(p.keyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: environment variable %q is empty or not set", ErrKeyNotFound, p.keyEnv)
	}
	return []byte(key), nil
}

// Close is a no-op: the file provider holds no connection to release.
func (p *FileProvider) Close() error {
	return nil
}

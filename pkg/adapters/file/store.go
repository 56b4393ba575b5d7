// Package file persists subscriptions and traces as JSON files in a directory.
package file

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
)

var (
	_ ports.SubscriptionStore = (*Store)(nil)
	_ ports.TraceStore        = (*Store)(nil)
)

const ext = ".json"

// Store keeps one file per signal name under BasePath and the last trace of
// each signal name under BasePath/traces. File names are the base64url
// encoding of the signal name, since names may contain separators that are
// not valid in paths.
type Store struct {
	BasePath string

	mu sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".aware/subscriptions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".aware", "subscriptions")
	}
	return &Store{BasePath: basePath}
}

func encode(signal string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(signal))
}

func (s *Store) path(signal string) string {
	return filepath.Join(s.BasePath, encode(signal)+ext)
}

func (s *Store) tracePath(signal string) string {
	return filepath.Join(s.BasePath, "traces", encode(signal)+ext)
}

// writeAtomic writes data to a temporary file next to dest, syncs it and
// renames it over dest.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to remove existing file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Save persists the sequence of a signal name atomically.
func (s *Store) Save(ctx context.Context, signal string, subs []domain.Subscription) error {
	if signal == "" {
		return fmt.Errorf("signal cannot be empty")
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal subscriptions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.path(signal), data); err != nil {
		return fmt.Errorf("failed to save subscriptions of %s: %w", signal, err)
	}
	return nil
}

// Load retrieves the sequence of a signal name.
func (s *Store) Load(ctx context.Context, signal string) ([]domain.Subscription, error) {
	data, err := os.ReadFile(s.path(signal))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSignalNotFound
		}
		return nil, fmt.Errorf("failed to read subscriptions file: %w", err)
	}

	var subs []domain.Subscription
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscriptions of %s: %w", signal, err)
	}
	return subs, nil
}

// Delete removes the file of a signal name.
func (s *Store) Delete(ctx context.Context, signal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(signal))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete subscriptions file: %w", err)
	}
	return nil
}

// List returns every stored signal name, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		names = append(names, string(raw))
	}
	sort.Strings(names)
	return names, nil
}

// SaveTrace stores the trace as the last one of its signal name.
func (s *Store) SaveTrace(ctx context.Context, trace *domain.Trace) error {
	data, err := json.MarshalIndent(trace, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.tracePath(trace.Signal), data); err != nil {
		return fmt.Errorf("failed to save trace of %s: %w", trace.Signal, err)
	}
	return nil
}

// LoadTrace returns the last trace of a signal name.
func (s *Store) LoadTrace(ctx context.Context, signal string) (*domain.Trace, error) {
	data, err := os.ReadFile(s.tracePath(signal))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrTraceNotFound
		}
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}

	var trace domain.Trace
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace of %s: %w", signal, err)
	}
	return &trace, nil
}

package alerts

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore is a Store that journals each port's alert log to a JSONL file,
// one alert per line, so history survives restarts. Reads tolerate corrupt
// lines: a record that fails to parse is skipped with a logged warning, it
// never aborts the whole read.
type FileStore struct {
	dir    string
	mutex  sync.Mutex
	memory *MemoryStore
	warnf  func(format string, args ...interface{})
}

// NewFileStore creates a file-backed alert store rooted at dir, loading any
// existing logs. warnf receives corrupt-record warnings; pass log.Printf.
func NewFileStore(dir string, maxPerPort int, warnf func(format string, args ...interface{})) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create alert store dir: %w", err)
	}

	store := &FileStore{
		dir:    dir,
		memory: NewMemoryStore(maxPerPort),
		warnf:  warnf,
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *FileStore) load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read alert store dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		if err := s.loadFile(filepath.Join(s.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open alert log %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var alert Alert
		if err := json.Unmarshal([]byte(text), &alert); err != nil {
			s.warnf("Skipping corrupt alert record %s:%d: %v", filepath.Base(path), line, err)
			continue
		}
		if err := s.memory.Append(context.Background(), alert); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read alert log %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) path(portCode string) string {
	return filepath.Join(s.dir, portCode+".jsonl")
}

// Append records a new alert and journals it to the port's log file
func (s *FileStore) Append(ctx context.Context, alert Alert) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.memory.Append(ctx, alert); err != nil {
		return err
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	f, err := os.OpenFile(s.path(alert.PortCode), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open alert log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append alert: %w", err)
	}
	return nil
}

// History returns a port's alerts, newest first
func (s *FileStore) History(ctx context.Context, portCode string, limit int) ([]Alert, error) {
	return s.memory.History(ctx, portCode, limit)
}

// Acknowledge marks the matching alert acknowledged and rewrites the log
func (s *FileStore) Acknowledge(ctx context.Context, portCode, alertID string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	found, err := s.memory.Acknowledge(ctx, portCode, alertID)
	if err != nil || !found {
		return found, err
	}

	// Rewrite the journal so the acknowledged flag survives a restart.
	// Acknowledges are rare; the rewrite cost is acceptable.
	history, err := s.memory.History(ctx, portCode, 0)
	if err != nil {
		return true, err
	}

	var buf strings.Builder
	for i := len(history) - 1; i >= 0; i-- {
		data, err := json.Marshal(history[i])
		if err != nil {
			return true, fmt.Errorf("failed to marshal alert: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(s.path(portCode), []byte(buf.String()), 0o644); err != nil {
		return true, fmt.Errorf("failed to rewrite alert log: %w", err)
	}
	return true, nil
}

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// EnvFileStore persists values as KEY=value lines in a dotenv-style file.
// Writes rewrite only the targeted key; every other line, including comments
// and unrelated variables, is preserved byte for byte. The file is replaced
// atomically via a temp file rename so a crash mid-write never leaves a
// truncated file behind.
type EnvFileStore struct {
	path string

	mu sync.Mutex
	// lastWritten remembers the values this process wrote, so the file
	// watcher can distinguish our own writes from external edits.
	lastWritten map[string]string
}

// NewEnvFileStore creates a store backed by the dotenv file at path. The
// file does not need to exist yet; the first write creates it.
func NewEnvFileStore(path string) (*EnvFileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("envfile path cannot be empty")
	}
	return &EnvFileStore{
		path:        path,
		lastWritten: make(map[string]string),
	}, nil
}

// SetValue rewrites the file with key set to value. If the key is present it
// is updated in place; otherwise a new line is appended.
func (s *EnvFileStore) SetValue(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("value for %s cannot contain newlines", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLines()
	if err != nil {
		return err
	}

	replaced := false
	for i, line := range lines {
		if keyOf(line) == key {
			lines[i] = key + "=" + value
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, key+"="+value)
	}

	if err := s.writeLines(lines); err != nil {
		return err
	}
	s.lastWritten[key] = value
	return nil
}

// GetValue returns the value for key, or "" if the file or key is absent.
func (s *EnvFileStore) GetValue(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLines()
	if err != nil {
		return "", err
	}
	for _, line := range lines {
		if keyOf(line) == key {
			return valueOf(line), nil
		}
	}
	return "", nil
}

// Close is a no-op; the store holds no open handles between calls.
func (s *EnvFileStore) Close() error {
	return nil
}

// Path returns the file location the store reads and writes.
func (s *EnvFileStore) Path() string {
	return s.path
}

// wroteValue reports whether the current on-disk value for key matches the
// last value this process wrote, i.e. the change is not an external edit.
func (s *EnvFileStore) wroteValue(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastWritten[key]
	return ok && last == value
}

func (s *EnvFileStore) readLines() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	content := strings.TrimSuffix(string(data), "\n")
	if content == "" {
		return nil, nil
	}
	return strings.Split(content, "\n"), nil
}

func (s *EnvFileStore) writeLines(lines []string) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.WriteString(strings.Join(lines, "\n") + "\n")
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", s.path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", s.path, closeErr)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// keyOf extracts the variable name from a KEY=value line, or "" for
// comments, blank lines, and malformed lines.
func keyOf(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	key, _, ok := strings.Cut(trimmed, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(key)
}

// valueOf extracts the value from a KEY=value line, stripping one level of
// surrounding quotes.
func valueOf(line string) string {
	_, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return value
}

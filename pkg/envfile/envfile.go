// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package envfile caches agent IDs in a line-oriented KEY=value file.
//
// The file is append-only: existing lines are never rewritten. When a key
// appears more than once the last line wins, matching how dotenv loaders read
// it back.
package envfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

var (
	// ErrInvalidKey is returned for keys that are not valid variable names.
	ErrInvalidKey = errors.New("invalid env key")
	// ErrInvalidValue is returned for values that cannot be stored on one line.
	ErrInvalidValue = errors.New("invalid env value")
)

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store reads and appends cached identifiers.
type Store struct {
	path string

	// lookupEnv reads the process environment; replaced in tests.
	lookupEnv func(string) (string, bool)
}

// New returns a Store over the file at path. The file need not exist yet.
func New(path string) *Store {
	return &Store{path: path, lookupEnv: os.LookupEnv}
}

// Path returns the file path.
func (s *Store) Path() string {
	return s.path
}

// Lookup returns the cached value for key. The process environment takes
// precedence over the file, so an exported variable overrides a stale line.
// Empty values count as absent.
func (s *Store) Lookup(key string) (string, bool, error) {
	if v, ok := s.lookupEnv(key); ok && v != "" {
		return v, true, nil
	}

	values, err := s.Read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// Read parses the whole file. A missing file reads as empty.
func (s *Store) Read() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return values, nil
}

// Append adds one KEY=value line to the file, creating it if needed.
func (s *Store) Append(key, value string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if value == "" || strings.ContainsAny(value, "\r\n\"'#= \t") {
		return fmt.Errorf("%w for %s: %q", ErrInvalidValue, key, value)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	prefix, err := separatorFor(f)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", s.path, err)
	}

	if _, err := fmt.Fprintf(f, "%s%s=%s\n", prefix, key, value); err != nil {
		return fmt.Errorf("failed to append to %s: %w", s.path, err)
	}

	slog.Debug("Cached agent ID", "file", s.path, "key", key)
	return nil
}

// separatorFor returns "\n" when the file is non-empty and does not already
// end with a newline, so the new line never merges into the last one.
func separatorFor(f *os.File) (string, error) {
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "", nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if last[0] == '\n' {
		return "", nil
	}
	return "\n", nil
}

package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ReadLines loads the env file as ordered lines.
// A missing file reads as empty; any other failure is ErrPersistence.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), nil
}

// Lookup returns the last value assigned to key.
func Lookup(lines []string, key string) (string, bool) {
	value, found := "", false
	for _, line := range lines {
		if v, ok := assignment(line, key); ok {
			value, found = v, true
		}
	}
	return value, found
}

// ReplaceKey drops every assignment of key and appends key=value.
// Unrelated lines keep their content and relative order.
func ReplaceKey(lines []string, key string, value string) []string {
	out := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		if _, ok := assignment(line, key); ok {
			continue
		}
		out = append(out, line)
	}
	return append(out, key+"="+value)
}

func assignment(line string, key string) (string, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(line), "export ")
	rest, ok := strings.CutPrefix(strings.TrimSpace(trimmed), key)
	if !ok {
		return "", false
	}
	rest = strings.TrimLeft(rest, " \t")
	value, ok := strings.CutPrefix(rest, "=")
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}
	return value, true
}

// writeLines replaces path with lines via a synced temp file and rename, so a
// failed write never leaves a truncated file behind. An existing file keeps its mode.
func writeLines(path string, lines []string) error {
	dir := filepath.Dir(path)
	mode := os.FileMode(0o600)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(dir, ".env-*")
	if err != nil {
		return fmt.Errorf("%w: create temp in %s: %v", ErrPersistence, dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return fmt.Errorf("%w: chmod %s: %v", ErrPersistence, tmpName, err)
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		cleanup()
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("%w: sync %s: %v", ErrPersistence, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrPersistence, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %v", ErrPersistence, path, err)
	}
	return nil
}

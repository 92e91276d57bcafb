package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WithinDir runs fn with the process working directory set to dir.
// The previous directory is restored when fn returns, fails, or panics.
func WithinDir(dir string, fn func() error) (err error) {
	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("tools: resolve working directory: %w", err)
	}
	target := dir
	if home, herr := os.UserHomeDir(); herr == nil && strings.HasPrefix(target, "~/") {
		target = filepath.Join(home, target[2:])
	}
	if err := os.Chdir(target); err != nil {
		return fmt.Errorf("tools: enter %s: %w", dir, err)
	}
	defer func() {
		if rerr := os.Chdir(prev); rerr != nil && err == nil {
			err = fmt.Errorf("tools: restore %s: %w", prev, rerr)
		}
	}()
	return fn()
}

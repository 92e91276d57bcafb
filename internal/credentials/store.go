// Package credentials owns the auth API key: operator entry and persistence
// in a key=value env file shared with the hub server.
package credentials

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dwyl/smart-home-security-system/internal/logging"
	"github.com/dwyl/smart-home-security-system/internal/prompt"
)

var (
	ErrPersistence        = errors.New("credentials: persistence failed")
	ErrEmptyCredential    = errors.New("credentials: empty credential")
	ErrInvalidSecret      = errors.New("credentials: invalid credential value")
	ErrStoreMisconfigured = errors.New("credentials: invalid store config")
)

const promptAttempts = 3

// StoreConfig wires a Store to its file, key, and operator.
type StoreConfig struct {
	Path        string
	Key         string
	GuidanceURL string
	Operator    prompt.Operator
	Out         io.Writer
}

// Store resolves and persists one credential key.
type Store struct {
	path     string
	key      string
	guidance string
	operator prompt.Operator
	out      io.Writer
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("%w: missing path", ErrStoreMisconfigured)
	}
	if strings.TrimSpace(cfg.Key) == "" || strings.ContainsAny(cfg.Key, "= \t\n") {
		return nil, fmt.Errorf("%w: key=%q", ErrStoreMisconfigured, cfg.Key)
	}
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	return &Store{
		path:     cfg.Path,
		key:      cfg.Key,
		guidance: cfg.GuidanceURL,
		operator: cfg.Operator,
		out:      out,
	}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Key() string { return s.key }

// Load returns the value currently persisted for the key, if any.
func (s *Store) Load() (string, bool, error) {
	lines, err := ReadLines(s.path)
	if err != nil {
		return "", false, err
	}
	value, ok := Lookup(lines, s.key)
	return value, ok, nil
}

// Resolve returns current when set, otherwise asks the operator for the key.
// The resolved value is always written back to the env file.
func (s *Store) Resolve(current string) (string, error) {
	secret := strings.TrimSpace(current)
	if secret == "" {
		entered, err := s.ask()
		if err != nil {
			return "", err
		}
		secret = entered
	} else {
		logging.Debugf("credentials.resolve key=%s source=slot", s.key)
	}
	if err := s.WriteEnv(secret); err != nil {
		return "", err
	}
	return secret, nil
}

// WriteEnv rewrites the env file so it holds exactly one line for the key.
func (s *Store) WriteEnv(secret string) error {
	if strings.ContainsAny(secret, "\r\n") {
		return fmt.Errorf("%w: value for %s contains a line break", ErrInvalidSecret, s.key)
	}
	lines, err := ReadLines(s.path)
	if err != nil {
		return err
	}
	if err := writeLines(s.path, ReplaceKey(lines, s.key, secret)); err != nil {
		return err
	}
	logging.Infof("credentials.write key=%s path=%s lines=%d", s.key, s.path, len(lines)+1)
	return nil
}

func (s *Store) ask() (string, error) {
	if s.operator == nil {
		return "", fmt.Errorf("%w: %s not set and no operator available", ErrEmptyCredential, s.key)
	}
	fmt.Fprintf(s.out, "%s not set!\n\n", s.key)
	fmt.Fprintln(s.out, "No Auth API key set, find out how to get one at:")
	if s.guidance != "" {
		fmt.Fprintln(s.out, s.guidance)
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Please enter your API key once you're done to continue setup")

	for attempt := 1; attempt <= promptAttempts; attempt++ {
		entered, err := s.operator.PromptSecret("> ")
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEmptyCredential, err)
		}
		entered = strings.TrimSpace(entered)
		if entered != "" {
			return entered, nil
		}
		logging.Warnf("credentials.prompt key=%s empty input attempt=%d", s.key, attempt)
	}
	return "", fmt.Errorf("%w: %s left empty after %d attempts", ErrEmptyCredential, s.key, promptAttempts)
}

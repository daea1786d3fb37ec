// Package preferences persists the user's host and API key between runs.
package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	KeyHost   = "host"
	KeyAPIKey = "api_key"
)

// DefaultPath is ~/.sentrycli.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("preferences: finding home directory: %w", err)
	}
	return filepath.Join(home, ".sentrycli"), nil
}

// Store is a small JSON key-value file. Set writes through immediately when
// the value changes.
type Store struct {
	path string
	v    *viper.Viper
}

// Open loads the store at path. A missing or unreadable file yields an empty
// store; it is created on the first change.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preferences: path is empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	s := &Store{path: path, v: v}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), os.IsNotExist(err), errors.Is(err, os.ErrNotExist):
			log.Printf("preferences: %s not found, starting empty", path)
		default:
			log.Printf("preferences: ignoring unreadable %q: %v", path, err)
			s.v = viper.New()
			s.v.SetConfigFile(path)
			s.v.SetConfigType("json")
		}
	}
	return s, nil
}

// Get returns the stored value for name, empty when unset.
func (s *Store) Get(name string) string {
	return s.v.GetString(name)
}

// Set stores value under name and persists the file if the value changed.
func (s *Store) Set(name, value string) error {
	if s.v.IsSet(name) && s.v.GetString(name) == value {
		return nil
	}
	s.v.Set(name, value)
	if err := s.save(); err != nil {
		return err
	}
	log.Printf("preferences: saved %s", name)
	return nil
}

// save writes every setting as JSON. The file name carries no usable
// extension, so viper's own writers cannot infer the format.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.v.AllSettings(), "", "  ")
	if err != nil {
		return fmt.Errorf("preferences: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("preferences: mkdir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("preferences: save %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("preferences: save %s: %w", s.path, err)
	}
	return os.Chmod(s.path, 0600)
}

// Host is the stored service URL.
func (s *Store) Host() string { return s.Get(KeyHost) }

// APIKey is the stored credential.
func (s *Store) APIKey() string { return s.Get(KeyAPIKey) }

// Path is the backing file.
func (s *Store) Path() string { return s.path }

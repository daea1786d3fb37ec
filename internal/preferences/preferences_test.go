package preferences

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOpen_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs")

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !strings.Contains(logs.String(), "not found, starting empty") {
		t.Errorf("missing file log = %q", logs.String())
	}
	if s.Host() != "" || s.APIKey() != "" {
		t.Errorf("empty store returned host=%q key=%q", s.Host(), s.APIKey())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Open should not create the file")
	}
}

func TestSet_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(KeyHost, "https://sentry.example.com"); err != nil {
		t.Fatalf("Set host: %v", err)
	}
	if err := s.Set(KeyAPIKey, "abc"); err != nil {
		t.Fatalf("Set key: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read prefs: %v", err)
	}
	var stored map[string]string
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("prefs file is not JSON: %v\n%s", err, data)
	}
	if stored["host"] != "https://sentry.example.com" || stored["api_key"] != "abc" {
		t.Errorf("stored = %v", stored)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.Host() != "https://sentry.example.com" || reopened.APIKey() != "abc" {
		t.Errorf("reopened host=%q key=%q", reopened.Host(), reopened.APIKey())
	}
}

func TestSet_UnchangedDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(KeyHost, "h"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if err := s.Set(KeyHost, "h"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.ModTime().Equal(old) {
		t.Error("unchanged Set rewrote the file")
	}
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Host() != "" {
		t.Errorf("host = %q, want empty", s.Host())
	}
	if err := s.Set(KeyHost, "h"); err != nil {
		t.Fatalf("Set after corrupt load: %v", err)
	}
}

func TestSet_DotfileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sentrycli")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(KeyHost, "https://sentry.io"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("mode = %v, want 0600", perm)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.Host() != "https://sentry.io" {
		t.Errorf("host = %q", reopened.Host())
	}
}

// Package eventfile reads and writes fetched events as a JSON array or as
// newline delimited JSON.
package eventfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755
)

// Format names an on-disk encoding.
type Format string

const (
	JSON  Format = "json"
	JSONL Format = "jsonl"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case JSON:
		return JSON, nil
	case JSONL, "ndjson":
		return JSONL, nil
	default:
		return "", fmt.Errorf("eventfile: unknown format %q: want json or jsonl", s)
	}
}

// Load reads events from path, detecting the format from the first
// non-space byte.
func Load(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("eventfile: open: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes events from r. A leading '[' means a JSON array; anything else
// is read as one object per line.
func Read(r io.Reader) ([]json.RawMessage, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("eventfile: read: %w", err)
	}
	if first == '[' {
		var events []json.RawMessage
		if err := json.NewDecoder(br).Decode(&events); err != nil {
			return nil, fmt.Errorf("eventfile: decode array: %w", err)
		}
		return events, nil
	}
	return readLines(br)
}

// readLines reads one event per line. Blank lines are skipped and a trailing
// line without a newline that does not parse is treated as a partial write.
func readLines(br *bufio.Reader) ([]json.RawMessage, error) {
	var events []json.RawMessage
	lineNo := 0
	for {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("eventfile: read line: %w", err)
		}
		complete := bytes.HasSuffix(line, []byte("\n"))
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			lineNo++
			if !json.Valid(trimmed) {
				if !complete {
					return events, nil
				}
				return nil, fmt.Errorf("eventfile: line %d is not valid JSON", lineNo)
			}
			events = append(events, json.RawMessage(append([]byte(nil), trimmed...)))
		}
		if errors.Is(err, io.EOF) {
			return events, nil
		}
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}

// Write encodes events to w in the given format. JSON arrays are indented
// by two spaces.
func Write(w io.Writer, events []json.RawMessage, format Format) error {
	switch format {
	case JSONL:
		bw := bufio.NewWriter(w)
		for i, e := range events {
			var buf bytes.Buffer
			if err := json.Compact(&buf, e); err != nil {
				return fmt.Errorf("eventfile: event %d: %w", i, err)
			}
			buf.WriteByte('\n')
			if _, err := bw.Write(buf.Bytes()); err != nil {
				return fmt.Errorf("eventfile: write: %w", err)
			}
		}
		return bw.Flush()
	case JSON, "":
		if events == nil {
			events = []json.RawMessage{}
		}
		out, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return fmt.Errorf("eventfile: marshal: %w", err)
		}
		out = append(out, '\n')
		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("eventfile: write: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("eventfile: unknown format %q", format)
	}
}

// Save writes events to path, replacing it atomically.
func Save(path string, events []json.RawMessage, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return fmt.Errorf("eventfile: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("eventfile: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := Write(tmp, events, format); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("eventfile: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("eventfile: close: %w", err)
	}
	if err := os.Chmod(tmpPath, defaultFileMode); err != nil {
		return fmt.Errorf("eventfile: chmod: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("eventfile: rename: %w", err)
	}
	return nil
}

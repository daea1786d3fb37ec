package duckdb

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tinytelemetry/sentrycli/internal/event"
	"github.com/tinytelemetry/sentrycli/internal/model"
)

type cachedEvent struct {
	id      string
	created sql.NullTime
	payload string
}

// prepare decodes events, assigns their cache keys and drops batch
// duplicates (the later copy wins). Events that fail to decode are logged
// and skipped.
func prepare(issue string, events []json.RawMessage) []cachedEvent {
	index := make(map[string]int, len(events))
	out := make([]cachedEvent, 0, len(events))
	for i, data := range events {
		raw, err := event.Decode(data)
		if err != nil {
			log.Printf("duckdb: skipping event %d of issue %s: %v", i, issue, err)
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			log.Printf("duckdb: skipping event %d of issue %s: %v", i, issue, err)
			continue
		}
		v := event.NewView(raw)
		ce := cachedEvent{id: v.ID(), payload: buf.String()}
		if ce.id == "" {
			sum := sha256.Sum256(buf.Bytes())
			ce.id = "sha256:" + hex.EncodeToString(sum[:8])
		}
		if t := v.Created(); !t.IsZero() {
			ce.created = sql.NullTime{Time: t.UTC(), Valid: true}
		}
		if j, dup := index[ce.id]; dup {
			out[j] = ce
			continue
		}
		index[ce.id] = len(out)
		out = append(out, ce)
	}
	return out
}

// SaveEvents upserts events under issue and returns the number of rows
// written. Events are keyed by their eventID (or id); events without one
// are keyed by a digest of their payload.
func (s *Store) SaveEvents(issue string, events []json.RawMessage) (int, error) {
	if issue == "" {
		return 0, fmt.Errorf("duckdb: empty issue id")
	}
	rows := prepare(issue, events)
	if len(rows) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("duckdb: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO events
		(issue, event_id, date_created, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("duckdb: prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, issue, r.id, r.created, r.payload, now); err != nil {
			return 0, fmt.Errorf("duckdb: upsert event %s: %w", r.id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("duckdb: commit: %w", err)
	}
	return len(rows), nil
}

// LoadEvents returns the cached events of issue inside window, newest
// first. Undated events are always included and sort last.
func (s *Store) LoadEvents(issue string, window model.Window) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var (
		where = []string{"issue = ?"}
		args  = []any{issue}
	)
	if !window.Since.IsZero() {
		where = append(where, "(date_created IS NULL OR date_created >= ?)")
		args = append(args, window.Since.UTC())
	}
	if !window.To.IsZero() {
		where = append(where, "(date_created IS NULL OR date_created <= ?)")
		args = append(args, window.To.UTC())
	}

	query := "SELECT payload FROM events WHERE " + strings.Join(where, " AND ") +
		" ORDER BY date_created DESC NULLS LAST, event_id"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("duckdb: load events: %w", err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("duckdb: scan event: %w", err)
		}
		out = append(out, json.RawMessage(payload))
	}
	return out, rows.Err()
}

// Issues summarizes every cached issue, ordered by id.
func (s *Store) Issues() ([]model.IssueSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT issue, events, first_seen, last_seen
		FROM issue_summary ORDER BY issue`)
	if err != nil {
		return nil, fmt.Errorf("duckdb: list issues: %w", err)
	}
	defer rows.Close()

	var out []model.IssueSummary
	for rows.Next() {
		var (
			sum         model.IssueSummary
			first, last sql.NullTime
		)
		if err := rows.Scan(&sum.Issue, &sum.Events, &first, &last); err != nil {
			return nil, fmt.Errorf("duckdb: scan issue: %w", err)
		}
		if first.Valid {
			sum.FirstSeen = first.Time
		}
		if last.Valid {
			sum.LastSeen = last.Time
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// HasIssue reports whether any event is cached for issue.
func (s *Store) HasIssue(issue string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE issue = ?", issue).Scan(&n); err != nil {
		return false, fmt.Errorf("duckdb: has issue: %w", err)
	}
	return n > 0, nil
}

// DeleteIssue removes every cached event of issue.
func (s *Store) DeleteIssue(issue string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE issue = ?", issue)
	if err != nil {
		return 0, fmt.Errorf("duckdb: delete issue: %w", err)
	}
	return res.RowsAffected()
}

// DeleteBefore removes events fetched before cutoff.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE fetched_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("duckdb: delete before: %w", err)
	}
	return res.RowsAffected()
}

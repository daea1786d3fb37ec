package sentryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/tinytelemetry/sentrycli/internal/model"
	"github.com/tinytelemetry/sentrycli/internal/timestamp"
)

// page is one decoded response of a paginated resource.
type page struct {
	events []json.RawMessage
	next   link
}

// FetchEvents walks the cursor-paginated resource at rawURL and returns up to
// limit events (limit <= 0 means no cap) in the order received.
//
// When window has bounds, events created after window.To are skipped and the
// first event created before window.Since ends the walk: no further page is
// requested. This relies on the upstream returning events newest first; out
// of order pages make the result silently incomplete.
//
// Non-success responses are logged and end the walk with the events gathered
// so far. Transport and decoding errors are returned alongside them.
func (c *Client) FetchEvents(ctx context.Context, rawURL string, limit int, window model.Window) ([]json.RawMessage, error) {
	remaining := limit
	if remaining <= 0 {
		remaining = math.MaxInt
	}

	var out []json.RawMessage
	next := rawURL
	for next != "" && remaining > 0 {
		p, err := c.fetchPage(ctx, next)
		if err != nil {
			return out, err
		}
		if p == nil {
			break
		}

		events := p.events
		stopped := false
		if !window.IsZero() {
			events, stopped = filterWindow(events, window)
		}
		if len(events) > remaining {
			events = events[:remaining]
		}
		remaining -= len(events)
		out = append(out, events...)

		if stopped || !p.next.Results {
			break
		}
		next = p.next.URL
	}
	return out, nil
}

// FetchIssueEvents is FetchEvents starting at the issue's events resource.
func (c *Client) FetchIssueEvents(ctx context.Context, issue string, limit int, window model.Window) ([]json.RawMessage, error) {
	return c.FetchEvents(ctx, c.IssueEventsURL(issue), limit, window)
}

// fetchPage returns a nil page without error for non-success responses,
// after logging them.
func (c *Client) fetchPage(ctx context.Context, rawURL string) (*page, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		if resp.StatusCode == http.StatusNotFound {
			log.Printf("sentryapi: issue not found")
			return nil, nil
		}
		log.Printf("sentryapi: server returned %d: %s", resp.StatusCode, errorDetail(resp))
		return nil, nil
	}

	var events []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("sentryapi: decode page %s: %w", rawURL, err)
	}
	links := parseLinks(resp.Header.Values("Link"))
	return &page{events: events, next: links["next"]}, nil
}

// filterWindow keeps events inside window. stopped is true when an event
// older than window.Since was reached; the rest of the page is dropped.
// Events whose creation time cannot be read are kept.
func filterWindow(events []json.RawMessage, window model.Window) (kept []json.RawMessage, stopped bool) {
	kept = make([]json.RawMessage, 0, len(events))
	for _, e := range events {
		created, ok := createdAt(e)
		if !ok {
			kept = append(kept, e)
			continue
		}
		if !window.Since.IsZero() && created.Before(window.Since) {
			return kept, true
		}
		if !window.To.IsZero() && created.After(window.To) {
			continue
		}
		kept = append(kept, e)
	}
	return kept, false
}

func createdAt(e json.RawMessage) (time.Time, bool) {
	var head struct {
		DateCreated string `json:"dateCreated"`
	}
	if err := json.Unmarshal(e, &head); err != nil || head.DateCreated == "" {
		return time.Time{}, false
	}
	t, err := timestamp.Parse(head.DateCreated, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

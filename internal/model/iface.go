package model

import "encoding/json"

// EventStore persists raw fetched events per issue.
type EventStore interface {
	SaveEvents(issue string, events []json.RawMessage) (int, error)
	LoadEvents(issue string, window Window) ([]json.RawMessage, error)
	Issues() ([]IssueSummary, error)
	HasIssue(issue string) (bool, error)
	DeleteIssue(issue string) (int64, error)
}

// EventReader is the read-side contract used by the HTTP API.
type EventReader interface {
	LoadEvents(issue string, window Window) ([]json.RawMessage, error)
	Issues() ([]IssueSummary, error)
	HasIssue(issue string) (bool, error)
}

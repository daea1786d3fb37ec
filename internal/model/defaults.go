package model

import "time"

// Shared defaults used by the CLI and the read API.
const (
	DefaultAPIVersion     = 0
	DefaultRequestTimeout = 30 * time.Second
	DefaultQueryTimeout   = 30 * time.Second
	DefaultAuthScheme     = "bearer"
)

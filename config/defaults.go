package config

import "time"

// Default runtime limits and guardrails for the EDA server. Every value can
// be overridden from a YAML file or EDA_* environment variables (see Load).

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxSubprocesses       = 4

	// Input and output bounds
	DefaultMaxFileBytes    = 64 << 20 // 64MiB
	DefaultMaxOutputBytes  = 1 << 20  // custom-code output cap
	DefaultReportPageBytes = 0        // 0 derives the page size from DefaultModel
	DefaultModel           = "gpt-4o"

	// Remote files
	DefaultFetchRate  = 5.0 // requests per second
	DefaultFetchBurst = 5
)

const (
	// Timeouts
	DefaultOperationTimeout      = 60 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
	DefaultCustomCodeTimeout     = 10 * time.Second
	DefaultFetchTimeout          = 30 * time.Second
)

// DefaultInterpreters are tried in order by the python backend.
var DefaultInterpreters = []string{"python3", "python"}

package runtime

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vinodismyname/edamcp/config"
)

// Limits captures the concurrency guardrails configured for the server.
type Limits struct {
	// Concurrency caps
	MaxConcurrentRequests int
	MaxSubprocesses       int

	// Timeouts
	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits initializes Limits with sensible fallbacks when values are unset.
func NewLimits(maxConcurrentRequests, maxSubprocesses int) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if maxSubprocesses <= 0 {
		maxSubprocesses = config.DefaultMaxSubprocesses
	}

	return Limits{
		MaxConcurrentRequests: maxConcurrentRequests,
		MaxSubprocesses:       maxSubprocesses,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
}

// LimitsFromConfig copies the runtime-relevant settings out of cfg.
func LimitsFromConfig(cfg *config.Config) Limits {
	l := NewLimits(cfg.MaxConcurrentRequests, cfg.MaxSubprocesses)
	l.OperationTimeout = cfg.OperationTimeout
	l.AcquireRequestTimeout = cfg.AcquireTimeout
	return l
}

// Controller coordinates runtime semaphores for request and subprocess guardrails.
type Controller struct {
	limits              Limits
	requestSemaphore    *semaphore.Weighted
	subprocessSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:              limits,
		requestSemaphore:    semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		subprocessSemaphore: semaphore.NewWeighted(int64(limits.MaxSubprocesses)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// AcquireSubprocess reserves an interpreter slot.
func (c *Controller) AcquireSubprocess(ctx context.Context) error {
	return c.subprocessSemaphore.Acquire(ctx, 1)
}

// ReleaseSubprocess frees an interpreter slot.
func (c *Controller) ReleaseSubprocess() {
	c.subprocessSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and discovery.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}

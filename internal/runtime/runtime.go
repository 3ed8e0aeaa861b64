package runtime

import (
	"context"
	"time"

	"github.com/vinodismyname/peerxcel/config"
	"golang.org/x/sync/semaphore"
)

// Limits captures the concurrency guardrails and timeouts applied to tool
// calls and corpus scans.
type Limits struct {
	MaxConcurrentRequests int
	MaxOpenWorkbooks      int

	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits derives Limits from configuration, falling back to defaults for
// unset values.
func NewLimits(cfg config.LimitsConfig) Limits {
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if cfg.MaxOpenWorkbooks <= 0 {
		cfg.MaxOpenWorkbooks = config.DefaultMaxOpenWorkbooks
	}
	return Limits{
		MaxConcurrentRequests: cfg.MaxConcurrentRequests,
		MaxOpenWorkbooks:      cfg.MaxOpenWorkbooks,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
}

// Controller holds the request and workbook semaphores. It satisfies
// corpus.WorkbookGate.
type Controller struct {
	limits            Limits
	requestSemaphore  *semaphore.Weighted
	workbookSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:            limits,
		requestSemaphore:  semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		workbookSemaphore: semaphore.NewWeighted(int64(limits.MaxOpenWorkbooks)),
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

// AcquireWorkbook reserves a slot for opening one corpus file.
func (c *Controller) AcquireWorkbook(ctx context.Context) error {
	return c.workbookSemaphore.Acquire(ctx, 1)
}

// ReleaseWorkbook frees an open workbook slot.
func (c *Controller) ReleaseWorkbook() {
	c.workbookSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for logging and discovery.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}

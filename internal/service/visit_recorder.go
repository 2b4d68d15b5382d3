package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"slink-api/internal/entities"
	"slink-api/internal/metrics"
	"slink-api/internal/repository"

	"go.uber.org/zap"
)

const (
	defaultVisitQueueSize = 1024
	visitWriteTimeout     = 5 * time.Second

	maxUserAgentLen = 255
	maxRefererLen   = 500
)

// VisitRecorder persists visit records off the request path. Redirect
// handlers submit events to a bounded queue and return immediately; a worker
// goroutine applies each event as one transactional write (visit row +
// counter increment). A failed or dropped write is logged and counted but
// never surfaces to the visitor.
type VisitRecorder struct {
	repo   repository.VisitRepository
	logger *zap.Logger
	queue  chan *entities.Visit

	closeOnce sync.Once
	done      chan struct{}
}

// NewVisitRecorder starts a recorder with the given queue capacity
// (defaulted when <= 0).
func NewVisitRecorder(repo repository.VisitRepository, logger *zap.Logger, queueSize int) *VisitRecorder {
	if queueSize <= 0 {
		queueSize = defaultVisitQueueSize
	}

	r := &VisitRecorder{
		repo:   repo,
		logger: logger,
		queue:  make(chan *entities.Visit, queueSize),
		done:   make(chan struct{}),
	}

	go r.run()

	return r
}

// Record submits a visit for asynchronous persistence. It never blocks: when
// the queue is full the visit is dropped and counted, trading telemetry
// completeness for redirect latency.
func (r *VisitRecorder) Record(visit *entities.Visit) {
	select {
	case r.queue <- visit:
	default:
		metrics.VisitQueueDropped.Inc()
		r.logger.Warn("visit queue full, dropping visit", zap.String("url_id", visit.URLID))
	}
}

// Close stops accepting visits, drains the queue, and waits for the worker
// to finish.
func (r *VisitRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
	})
	<-r.done
}

func (r *VisitRecorder) run() {
	defer close(r.done)

	for visit := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), visitWriteTimeout)
		err := r.repo.Record(ctx, visit)
		cancel()

		if err != nil {
			metrics.VisitRecordFailures.Inc()
			r.logger.Error("failed to record visit",
				zap.String("url_id", visit.URLID),
				zap.Error(err),
			)
		}
	}
}

// HashIP returns a salted, truncated hash of the client address. The raw
// address is never stored.
func HashIP(salt, ip string) string {
	sum := sha256.Sum256([]byte(salt + ip))
	return hex.EncodeToString(sum[:])[:16]
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

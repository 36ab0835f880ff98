package queue

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reportcentral/console/internal/api/metrics"
	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher persists audit entries off the request path. Entries are routed
// to a fixed set of workers by target id, so the trail of one user is written
// in order.
type Dispatcher struct {
	workers []chan domain.AuditEntry
	repo    ports.AuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup

	// mu guards closed against the channel sends in Record.
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEntry, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEntry, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or after Close has drained their channel.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Close stops accepting entries and waits for queued ones to be written.
// Entries recorded afterwards are dropped and counted. Close is idempotent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Record queues an entry. It never blocks: when the worker is full the entry
// is dropped and counted.
func (d *Dispatcher) Record(entry domain.AuditEntry) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(entry, "audit dispatcher closed, entry dropped")
		return
	}

	idx := d.shardIndex(entry.TargetID)
	select {
	case d.workers[idx] <- entry:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(entry, "audit queue full, entry dropped")
	}
}

func (d *Dispatcher) drop(entry domain.AuditEntry, msg string) {
	metrics.AuditDroppedTotal.Inc()
	d.log.Warn().
		Str("action", string(entry.Action)).
		Int64("target_id", entry.TargetID).
		Msg(msg)
}

// shardIndex maps a target id deterministically to a worker index.
func (d *Dispatcher) shardIndex(targetID int64) int {
	n := int64(len(d.workers))
	return int(((targetID % n) + n) % n)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEntry) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-ch:
			if !ok {
				return
			}
			metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.repo.Insert(context.WithoutCancel(ctx), &entry); err != nil {
				d.log.Error().Err(err).
					Str("action", string(entry.Action)).
					Int64("target_id", entry.TargetID).
					Int("worker_id", id).
					Msg("audit entry not persisted")
			}
		}
	}
}

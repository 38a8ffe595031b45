package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/api/metrics"
	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	persistTimeout = 5 * time.Second
)

// Dispatcher persists audit events off the request path. Events are routed to
// a fixed set of workers by hashing resource and entity id, so the events of
// one entity are written in the order they were recorded.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	repo    ports.AuditRepository
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		repo:    repo,
		log:     log.With().Str("component", "audit_dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit when their channel is
// closed by Close or when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues ev without blocking. When the worker's buffer is full or the
// dispatcher is closed the event is dropped and counted.
func (d *Dispatcher) Record(_ context.Context, ev domain.AuditEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ev, "dispatcher closed")
		return
	}

	idx := d.shardIndex(ev.Resource, ev.EntityID)
	select {
	case d.workers[idx] <- ev:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(ev, "queue full")
	}
}

// Close stops accepting events and waits for the queued ones to be written,
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) drop(ev domain.AuditEvent, reason string) {
	metrics.AuditEventsTotal.WithLabelValues(string(ev.Resource), "dropped").Inc()
	d.log.Warn().
		Str("event_id", ev.ID).
		Str("resource", string(ev.Resource)).
		Int64("entity_id", ev.EntityID).
		Str("reason", reason).
		Msg("audit event dropped")
}

// shardIndex maps (resource, id) deterministically to a worker index.
func (d *Dispatcher) shardIndex(resource domain.Resource, id int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(resource))
	_, _ = h.Write([]byte(strconv.FormatInt(id, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.persist(ctx, id, ev)
		}
	}
}

func (d *Dispatcher) persist(ctx context.Context, worker int, ev domain.AuditEvent) {
	start := time.Now()
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	err := d.repo.InsertAudit(writeCtx, &ev)
	metrics.AuditPersistDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AuditEventsTotal.WithLabelValues(string(ev.Resource), "failed").Inc()
		d.log.Error().Err(err).
			Str("event_id", ev.ID).
			Str("resource", string(ev.Resource)).
			Int64("entity_id", ev.EntityID).
			Int("worker_id", worker).
			Msg("audit event persistence failed")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues(string(ev.Resource), "stored").Inc()
}

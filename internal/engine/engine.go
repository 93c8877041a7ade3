// Package engine implements the batching and resilient delivery core:
// record ingestion with duplicate merging, dual-trigger flush scheduling,
// asynchronous delivery with a bounded flat-interval retry queue, and a
// best-effort synchronous flush on shutdown.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LaxarJS/laxar-log-activity/internal/adapters/clock"
	"github.com/LaxarJS/laxar-log-activity/internal/adapters/httpx"
	logAdapter "github.com/LaxarJS/laxar-log-activity/internal/adapters/log"
	"github.com/LaxarJS/laxar-log-activity/internal/config"
	"github.com/LaxarJS/laxar-log-activity/internal/domain"
	"github.com/LaxarJS/laxar-log-activity/internal/format"
	"github.com/LaxarJS/laxar-log-activity/internal/metrics"
	"github.com/LaxarJS/laxar-log-activity/internal/ports"
)

// deliveryResult reports the outcome of one asynchronous transport call
// back to the engine loop. entry is nil for first attempts and points to
// the retry queue entry for re-attempts.
type deliveryResult struct {
	payload []byte
	entry   *domain.PendingSubmission
	err     error
}

// Engine is the composition root: it owns the buffer, the flush scheduler,
// the retry queue and both timers. All mutable state is confined to the
// single loop goroutine; ingestion and delivery outcomes reach it over
// channels, so a flush always completes before the next message is
// processed.
type Engine struct {
	cfg       config.Config
	transport ports.Transport
	clock     ports.Clock
	logger    ports.Logger
	metrics   *metrics.Metrics
	lc        *lifecycle

	ingestCh chan domain.Record
	results  chan deliveryResult

	// Loop-owned state. Never touched outside the run goroutine.
	buffer       *buffer
	queue        *retryQueue
	submitTimer  ports.Timer
	retryTimer   ports.Timer
	nextDeadline time.Time
	lastSeenID   int64
	stopping     bool

	// detached flips before the loop shuts down so no record can arrive
	// once teardown has begun.
	detached atomic.Bool

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an engine from cfg. Returns an error if the configuration is
// invalid; a missing ResourceURL is fatal here, the engine never activates
// without one.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logAdapter.NewNoopLogger()
	}

	transport := o.transport
	if transport == nil {
		client := o.httpClient
		if client == nil {
			client = &http.Client{Timeout: cfg.HTTPTimeout}
		}
		transport = httpx.NewTransport(client, httpx.Options{
			URL:         cfg.ResourceURL,
			HeaderName:  cfg.HeaderName,
			HeaderValue: cfg.HeaderValue,
			SyncTimeout: cfg.HTTPTimeout,
		}, logger)
	}

	clk := o.clock
	if clk == nil {
		clk = clock.New()
	}

	return &Engine{
		cfg:       cfg,
		transport: transport,
		clock:     clk,
		logger:    logger,
		metrics:   o.metrics,
		lc:        newLifecycle(logger),
		ingestCh:  make(chan domain.Record, 256),
		results:   make(chan deliveryResult, 64),
		buffer:    newBuffer(),
		queue:     newRetryQueue(),
	}, nil
}

// Start begins processing in the background and returns immediately.
// Returns ErrAlreadyRunning if the engine is not stopped.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lc.canStart() {
		return domain.ErrAlreadyRunning
	}
	if err := e.lc.transitionTo(StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.ctx = runCtx
	e.cancel = cancel
	e.detached.Store(false)
	e.stopping = false
	e.lastSeenID = 0
	e.nextDeadline = time.Time{}

	// Transition before spawning the loop: once Start returns, Stop must
	// always find a loop that will run its shutdown flush, even when the
	// goroutine has not been scheduled yet.
	if err := e.lc.transitionTo(StateRunning, "loop starting"); err != nil {
		cancel()
		return err
	}

	e.lc.addWorker()
	go func() {
		defer e.lc.workerDone()
		e.run(runCtx)
	}()

	return nil
}

// Stop detaches ingestion, forces a synchronous flush of the current
// buffer, cancels both timers and waits for the loop to finish.
// Records still queued for retry are lost; that bound is deliberate.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.lc.canStop() {
		e.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := e.lc.transitionTo(StateStopping, "Stop() called"); err != nil {
		e.mu.Unlock()
		return err
	}

	// Detach before cancelling so no record arrives once teardown begins.
	e.detached.Store(true)
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	err := e.lc.waitWithTimeout(ShutdownTimeout)
	if err != nil {
		_ = e.lc.transitionTo(StateCrashed, "shutdown timeout")
	} else {
		_ = e.lc.transitionTo(StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (e *Engine) Status() State {
	return e.lc.State()
}

// Ingest submits one record to the engine. It never fails on malformed
// content; the only error condition is an engine that is not accepting
// records. Records with an ID at or below the last seen one are discarded
// inside the loop (idempotent replay).
func (e *Engine) Ingest(rec domain.Record) error {
	if e.detached.Load() || !e.lc.accepting() {
		return domain.ErrNotRunning
	}

	e.mu.RLock()
	ctx := e.ctx
	e.mu.RUnlock()
	if ctx == nil {
		return domain.ErrNotRunning
	}

	select {
	case e.ingestCh <- rec:
		return nil
	case <-ctx.Done():
		return domain.ErrNotRunning
	}
}

// run is the engine event loop. It is the only goroutine that touches
// buffer, queue, scheduler state and the timers.
func (e *Engine) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return
		case rec := <-e.ingestCh:
			e.handleRecord(rec)
		case <-timerC(e.submitTimer):
			e.submitTimer = nil
			e.flush(false)
		case <-timerC(e.retryTimer):
			e.retryTimer = nil
			e.retryTick()
		case res := <-e.results:
			e.handleResult(res)
		}
	}
}

// timerC returns the timer's channel, or a nil channel (never ready) for
// an unarmed timer.
func timerC(t ports.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C()
}

// handleRecord formats, deduplicates and buffers one record, then decides
// between an immediate flush (count threshold) and riding the current
// deadline window.
func (e *Engine) handleRecord(rec domain.Record) {
	if rec.ID <= e.lastSeenID {
		e.metrics.RecordReplayed()
		e.logger.Debug("discarded replayed record",
			ports.Int64("id", rec.ID),
			ports.Int64("last_seen", e.lastSeenID),
		)
		return
	}
	e.lastSeenID = rec.ID

	// A formatting failure must not cost us the record: keep it with a
	// degraded text instead.
	text, anonymized, err := format.Format(rec.Text, rec.Values)
	if err != nil {
		e.metrics.FormatFailure()
		e.logger.Warn("record format failed", ports.Err(err), ports.Int64("id", rec.ID))
		text = fmt.Sprintf("%s (format error: %v)", rec.Text, err)
		anonymized = nil
	}
	rec.Text = text
	rec.Replacements = anonymized
	rec.Values = nil
	if rec.Repetitions < 1 {
		rec.Repetitions = 1
	}
	if rec.Tags == nil {
		rec.Tags = make(map[string]string, 1)
	}
	if _, ok := rec.Tags[domain.InstanceTag]; !ok {
		rec.Tags[domain.InstanceTag] = e.cfg.InstanceID
	}

	if e.buffer.add(rec) {
		e.metrics.RecordMerged()
	} else {
		e.metrics.RecordIngested()
	}

	if e.stopping {
		// Final drain; the shutdown flush will take care of everything.
		return
	}

	if e.buffer.size() >= e.cfg.Threshold.Messages {
		e.flush(false)
		return
	}

	// Only the first pending record in a window establishes the deadline;
	// later arrivals ride it, bounding buffering latency to exactly the
	// threshold interval.
	if e.nextDeadline.IsZero() {
		e.armSubmitTimer()
	}
}

// flush drains the buffer and hands the payloads to delivery. The buffer
// is cleared before any network outcome is known; failure tracking belongs
// to the retry queue. The submit window is re-armed even when nothing was
// buffered, keeping flush cadence aligned through idle periods.
func (e *Engine) flush(synchronous bool) {
	e.nextDeadline = time.Time{}
	if !synchronous {
		defer e.armSubmitTimer()
	}

	records := e.buffer.drain()
	if len(records) == 0 {
		return
	}

	payloads, err := buildPayloads(e.cfg.Source, e.cfg.RequestPolicy, records)
	if err != nil {
		e.logger.Error("payload marshal failed, records lost",
			ports.Err(err),
			ports.Int("records", len(records)),
		)
		return
	}

	for _, payload := range payloads {
		if synchronous {
			e.metrics.RequestSent(metrics.ModeSync)
			// Best effort, no retry: there will be no further
			// opportunity to deliver.
			if err := e.transport.Post(context.Background(), payload, true); err != nil {
				e.metrics.DeliveryFailure()
				e.logger.Warn("synchronous delivery failed", ports.Err(err))
			}
			continue
		}
		e.metrics.RequestSent(metrics.ModeAsync)
		e.deliver(payload, nil)
	}
}

// deliver performs one transport call off the loop goroutine and reports
// the outcome back over the results channel.
func (e *Engine) deliver(payload []byte, entry *domain.PendingSubmission) {
	e.mu.RLock()
	ctx := e.ctx
	e.mu.RUnlock()

	go func() {
		err := e.transport.Post(ctx, payload, false)
		select {
		case e.results <- deliveryResult{payload: payload, entry: entry, err: err}:
		case <-ctx.Done():
			// Shutdown has begun; the outcome has no consumer anymore.
		}
	}()
}

// handleResult processes one delivery outcome on the loop goroutine.
func (e *Engine) handleResult(res deliveryResult) {
	if res.entry != nil {
		res.entry.InFlight = false
	}

	if res.err == nil {
		if res.entry != nil {
			// Mark for eviction on the next tick instead of removing
			// mid-queue, preserving single-pass retry semantics.
			res.entry.RetriesLeft = 0
			res.entry.Delivered = true
		}
		e.logger.Debug("payload delivered", ports.Int("bytes", len(res.payload)))
		return
	}

	e.metrics.DeliveryFailure()

	if res.entry != nil {
		// Budget was already consumed when the attempt was issued.
		e.logger.Warn("retry delivery failed",
			ports.Err(res.err),
			ports.Int("retries_left", res.entry.RetriesLeft),
		)
		return
	}

	if !e.cfg.Retry.Enabled {
		e.logger.Warn("delivery failed, payload dropped (retry disabled)", ports.Err(res.err))
		return
	}

	e.logger.Warn("delivery failed, queued for retry",
		ports.Err(res.err),
		ports.Int("budget", e.cfg.Retry.Retries),
	)
	e.queue.enqueue(res.payload, e.cfg.Retry.Retries)
	if e.retryTimer == nil {
		e.armRetryTimer()
	}
}

// retryTick runs one pass of the retry state machine: evict spent entries,
// then re-attempt every remaining one. The timer is re-armed only while
// entries remain; an empty queue re-arms lazily on the next failure.
func (e *Engine) retryTick() {
	if dropped := e.queue.evict(); dropped > 0 {
		for i := 0; i < dropped; i++ {
			e.metrics.PayloadDropped()
		}
		e.logger.Warn("retry budget exhausted, payloads lost", ports.Int("payloads", dropped))
	}

	if e.queue.empty() {
		return
	}

	for _, entry := range e.queue.entries {
		if entry.RetriesLeft == 0 {
			// Exhausted, awaiting its final outcome. No re-attempt.
			continue
		}
		entry.RetriesLeft--
		entry.InFlight = true
		e.metrics.RetryAttempt()
		e.metrics.RequestSent(metrics.ModeRetry)
		e.deliver(entry.Payload, entry)
	}

	e.armRetryTimer()
}

// shutdown completes teardown on the loop goroutine: drain records that
// arrived before detach, cancel both timers, then flush synchronously.
func (e *Engine) shutdown() {
	e.stopping = true

	for {
		select {
		case rec := <-e.ingestCh:
			e.handleRecord(rec)
			continue
		default:
		}
		break
	}

	e.stopSubmitTimer()
	e.stopRetryTimer()

	if !e.queue.empty() {
		e.logger.Warn("shutdown with undelivered retry payloads",
			ports.Int("payloads", e.queue.size()),
		)
	}

	e.flush(true)
}

// armSubmitTimer establishes the next submit deadline, replacing any
// outstanding timer so only one is ever armed.
func (e *Engine) armSubmitTimer() {
	e.stopSubmitTimer()
	e.submitTimer = e.clock.NewTimer(e.cfg.Threshold.Interval)
	e.nextDeadline = e.clock.Now().Add(e.cfg.Threshold.Interval)
}

func (e *Engine) stopSubmitTimer() {
	if e.submitTimer != nil {
		e.submitTimer.Stop()
		e.submitTimer = nil
	}
}

// armRetryTimer arms the single shared retry timer at the flat configured
// interval, replacing any outstanding one.
func (e *Engine) armRetryTimer() {
	e.stopRetryTimer()
	e.retryTimer = e.clock.NewTimer(e.cfg.Retry.Interval)
}

func (e *Engine) stopRetryTimer() {
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
}

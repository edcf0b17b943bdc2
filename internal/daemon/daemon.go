package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/marcin-skalski/status-ticker/internal/config"
	"github.com/marcin-skalski/status-ticker/internal/mailbox"
	"github.com/marcin-skalski/status-ticker/internal/sources"
	"github.com/marcin-skalski/status-ticker/internal/status"
)

// Builder produces one aggregation pass.
type Builder interface {
	BuildSegments(ctx context.Context) (sources.Result, error)
}

// StatusMsg carries a new status-line text.
type StatusMsg struct {
	Text string
}

// RefreshedMsg reports that a pass was stored in the pending slot.
type RefreshedMsg struct {
	Seq      uint64
	Took     time.Duration
	Segments int
	Failed   int
}

// Notifier delivers daemon messages to the UI loop. It must be safe to call
// from any goroutine; tea.Program.Send is the usual implementation.
type Notifier func(msg any)

// Daemon schedules refresh cycles. Each cycle runs in its own detached
// goroutine and hands its result to the pending slot; the UI loop decides
// when to show it.
type Daemon struct {
	cfg     *config.Config
	builder Builder
	pending *mailbox.Slot[[]status.Segment]
	logger  *slog.Logger

	limiter *rate.Limiter
	manual  chan struct{}

	seq       atomic.Uint64
	completed atomic.Uint64 // highest sequence that finished, either way
	closing   atomic.Bool

	notifyMu sync.RWMutex
	notify   Notifier
}

func New(cfg *config.Config, builder Builder, pending *mailbox.Slot[[]status.Segment], logger *slog.Logger) *Daemon {
	return &Daemon{
		cfg:     cfg,
		builder: builder,
		pending: pending,
		logger:  logger.With("component", "daemon"),
		limiter: rate.NewLimiter(rate.Every(cfg.ManualRefreshEvery), 1),
		manual:  make(chan struct{}, 1),
		notify:  func(any) {},
	}
}

// SetNotifier installs the UI message sink.
func (d *Daemon) SetNotifier(n Notifier) {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	d.notify = n
}

func (d *Daemon) publish(msg any) {
	if d.closing.Load() {
		return
	}
	d.notifyMu.RLock()
	n := d.notify
	d.notifyMu.RUnlock()
	n(msg)
}

// Run refreshes immediately, then on every refresh interval and on manual
// requests, until ctx is done. In-flight workers are not waited for.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("daemon started", "refresh_interval", d.cfg.RefreshInterval)

	d.Refresh(ctx)

	ticker := time.NewTicker(d.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.Close()
			d.logger.Info("daemon stopped")
			return nil
		case <-ticker.C:
			d.Refresh(ctx)
		case <-d.manual:
			d.logger.Info("manual refresh")
			d.Refresh(ctx)
		}
	}
}

// RequestRefresh asks Run for an extra cycle. Requests faster than the
// configured minimum interval are refused.
func (d *Daemon) RequestRefresh() bool {
	if d.closing.Load() {
		return false
	}
	if !d.limiter.Allow() {
		d.publish(StatusMsg{Text: "Refresh throttled, try again shortly"})
		return false
	}
	select {
	case d.manual <- struct{}{}:
	default:
	}
	return true
}

// Close stops all further UI notifications and pending-slot writes.
func (d *Daemon) Close() {
	d.closing.Store(true)
}

// Refresh starts one detached refresh cycle and returns its sequence number.
func (d *Daemon) Refresh(ctx context.Context) uint64 {
	seq := d.seq.Add(1)
	d.publish(StatusMsg{Text: "Refreshing status…"})

	// The pass is not cancelled with the daemon; the HTTP timeout bounds it.
	workCtx := context.WithoutCancel(ctx)
	go d.work(workCtx, seq)
	return seq
}

func (d *Daemon) work(ctx context.Context, seq uint64) {
	start := time.Now()
	res, err := d.builder.BuildSegments(ctx)
	took := time.Since(start)

	if d.closing.Load() {
		return
	}

	if err != nil {
		if !d.complete(seq) {
			d.logger.Warn("dropping stale refresh failure", "seq", seq, "err", err)
			return
		}
		d.logger.Error("refresh failed", "seq", seq, "err", err)
		d.publish(StatusMsg{Text: fmt.Sprintf("Refresh failed: %v (retrying)", err)})
		return
	}

	if !d.pending.Offer(seq, res.Segments) {
		d.logger.Warn("dropping stale refresh", "seq", seq)
		return
	}
	d.complete(seq)

	d.logger.Info("refreshed", "seq", seq, "took", took.Round(time.Millisecond), "segments", len(res.Segments), "unavailable", len(res.Failed))

	text := fmt.Sprintf("Refreshed in %.1fs • Will apply on next loop • Next %ds",
		took.Seconds(), int(d.cfg.RefreshInterval.Seconds()))
	if n := len(res.Failed); n > 0 {
		text += fmt.Sprintf(" • %d unavailable", n)
	}
	d.publish(StatusMsg{Text: text})
	d.publish(RefreshedMsg{Seq: seq, Took: took, Segments: len(res.Segments), Failed: len(res.Failed)})
}

// complete records seq as finished. It reports false when a newer pass has
// already finished.
func (d *Daemon) complete(seq uint64) bool {
	for {
		cur := d.completed.Load()
		if seq < cur {
			return false
		}
		if d.completed.CompareAndSwap(cur, seq) {
			return true
		}
	}
}

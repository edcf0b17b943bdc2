package daemon

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marcin-skalski/status-ticker/internal/config"
	"github.com/marcin-skalski/status-ticker/internal/logging"
	"github.com/marcin-skalski/status-ticker/internal/mailbox"
	"github.com/marcin-skalski/status-ticker/internal/sources"
	"github.com/marcin-skalski/status-ticker/internal/status"
)

// scriptedBuilder returns one scripted step per call. A step with a non-nil
// gate blocks until the gate is closed.
type scriptedBuilder struct {
	mu    sync.Mutex
	calls int
	steps []step
}

type step struct {
	gate chan struct{}
	res  sources.Result
	err  error
}

func (b *scriptedBuilder) BuildSegments(ctx context.Context) (sources.Result, error) {
	b.mu.Lock()
	s := b.steps[min(b.calls, len(b.steps)-1)]
	b.calls++
	b.mu.Unlock()

	if s.gate != nil {
		<-s.gate
	}
	return s.res, s.err
}

func (b *scriptedBuilder) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func segs(text string) sources.Result {
	return sources.Result{Segments: []status.Segment{{Text: text}}}
}

func testConfig() *config.Config {
	return &config.Config{
		RefreshInterval:    time.Hour,
		ManualRefreshEvery: time.Hour,
	}
}

func newTestDaemon(b Builder) (*Daemon, *mailbox.Slot[[]status.Segment], chan any) {
	slot := &mailbox.Slot[[]status.Segment]{}
	d := New(testConfig(), b, slot, logging.Discard())
	msgs := make(chan any, 64)
	d.SetNotifier(func(msg any) { msgs <- msg })
	return d, slot, msgs
}

func waitFor[T any](t *testing.T, msgs <-chan any) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-msgs:
			if v, ok := msg.(T); ok {
				return v
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

var refreshedText = regexp.MustCompile(`^Refreshed in \d+\.\ds • Will apply on next loop • Next 3600s$`)

func TestRefreshStoresPending(t *testing.T) {
	d, slot, msgs := newTestDaemon(&scriptedBuilder{steps: []step{{res: segs("ok")}}})

	seq := d.Refresh(context.Background())
	if first := waitFor[StatusMsg](t, msgs); first.Text != "Refreshing status…" {
		t.Errorf("first status = %q", first.Text)
	}
	applied := waitFor[StatusMsg](t, msgs)
	if !refreshedText.MatchString(applied.Text) {
		t.Errorf("status = %q", applied.Text)
	}
	done := waitFor[RefreshedMsg](t, msgs)
	if done.Seq != seq || done.Segments != 1 {
		t.Errorf("refreshed = %+v", done)
	}

	got, ok := slot.Take()
	if !ok || got[0].Text != "ok" {
		t.Fatalf("pending = %+v, %v", got, ok)
	}
}

func TestRefreshFailureLeavesPendingEmpty(t *testing.T) {
	d, slot, msgs := newTestDaemon(&scriptedBuilder{steps: []step{{err: errors.New("Cloudflare: timeout")}}})

	d.Refresh(context.Background())
	waitFor[StatusMsg](t, msgs)
	failed := waitFor[StatusMsg](t, msgs)
	if !strings.HasPrefix(failed.Text, "Refresh failed: Cloudflare: timeout") || !strings.HasSuffix(failed.Text, "(retrying)") {
		t.Errorf("status = %q", failed.Text)
	}
	if slot.Pending() {
		t.Error("failed refresh wrote the pending slot")
	}
}

func TestPartialFailureReported(t *testing.T) {
	res := segs("x")
	res.Failed = []sources.SourceError{{Source: "Securly", Err: errors.New("503")}}
	d, _, msgs := newTestDaemon(&scriptedBuilder{steps: []step{{res: res}}})

	d.Refresh(context.Background())
	waitFor[StatusMsg](t, msgs)
	applied := waitFor[StatusMsg](t, msgs)
	if !strings.HasPrefix(applied.Text, "Refreshed in ") || !strings.HasSuffix(applied.Text, "Next 3600s • 1 unavailable") {
		t.Errorf("status = %q", applied.Text)
	}
	done := waitFor[RefreshedMsg](t, msgs)
	if done.Failed != 1 {
		t.Errorf("failed = %d", done.Failed)
	}
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestSlowerOlderRefreshIsDropped(t *testing.T) {
	gate := make(chan struct{})
	b := &scriptedBuilder{steps: []step{
		{gate: gate, res: segs("old")},
		{res: segs("new")},
	}}
	logs := &syncBuffer{}
	slot := &mailbox.Slot[[]status.Segment]{}
	d := New(testConfig(), b, slot, slog.New(slog.NewTextHandler(logs, nil)))
	msgs := make(chan any, 64)
	d.SetNotifier(func(msg any) { msgs <- msg })

	d.Refresh(context.Background())
	// The slow pass must take the gated step before the second one starts.
	for b.callCount() < 1 {
		time.Sleep(time.Millisecond)
	}
	newer := d.Refresh(context.Background())
	if done := waitFor[RefreshedMsg](t, msgs); done.Seq != newer {
		t.Fatalf("first completed refresh = %d, want %d", done.Seq, newer)
	}

	close(gate)
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(logs.String(), "dropping stale refresh") {
		if time.Now().After(deadline) {
			t.Fatal("stale refresh was not dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	got, ok := slot.Take()
	if !ok || got[0].Text != "new" {
		t.Fatalf("pending = %+v, want the newer pass", got)
	}
}

func TestSlowerOlderFailureIsDropped(t *testing.T) {
	gate := make(chan struct{})
	b := &scriptedBuilder{steps: []step{
		{gate: gate, err: errors.New("old pass timeout")},
		{res: segs("new")},
	}}
	logs := &syncBuffer{}
	slot := &mailbox.Slot[[]status.Segment]{}
	d := New(testConfig(), b, slot, slog.New(slog.NewTextHandler(logs, nil)))
	msgs := make(chan any, 64)
	d.SetNotifier(func(msg any) { msgs <- msg })

	d.Refresh(context.Background())
	for b.callCount() < 1 {
		time.Sleep(time.Millisecond)
	}
	newer := d.Refresh(context.Background())
	if done := waitFor[RefreshedMsg](t, msgs); done.Seq != newer {
		t.Fatalf("first completed refresh = %d, want %d", done.Seq, newer)
	}

	close(gate)
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(logs.String(), "dropping stale refresh failure") {
		if time.Now().After(deadline) {
			t.Fatal("stale failure was not dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	for len(msgs) > 0 {
		if st, ok := (<-msgs).(StatusMsg); ok && strings.HasPrefix(st.Text, "Refresh failed") {
			t.Errorf("stale failure reached the status line: %q", st.Text)
		}
	}
	if !slot.Pending() {
		t.Error("newer pass lost from the pending slot")
	}
}

func TestNewerFailureAfterOlderSuccessIsReported(t *testing.T) {
	d, _, msgs := newTestDaemon(&scriptedBuilder{steps: []step{
		{res: segs("ok")},
		{err: errors.New("Cloudflare: timeout")},
	}})

	d.Refresh(context.Background())
	waitFor[RefreshedMsg](t, msgs)
	d.Refresh(context.Background())
	waitFor[StatusMsg](t, msgs)
	if failed := waitFor[StatusMsg](t, msgs); !strings.HasPrefix(failed.Text, "Refresh failed") {
		t.Errorf("status = %q", failed.Text)
	}
}

func TestCloseSilencesWorkers(t *testing.T) {
	gate := make(chan struct{})
	d, slot, msgs := newTestDaemon(&scriptedBuilder{steps: []step{{gate: gate, res: segs("late")}}})

	d.Refresh(context.Background())
	waitFor[StatusMsg](t, msgs)
	d.Close()
	close(gate)

	select {
	case msg := <-msgs:
		t.Fatalf("message after close: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
	if slot.Pending() {
		t.Error("worker wrote pending slot after close")
	}
}

func TestRunInitialRefreshAndManual(t *testing.T) {
	d, _, msgs := newTestDaemon(&scriptedBuilder{steps: []step{{res: segs("ok")}}})

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()

	if first := waitFor[RefreshedMsg](t, msgs); first.Seq != 1 {
		t.Fatalf("initial refresh seq = %d", first.Seq)
	}

	if !d.RequestRefresh() {
		t.Fatal("first manual refresh refused")
	}
	if second := waitFor[RefreshedMsg](t, msgs); second.Seq != 2 {
		t.Fatalf("manual refresh seq = %d", second.Seq)
	}

	if d.RequestRefresh() {
		t.Error("second manual refresh inside the minimum interval should be throttled")
	}

	cancel()
	if err := <-runErr; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.RequestRefresh() {
		t.Error("refresh accepted after shutdown")
	}
}

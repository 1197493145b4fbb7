package dispatch

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/kugiri/internal/segment"
)

type recordingSender struct {
	mu      sync.Mutex
	actions []Action
	onSend  func(a Action) error
}

func (r *recordingSender) Send(_ context.Context, a Action) error {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
	if r.onSend != nil {
		return r.onSend(a)
	}
	return nil
}

type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (f *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.mu.Unlock()
	return ctx.Err()
}

func testSegments(contents ...string) []segment.Segment {
	out := make([]segment.Segment, len(contents))
	for i, c := range contents {
		out[i] = segment.Segment{Index: i + 1, Total: len(contents), Content: c}
	}
	return out
}

func TestSchedule_OrderAndPacing(t *testing.T) {
	fs := &fakeSleeper{}
	opts := Options{SendDelay: 1500 * time.Millisecond, ShowProgress: true}
	s := NewScheduler(opts, WithSleeper(fs.sleep), WithRunID(func() string { return "run-1" }))
	rec := &recordingSender{}

	report, err := s.Schedule(context.Background(), testSegments("a", "b", "c"), rec)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if report.Delivered != 3 || report.Total != 3 || report.HintSent || report.RunID != "run-1" {
		t.Errorf("report = %+v", report)
	}
	wantContent := []string{"(1/3) a", "(2/3) b", "(3/3) c"}
	for i, a := range rec.actions {
		if a.Content != wantContent[i] {
			t.Errorf("action %d content = %q, want %q", i, a.Content, wantContent[i])
		}
		if a.Index != i+1 || a.Total != 3 || a.RunID != "run-1" || a.Kind != KindSegment {
			t.Errorf("action %d = %+v", i, a)
		}
		if a.IsFirst != (i == 0) || a.QuoteRequest != (i == 0) || a.Typing != (i > 0) {
			t.Errorf("action %d flags = first:%v quote:%v typing:%v", i, a.IsFirst, a.QuoteRequest, a.Typing)
		}
	}
	wantDelays := []time.Duration{1500 * time.Millisecond, 1500 * time.Millisecond}
	if !reflect.DeepEqual(fs.delays, wantDelays) {
		t.Errorf("delays = %v, want %v", fs.delays, wantDelays)
	}
}

func TestSchedule_StartHint(t *testing.T) {
	fs := &fakeSleeper{}
	opts := Options{
		SendDelay:        time.Second,
		ShowStartHint:    true,
		StartHintMessage: "Let me explain...",
		StartHintDelay:   500 * time.Millisecond,
	}
	rec := &recordingSender{}
	report, err := NewScheduler(opts, WithSleeper(fs.sleep)).Schedule(context.Background(), testSegments("a", "b"), rec)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if !report.HintSent || report.Delivered != 2 {
		t.Errorf("report = %+v", report)
	}
	if len(rec.actions) != 3 {
		t.Fatalf("got %d actions, want 3", len(rec.actions))
	}
	hint := rec.actions[0]
	if hint.Kind != KindHint || hint.Content != "Let me explain..." || !hint.QuoteRequest {
		t.Errorf("hint = %+v", hint)
	}
	if first := rec.actions[1]; first.QuoteRequest || !first.IsFirst || first.Content != "a" {
		t.Errorf("first segment = %+v", first)
	}
	wantDelays := []time.Duration{500 * time.Millisecond, time.Second}
	if !reflect.DeepEqual(fs.delays, wantDelays) {
		t.Errorf("delays = %v, want %v", fs.delays, wantDelays)
	}
}

func TestSchedule_CancelAfterFirstSegment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recordingSender{onSend: func(Action) error {
		cancel()
		return nil
	}}
	opts := Options{SendDelay: 1500 * time.Millisecond, ShowProgress: true}
	start := time.Now()
	report, err := NewScheduler(opts).Schedule(ctx, testSegments("one", "two", "three"), rec)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Schedule error = %v, want context.Canceled", err)
	}
	if len(rec.actions) != 1 || rec.actions[0].Index != 1 {
		t.Errorf("actions = %+v, want only segment 1", rec.actions)
	}
	if report.Delivered != 1 {
		t.Errorf("Delivered = %d, want 1", report.Delivered)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation should interrupt the delay, took %v", elapsed)
	}
}

func TestSchedule_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recordingSender{}
	_, err := NewScheduler(Options{}).Schedule(ctx, testSegments("x"), rec)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(rec.actions) != 0 {
		t.Errorf("no action should be issued, got %d", len(rec.actions))
	}
}

func TestSchedule_SenderSeesUncancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var sendErr error
	sender := SenderFunc(func(sctx context.Context, a Action) error {
		cancel()
		sendErr = sctx.Err()
		return nil
	})
	_, _ = NewScheduler(Options{}).Schedule(ctx, testSegments("x", "y"), sender)
	if sendErr != nil {
		t.Errorf("sender context should not be cancelled mid-send, got %v", sendErr)
	}
}

func TestSchedule_SenderError(t *testing.T) {
	boom := errors.New("boom")
	rec := &recordingSender{onSend: func(a Action) error {
		if a.Index == 2 {
			return boom
		}
		return nil
	}}
	fs := &fakeSleeper{}
	report, err := NewScheduler(Options{}, WithSleeper(fs.sleep)).Schedule(context.Background(), testSegments("a", "b", "c"), rec)
	var sendErr *SendError
	if !errors.As(err, &sendErr) || sendErr.Index != 2 {
		t.Fatalf("err = %v, want SendError for segment 2", err)
	}
	if !errors.Is(err, boom) {
		t.Error("SendError should unwrap to the sender error")
	}
	if report.Delivered != 1 || len(rec.actions) != 2 {
		t.Errorf("Delivered = %d, actions = %d", report.Delivered, len(rec.actions))
	}
}

func TestSchedule_NoSender(t *testing.T) {
	if _, err := NewScheduler(Options{}).Schedule(context.Background(), testSegments("a"), nil); !errors.Is(err, ErrNoSender) {
		t.Errorf("err = %v, want ErrNoSender", err)
	}
}

func TestSchedule_RealDelay(t *testing.T) {
	rec := &recordingSender{}
	start := time.Now()
	_, err := NewScheduler(Options{SendDelay: 20 * time.Millisecond}).Schedule(context.Background(), testSegments("a", "b", "c"), rec)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("two pauses of 20ms should take at least 40ms, took %v", elapsed)
	}
}

func TestActions(t *testing.T) {
	t.Run("single segment has no progress marker", func(t *testing.T) {
		got := Actions(testSegments("only"), Options{ShowProgress: true})
		if len(got) != 1 || got[0].Content != "only" || got[0].Raw != "only" {
			t.Errorf("Actions() = %+v", got)
		}
	})
	t.Run("no segments yields no hint", func(t *testing.T) {
		if got := Actions(nil, Options{ShowStartHint: true}); len(got) != 0 {
			t.Errorf("Actions(nil) = %+v", got)
		}
	})
	t.Run("empty hint message uses default", func(t *testing.T) {
		got := Actions(testSegments("a"), Options{ShowStartHint: true})
		if got[0].Content != DefaultStartHint {
			t.Errorf("hint content = %q", got[0].Content)
		}
	})
	t.Run("progress can be stripped", func(t *testing.T) {
		for _, a := range Actions(testSegments("x (1/2) y", "z"), Options{ShowProgress: true}) {
			if segment.StripProgress(a.Content) != a.Raw {
				t.Errorf("StripProgress(%q) != %q", a.Content, a.Raw)
			}
		}
	})
}

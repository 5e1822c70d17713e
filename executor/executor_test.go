// File: executor/executor_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package executor_test

import (
	"sync"
	"testing"
	"time"

	"github.com/momentics/hostbridge/api"
	"github.com/momentics/hostbridge/executor"
	"github.com/momentics/hostbridge/reactor"
)

// resultRecorder collects completion callbacks and fails on duplicates.
type resultRecorder struct {
	mu      sync.Mutex
	results []api.Result[any]
}

func (r *resultRecorder) done(res api.Result[any]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *resultRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *resultRecorder) last() api.Result[any] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[len(r.results)-1]
}

func TestImmediateCompletionIsSynchronous(t *testing.T) {
	table := reactor.New(nil)
	e := executor.New(table, nil)
	rec := &resultRecorder{}

	if err := e.Spawn(api.Ready(42), rec.done, nil, nil); err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}

	// on_done fired inside Spawn, with no reactor interaction.
	if rec.count() != 1 {
		t.Fatalf("completion count = %d, want 1", rec.count())
	}
	if got := rec.last().Value; got != 42 {
		t.Errorf("completion value = %v, want 42", got)
	}
	if table.Pending() != 0 {
		t.Error("immediate completion touched the interest table")
	}
	if e.Active() != 0 {
		t.Error("completed task still stored")
	}
}

// suspendFuture parks on its first poll, exporting the waker, and completes
// with its value on the second.
type suspendFuture struct {
	value any
	waker api.Waker
	polls int
}

func (f *suspendFuture) Poll(cx *api.Context) (any, bool, error) {
	f.polls++
	if f.polls == 1 {
		f.waker = cx.Waker()
		return nil, false, nil
	}
	return f.value, true, nil
}

func TestWakeDrivesRePollAndCompletion(t *testing.T) {
	e := executor.New(reactor.New(nil), nil)
	rec := &resultRecorder{}
	fut := &suspendFuture{value: "done"}

	if err := e.Spawn(fut, rec.done, nil, nil); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 0 {
		t.Fatal("callback fired before the computation produced a value")
	}
	if e.Active() != 1 {
		t.Fatalf("Active() = %d, want 1", e.Active())
	}

	fut.waker.Wake()
	if rec.count() != 1 || rec.last().Value != "done" {
		t.Fatalf("results after wake: %+v", rec.results)
	}

	// Waking a completed task is guarded; no re-poll, no second delivery.
	fut.waker.Wake()
	if rec.count() != 1 {
		t.Errorf("completion delivered %d times, want 1", rec.count())
	}
	if fut.polls != 2 {
		t.Errorf("poll count = %d, want 2", fut.polls)
	}
}

// overlapProbe records the maximum poll nesting across all tasks sharing it.
type overlapProbe struct {
	mu    sync.Mutex
	depth int
	max   int
}

func (p *overlapProbe) enter() {
	p.mu.Lock()
	p.depth++
	if p.depth > p.max {
		p.max = p.depth
	}
	p.mu.Unlock()
}

func (p *overlapProbe) exit() {
	p.mu.Lock()
	p.depth--
	p.mu.Unlock()
}

// notifyInsideFuture suspends on fd interest, and when resumed fires a
// notification for another descriptor from inside its own poll.
type notifyInsideFuture struct {
	probe    *overlapProbe
	table    api.InterestTable
	fd       int
	notifyFD int // 0 means none
	polls    int
}

func (f *notifyInsideFuture) Poll(cx *api.Context) (any, bool, error) {
	f.probe.enter()
	defer f.probe.exit()

	f.polls++
	if f.polls == 1 {
		if err := f.table.Register(f.fd, api.Readable, cx.Waker()); err != nil {
			return nil, true, err
		}
		return nil, false, nil
	}
	if f.notifyFD != 0 {
		// notify-from-inside-notify: this poll itself runs under a
		// reactor notification.
		f.table.Notify(f.notifyFD, api.Readable)
	}
	return f.fd, true, nil
}

func TestNoOverlappingPolls(t *testing.T) {
	table := reactor.New(nil)
	e := executor.New(table, nil)
	probe := &overlapProbe{}
	rec := &resultRecorder{}

	a := &notifyInsideFuture{probe: probe, table: table, fd: 1, notifyFD: 2}
	b := &notifyInsideFuture{probe: probe, table: table, fd: 2}

	if err := e.Spawn(a, rec.done, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Spawn(b, rec.done, nil, nil); err != nil {
		t.Fatal(err)
	}

	// Resuming task A makes it notify task B from inside its own poll; B
	// must be re-polled after A's poll returns, never during it.
	table.Notify(1, api.Readable)

	if rec.count() != 2 {
		t.Fatalf("completions = %d, want 2", rec.count())
	}
	if probe.max != 1 {
		t.Errorf("max poll nesting = %d, want 1", probe.max)
	}
}

func TestPanicBecomesTypedError(t *testing.T) {
	e := executor.New(reactor.New(nil), nil)
	rec := &resultRecorder{}

	fut := api.FutureFunc(func(*api.Context) (any, bool, error) {
		panic("boom")
	})
	if err := e.Spawn(fut, rec.done, nil, nil); err != nil {
		t.Fatal(err)
	}

	if rec.count() != 1 {
		t.Fatalf("completions = %d, want 1", rec.count())
	}
	res := rec.last()
	if res.Err == nil {
		t.Fatal("panic did not surface as an error result")
	}
	apiErr, ok := res.Err.(*api.Error)
	if !ok || apiErr.Code != api.ErrCodeInternal {
		t.Errorf("unexpected error: %v", res.Err)
	}
	if e.Active() != 0 {
		t.Error("failed task still stored")
	}
}

func TestCloseRejectsSpawnsAndDropsTasks(t *testing.T) {
	e := executor.New(reactor.New(nil), nil)
	rec := &resultRecorder{}
	fut := &suspendFuture{value: 1}

	if err := e.Spawn(fut, rec.done, nil, nil); err != nil {
		t.Fatal(err)
	}
	if dropped := e.Close(); dropped != 1 {
		t.Errorf("Close() dropped %d, want 1", dropped)
	}
	if err := e.Spawn(api.Ready(2), rec.done, nil, nil); err != api.ErrExecutorClosed {
		t.Errorf("Spawn() after close = %v, want ErrExecutorClosed", err)
	}
	if rec.count() != 0 {
		t.Error("dropped task delivered a result")
	}
}

// selfWakeFuture suspends once, then fires its own waker from inside the
// poll that produces the terminal value.
type selfWakeFuture struct {
	waker api.Waker
	polls int
}

func (f *selfWakeFuture) Poll(cx *api.Context) (any, bool, error) {
	f.polls++
	if f.polls == 1 {
		f.waker = cx.Waker()
		return nil, false, nil
	}
	// Wake arriving mid-poll: the task is about to complete, so this must
	// not cause a third poll or a second delivery.
	f.waker.Wake()
	return "final", true, nil
}

func TestSelfWakeInFinalPollDeliversOnce(t *testing.T) {
	e := executor.New(reactor.New(nil), nil)
	rec := &resultRecorder{}
	fut := &selfWakeFuture{}

	if err := e.Spawn(fut, rec.done, nil, nil); err != nil {
		t.Fatal(err)
	}
	fut.waker.Wake()

	if rec.count() != 1 {
		t.Fatalf("completions = %d, want exactly 1", rec.count())
	}
	if fut.polls != 2 {
		t.Errorf("poll count = %d, want 2", fut.polls)
	}
	if e.Active() != 0 {
		t.Error("completed task still stored")
	}
}

// gatedFuture suspends once, then parks its second poll on a channel so a
// drain can be held open while the test does something else.
type gatedFuture struct {
	waker   api.Waker
	entered chan struct{}
	gate    chan struct{}
	polls   int
}

func (f *gatedFuture) Poll(cx *api.Context) (any, bool, error) {
	f.polls++
	if f.polls == 1 {
		f.waker = cx.Waker()
		return nil, false, nil
	}
	close(f.entered)
	<-f.gate
	return "gated", true, nil
}

func TestSpawnPollsInlineWhileDrainInProgress(t *testing.T) {
	e := executor.New(reactor.New(nil), nil)
	blockedRec := &resultRecorder{}
	fut := &gatedFuture{
		entered: make(chan struct{}),
		gate:    make(chan struct{}),
	}

	if err := e.Spawn(fut, blockedRec.done, nil, nil); err != nil {
		t.Fatal(err)
	}
	go fut.waker.Wake()
	<-fut.entered // a drain is now parked inside the gated poll

	// An immediately-ready computation still completes inside Spawn.
	rec := &resultRecorder{}
	if err := e.Spawn(api.Ready(42), rec.done, nil, nil); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 1 {
		t.Fatalf("completions before Spawn returned = %d, want 1", rec.count())
	}
	if got := rec.last().Value; got != 42 {
		t.Errorf("completion value = %v, want 42", got)
	}

	close(fut.gate)
	deadline := time.Now().Add(time.Second)
	for blockedRec.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if blockedRec.count() != 1 {
		t.Errorf("gated task completions = %d, want 1", blockedRec.count())
	}
}

func TestConcurrentWakersSingleDelivery(t *testing.T) {
	e := executor.New(reactor.New(nil), nil)
	rec := &resultRecorder{}
	fut := &suspendFuture{value: "once"}

	if err := e.Spawn(fut, rec.done, nil, nil); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fut.waker.Wake()
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(time.Second)
	for rec.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if rec.count() != 1 {
		t.Errorf("completions = %d, want exactly 1", rec.count())
	}
}

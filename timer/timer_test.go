// File: timer/timer_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hostbridge/api"
	"github.com/momentics/hostbridge/executor"
	"github.com/momentics/hostbridge/reactor"
	"github.com/momentics/hostbridge/timer"
)

func TestAfterFiresOnceAfterDeadline(t *testing.T) {
	tm := timer.New(nil)
	defer tm.Shutdown()
	e := executor.New(reactor.New(nil), nil)

	const delay = 200 * time.Millisecond
	start := time.Now()
	done := make(chan time.Duration, 2)

	err := e.Spawn(tm.After(delay), func(res api.Result[any]) {
		if res.Err != nil {
			t.Errorf("timer task failed: %v", res.Err)
		}
		done <- time.Since(start)
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case elapsed := <-done:
		if elapsed < delay-20*time.Millisecond {
			t.Errorf("callback fired after %v, before the %v deadline", elapsed, delay)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}

	select {
	case <-done:
		t.Error("timer fired a second time")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestEqualDeadlinesAllFireOnce(t *testing.T) {
	tm := timer.New(nil)
	defer tm.Shutdown()

	var fired atomic.Int32
	deadline := 50 * time.Millisecond
	for i := 0; i < 3; i++ {
		tm.Schedule(deadline, api.WakeFunc(func() { fired.Add(1) }))
	}

	waitFor(t, time.Second, func() bool { return fired.Load() == 3 })
	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 3 {
		t.Errorf("fired = %d, want exactly 3", got)
	}
}

func TestEarlierDeadlineReArmsDriver(t *testing.T) {
	tm := timer.New(nil)
	defer tm.Shutdown()

	var order []string
	ch := make(chan string, 2)
	tm.Schedule(500*time.Millisecond, api.WakeFunc(func() { ch <- "late" }))
	tm.Schedule(50*time.Millisecond, api.WakeFunc(func() { ch <- "early" }))

	for i := 0; i < 2; i++ {
		select {
		case s := <-ch:
			order = append(order, s)
		case <-time.After(2 * time.Second):
			t.Fatal("timer stalled")
		}
	}
	if order[0] != "early" || order[1] != "late" {
		t.Errorf("fire order = %v", order)
	}
}

func TestShutdownDropsPendingDeadlines(t *testing.T) {
	tm := timer.New(nil)
	var fired atomic.Int32
	tm.Schedule(50*time.Millisecond, api.WakeFunc(func() { fired.Add(1) }))

	tm.Shutdown()
	time.Sleep(120 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("deadline fired after shutdown")
	}
	if tm.Pending() != 0 {
		t.Error("deadlines survived shutdown")
	}

	// Scheduling after shutdown is a silent no-op.
	tm.Schedule(time.Millisecond, api.WakeFunc(func() { fired.Add(1) }))
	time.Sleep(20 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("schedule after shutdown fired")
	}
}

func waitFor(t *testing.T, limit time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(limit)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

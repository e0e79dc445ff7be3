package credential

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func newTestLoop(p *Pool) *RecoveryLoop {
	return NewRecoveryLoop(p, time.Minute, time.Second, nil)
}

func TestRecoveryCycleRecoversHealthyEntry(t *testing.T) {
	auth := &fakeAuth{healthy: map[string]bool{"tokA": true}}
	p := newTestPool(t, []string{"tokA", "tokB"}, auth)
	p.MarkFailed("tokA")

	loop := newTestLoop(p)
	if err := loop.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle() error = %v", err)
	}

	// tokA probed healthy and left the failed set; it is back in rotation.
	if got := p.FailedCount(); got != 0 {
		t.Errorf("FailedCount() = %d, want 0", got)
	}
	if got := p.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestRecoveryCycleEvictsBareTokenWithNoRecoveryPath(t *testing.T) {
	auth := &fakeAuth{healthy: map[string]bool{}}
	p := newTestPool(t, []string{"tokA", "tokB"}, auth)
	p.MarkFailed("tokA")

	loop := newTestLoop(p)
	if err := loop.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle() error = %v", err)
	}

	// tokA cannot be refreshed and failed its probe: evicted.
	s := p.State()
	if !reflect.DeepEqual(s.Entries, []string{"tokB"}) {
		t.Fatalf("pool after cycle = %v, want [tokB]", s.Entries)
	}
	if len(s.Failed) != 0 {
		t.Errorf("failed set after eviction = %v", s.Failed)
	}
	// No alias of the evicted entry remains resolvable.
	p.MarkFailed("tokA")
	if p.FailedCount() != 0 {
		t.Error("evicted token still resolvable")
	}
}

func TestRecoveryCycleRefreshesAndRecovers(t *testing.T) {
	auth := &fakeAuth{
		healthy: map[string]bool{"newTok": true},
		tokens:  map[string]string{"u@e.com": "newTok"},
	}
	p := newTestPool(t, []string{"u@e.com----pw----oldTok", "tokB"}, auth)
	p.MarkFailed("oldTok")

	loop := newTestLoop(p)
	if err := loop.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle() error = %v", err)
	}

	s := p.State()
	want := []string{"u@e.com----pw----newTok", "tokB"}
	if !reflect.DeepEqual(s.Entries, want) {
		t.Errorf("pool after recovery = %v, want %v", s.Entries, want)
	}
	if p.FailedCount() != 0 {
		t.Errorf("FailedCount() = %d, want 0", p.FailedCount())
	}
}

func TestRecoveryCycleEvictsWhenRefreshedTokenStillFails(t *testing.T) {
	auth := &fakeAuth{
		healthy: map[string]bool{}, // newTok also unhealthy
		tokens:  map[string]string{"u@e.com": "newTok"},
	}
	p := newTestPool(t, []string{"u@e.com----pw----oldTok", "tokB"}, auth)
	p.MarkFailed("oldTok")

	loop := newTestLoop(p)
	if err := loop.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle() error = %v", err)
	}

	s := p.State()
	if !reflect.DeepEqual(s.Entries, []string{"tokB"}) {
		t.Errorf("pool after failed recovery = %v, want [tokB]", s.Entries)
	}
}

func TestRecoveryCycleEvictsWhenRefreshFails(t *testing.T) {
	auth := &fakeAuth{
		healthy: map[string]bool{},
		tokens:  map[string]string{}, // sign-in rejected
	}
	p := newTestPool(t, []string{"u@e.com----pw----oldTok", "tokB"}, auth)
	p.MarkFailed("oldTok")

	loop := newTestLoop(p)
	if err := loop.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle() error = %v", err)
	}

	if got := p.Len(); got != 1 {
		t.Errorf("Len() after eviction = %d, want 1", got)
	}
}

func TestRecoveryCycleNoFailedEntriesIsQuiet(t *testing.T) {
	auth := &fakeAuth{}
	p := newTestPool(t, []string{"tokA"}, auth)

	loop := newTestLoop(p)
	if err := loop.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle() error = %v", err)
	}
	if auth.probeCalls != 0 {
		t.Errorf("probes issued with empty failed set: %d", auth.probeCalls)
	}
}

func TestRecoveryCyclePanicIsContained(t *testing.T) {
	p := newTestPool(t, []string{"tokA"}, panicAuth{})
	p.MarkFailed("tokA")

	loop := newTestLoop(p)
	err := loop.runCycle(context.Background())
	if err == nil {
		t.Fatal("runCycle() should surface the panic as an error")
	}
}

type panicAuth struct{}

func (panicAuth) Probe(context.Context, string) error { panic("upstream exploded") }

func (panicAuth) SignIn(context.Context, string, string) (string, error) {
	panic("upstream exploded")
}

func TestRecoveryLoopRunsFirstCycleImmediately(t *testing.T) {
	auth := &fakeAuth{healthy: map[string]bool{"tokA": true}}
	p := newTestPool(t, []string{"tokA", "tokB"}, auth)
	p.MarkFailed("tokA")

	// The interval is far longer than the test; only an immediate first
	// cycle can clear the failed set.
	loop := NewRecoveryLoop(p, time.Hour, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for p.FailedCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("first recovery cycle did not run at loop start")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRecoveryLoopStopsOnContextCancel(t *testing.T) {
	p := newTestPool(t, []string{"tokA"}, &fakeAuth{})
	loop := NewRecoveryLoop(p, time.Hour, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("recovery loop did not stop on context cancel")
	}
}

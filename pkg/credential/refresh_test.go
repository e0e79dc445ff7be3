package credential

import (
	"context"
	"fmt"
	"reflect"
	"testing"
)

func TestRefreshSingleSuccess(t *testing.T) {
	auth := &fakeAuth{tokens: map[string]string{"u@e.com": "newTok"}}
	p := newTestPool(t, []string{"tokA", "u@e.com----pw----oldTok", "tokC"}, auth)
	p.MarkFailed("oldTok")

	res := p.RefreshSingle(context.Background(), "oldTok")
	if !res.Success {
		t.Fatalf("RefreshSingle() = %+v, want success", res)
	}
	if res.Token != "newTok" {
		t.Errorf("RefreshSingle().Token = %q, want newTok", res.Token)
	}

	// The entry is replaced at its original position only.
	s := p.State()
	want := []string{"tokA", "u@e.com----pw----newTok", "tokC"}
	if !reflect.DeepEqual(s.Entries, want) {
		t.Errorf("pool after refresh = %v, want %v", s.Entries, want)
	}

	// Refresh success clears the entry's failure state.
	if got := p.FailedCount(); got != 0 {
		t.Errorf("FailedCount() after refresh = %d, want 0", got)
	}

	// Both the new composite form and the bare new token resolve.
	p.MarkFailed("newTok")
	if got := p.FailedCount(); got != 1 {
		t.Errorf("new token unresolvable after refresh")
	}
}

func TestRefreshSingleNoCredentials(t *testing.T) {
	auth := &fakeAuth{}
	p := newTestPool(t, []string{"tokA", "tokB"}, auth)
	before := p.State()

	res := p.RefreshSingle(context.Background(), "tokA")
	if res.Success {
		t.Fatal("RefreshSingle() on bare token should fail")
	}

	// The pool is byte-for-byte unchanged.
	if !reflect.DeepEqual(p.State(), before) {
		t.Errorf("pool mutated by failed refresh: %v", p.State().Entries)
	}
	if auth.signInCalls != 0 {
		t.Errorf("sign-in called %d times for uncredentialed entry", auth.signInCalls)
	}
}

func TestRefreshSingleSignInFailure(t *testing.T) {
	auth := &fakeAuth{tokens: map[string]string{}}
	p := newTestPool(t, []string{"u@e.com----pw----oldTok"}, auth)
	before := p.State()

	res := p.RefreshSingle(context.Background(), "oldTok")
	if res.Success {
		t.Fatal("RefreshSingle() should fail when sign-in fails")
	}
	if !reflect.DeepEqual(p.State(), before) {
		t.Errorf("pool mutated by failed refresh: %v", p.State().Entries)
	}
}

func TestRefreshSingleUnknownEntry(t *testing.T) {
	p := newTestPool(t, []string{"tokA"}, &fakeAuth{})

	res := p.RefreshSingle(context.Background(), "never-seen")
	if res.Success {
		t.Fatal("RefreshSingle() on unknown entry should fail")
	}
}

func TestBatchRefreshCounts(t *testing.T) {
	// Five composite entries; two accounts rejected, three refreshed.
	auth := &fakeAuth{tokens: map[string]string{
		"a@e.com": "newA",
		"c@e.com": "newC",
		"e@e.com": "newE",
	}}
	raws := []string{
		"a@e.com----pw----tok1",
		"b@e.com----pw----tok2",
		"c@e.com----pw----tok3",
		"d@e.com----pw----tok4",
		"e@e.com----pw----tok5",
	}
	p := newTestPool(t, raws, auth)
	before := p.State()

	res := p.BatchRefresh(context.Background(), 2)
	if res.Refreshed != 3 || res.Failed != 2 || res.Total != 5 {
		t.Fatalf("BatchRefresh() = %+v, want 3/2/5", res)
	}

	// Exactly three entries changed; failures keep the old form.
	after := p.State()
	changed := 0
	for i := range after.Entries {
		if after.Entries[i] != before.Entries[i] {
			changed++
		}
	}
	if changed != 3 {
		t.Errorf("%d entries changed, want 3: %v", changed, after.Entries)
	}
	if after.Entries[1] != raws[1] || after.Entries[3] != raws[3] {
		t.Errorf("failed entries mutated: %v", after.Entries)
	}
	if after.Entries[0] != "a@e.com----pw----newA" {
		t.Errorf("entry 0 = %q", after.Entries[0])
	}
}

func TestBatchRefreshSkipsBareTokens(t *testing.T) {
	auth := &fakeAuth{tokens: map[string]string{"u@e.com": "new"}}
	p := newTestPool(t, []string{"bareTok", "u@e.com----pw----old"}, auth)

	res := p.BatchRefresh(context.Background(), 4)
	if res.Total != 1 || res.Refreshed != 1 {
		t.Fatalf("BatchRefresh() = %+v, want total=1 refreshed=1", res)
	}

	s := p.State()
	if s.Entries[0] != "bareTok" {
		t.Errorf("bare entry mutated: %v", s.Entries)
	}
}

func TestBatchRefreshEmptyPool(t *testing.T) {
	p := newTestPool(t, nil, &fakeAuth{})

	res := p.BatchRefresh(context.Background(), 4)
	if res.Total != 0 || res.Refreshed != 0 || res.Failed != 0 {
		t.Errorf("BatchRefresh() on empty pool = %+v", res)
	}
}

func TestBatchRefreshBoundsConcurrency(t *testing.T) {
	// Many entries, tiny limit: the run completes and refreshes all.
	tokens := make(map[string]string)
	var raws []string
	for i := 0; i < 20; i++ {
		email := fmt.Sprintf("u%d@e.com", i)
		tokens[email] = fmt.Sprintf("new%d", i)
		raws = append(raws, email+"----pw----old"+fmt.Sprint(i))
	}
	p := newTestPool(t, raws, &fakeAuth{tokens: tokens})

	res := p.BatchRefresh(context.Background(), 2)
	if res.Refreshed != 20 || res.Failed != 0 {
		t.Errorf("BatchRefresh() = %+v, want 20/0/20", res)
	}
}

func TestBatchRefreshRotationStillWorksAfterCommit(t *testing.T) {
	auth := &fakeAuth{tokens: map[string]string{"u@e.com": "newTok"}}
	p := newTestPool(t, []string{"tokA", "u@e.com----pw----oldTok"}, auth)

	p.BatchRefresh(context.Background(), 1)

	got := []string{p.Acquire(), p.Acquire()}
	want := []string{"tokA", "newTok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rotation after batch = %v, want %v", got, want)
	}

	// The old token no longer resolves to a pool position.
	p.MarkFailed("oldTok")
	if p.FailedCount() != 0 {
		t.Error("stale token still resolves after batch refresh")
	}
}

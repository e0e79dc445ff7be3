package credential

import (
	"context"
	"sync"

	"z2api-hq/z2api/pkg/ratelimit"
	"z2api-hq/z2api/pkg/telemetry/logging"
)

// defaultBatchConcurrency bounds simultaneous sign-in calls when the caller
// does not specify a limit.
const defaultBatchConcurrency = 20

// RefreshResult reports the outcome of a single-entry refresh.
type RefreshResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	// Token is the freshly obtained token on success. Never serialized;
	// the recovery loop uses it for the post-refresh probe.
	Token string `json:"-"`
}

// BatchResult aggregates a batch refresh.
type BatchResult struct {
	Refreshed int `json:"refreshed_count"`
	Failed    int `json:"failed_count"`
	Total     int `json:"total_count"`

	// Updated holds the new raw forms of successfully refreshed entries.
	Updated []string `json:"-"`
}

// RefreshSingle re-authenticates one entry, identified by its effective
// token or raw pool form, and replaces it in place with the new composite
// record. The pool is left unmodified on any failure.
func (p *Pool) RefreshSingle(ctx context.Context, tokenOrEntry string) RefreshResult {
	p.mu.Lock()
	pos, ok := p.resolveLocked(tokenOrEntry)
	if !ok {
		p.mu.Unlock()
		p.metrics.RecordRefresh(false)
		return RefreshResult{Message: "credential not found in pool"}
	}
	entry := p.entries[pos]
	p.mu.Unlock()

	if !entry.HasCredentials() {
		p.metrics.RecordRefresh(false)
		return RefreshResult{Message: "no stored credentials for entry"}
	}

	if p.client == nil {
		p.metrics.RecordRefresh(false)
		return RefreshResult{Message: "no upstream client configured"}
	}

	newToken, err := p.client.SignIn(ctx, entry.Email(), entry.Password())
	if err != nil {
		p.logger.Error("Token refresh failed",
			"email", logging.Email(entry.Email()),
			"error", err,
		)
		p.metrics.RecordRefresh(false)
		return RefreshResult{Message: "sign-in failed: " + err.Error()}
	}

	newEntry := NewComposite(entry.Email(), entry.Password(), newToken)

	p.mu.Lock()
	// The pool may have mutated while the sign-in was in flight;
	// re-locate the entry by its raw form before committing.
	if pos >= len(p.entries) || p.entries[pos].Raw() != entry.Raw() {
		pos = -1
		for i, e := range p.entries {
			if e.Raw() == entry.Raw() {
				pos = i
				break
			}
		}
	}
	if pos < 0 {
		p.mu.Unlock()
		p.metrics.RecordRefresh(false)
		return RefreshResult{Message: "entry no longer in pool"}
	}
	p.replaceEntryLocked(pos, newEntry)
	joined := p.joinedLocked()
	n, failed := len(p.entries), len(p.failed)
	p.mu.Unlock()

	p.logger.Info("Refreshed credential",
		"email", logging.Email(entry.Email()),
		"token", logging.Token(newToken),
	)
	p.metrics.RecordRefresh(true)
	p.metrics.SetPoolState(n, failed)
	p.persist(joined)

	return RefreshResult{Success: true, Message: "token refreshed", Token: newToken}
}

// replaceEntryLocked swaps the entry at pos for newEntry, updating aliases,
// the reverse token index, and the failed set. The old raw alias is removed
// unless it equals the new token, which would destroy a live alias.
func (p *Pool) replaceEntryLocked(pos int, newEntry Entry) {
	old := p.entries[pos]
	p.entries[pos] = newEntry
	p.indexEntryLocked(newEntry, pos)

	if old.Raw() != newEntry.EffectiveToken() && old.Raw() != newEntry.Raw() {
		delete(p.index, old.Raw())
	}
	if tok := old.EffectiveToken(); tok != "" && tok != newEntry.EffectiveToken() {
		if p.tokenPos[tok] == pos {
			delete(p.tokenPos, tok)
		}
	}
	delete(p.failed, old.Raw())
}

// BatchRefresh re-authenticates every entry with usable credentials,
// bounded by maxConcurrent simultaneous sign-in calls. Results are merged
// against a snapshot taken before the batch starts and committed atomically.
func (p *Pool) BatchRefresh(ctx context.Context, maxConcurrent int) BatchResult {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultBatchConcurrency
	}

	p.mu.Lock()
	snapshot := make([]Entry, len(p.entries))
	copy(snapshot, p.entries)
	p.mu.Unlock()

	var candidates []int
	for i, e := range snapshot {
		if e.HasCredentials() {
			candidates = append(candidates, i)
		}
	}

	result := BatchResult{Total: len(candidates)}
	if len(candidates) == 0 || p.client == nil {
		return result
	}

	p.logger.Info("Starting batch token refresh",
		"candidates", len(candidates),
		"max_concurrent", maxConcurrent,
	)

	// Each goroutine writes only its own slot.
	newTokens := make([]string, len(snapshot))
	gate := ratelimit.NewGate(maxConcurrent)
	var wg sync.WaitGroup
	for _, i := range candidates {
		wg.Add(1)
		go func(i int, e Entry) {
			defer wg.Done()
			if err := gate.Acquire(ctx); err != nil {
				return
			}
			defer gate.Release()

			token, err := p.client.SignIn(ctx, e.Email(), e.Password())
			if err != nil {
				p.logger.Error("Batch refresh sign-in failed",
					"email", logging.Email(e.Email()),
					"error", err,
				)
				return
			}
			newTokens[i] = token
		}(i, snapshot[i])
	}
	wg.Wait()

	merged := make([]Entry, len(snapshot))
	copy(merged, snapshot)
	for _, i := range candidates {
		if newTokens[i] == "" {
			result.Failed++
			p.metrics.RecordRefresh(false)
			continue
		}
		merged[i] = NewComposite(snapshot[i].Email(), snapshot[i].Password(), newTokens[i])
		result.Refreshed++
		result.Updated = append(result.Updated, merged[i].Raw())
		p.metrics.RecordRefresh(true)
	}

	p.mu.Lock()
	for _, i := range candidates {
		if newTokens[i] == "" {
			continue
		}
		old := snapshot[i]
		if old.Raw() != merged[i].EffectiveToken() && old.Raw() != merged[i].Raw() {
			delete(p.index, old.Raw())
		}
		delete(p.failed, old.Raw())
	}
	p.entries = merged
	for i, e := range p.entries {
		p.indexEntryLocked(e, i)
	}
	p.rebuildTokenPosLocked()
	if len(p.entries) > 0 {
		p.cursor %= len(p.entries)
	} else {
		p.cursor = 0
	}
	joined := p.joinedLocked()
	n, failed := len(p.entries), len(p.failed)
	p.mu.Unlock()

	p.logger.Info("Batch token refresh complete",
		"refreshed", result.Refreshed,
		"failed", result.Failed,
		"total", result.Total,
	)
	p.metrics.SetPoolState(n, failed)
	p.persist(joined)

	return result
}

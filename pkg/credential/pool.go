package credential

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"z2api-hq/z2api/pkg/store"
	"z2api-hq/z2api/pkg/telemetry/logging"
	"z2api-hq/z2api/pkg/telemetry/metrics"
)

// Authenticator is the subset of the upstream client the pool needs: a
// liveness probe and a sign-in call.
type Authenticator interface {
	Probe(ctx context.Context, token string) error
	SignIn(ctx context.Context, email, password string) (string, error)
}

// record is the indexed metadata for a credential alias.
type record struct {
	email          string
	password       string
	token          string
	rawComposite   string
	hasCredentials bool
}

// Pool owns the credential rotation state. All exported methods are safe
// for concurrent use; one mutex guards entries, indexes, cursor, and the
// failed set, and is never held across network calls.
type Pool struct {
	logger   *slog.Logger
	client   Authenticator
	store    store.Store
	storeKey string
	metrics  *metrics.PoolMetrics

	mu      sync.Mutex
	entries []Entry
	// index maps every known representation of a credential (raw form,
	// derived token) to its metadata. Stale aliases from pre-refresh
	// forms may linger; lookups by current pool entries always succeed.
	index map[string]record
	// tokenPos maps an effective token to its pool position.
	tokenPos map[string]int
	cursor   int
	// failed holds entries believed unusable, keyed by raw pool form.
	failed map[string]struct{}
}

// Options configures a Pool. Logger defaults to slog.Default; Store,
// StoreKey, and Metrics are optional.
type Options struct {
	Logger   *slog.Logger
	Client   Authenticator
	Store    store.Store
	StoreKey string
	Metrics  *metrics.PoolMetrics
}

// NewPool parses the given credential strings and builds a pool. Blank
// strings are skipped; order is preserved and duplicates are kept, since
// order defines the rotation sequence.
func NewPool(raws []string, opts Options) *Pool {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		logger:   logger,
		client:   opts.Client,
		store:    opts.Store,
		storeKey: opts.StoreKey,
		metrics:  opts.Metrics,
		index:    make(map[string]record),
		tokenPos: make(map[string]int),
		failed:   make(map[string]struct{}),
	}
	p.loadLocked(raws)

	if len(p.entries) > 0 {
		logger.Info("Credential pool initialized", "entries", len(p.entries))
	} else {
		logger.Warn("Credential pool initialized with no entries")
	}
	p.metrics.SetPoolState(len(p.entries), 0)

	return p
}

// loadLocked replaces all pool state from raw strings. Caller holds the
// lock (or the pool is not yet shared).
func (p *Pool) loadLocked(raws []string) {
	p.entries = p.entries[:0]
	p.index = make(map[string]record)
	p.tokenPos = make(map[string]int)
	p.cursor = 0
	p.failed = make(map[string]struct{})

	for _, raw := range raws {
		entry, err := ParseEntry(raw)
		if err != nil {
			continue
		}
		p.entries = append(p.entries, entry)
		p.indexEntryLocked(entry, len(p.entries)-1)
	}
}

// indexEntryLocked registers an entry's aliases and reverse-token mapping.
func (p *Pool) indexEntryLocked(e Entry, pos int) {
	rec := record{
		email:          e.Email(),
		password:       e.Password(),
		token:          e.EffectiveToken(),
		rawComposite:   e.Raw(),
		hasCredentials: e.HasCredentials(),
	}
	p.index[e.Raw()] = rec
	if tok := e.EffectiveToken(); tok != "" {
		p.index[tok] = rec
		p.tokenPos[tok] = pos
	}
}

// rebuildTokenPosLocked recomputes the reverse token index from scratch.
// Used after mutations that shift positions (eviction, wholesale replace).
func (p *Pool) rebuildTokenPosLocked() {
	p.tokenPos = make(map[string]int, len(p.entries))
	for i, e := range p.entries {
		if tok := e.EffectiveToken(); tok != "" {
			p.tokenPos[tok] = i
		}
	}
}

// resolveLocked maps a token or raw credential form to its pool position.
func (p *Pool) resolveLocked(tokenOrRaw string) (int, bool) {
	if pos, ok := p.tokenPos[tokenOrRaw]; ok {
		return pos, true
	}
	// The argument may be a raw composite form; hop through the alias
	// index to its derived token.
	if rec, ok := p.index[tokenOrRaw]; ok && rec.token != "" {
		if pos, ok := p.tokenPos[rec.token]; ok {
			return pos, true
		}
	}
	// Raw forms without a derived token (not yet signed in).
	for i, e := range p.entries {
		if e.Raw() == tokenOrRaw {
			return i, true
		}
	}
	return 0, false
}

// Acquire returns the next usable effective token in round-robin order, or
// "" when the pool is empty. Entries in the failed set are skipped; when
// every entry is failed the set is cleared wholesale (pool-wide failure
// means the failure information is stale) and entry 0's token is returned.
func (p *Pool) Acquire() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.entries)
	if n == 0 {
		p.metrics.RecordAcquire("empty")
		return ""
	}

	for attempts := 0; attempts < n; attempts++ {
		entry := p.entries[p.cursor]
		p.cursor = (p.cursor + 1) % n

		if _, bad := p.failed[entry.Raw()]; bad {
			continue
		}
		tok := entry.EffectiveToken()
		if tok == "" {
			p.logger.Warn("Skipping entry with no derivable token",
				"entry", logging.Token(entry.Raw()),
			)
			continue
		}
		p.metrics.RecordAcquire("hit")
		return tok
	}

	p.logger.Warn("All pool entries failed, clearing failed set",
		"entries", n,
	)
	p.failed = make(map[string]struct{})
	p.metrics.RecordAcquire("exhausted_reset")
	p.metrics.SetPoolState(n, 0)

	tok := p.entries[0].EffectiveToken()
	if tok == "" {
		p.logger.Warn("First pool entry has no derivable token after reset")
	}
	return tok
}

// MarkFailed records failure feedback for an effective token. Unresolvable
// tokens are logged and ignored.
func (p *Pool) MarkFailed(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.resolveLocked(token)
	if !ok {
		p.logger.Warn("Cannot mark unknown credential as failed",
			"token", logging.Token(token),
		)
		p.metrics.RecordMark("unresolved")
		return
	}

	p.failed[p.entries[pos].Raw()] = struct{}{}
	p.logger.Warn("Marked credential as failed",
		"token", logging.Token(token),
		"failed", len(p.failed),
	)
	p.metrics.RecordMark("failed")
	p.metrics.SetPoolState(len(p.entries), len(p.failed))
}

// MarkSuccess clears failure state for an effective token, if any.
func (p *Pool) MarkSuccess(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.resolveLocked(token)
	if !ok {
		p.metrics.RecordMark("unresolved")
		return
	}

	raw := p.entries[pos].Raw()
	if _, wasFailed := p.failed[raw]; wasFailed {
		delete(p.failed, raw)
		p.logger.Info("Credential recovered",
			"token", logging.Token(token),
		)
	}
	p.metrics.RecordMark("success")
	p.metrics.SetPoolState(len(p.entries), len(p.failed))
}

// HealthCheck probes whether a credential still works upstream. The
// argument may be an effective token or a raw pool form; unknown strings
// are probed as-is. All failure modes normalize to false and the pool state
// is never modified.
func (p *Pool) HealthCheck(ctx context.Context, tokenOrEntry string) bool {
	token := tokenOrEntry
	p.mu.Lock()
	if rec, ok := p.index[tokenOrEntry]; ok && rec.token != "" {
		token = rec.token
	}
	p.mu.Unlock()

	if token == "" || p.client == nil {
		return false
	}

	start := time.Now()
	err := p.client.Probe(ctx, token)
	p.metrics.RecordProbe(err == nil, time.Since(start))

	if err != nil {
		p.logger.Debug("Health check failed",
			"token", logging.Token(token),
			"error", err,
		)
		return false
	}
	return true
}

// ReplaceAll swaps the entire pool for the given credential strings,
// resetting cursor and failure state. Returns the number of entries loaded.
func (p *Pool) ReplaceAll(raws []string) int {
	p.mu.Lock()
	p.loadLocked(raws)
	n := len(p.entries)
	joined := p.joinedLocked()
	p.mu.Unlock()

	p.logger.Info("Credential pool replaced", "entries", n)
	p.metrics.SetPoolState(n, 0)
	p.persist(joined)
	return n
}

// ClearAll empties the pool.
func (p *Pool) ClearAll() {
	p.mu.Lock()
	p.loadLocked(nil)
	p.mu.Unlock()

	p.logger.Info("Credential pool cleared")
	p.metrics.SetPoolState(0, 0)
	p.persist("")
}

// State is an eventually consistent snapshot for the admin surface.
type State struct {
	Entries []string
	Failed  []string
}

// State returns the current entries and failed entries in raw pool form.
func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := State{
		Entries: make([]string, len(p.entries)),
		Failed:  make([]string, 0, len(p.failed)),
	}
	for i, e := range p.entries {
		s.Entries[i] = e.Raw()
	}
	for raw := range p.failed {
		s.Failed = append(s.Failed, raw)
	}
	return s
}

// Len returns the current pool size.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// FailedCount returns the current failed-set size.
func (p *Pool) FailedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.failed)
}

// failedSnapshot returns a copy of the entries currently marked failed.
func (p *Pool) failedSnapshot() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Entry, 0, len(p.failed))
	for _, e := range p.entries {
		if _, bad := p.failed[e.Raw()]; bad {
			out = append(out, e)
		}
	}
	return out
}

// evict permanently removes entries (by raw form) from the pool, the
// failed set, and all index aliases. No alias of an evicted entry remains
// resolvable afterwards.
func (p *Pool) evict(raws []string) {
	if len(raws) == 0 {
		return
	}

	doomed := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		doomed[raw] = struct{}{}
	}

	p.mu.Lock()
	kept := p.entries[:0]
	evicted := 0
	for _, e := range p.entries {
		if _, gone := doomed[e.Raw()]; !gone {
			kept = append(kept, e)
			continue
		}
		evicted++
		delete(p.failed, e.Raw())
		delete(p.index, e.Raw())
		if tok := e.EffectiveToken(); tok != "" {
			delete(p.index, tok)
			delete(p.tokenPos, tok)
		}
	}
	p.entries = kept
	p.rebuildTokenPosLocked()
	if len(p.entries) > 0 {
		p.cursor %= len(p.entries)
	} else {
		p.cursor = 0
	}
	n, failed := len(p.entries), len(p.failed)
	joined := p.joinedLocked()
	p.mu.Unlock()

	if evicted > 0 {
		p.logger.Warn("Evicted unrecoverable credentials",
			"evicted", evicted,
			"remaining", n,
		)
		for i := 0; i < evicted; i++ {
			p.metrics.RecordEviction()
		}
		p.metrics.SetPoolState(n, failed)
		p.persist(joined)
	}
}

// joinedLocked returns the comma-joined raw entry list for persistence.
func (p *Pool) joinedLocked() string {
	raws := make([]string, len(p.entries))
	for i, e := range p.entries {
		raws[i] = e.Raw()
	}
	return strings.Join(raws, ",")
}

// persist mirrors the credential list into the configured store. Failures
// are logged and swallowed; pool correctness never depends on persistence.
func (p *Pool) persist(joined string) {
	if p.store == nil || p.storeKey == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.store.SetValue(ctx, p.storeKey, joined); err != nil {
		p.logger.Error("Failed to persist credential list",
			"key", p.storeKey,
			"error", err,
		)
	}
}

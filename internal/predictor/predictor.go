// Package predictor answers ghost-text completion queries: given the
// command prefix typed so far, return the most recently used full commands
// that start with it.
package predictor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/zigstory/zigstory/internal/store"
)

// MinPrefixLength is the shortest prefix the predictor will act on; shorter
// input is too noisy to rank usefully and is rejected before touching the
// database.
const MinPrefixLength = 2

// DefaultSuggestionCount is the number of candidates returned for a query.
const DefaultSuggestionCount = 5

// Predictor answers prefix queries against a pool of read-only connections,
// with a small process-local cache absorbing repeated keystrokes of the
// same prefix. Every failure mode is swallowed: a predictor must never turn
// a broken database into a broken shell, so Suggest always returns (never
// errors) and falls back to an empty result.
type Predictor struct {
	pool   *Pool
	cache  *lru
	k      int
	logger *slog.Logger
}

// New returns a Predictor drawing connections from pool, returning up to k
// suggestions per query (0 uses DefaultSuggestionCount) and caching up to
// cacheCapacity distinct prefixes (0 uses DefaultCacheCapacity).
func New(pool *Pool, cacheCapacity, k int) *Predictor {
	if k <= 0 {
		k = DefaultSuggestionCount
	}
	return &Predictor{
		pool:   pool,
		cache:  newLRU(cacheCapacity),
		k:      k,
		logger: slog.Default(),
	}
}

// Suggest returns up to k commands beginning with prefix, most recently
// used first, de-duplicated by command text. Prefixes shorter than
// MinPrefixLength, cancelled contexts, and any database error all produce
// an empty (not nil-panicking, not propagated) result.
func (p *Predictor) Suggest(ctx context.Context, prefix string) []string {
	if len([]rune(prefix)) < MinPrefixLength {
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}
	key := strings.ToLower(prefix)

	if cached, ok := p.cache.get(key); ok {
		return cached
	}

	results, err := p.query(ctx, prefix)
	if err != nil {
		p.logger.Warn("predictor query failed", "error", err)
		return nil
	}

	p.cache.put(key, results)
	return results
}

func (p *Predictor) query(ctx context.Context, prefix string) ([]string, error) {
	db, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.pool.Release(db)

	pattern := store.EscapeLikePattern(prefix) + "%"
	rows, err := db.QueryContext(ctx, `
		SELECT command FROM (
			SELECT command, MAX(event_time) AS last_used
			FROM history
			WHERE command LIKE ? ESCAPE '\' COLLATE NOCASE
			GROUP BY command
		)
		ORDER BY last_used DESC
		LIMIT ?
	`, pattern, p.k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var cmd string
		if err := rows.Scan(&cmd); err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, rows.Err()
}

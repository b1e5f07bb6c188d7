package sqlvars

import (
	"context"
	"database/sql"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// stmtCache keeps prepared statements keyed by their final SQL text
// (after Query-Vars substitution). Evicted statements are closed.
type stmtCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *sql.Stmt]
}

func newStmtCache(size int) *stmtCache {
	c, _ := lru.NewWithEvict(size, func(_ string, stmt *sql.Stmt) {
		stmt.Close()
	})
	return &stmtCache{cache: c}
}

// getOrPrepare returns the cached statement for query, preparing and
// caching it on a miss.
func (s *stmtCache) getOrPrepare(ctx context.Context, db *sql.DB, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.cache.Get(query); ok {
		return stmt, nil
	}
	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	s.cache.Add(query, stmt)
	return stmt, nil
}

// close purges the cache; the evict callback closes each statement.
func (s *stmtCache) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}

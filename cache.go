package prismatenant

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

const maxCachedSchemas = 64

// resultCache implements a lru cache of Inject results,
// keyed by the input schema text.
type resultCache struct {
	mu    sync.Mutex
	cache *lru.Cache // lazily initialized
}

func (rc *resultCache) lookup(schema string) (tr Transformed, ok bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.cache == nil {
		return tr, false
	}
	v, ok := rc.cache.Get(schema)
	if ok {
		tr = v.(Transformed)
		tr.Models = append([]ModelResult(nil), tr.Models...)
	}
	return tr, ok
}

func (rc *resultCache) add(schema string, transformed Transformed) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.cache == nil {
		rc.cache = lru.New(maxCachedSchemas)
	}
	transformed.Models = append([]ModelResult(nil), transformed.Models...)
	rc.cache.Add(schema, transformed)
}

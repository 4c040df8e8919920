package parser

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// ShardedCache remembers when a key was last let through.
type ShardedCache struct {
	shards [shardCount]shard
}

type shard struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func newShardedCache() *ShardedCache {
	sc := &ShardedCache{}
	for i := 0; i < shardCount; i++ {
		sc.shards[i].items = make(map[string]time.Time)
	}
	return sc
}

func (sc *ShardedCache) getShard(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &sc.shards[h.Sum32()%shardCount]
}

// shouldThrottle reports whether key was seen less than d ago at now.
// Keys that pass are stamped with now.
func (sc *ShardedCache) shouldThrottle(key string, d time.Duration, now time.Time) bool {
	s := sc.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if lastSeen, exists := s.items[key]; exists && now.Sub(lastSeen) < d {
		return true
	}
	s.items[key] = now
	return false
}

// prune drops keys older than maxAge.
func (sc *ShardedCache) prune(maxAge time.Duration, now time.Time) {
	for i := range sc.shards {
		s := &sc.shards[i]
		s.mu.Lock()
		for k, v := range s.items {
			if now.Sub(v) > maxAge {
				delete(s.items, k)
			}
		}
		s.mu.Unlock()
	}
}

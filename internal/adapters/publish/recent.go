package publish

import (
	"context"
	"sync"

	"github.com/lcalzada-xor/ridmap/internal/core/domain"
)

const defaultRecentSize = 256

// RecentPublisher keeps the latest records in memory for the HTTP API.
// byUAS maps a UAS id to the ring slot of its latest record, so an id is
// forgotten once that slot is overwritten.
type RecentPublisher struct {
	mu    sync.RWMutex
	buf   []domain.TelemetryRecord
	next  int
	full  bool
	byUAS map[string]int
}

// NewRecentPublisher keeps up to size records; a non-positive size uses the
// default.
func NewRecentPublisher(size int) *RecentPublisher {
	if size <= 0 {
		size = defaultRecentSize
	}
	return &RecentPublisher{
		buf:   make([]domain.TelemetryRecord, size),
		byUAS: make(map[string]int),
	}
}

func (p *RecentPublisher) Name() string { return "recent" }

func (p *RecentPublisher) Publish(_ context.Context, rec domain.TelemetryRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old := p.buf[p.next].UASID; old != "" {
		if slot, ok := p.byUAS[old]; ok && slot == p.next {
			delete(p.byUAS, old)
		}
	}
	p.buf[p.next] = rec
	if rec.UASID != "" {
		p.byUAS[rec.UASID] = p.next
	}
	p.next = (p.next + 1) % len(p.buf)
	if p.next == 0 {
		p.full = true
	}
	return nil
}

// Records returns the kept records, newest first.
func (p *RecentPublisher) Records() []domain.TelemetryRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := p.next
	if p.full {
		n = len(p.buf)
	}
	out := make([]domain.TelemetryRecord, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, p.buf[(p.next-i+len(p.buf))%len(p.buf)])
	}
	return out
}

// Aircraft returns the latest record of a UAS id.
func (p *RecentPublisher) Aircraft(uasID string) (domain.TelemetryRecord, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	slot, ok := p.byUAS[uasID]
	if !ok {
		return domain.TelemetryRecord{}, false
	}
	return p.buf[slot], true
}

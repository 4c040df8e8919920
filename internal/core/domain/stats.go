package domain

import (
	"time"
)

// CaptureStats is a snapshot of the capture pipeline counters.
type CaptureStats struct {
	FramesCaptured   uint64 `json:"frames_captured"`
	FramesRejected   uint64 `json:"frames_rejected"`
	RemoteIDFrames   uint64 `json:"remote_id_frames"`
	RecordsPublished uint64 `json:"records_published"`
	PublishFailures  uint64 `json:"publish_failures"`

	// Distinct aircraft identities seen since start.
	Aircraft map[string]time.Time `json:"aircraft"`

	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"updated_at"`
}

// NewCaptureStats initializes a stats object with an empty aircraft map to
// prevent nil access.
func NewCaptureStats() CaptureStats {
	now := time.Now()
	return CaptureStats{
		Aircraft:    make(map[string]time.Time),
		StartedAt:   now,
		LastUpdated: now,
	}
}

// Merge adds the counters of other into s.
func (s *CaptureStats) Merge(other CaptureStats) {
	s.FramesCaptured += other.FramesCaptured
	s.FramesRejected += other.FramesRejected
	s.RemoteIDFrames += other.RemoteIDFrames
	s.RecordsPublished += other.RecordsPublished
	s.PublishFailures += other.PublishFailures
	for id, seen := range other.Aircraft {
		if prev, ok := s.Aircraft[id]; !ok || seen.After(prev) {
			s.Aircraft[id] = seen
		}
	}
	if other.StartedAt.Before(s.StartedAt) {
		s.StartedAt = other.StartedAt
	}
	if other.LastUpdated.After(s.LastUpdated) {
		s.LastUpdated = other.LastUpdated
	}
}

// IsStale returns true if the stats haven't been updated within the given TTL.
func (s *CaptureStats) IsStale(ttl time.Duration) bool {
	return time.Since(s.LastUpdated) > ttl
}

// SourceStatus tracks the operational status of one capture source.
type SourceStatus struct {
	Source   string `json:"source"`
	Status   string `json:"status"` // "starting", "running", "failed", "stopped"
	Error    string `json:"error,omitempty"`
	Channel  int    `json:"channel,omitempty"`
	Channels []int  `json:"channels,omitempty"`
}

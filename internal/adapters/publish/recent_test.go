package publish

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/ridmap/internal/core/domain"
)

func TestRecentPublisher_NewestFirst(t *testing.T) {
	p := NewRecentPublisher(3)
	assert.Empty(t, p.Records())

	for i := 0; i < 2; i++ {
		require.NoError(t, p.Publish(context.Background(), domain.TelemetryRecord{ID: fmt.Sprint(i)}))
	}
	ids := func() []string {
		var out []string
		for _, r := range p.Records() {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []string{"1", "0"}, ids())

	for i := 2; i < 5; i++ {
		require.NoError(t, p.Publish(context.Background(), domain.TelemetryRecord{ID: fmt.Sprint(i)}))
	}
	assert.Equal(t, []string{"4", "3", "2"}, ids())
}

func TestRecentPublisher_Aircraft(t *testing.T) {
	p := NewRecentPublisher(0)
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, domain.TelemetryRecord{ID: "a", UASID: "UAS1"}))
	require.NoError(t, p.Publish(ctx, domain.TelemetryRecord{ID: "b", UASID: "UAS1"}))
	require.NoError(t, p.Publish(ctx, domain.TelemetryRecord{ID: "c"}))

	rec, ok := p.Aircraft("UAS1")
	require.True(t, ok)
	assert.Equal(t, "b", rec.ID)

	_, ok = p.Aircraft("")
	assert.False(t, ok)
	assert.Len(t, p.Records(), 3)
}

func TestRecentPublisher_AircraftIndexBounded(t *testing.T) {
	p := NewRecentPublisher(4)
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		require.NoError(t, p.Publish(ctx, domain.TelemetryRecord{ID: fmt.Sprint(i), UASID: fmt.Sprintf("ID%d", i)}))
	}

	assert.Len(t, p.Records(), 4)
	assert.Len(t, p.byUAS, 4)

	_, ok := p.Aircraft("ID0")
	assert.False(t, ok)
	rec, ok := p.Aircraft("ID9999")
	require.True(t, ok)
	assert.Equal(t, "9999", rec.ID)
}

func TestRecentPublisher_AircraftSurvivesOlderSlotReuse(t *testing.T) {
	p := NewRecentPublisher(2)
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, domain.TelemetryRecord{ID: "a", UASID: "UAS1"}))
	require.NoError(t, p.Publish(ctx, domain.TelemetryRecord{ID: "b", UASID: "UAS1"}))
	// Overwrites slot 0, which held an older UAS1 record.
	require.NoError(t, p.Publish(ctx, domain.TelemetryRecord{ID: "c", UASID: "UAS2"}))

	rec, ok := p.Aircraft("UAS1")
	require.True(t, ok)
	assert.Equal(t, "b", rec.ID)

	// Overwrites slot 1, the latest UAS1 record.
	require.NoError(t, p.Publish(ctx, domain.TelemetryRecord{ID: "d", UASID: "UAS3"}))
	_, ok = p.Aircraft("UAS1")
	assert.False(t, ok)
	assert.Len(t, p.byUAS, 2)
}

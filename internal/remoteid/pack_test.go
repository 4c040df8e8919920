package remoteid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVendorData = "75f11903" + sampleBasicIDPack + sampleLocationPack + sampleSystemPack

func TestSplitPacks_Capture(t *testing.T) {
	p, err := SplitPacks(mustHex(t, sampleVendorData))
	require.NoError(t, err)

	assert.Equal(t, uint8(0x75), p.Counter)
	assert.Equal(t, uint8(0xF1), p.Header)
	assert.Equal(t, MessageSize, p.PackSize)
	assert.Equal(t, 3, p.Count)

	var types []MessageType
	for _, pack := range p.Packs() {
		types = append(types, HeaderType(pack[0]))
		assert.Len(t, pack, MessageSize)
	}
	assert.Equal(t, []MessageType{MessageTypeBasicID, MessageTypeLocation, MessageTypeSystem}, types)
}

func TestSplitPacks_Bounds(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		need int
	}{
		{"empty", nil, 4},
		{"short header", []byte{0x00, 0xF1, 0x19}, 4},
		{"one pack missing a byte", append([]byte{0x00, 0xF1, 25, 1}, make([]byte, 24)...), 29},
		{"count overruns", append([]byte{0x00, 0xF1, 25, 3}, make([]byte, 50)...), 79},
		{"max declared", []byte{0x00, 0xF1, 0xFF, 0xFF}, 4 + 255*255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SplitPacks(tt.data)

			var berr *BoundsError
			require.ErrorAs(t, err, &berr)
			assert.Equal(t, tt.need, berr.Need)
			assert.Equal(t, len(tt.data), berr.Have)
			assert.ErrorIs(t, err, ErrBounds)
		})
	}
}

func TestSplitPacks_ZeroCount(t *testing.T) {
	p, err := SplitPacks([]byte{0x00, 0xF1, 25, 0})
	require.NoError(t, err)

	n := 0
	for range p.Packs() {
		n++
	}
	assert.Zero(t, n)
	assert.Nil(t, p.Pack(0))
}

func TestSplitPacks_TrailingBytesIgnored(t *testing.T) {
	data := append(mustHex(t, "00f11901"+sampleBasicIDPack), 0xAA, 0xBB)
	p, err := SplitPacks(data)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Count)
	assert.Equal(t, mustHex(t, sampleBasicIDPack), p.Pack(0))
}

func TestVendorPayload_PacksRestartable(t *testing.T) {
	p, err := SplitPacks(mustHex(t, sampleVendorData))
	require.NoError(t, err)

	collect := func() []int {
		var idx []int
		for i := range p.Packs() {
			idx = append(idx, i)
		}
		return idx
	}

	assert.Equal(t, []int{0, 1, 2}, collect())
	assert.Equal(t, []int{0, 1, 2}, collect())
}

func TestVendorPayload_PacksEarlyBreak(t *testing.T) {
	p, err := SplitPacks(mustHex(t, sampleVendorData))
	require.NoError(t, err)

	seen := 0
	for i := range p.Packs() {
		seen++
		if i == 1 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestVendorPayload_PackCapacityIsClipped(t *testing.T) {
	p, err := SplitPacks(mustHex(t, sampleVendorData))
	require.NoError(t, err)

	first := p.Pack(0)
	assert.Equal(t, MessageSize, cap(first))
	assert.Nil(t, p.Pack(-1))
	assert.Nil(t, p.Pack(3))
}

package remoteid

import "iter"

// packHeaderLength is the sub-header in front of the packs: counter, pack
// header byte, pack size, pack count.
const packHeaderLength = 4

// VendorPayload is the data of a Remote-ID vendor element after its OUI type.
type VendorPayload struct {
	Counter  uint8 // first byte; informational only
	Header   uint8 // pack message header, type 0xF
	PackSize int
	Count    int

	data []byte
}

// SplitPacks reads the sub-header of data and checks that every declared
// pack fits before any of them is sliced.
func SplitPacks(data []byte) (VendorPayload, error) {
	if len(data) < packHeaderLength {
		return VendorPayload{}, &BoundsError{What: "pack header", Need: packHeaderLength, Have: len(data)}
	}

	p := VendorPayload{
		Counter:  data[0],
		Header:   data[1],
		PackSize: int(data[2]),
		Count:    int(data[3]),
	}

	if need := packHeaderLength + p.Count*p.PackSize; need > len(data) {
		return VendorPayload{}, &BoundsError{What: "packs", Need: need, Have: len(data)}
	}

	p.data = data
	return p, nil
}

// Pack returns pack i, or nil if i is out of range.
func (p VendorPayload) Pack(i int) []byte {
	if i < 0 || i >= p.Count {
		return nil
	}
	start := packHeaderLength + i*p.PackSize
	return p.data[start : start+p.PackSize : start+p.PackSize]
}

// Packs yields every pack with its index. The sequence can be ranged over
// any number of times.
func (p VendorPayload) Packs() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for i := 0; i < p.Count; i++ {
			if !yield(i, p.Pack(i)) {
				return
			}
		}
	}
}

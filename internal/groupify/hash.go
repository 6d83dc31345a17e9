package groupify

import (
	"unsafe"

	"github.com/zeebo/xxh3"
)

// hashKey hashes the raw bytes of a signature. The byte view is only used
// in-process, so host endianness does not matter.
func hashKey(key []int32) uint64 {
	b := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(key))), len(key)*4)
	return xxh3.Hash(b)
}

func equalKeys(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if b[i] != v {
			return false
		}
	}
	return true
}

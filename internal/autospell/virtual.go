package autospell

import "hash/fnv"

// VirtualID computes the stable negative 32-bit integer id for an IPA
// character, per the virtual glyph id contract: the same character
// always produces the same id within a process and across processes
// implementing the same hash. FNV-1a is used because it is a fixed,
// deterministic, non-cryptographic hash available from the standard
// library with no external state, satisfying the contract without
// pulling in a hashing dependency the pack does not otherwise supply.
//
// Collisions are tolerated per spec: consumers must treat ids as opaque
// tokens paired with the originating character, never as a unique key
// on their own.
func VirtualID(c string) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(c))
	sum := h.Sum32() & 0x7fffffff // clear sign bit so the cast below can't land on MinInt32
	return -(1 + int32(sum))
}

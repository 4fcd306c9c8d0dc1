package common

import "hash"

// GetHash computes the hash of the given data using the provided hasher.
// The hasher is reset before use, so it can be safely reused by the caller.
func GetHash(h hash.Hash, data []byte) (res Hash) {
	h.Reset()
	h.Write(data)
	copy(res[:], h.Sum(nil))
	return
}

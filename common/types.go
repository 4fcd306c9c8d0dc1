package common

import "fmt"

// Hash is a 32-byte cryptographic digest. It is used both for node hashes
// of the authenticated tree and for hashed key identities.
type Hash [32]byte

// HashFromBytes creates a Hash from the given slice, padding or truncating
// it to 32 bytes as needed.
func HashFromBytes(data []byte) Hash {
	var hash Hash
	copy(hash[:], data)
	return hash
}

// ToBytes returns a copy of the hash as a byte slice.
func (h Hash) ToBytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

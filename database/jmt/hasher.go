// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package jmt

import (
	"crypto/sha256"
	"hash"

	"github.com/mmalik-al/jmt/common"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// HashAlgorithm is a configuration token selecting the algorithm to be used
// for hashing nodes in the tree. It is passed as an explicit parameter to
// hashing operations, allowing deployments to select their algorithm without
// a process-wide default.
type HashAlgorithm struct {
	Name         string
	createHasher func() hash.Hash
}

// Keccak256Hashing computes node hashes using the Keccak256 algorithm as
// used by Ethereum.
var Keccak256Hashing = HashAlgorithm{
	Name:         "Keccak256Hashing",
	createHasher: sha3.NewLegacyKeccak256,
}

// Sha256Hashing computes node hashes using the SHA-256 algorithm.
var Sha256Hashing = HashAlgorithm{
	Name:         "Sha256Hashing",
	createHasher: sha256.New,
}

// Blake3Hashing computes node hashes using the BLAKE3 algorithm.
var Blake3Hashing = HashAlgorithm{
	Name:         "Blake3Hashing",
	createHasher: func() hash.Hash { return blake3.New() },
}

func (a HashAlgorithm) String() string {
	return a.Name
}

// digest computes the hash of the concatenation of the given chunks.
func (a HashAlgorithm) digest(chunks ...[]byte) common.Hash {
	hasher := a.createHasher()
	for _, chunk := range chunks {
		hasher.Write(chunk)
	}
	return common.HashFromBytes(hasher.Sum(nil))
}

// NodeHash computes the cryptographic hash of the given node using the given
// algorithm.
func NodeHash(node Node, algorithm HashAlgorithm) common.Hash {
	return node.hash(algorithm)
}

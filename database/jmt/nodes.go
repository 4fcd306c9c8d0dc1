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
	"fmt"
	"strings"

	"github.com/mmalik-al/jmt/common"
)

// ----------------------------------------------------------------------------
//                               Node Interface
// ----------------------------------------------------------------------------

// Node is one vertex of the authenticated tree. There are three kinds of
// nodes: the NullNode representing an empty (sub-)tree, the LeafNode holding
// a key/value binding, and the InternalNode branching up to 16 ways on the
// next nibble of the key-hash path. All implementations are immutable value
// types, so nodes can be shared freely between the staging cache and its
// clients without copying.
type Node interface {
	// IsLeaf determines whether this node is a leaf node.
	IsLeaf() bool
	// hash computes the cryptographic hash of this node using the given
	// algorithm. Use NodeHash for the package-level entry point.
	hash(algorithm HashAlgorithm) common.Hash

	fmt.Stringer
}

// placeholderHash is the fixed digest standing in for an absent subtree. It
// is also the hash of the NullNode, independent of the hash algorithm in
// use, giving the empty tree a well-defined root hash.
var placeholderHash = common.HashFromBytes([]byte("SPARSE_MERKLE_PLACEHOLDER_HASH"))

const (
	leafNodeDomainTag     = "JMT::LeafNode"
	internalNodeDomainTag = "JMT::IntrnalNode"
)

// ----------------------------------------------------------------------------
//                                 Null Node
// ----------------------------------------------------------------------------

// NullNode is the node type of the root of an empty tree.
type NullNode struct{}

func (NullNode) IsLeaf() bool {
	return false
}

func (NullNode) hash(HashAlgorithm) common.Hash {
	return placeholderHash
}

func (NullNode) String() string {
	return "null-node"
}

// ----------------------------------------------------------------------------
//                                 Leaf Node
// ----------------------------------------------------------------------------

// LeafNode binds the full hash of a key to the hash of the value stored
// under that key.
type LeafNode struct {
	keyHash   KeyHash
	valueHash common.Hash
}

// NewLeafNode creates a leaf binding the given key hash to the given value
// hash.
func NewLeafNode(keyHash KeyHash, valueHash common.Hash) LeafNode {
	return LeafNode{keyHash: keyHash, valueHash: valueHash}
}

// KeyHash returns the full hash of the key stored in this leaf.
func (n LeafNode) KeyHash() KeyHash {
	return n.keyHash
}

// ValueHash returns the hash of the value stored in this leaf.
func (n LeafNode) ValueHash() common.Hash {
	return n.valueHash
}

func (n LeafNode) IsLeaf() bool {
	return true
}

func (n LeafNode) hash(algorithm HashAlgorithm) common.Hash {
	return algorithm.digest([]byte(leafNodeDomainTag), n.keyHash[:], n.valueHash[:])
}

func (n LeafNode) String() string {
	return fmt.Sprintf("leaf-node(%v,%v)", common.Hash(n.keyHash), n.valueHash)
}

// ----------------------------------------------------------------------------
//                               Internal Node
// ----------------------------------------------------------------------------

// Child is the summary of one subtree referenced by an InternalNode: the
// subtree's root hash, the version at which that root was created, and
// whether it is a single leaf.
type Child struct {
	Hash    common.Hash
	Version Version
	IsLeaf  bool
}

// InternalNode is a 16-way branch node. At least one child must be present.
// For hashing, the 16 children are merkelized as a depth-4 binary subtree,
// with absent ranges represented by a placeholder digest and ranges covering
// a single leaf collapsed to that leaf's hash.
type InternalNode struct {
	children [16]Child
	mask     uint16
}

// NewInternalNode creates a branch node from the given non-empty child set.
func NewInternalNode(children map[Nibble]Child) (InternalNode, error) {
	if len(children) == 0 {
		return InternalNode{}, fmt.Errorf("internal node requires at least one child")
	}
	res := InternalNode{}
	for step, child := range children {
		if step > 0xF {
			return InternalNode{}, fmt.Errorf("invalid child position %v", step)
		}
		res.children[step] = child
		res.mask |= 1 << step
	}
	return res, nil
}

// HasChild determines whether a child is present at the given position.
func (n InternalNode) HasChild(step Nibble) bool {
	return n.mask&(1<<step) != 0
}

// Child returns the child at the given position. The second return value
// indicates whether the child is present.
func (n InternalNode) Child(step Nibble) (Child, bool) {
	if !n.HasChild(step) {
		return Child{}, false
	}
	return n.children[step], true
}

// ChildCount returns the number of children present in this node.
func (n InternalNode) ChildCount() int {
	count := 0
	for mask := n.mask; mask != 0; mask &= mask - 1 {
		count++
	}
	return count
}

// ChildNodeKey derives the node key of the child at the given position,
// located one path step below this node's own key at the version recorded
// for the child. The second return value indicates whether the child is
// present.
func (n InternalNode) ChildNodeKey(ownKey NodeKey, step Nibble) (NodeKey, bool) {
	child, exists := n.Child(step)
	if !exists {
		return NodeKey{}, false
	}
	return ownKey.Child(child.Version, step), true
}

func (n InternalNode) IsLeaf() bool {
	return false
}

func (n InternalNode) hash(algorithm HashAlgorithm) common.Hash {
	return n.merkleHash(algorithm, 0, 16)
}

// merkleHash computes the hash of the binary subtree covering the children
// in the range [start, start+width).
func (n InternalNode) merkleHash(algorithm HashAlgorithm, start, width int) common.Hash {
	single := -1
	count := 0
	for i := start; i < start+width; i++ {
		if n.HasChild(Nibble(i)) {
			single = i
			count++
		}
	}
	if count == 0 {
		return placeholderHash
	}
	if count == 1 && (width == 1 || n.children[single].IsLeaf) {
		// A range holding nothing but a single leaf collapses to that
		// leaf's hash, keeping proofs over sparse branches short.
		return n.children[single].Hash
	}
	left := n.merkleHash(algorithm, start, width/2)
	right := n.merkleHash(algorithm, start+width/2, width/2)
	return algorithm.digest([]byte(internalNodeDomainTag), left[:], right[:])
}

func (n InternalNode) String() string {
	builder := strings.Builder{}
	builder.WriteString("internal-node(")
	first := true
	for i := Nibble(0); i < 16; i++ {
		if child, exists := n.Child(i); exists {
			if !first {
				builder.WriteString(",")
			}
			first = false
			builder.WriteString(fmt.Sprintf("%v=>%v@%d", i, child.Hash, child.Version))
		}
	}
	builder.WriteString(")")
	return builder.String()
}

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
	"bytes"
	"testing"

	"github.com/mmalik-al/jmt/common"
)

func TestNullNode_HashIsPlaceholderForAllAlgorithms(t *testing.T) {
	algorithms := []HashAlgorithm{Keccak256Hashing, Sha256Hashing, Blake3Hashing}
	for _, algorithm := range algorithms {
		if got, want := NodeHash(NullNode{}, algorithm), placeholderHash; got != want {
			t.Errorf("unexpected null node hash for %v, wanted %v, got %v", algorithm, want, got)
		}
	}
}

func TestNullNode_PlaceholderIsZeroPaddedLiteral(t *testing.T) {
	literal := []byte("SPARSE_MERKLE_PLACEHOLDER_HASH")
	if !bytes.Equal(placeholderHash[:len(literal)], literal) {
		t.Errorf("unexpected placeholder prefix: %v", placeholderHash)
	}
	for _, b := range placeholderHash[len(literal):] {
		if b != 0 {
			t.Errorf("placeholder is not zero padded: %v", placeholderHash)
		}
	}
}

func TestLeafNode_HashCoversKeyAndValue(t *testing.T) {
	leaf := NewLeafNode(KeyHash{1, 2}, common.Hash{3, 4})
	want := Sha256Hashing.digest(
		[]byte(leafNodeDomainTag),
		[]byte{1, 2}, make([]byte, 30),
		[]byte{3, 4}, make([]byte, 30),
	)
	if got := NodeHash(leaf, Sha256Hashing); got != want {
		t.Errorf("unexpected leaf hash, wanted %v, got %v", want, got)
	}
}

func TestLeafNode_HashDependsOnContent(t *testing.T) {
	base := NewLeafNode(KeyHash{1}, common.Hash{2})
	otherKey := NewLeafNode(KeyHash{3}, common.Hash{2})
	otherValue := NewLeafNode(KeyHash{1}, common.Hash{3})
	if NodeHash(base, Sha256Hashing) == NodeHash(otherKey, Sha256Hashing) {
		t.Errorf("leaves with different keys must not collide")
	}
	if NodeHash(base, Sha256Hashing) == NodeHash(otherValue, Sha256Hashing) {
		t.Errorf("leaves with different values must not collide")
	}
}

func TestInternalNode_RequiresAtLeastOneChild(t *testing.T) {
	if _, err := NewInternalNode(nil); err == nil {
		t.Errorf("creating an internal node without children should fail")
	}
	if _, err := NewInternalNode(map[Nibble]Child{16: {}}); err == nil {
		t.Errorf("creating an internal node with an out-of-range child should fail")
	}
}

func TestInternalNode_ChildAccessors(t *testing.T) {
	node, err := NewInternalNode(map[Nibble]Child{
		0x3: {Hash: common.Hash{1}, Version: 4, IsLeaf: true},
		0xC: {Hash: common.Hash{2}, Version: 7},
	})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	if got, want := node.ChildCount(), 2; got != want {
		t.Errorf("unexpected child count, wanted %d, got %d", want, got)
	}
	for i := Nibble(0); i < 16; i++ {
		want := i == 0x3 || i == 0xC
		if got := node.HasChild(i); got != want {
			t.Errorf("unexpected child presence at %v, wanted %t, got %t", i, want, got)
		}
	}
	child, exists := node.Child(0x3)
	if !exists || child.Version != 4 || !child.IsLeaf {
		t.Errorf("unexpected child at 3: %+v (exists: %t)", child, exists)
	}
	if _, exists := node.Child(0x5); exists {
		t.Errorf("unexpected child at empty position 5")
	}
}

func TestInternalNode_ChildNodeKeyUsesChildVersion(t *testing.T) {
	node, err := NewInternalNode(map[Nibble]Child{
		0x3: {Version: 4},
	})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}
	own := RootNodeKey(7)
	key, exists := node.ChildNodeKey(own, 0x3)
	if !exists {
		t.Fatalf("child key not derivable for present child")
	}
	if got, want := key, NewNodeKey(4, SingleStepPath(0x3)); got != want {
		t.Errorf("unexpected child key, wanted %v, got %v", want, got)
	}
	if _, exists := node.ChildNodeKey(own, 0x5); exists {
		t.Errorf("child key derivable for absent child")
	}
}

func TestInternalNode_SingleLeafSubtreeCollapsesToLeafHash(t *testing.T) {
	leafHash := common.Hash{42}
	node, err := NewInternalNode(map[Nibble]Child{
		0x9: {Hash: leafHash, Version: 1, IsLeaf: true},
	})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}
	if got := NodeHash(node, Sha256Hashing); got != leafHash {
		t.Errorf("single-leaf node should collapse to the leaf hash, wanted %v, got %v", leafHash, got)
	}
}

func TestInternalNode_SingleInternalChildDoesNotCollapse(t *testing.T) {
	childHash := common.Hash{42}
	node, err := NewInternalNode(map[Nibble]Child{
		0x9: {Hash: childHash, Version: 1},
	})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}
	if got := NodeHash(node, Sha256Hashing); got == childHash {
		t.Errorf("single internal child must not collapse to the child hash")
	}
}

func TestInternalNode_HashMergesBinarySubtrees(t *testing.T) {
	left := common.Hash{1}
	right := common.Hash{2}
	node, err := NewInternalNode(map[Nibble]Child{
		0x0: {Hash: left, Version: 1, IsLeaf: true},
		0x8: {Hash: right, Version: 1, IsLeaf: true},
	})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}
	// The two leaves fall into the two halves of the child range, each
	// collapsing to its leaf hash, merged by one final digest.
	want := Sha256Hashing.digest([]byte(internalNodeDomainTag), left[:], right[:])
	if got := NodeHash(node, Sha256Hashing); got != want {
		t.Errorf("unexpected internal node hash, wanted %v, got %v", want, got)
	}
}

func TestInternalNode_AbsentRangesHashAsPlaceholder(t *testing.T) {
	leaf := common.Hash{1}
	node, err := NewInternalNode(map[Nibble]Child{
		0x0: {Hash: leaf, Version: 1, IsLeaf: true},
		0x1: {Hash: leaf, Version: 1, IsLeaf: true},
	})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}
	// Both children share the range [0,2); all other subtrees of the
	// left half are absent, the right half is entirely absent.
	pair := Sha256Hashing.digest([]byte(internalNodeDomainTag), leaf[:], leaf[:])
	quad := Sha256Hashing.digest([]byte(internalNodeDomainTag), pair[:], placeholderHash[:])
	oct := Sha256Hashing.digest([]byte(internalNodeDomainTag), quad[:], placeholderHash[:])
	want := Sha256Hashing.digest([]byte(internalNodeDomainTag), oct[:], placeholderHash[:])
	if got := NodeHash(node, Sha256Hashing); got != want {
		t.Errorf("unexpected internal node hash, wanted %v, got %v", want, got)
	}
}

func TestNodes_IsLeaf(t *testing.T) {
	internal, _ := NewInternalNode(map[Nibble]Child{1: {}})
	tests := []struct {
		node Node
		want bool
	}{
		{NullNode{}, false},
		{NewLeafNode(KeyHash{}, common.Hash{}), true},
		{internal, false},
	}
	for _, test := range tests {
		if got := test.node.IsLeaf(); got != test.want {
			t.Errorf("unexpected leaf property of %v, wanted %t, got %t", test.node, test.want, got)
		}
	}
}

func TestNodes_EqualValueNodesAreEqual(t *testing.T) {
	a, _ := NewInternalNode(map[Nibble]Child{3: {Hash: common.Hash{1}, Version: 2}})
	b, _ := NewInternalNode(map[Nibble]Child{3: {Hash: common.Hash{1}, Version: 2}})
	if a != b {
		t.Errorf("equally built internal nodes differ: %v vs %v", a, b)
	}
	if NewLeafNode(KeyHash{1}, common.Hash{2}) != NewLeafNode(KeyHash{1}, common.Hash{2}) {
		t.Errorf("equally built leaf nodes differ")
	}
}

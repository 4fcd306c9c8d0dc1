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
	"errors"
	"fmt"
	"testing"

	"github.com/mmalik-al/jmt/common"
	"go.uber.org/mock/gomock"
)

func TestGetRequiredNode_ForwardsNodesAndErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := NewMockTreeReader(ctrl)

	key := RootNodeKey(1)
	injectedErr := fmt.Errorf("injected error")
	gomock.InOrder(
		reader.EXPECT().GetNode(key).Return(NullNode{}, true, nil),
		reader.EXPECT().GetNode(key).Return(nil, false, nil),
		reader.EXPECT().GetNode(key).Return(nil, false, injectedErr),
	)

	node, err := GetRequiredNode(reader, key)
	if err != nil {
		t.Errorf("lookup of existing node failed: %v", err)
	}
	if got, want := node, (Node)(NullNode{}); got != want {
		t.Errorf("unexpected node, wanted %v, got %v", want, got)
	}

	if _, err := GetRequiredNode(reader, key); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("lookup should have failed with %v, got %v", ErrNodeNotFound, err)
	}
	if _, err := GetRequiredNode(reader, key); !errors.Is(err, injectedErr) {
		t.Errorf("lookup should have failed with %v, got %v", injectedErr, err)
	}
}

func TestNodeBatch_MergeAddsAndReplacesEntries(t *testing.T) {
	batch := NewNodeBatch()
	keyA := RootNodeKey(1)
	keyB := NewNodeKey(1, SingleStepPath(2))
	batch.Merge(
		map[NodeKey]Node{keyA: NullNode{}},
		map[VersionedKey][]byte{{Version: 1, KeyHash: KeyHash{1}}: []byte("old")},
	)
	batch.Merge(
		map[NodeKey]Node{keyB: NewLeafNode(KeyHash{1}, common.Hash{})},
		map[VersionedKey][]byte{{Version: 1, KeyHash: KeyHash{1}}: []byte("new")},
	)

	if got, want := len(batch.Nodes()), 2; got != want {
		t.Errorf("unexpected number of nodes, wanted %d, got %d", want, got)
	}
	if got, want := string(batch.Values()[VersionedKey{Version: 1, KeyHash: KeyHash{1}}]), "new"; got != want {
		t.Errorf("unexpected value, wanted %s, got %s", want, got)
	}
}

func TestNodeBatch_OrderedNodeKeysAreSorted(t *testing.T) {
	batch := NewNodeBatch()
	keys := []NodeKey{
		NewNodeKey(2, SingleStepPath(1)),
		RootNodeKey(1),
		NewNodeKey(1, SingleStepPath(0xF)),
		RootNodeKey(3),
	}
	for _, key := range keys {
		batch.Merge(map[NodeKey]Node{key: NullNode{}}, nil)
	}

	ordered := batch.OrderedNodeKeys()
	if got, want := len(ordered), len(keys); got != want {
		t.Fatalf("unexpected number of keys, wanted %d, got %d", want, got)
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Compare(ordered[i]) >= 0 {
			t.Errorf("keys not in ascending order: %v before %v", ordered[i-1], ordered[i])
		}
	}
}

func TestStaleNodeIndex_CompareOrdersByVersionThenKey(t *testing.T) {
	indices := []StaleNodeIndex{
		{StaleSinceVersion: 1, NodeKey: RootNodeKey(0)},
		{StaleSinceVersion: 1, NodeKey: NewNodeKey(0, SingleStepPath(1))},
		{StaleSinceVersion: 2, NodeKey: RootNodeKey(0)},
		{StaleSinceVersion: 3, NodeKey: RootNodeKey(2)},
	}
	for i, lower := range indices {
		for j, upper := range indices {
			got := lower.Compare(upper)
			switch {
			case i < j && got >= 0:
				t.Errorf("%v should be less than %v, got %d", lower, upper, got)
			case i == j && got != 0:
				t.Errorf("%v should be equal to %v, got %d", lower, upper, got)
			case i > j && got <= 0:
				t.Errorf("%v should be greater than %v, got %d", lower, upper, got)
			}
		}
	}
}

func TestStaleNodeIndexBatch_OrderedListsAllEntriesSorted(t *testing.T) {
	batch := StaleNodeIndexBatch{}
	batch.Add(StaleNodeIndex{StaleSinceVersion: 2, NodeKey: RootNodeKey(0)})
	batch.Add(StaleNodeIndex{StaleSinceVersion: 1, NodeKey: NewNodeKey(0, SingleStepPath(1))})
	batch.Add(StaleNodeIndex{StaleSinceVersion: 1, NodeKey: RootNodeKey(0)})

	ordered := batch.Ordered()
	if got, want := len(ordered), 3; got != want {
		t.Fatalf("unexpected number of entries, wanted %d, got %d", want, got)
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Compare(ordered[i]) >= 0 {
			t.Errorf("entries not in ascending order: %v before %v", ordered[i-1], ordered[i])
		}
	}
}

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

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheMissObserver is invoked once for every read that has to be answered
// by a backing store instead of a cache.
type CacheMissObserver func()

// CachedTreeReader is a read-through decorator for a TreeReader, retaining
// recently resolved nodes in an LRU cache. Nodes are immutable once written,
// so cached copies never go stale. Value and rightmost-leaf lookups are
// delegated uncached.
type CachedTreeReader struct {
	reader       TreeReader
	nodes        *lru.Cache[NodeKey, Node]
	missObserver CacheMissObserver
}

// NewCachedTreeReader wraps the given reader with an LRU node cache of the
// given capacity.
func NewCachedTreeReader(reader TreeReader, capacity int) (*CachedTreeReader, error) {
	return NewCachedTreeReaderWithObserver(reader, capacity, nil)
}

// NewCachedTreeReaderWithObserver is like NewCachedTreeReader, additionally
// registering an observer invoked once per lookup missing the cache.
func NewCachedTreeReaderWithObserver(reader TreeReader, capacity int, observer CacheMissObserver) (*CachedTreeReader, error) {
	nodes, err := lru.New[NodeKey, Node](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create node cache: %w", err)
	}
	return &CachedTreeReader{
		reader:       reader,
		nodes:        nodes,
		missObserver: observer,
	}, nil
}

func (r *CachedTreeReader) GetNode(key NodeKey) (Node, bool, error) {
	if node, exists := r.nodes.Get(key); exists {
		return node, true, nil
	}
	if r.missObserver != nil {
		r.missObserver()
	}
	node, exists, err := r.reader.GetNode(key)
	if err != nil || !exists {
		return nil, false, err
	}
	r.nodes.Add(key, node)
	return node, true, nil
}

func (r *CachedTreeReader) GetValue(maxVersion Version, key KeyHash) ([]byte, bool, error) {
	return r.reader.GetValue(maxVersion, key)
}

func (r *CachedTreeReader) GetRightmostLeaf() (NodeKey, LeafNode, bool, error) {
	return r.reader.GetRightmostLeaf()
}

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

//go:generate mockgen -source storage.go -destination storage_mocks.go -package jmt

import (
	"fmt"
	"sort"

	"github.com/mmalik-al/jmt/common"
	"golang.org/x/exp/maps"
)

// KeyHash is the full hash of a key stored in the tree. Keys are always
// addressed through their hash, making all navigation paths uniform in
// length.
type KeyHash common.Hash

// RootHash is the externally visible hash of one version's root node.
type RootHash common.Hash

// ErrNodeNotFound is returned by GetRequiredNode if a node that is expected
// to exist cannot be resolved.
const ErrNodeNotFound = common.ConstError("node not found")

// ----------------------------------------------------------------------------
//                             Reader / Writer
// ----------------------------------------------------------------------------

// TreeReader is the read-only contract of a node store. It is implemented by
// durable storage backends and by the TreeCache itself, allowing caches to be
// layered on top of each other or on top of a store.
//
// All lookups are optional-form: a missing entry is reported through the
// boolean result, while the error channel is reserved for actual failures of
// the underlying storage.
type TreeReader interface {
	// GetNode retrieves the node stored under the given key, if present.
	GetNode(key NodeKey) (Node, bool, error)

	// GetValue retrieves the value stored under the given key hash at the
	// latest version less than or equal to maxVersion. A value recorded as
	// deleted at the qualifying version is reported as absent.
	GetValue(maxVersion Version, key KeyHash) ([]byte, bool, error)

	// GetRightmostLeaf retrieves the leaf with the numerically largest key
	// hash in the tree, if the tree is non-empty. It is used to validate
	// overwrite-mode construction against the store's latest version.
	GetRightmostLeaf() (NodeKey, LeafNode, bool, error)
}

// TreeWriter is a sink for batches of nodes and values produced by the
// staging cache.
type TreeWriter interface {
	// WriteNodeBatch persists all entries of the given batch atomically.
	WriteNodeBatch(batch *NodeBatch) error
}

// GetRequiredNode retrieves a node that is expected to exist, turning a
// missing entry into an ErrNodeNotFound error identifying the key.
func GetRequiredNode(reader TreeReader, key NodeKey) (Node, error) {
	node, exists, err := reader.GetNode(key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %v", ErrNodeNotFound, key)
	}
	return node, nil
}

// ----------------------------------------------------------------------------
//                               Batch Types
// ----------------------------------------------------------------------------

// VersionedKey addresses one value entry: the hash of the key it is stored
// under, bound to the version at which the value was written.
type VersionedKey struct {
	Version Version
	KeyHash KeyHash
}

// NodeBatch is an accumulation of node and value writes to be persisted
// atomically. A nil value records an explicit deletion (tombstone) of the
// key at the given version.
type NodeBatch struct {
	nodes  map[NodeKey]Node
	values map[VersionedKey][]byte
}

// NewNodeBatch creates an empty batch.
func NewNodeBatch() *NodeBatch {
	return &NodeBatch{
		nodes:  map[NodeKey]Node{},
		values: map[VersionedKey][]byte{},
	}
}

// Nodes grants access to the accumulated node writes.
func (b *NodeBatch) Nodes() map[NodeKey]Node {
	return b.nodes
}

// Values grants access to the accumulated value writes. A nil entry value
// denotes a tombstone.
func (b *NodeBatch) Values() map[VersionedKey][]byte {
	return b.values
}

// Merge adds all given node and value entries to this batch. Entries with
// colliding keys are replaced.
func (b *NodeBatch) Merge(nodes map[NodeKey]Node, values map[VersionedKey][]byte) {
	for key, node := range nodes {
		b.nodes[key] = node
	}
	for key, value := range values {
		b.values[key] = value
	}
}

// OrderedNodeKeys returns the keys of all accumulated node writes sorted by
// (version, path), providing a deterministic write order for downstream
// sinks.
func (b *NodeBatch) OrderedNodeKeys() []NodeKey {
	keys := maps.Keys(b.nodes)
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Compare(keys[j]) < 0
	})
	return keys
}

// StaleNodeIndex marks a previously persisted node as superseded: the node
// identified by NodeKey stopped being part of the live tree at
// StaleSinceVersion. Stale nodes are retained for historical reads and may
// be garbage collected by an external pruner.
type StaleNodeIndex struct {
	StaleSinceVersion Version
	NodeKey           NodeKey
}

// Compare orders stale markers by (stale-since version, node key).
func (i StaleNodeIndex) Compare(other StaleNodeIndex) int {
	if i.StaleSinceVersion != other.StaleSinceVersion {
		if i.StaleSinceVersion < other.StaleSinceVersion {
			return -1
		}
		return 1
	}
	return i.NodeKey.Compare(other.NodeKey)
}

// StaleNodeIndexBatch is a set of stale markers accumulated across one or
// more frozen versions.
type StaleNodeIndexBatch map[StaleNodeIndex]struct{}

// Add inserts the given marker into the batch.
func (b StaleNodeIndexBatch) Add(index StaleNodeIndex) {
	b[index] = struct{}{}
}

// Ordered returns all markers sorted by (stale-since version, node key).
func (b StaleNodeIndexBatch) Ordered() []StaleNodeIndex {
	res := maps.Keys(b)
	sort.Slice(res, func(i, j int) bool {
		return res[i].Compare(res[j]) < 0
	})
	return res
}

// NodeStats are per-version counts of staged effects, retained for
// observability.
type NodeStats struct {
	NewNodes    int
	NewLeaves   int
	StaleNodes  int
	StaleLeaves int
}

// TreeUpdateBatch is the complete durable effect of one or more frozen
// versions: the nodes and values to be persisted, the markers of nodes they
// superseded, and one statistics record per frozen version in freeze order.
type TreeUpdateBatch struct {
	NodeBatch           *NodeBatch
	StaleNodeIndexBatch StaleNodeIndexBatch
	NodeStats           []NodeStats
}

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

	"github.com/mmalik-al/jmt/common"
)

// ErrRootNodeMissing is returned by Freeze if the root node of the previous
// version cannot be resolved while carrying it forward for a no-op version.
const ErrRootNodeMissing = common.ConstError("root node could not be found")

// ErrEmptyTreeOverwrite is returned when overwrite-mode construction is
// requested on an empty tree.
const ErrEmptyTreeOverwrite = common.ConstError("cannot create an overwrite cache for an empty tree")

// ErrVersionMismatch is returned when overwrite-mode construction is
// requested for a version that is not the latest version of the tree.
const ErrVersionMismatch = common.ConstError("version is not the latest version of the tree")

// NodeAlreadyExistsError is returned by PutNode when a node is staged under
// a key that is already occupied. It carries the conflicting key and the
// node that could not be inserted, allowing the caller to recover the node.
type NodeAlreadyExistsError struct {
	Key  NodeKey
	Node Node
}

func (e *NodeAlreadyExistsError) Error() string {
	return fmt.Sprintf("node with key %v already exists", e.Key)
}

// TreeCacheConfig summarizes optional construction parameters of a
// TreeCache.
type TreeCacheConfig struct {
	// MissObserver, if set, is invoked once for every read that falls
	// through to the external reader backing the cache.
	MissObserver func()
}

// TreeCache is the in-memory staging area for updates of a versioned,
// copy-on-write authenticated tree. Tree mutation logic records the effect
// of each state transition through PutNode, DeleteNode, and PutValue; Freeze
// seals one version's effects into an immutable accumulation, allowing many
// versions to be committed to durable storage atomically through a single
// Export.
//
// The cache distinguishes virtual nodes, staged in memory and never
// persisted, from real nodes owned by a previously committed version.
// Deleting a virtual node simply discards it, while deleting a real node
// records a stale marker preserving the node for historical reads.
//
// A TreeCache is a single-writer structure: all mutations including Freeze
// must be sequenced by one logical owner. Read operations are pure lookups
// and may be used while no mutation is in flight. The external reader must
// stay alive and open for the whole lifetime of the cache.
type TreeCache struct {
	// The key of the current root node of the version under construction.
	rootNodeKey NodeKey

	// The version all staged effects belong to, advanced by Freeze.
	nextVersion Version

	// Nodes staged for the version under construction.
	nodeCache map[NodeKey]Node

	// Values staged for the version under construction. A nil entry
	// records a tombstone.
	valueCache map[VersionedKey][]byte

	// Number of leaves in the nodeCache.
	numNewLeaves int

	// Keys of persisted nodes superseded by the version under
	// construction.
	staleNodeIndexCache map[NodeKey]struct{}

	// Number of leaves in the staleNodeIndexCache.
	numStaleLeaves int

	// The immutable accumulation of all frozen versions.
	frozen frozenTreeCache

	// The external store resolving nodes of previously committed versions.
	reader TreeReader

	// Invoked once per read falling through to the external reader, if set.
	missObserver func()
}

// frozenTreeCache accumulates the effects of all frozen versions. Its
// contents are immutable; Freeze only appends to them.
type frozenTreeCache struct {
	nodeBatch           *NodeBatch
	staleNodeIndexBatch StaleNodeIndexBatch
	nodeStats           []NodeStats
	rootHashes          []RootHash
}

// NewTreeCache creates a cache staging updates for the given next version on
// top of the given reader.
//
// For nextVersion zero the cache bootstraps a fresh tree: if the backing
// store records a pre-genesis root, the root pointer is set to it, allowing
// a new genesis to be derived on a store whose history was discarded;
// otherwise a NullNode is staged as version zero's root, giving the empty
// tree a resolvable root. For any later version the root pointer is set to
// the root key of the most recently committed version.
func NewTreeCache(reader TreeReader, nextVersion Version) (*TreeCache, error) {
	return NewTreeCacheWithConfig(reader, nextVersion, TreeCacheConfig{})
}

// NewTreeCacheWithConfig is like NewTreeCache with explicit construction
// parameters.
func NewTreeCacheWithConfig(reader TreeReader, nextVersion Version, config TreeCacheConfig) (*TreeCache, error) {
	res := newTreeCache(reader, nextVersion, config)
	if nextVersion == 0 {
		preGenesisRootKey := RootNodeKey(PreGenesisVersion)
		_, exists, err := reader.GetNode(preGenesisRootKey)
		if err != nil {
			return nil, fmt.Errorf("failed to probe for pre-genesis root: %w", err)
		}
		if exists {
			res.rootNodeKey = preGenesisRootKey
		} else {
			genesisRootKey := RootNodeKey(0)
			res.nodeCache[genesisRootKey] = NullNode{}
			res.rootNodeKey = genesisRootKey
		}
	} else {
		res.rootNodeKey = RootNodeKey(nextVersion - 1)
	}
	return res, nil
}

// NewOverwriteTreeCache creates a cache staging additional nodes into the
// given, already existing version without advancing the version number. It
// is intended for migration-style bulk loads. The backing store must expose
// a non-empty tree whose latest version is exactly currentVersion.
func NewOverwriteTreeCache(reader TreeReader, currentVersion Version) (*TreeCache, error) {
	key, _, exists, err := reader.GetRightmostLeaf()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rightmost leaf: %w", err)
	}
	if !exists {
		return nil, ErrEmptyTreeOverwrite
	}
	if key.Version() != currentVersion {
		return nil, fmt.Errorf("%w: tree is at version %d, overwrite requested for %d", ErrVersionMismatch, key.Version(), currentVersion)
	}
	res := newTreeCache(reader, currentVersion, TreeCacheConfig{})
	res.rootNodeKey = RootNodeKey(currentVersion)
	return res, nil
}

func newTreeCache(reader TreeReader, nextVersion Version, config TreeCacheConfig) *TreeCache {
	return &TreeCache{
		nextVersion:         nextVersion,
		nodeCache:           map[NodeKey]Node{},
		valueCache:          map[VersionedKey][]byte{},
		staleNodeIndexCache: map[NodeKey]struct{}{},
		frozen: frozenTreeCache{
			nodeBatch:           NewNodeBatch(),
			staleNodeIndexBatch: StaleNodeIndexBatch{},
		},
		reader:       reader,
		missObserver: config.MissObserver,
	}
}

// GetRootNodeKey returns the key of the current root node.
func (c *TreeCache) GetRootNodeKey() NodeKey {
	return c.rootNodeKey
}

// SetRootNodeKey updates the root pointer. Mutation logic calls this
// whenever its edits changed the identity of the root node.
func (c *TreeCache) SetRootNodeKey(key NodeKey) {
	c.rootNodeKey = key
}

// ----------------------------------------------------------------------------
//                           Staging Operations
// ----------------------------------------------------------------------------

// PutNode stages the given node under the given key. Staging a key that is
// already occupied is a NodeAlreadyExistsError carrying the rejected node;
// existing entries are never overwritten.
func (c *TreeCache) PutNode(key NodeKey, node Node) error {
	if _, exists := c.nodeCache[key]; exists {
		return &NodeAlreadyExistsError{Key: key, Node: node}
	}
	if node.IsLeaf() {
		c.numNewLeaves++
	}
	c.nodeCache[key] = node
	return nil
}

// DeleteNode removes the node with the given key from the version under
// construction. A node staged in the current version is purely virtual and
// simply vanishes. A node absent from the staging area belongs to a
// previously persisted version and is recorded as stale instead, preserving
// it for historical reads. Staling the same key twice indicates broken
// mutation logic and panics.
func (c *TreeCache) DeleteNode(key NodeKey, isLeaf bool) {
	if old, exists := c.nodeCache[key]; exists {
		delete(c.nodeCache, key)
		if old.IsLeaf() {
			c.numNewLeaves--
		}
		return
	}
	if _, present := c.staleNodeIndexCache[key]; present {
		panic(fmt.Sprintf("node %v gets stale twice unexpectedly", key))
	}
	c.staleNodeIndexCache[key] = struct{}{}
	if isLeaf {
		c.numStaleLeaves++
	}
}

// PutValue stages the given value under the given key hash at the given
// version. A nil value records a tombstone. Unlike PutNode, later calls for
// the same (version, key hash) pair silently supersede earlier ones, so
// independent mutation passes over the same logical update need no external
// deduplication.
func (c *TreeCache) PutValue(version Version, keyHash KeyHash, value []byte) {
	c.valueCache[VersionedKey{Version: version, KeyHash: keyHash}] = value
}

// ----------------------------------------------------------------------------
//                          Cache as a TreeReader
// ----------------------------------------------------------------------------

// GetNode resolves the given key against the staged nodes of the current
// version, then the frozen accumulation, and finally the external reader.
func (c *TreeCache) GetNode(key NodeKey) (Node, bool, error) {
	if node, exists := c.nodeCache[key]; exists {
		return node, true, nil
	}
	if node, exists := c.frozen.nodeBatch.Nodes()[key]; exists {
		return node, true, nil
	}
	if c.missObserver != nil {
		c.missObserver()
	}
	return c.reader.GetNode(key)
}

// GetValue resolves the latest value staged for the given key hash at a
// version not exceeding maxVersion, considering both the current overlay and
// the frozen accumulation. A staged tombstone is reported as absent. Only if
// no staged entry qualifies is the lookup delegated to the external reader.
func (c *TreeCache) GetValue(maxVersion Version, key KeyHash) ([]byte, bool, error) {
	var best Version
	var value []byte
	found := false
	scan := func(entries map[VersionedKey][]byte) {
		for entry, data := range entries {
			if entry.KeyHash != key || entry.Version > maxVersion {
				continue
			}
			if !found || entry.Version >= best {
				best, value, found = entry.Version, data, true
			}
		}
	}
	scan(c.frozen.nodeBatch.Values())
	scan(c.valueCache)
	if found {
		if value == nil {
			return nil, false, nil
		}
		return value, true, nil
	}
	if c.missObserver != nil {
		c.missObserver()
	}
	return c.reader.GetValue(maxVersion, key)
}

// GetRightmostLeaf is not supported on a cache: an in-progress overlay must
// never serve rightmost-leaf traversal, which is only meaningful against
// genuine durable storage. Invoking it panics.
func (c *TreeCache) GetRightmostLeaf() (NodeKey, LeafNode, bool, error) {
	panic("rightmost-leaf lookups are not supported on a tree cache")
}

// ----------------------------------------------------------------------------
//                            Freeze and Export
// ----------------------------------------------------------------------------

// Freeze seals the version under construction: the root's hash is computed
// with the given algorithm and appended to the root hash sequence, all
// staged effects are folded into the immutable accumulation, and the cache
// advances to the next version with an empty staging area.
//
// If the root cannot be resolved at all, which happens when the very first
// operation on an empty tree was a deletion or every key was deleted, a
// NullNode is staged as this version's root. If the version had no staged
// effects at all, the previous root is re-staged under this version's root
// key, keeping every version's root resolvable at its own key.
func (c *TreeCache) Freeze(algorithm HashAlgorithm) error {
	rootNodeKey := c.rootNodeKey
	rootNode, exists, err := c.GetNode(rootNodeKey)
	if err != nil {
		return fmt.Errorf("failed to resolve root node %v: %w", rootNodeKey, err)
	}
	if !exists {
		rootNode = NullNode{}
		if err := c.PutNode(rootNodeKey, rootNode); err != nil {
			return err
		}
	}

	// The root hash recorded here is this version's externally visible
	// root hash, extracted by Export after a sequence of transactions.
	c.frozen.rootHashes = append(c.frozen.rootHashes, RootHash(rootNode.hash(algorithm)))

	// If this set of changes had no effect on the tree, the previous root
	// must still be carried forward under this version's root key. The
	// version number advances with every freeze, so without this copy the
	// next version's lookups would face a missing root at the key they
	// expect.
	if c.nextVersion > 0 && len(c.nodeCache) == 0 && len(c.staleNodeIndexCache) == 0 {
		previous, exists, err := c.GetNode(c.rootNodeKey)
		if err != nil {
			return fmt.Errorf("failed to resolve root node %v: %w", c.rootNodeKey, err)
		}
		if !exists {
			return fmt.Errorf("%w: %v", ErrRootNodeMissing, c.rootNodeKey)
		}
		if err := c.PutNode(c.rootNodeKey.WithVersion(c.nextVersion), previous); err != nil {
			return err
		}
	}

	c.frozen.nodeStats = append(c.frozen.nodeStats, NodeStats{
		NewNodes:    len(c.nodeCache),
		NewLeaves:   c.numNewLeaves,
		StaleNodes:  len(c.staleNodeIndexCache),
		StaleLeaves: c.numStaleLeaves,
	})

	c.frozen.nodeBatch.Merge(c.nodeCache, c.valueCache)
	staleSinceVersion := c.nextVersion
	for key := range c.staleNodeIndexCache {
		c.frozen.staleNodeIndexBatch.Add(StaleNodeIndex{
			StaleSinceVersion: staleSinceVersion,
			NodeKey:           key,
		})
	}

	c.nodeCache = map[NodeKey]Node{}
	c.valueCache = map[VersionedKey][]byte{}
	c.staleNodeIndexCache = map[NodeKey]struct{}{}
	c.numNewLeaves = 0
	c.numStaleLeaves = 0
	c.nextVersion++
	return nil
}

// Export consumes the cache and yields the accumulated effect of all frozen
// versions: the root hash sequence, one entry per Freeze call, and the
// update batch to be persisted atomically. The cache must not be used after
// this call.
func (c *TreeCache) Export() ([]RootHash, TreeUpdateBatch) {
	rootHashes := c.frozen.rootHashes
	batch := TreeUpdateBatch{
		NodeBatch:           c.frozen.nodeBatch,
		StaleNodeIndexBatch: c.frozen.staleNodeIndexBatch,
		NodeStats:           c.frozen.nodeStats,
	}
	*c = TreeCache{}
	return rootHashes, batch
}

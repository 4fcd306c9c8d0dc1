package ldb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"golang.org/x/exp/maps"

	"github.com/mmalik-al/jmt/common"
	"github.com/mmalik-al/jmt/database/jmt"
)

// TableSpace divides the key-value store into domains by prefixing every key
// with a domain letter.
type TableSpace byte

const (
	// NodeKeySpace is the table space of tree nodes.
	NodeKeySpace TableSpace = 'n'
	// ValueKeySpace is the table space of values, keyed by key hash and version.
	ValueKeySpace TableSpace = 'v'
	// StaleNodeKeySpace is the table space of stale node markers, keyed by
	// the version at which the node became stale, enabling range scans by a
	// future pruner.
	StaleNodeKeySpace TableSpace = 's'
	// RootHashKeySpace is the table space of per-version root hashes.
	RootHashKeySpace TableSpace = 'r'
	// NodeStatsKeySpace is the table space of per-version statistics records.
	NodeStatsKeySpace TableSpace = 'c'
)

// NodeStore is a LevelDB backed durable store for the versioned tree. It
// serves as the external reader backing a tree cache and as the sink
// consuming the cache's exported update batches.
type NodeStore struct {
	db *leveldb.DB
}

// OpenNodeStore opens a store in the given directory, creating it if needed.
func OpenNodeStore(directory string) (*NodeStore, error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open node store in %s: %w", directory, err)
	}
	return &NodeStore{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *NodeStore) Close() error {
	return s.db.Close()
}

// ----------------------------------------------------------------------------
//                              TreeReader
// ----------------------------------------------------------------------------

// GetNode retrieves the node stored under the given key, if present.
func (s *NodeStore) GetNode(key jmt.NodeKey) (jmt.Node, bool, error) {
	data, err := s.db.Get(nodeDbKey(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	node, err := decodeNode(data)
	if err != nil {
		return nil, false, err
	}
	return node, true, nil
}

// GetValue retrieves the value stored under the given key hash at the latest
// version less than or equal to maxVersion. A tombstone at the qualifying
// version is reported as absent.
func (s *NodeStore) GetValue(maxVersion jmt.Version, key jmt.KeyHash) ([]byte, bool, error) {
	prefix := make([]byte, 1+32)
	prefix[0] = byte(ValueKeySpace)
	copy(prefix[1:], key[:])

	// Entries for one key hash are ordered by ascending version, so the
	// last qualifying entry of the range is the latest one.
	var data []byte
	found := false
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		version := jmt.Version(binary.BigEndian.Uint64(iter.Key()[1+32:]))
		if version > maxVersion {
			break
		}
		data = append(data[:0], iter.Value()...)
		found = true
	}
	if err := iter.Error(); err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return decodeValue(data)
}

// GetRightmostLeaf retrieves the leaf with the numerically largest key hash,
// if the tree is non-empty. Among leaves with the same key hash the one with
// the highest version wins.
func (s *NodeStore) GetRightmostLeaf() (jmt.NodeKey, jmt.LeafNode, bool, error) {
	var bestKey jmt.NodeKey
	var bestLeaf jmt.LeafNode
	found := false

	iter := s.db.NewIterator(util.BytesPrefix([]byte{byte(NodeKeySpace)}), nil)
	defer iter.Release()
	for iter.Next() {
		data := iter.Value()
		if len(data) == 0 || data[0] != leafNodeTag {
			continue
		}
		node, err := decodeNode(data)
		if err != nil {
			return jmt.NodeKey{}, jmt.LeafNode{}, false, err
		}
		leaf := node.(jmt.LeafNode)
		key := jmt.NodeKeyEncoder{}.Load(iter.Key()[1:])
		if found {
			keyHash, bestHash := leaf.KeyHash(), bestLeaf.KeyHash()
			cmp := bytes.Compare(keyHash[:], bestHash[:])
			if cmp < 0 || (cmp == 0 && key.Version() <= bestKey.Version()) {
				continue
			}
		}
		bestKey, bestLeaf, found = key, leaf, true
	}
	if err := iter.Error(); err != nil {
		return jmt.NodeKey{}, jmt.LeafNode{}, false, err
	}
	return bestKey, bestLeaf, found, nil
}

// ----------------------------------------------------------------------------
//                              TreeWriter
// ----------------------------------------------------------------------------

// WriteNodeBatch persists all node and value entries of the given batch in
// one atomic write.
func (s *NodeStore) WriteNodeBatch(batch *jmt.NodeBatch) error {
	write := new(leveldb.Batch)
	if err := addNodeBatch(write, batch); err != nil {
		return err
	}
	return s.db.Write(write, nil)
}

// Apply atomically persists the full export output of a tree cache: all node
// and value writes, stale markers, and one root hash and statistics record
// per frozen version, the first of which is firstVersion.
func (s *NodeStore) Apply(firstVersion jmt.Version, rootHashes []jmt.RootHash, batch jmt.TreeUpdateBatch) error {
	if len(rootHashes) != len(batch.NodeStats) {
		return fmt.Errorf("inconsistent update batch: %d root hashes for %d versions", len(rootHashes), len(batch.NodeStats))
	}
	write := new(leveldb.Batch)
	if err := addNodeBatch(write, batch.NodeBatch); err != nil {
		return err
	}
	for _, index := range batch.StaleNodeIndexBatch.Ordered() {
		write.Put(staleNodeDbKey(index), []byte{})
	}
	for i, root := range rootHashes {
		version := firstVersion + jmt.Version(i)
		write.Put(versionDbKey(RootHashKeySpace, version), root[:])
		stats, err := encodeNodeStats(batch.NodeStats[i])
		if err != nil {
			return err
		}
		write.Put(versionDbKey(NodeStatsKeySpace, version), stats)
	}
	return s.db.Write(write, nil)
}

func addNodeBatch(write *leveldb.Batch, batch *jmt.NodeBatch) error {
	for _, key := range batch.OrderedNodeKeys() {
		data, err := encodeNode(batch.Nodes()[key])
		if err != nil {
			return err
		}
		write.Put(nodeDbKey(key), data)
	}
	values := batch.Values()
	keys := maps.Keys(values)
	sort.Slice(keys, func(i, j int) bool {
		if cmp := bytes.Compare(keys[i].KeyHash[:], keys[j].KeyHash[:]); cmp != 0 {
			return cmp < 0
		}
		return keys[i].Version < keys[j].Version
	})
	for _, key := range keys {
		write.Put(valueDbKey(key), encodeValue(values[key]))
	}
	return nil
}

// ----------------------------------------------------------------------------
//                          Auxiliary Accessors
// ----------------------------------------------------------------------------

// GetRootHash retrieves the root hash recorded for the given version.
func (s *NodeStore) GetRootHash(version jmt.Version) (jmt.RootHash, bool, error) {
	data, err := s.db.Get(versionDbKey(RootHashKeySpace, version), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return jmt.RootHash{}, false, nil
	}
	if err != nil {
		return jmt.RootHash{}, false, err
	}
	return jmt.RootHash(common.HashFromBytes(data)), true, nil
}

// GetNodeStats retrieves the statistics record of the given version.
func (s *NodeStore) GetNodeStats(version jmt.Version) (jmt.NodeStats, bool, error) {
	data, err := s.db.Get(versionDbKey(NodeStatsKeySpace, version), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return jmt.NodeStats{}, false, nil
	}
	if err != nil {
		return jmt.NodeStats{}, false, err
	}
	stats, err := decodeNodeStats(data)
	if err != nil {
		return jmt.NodeStats{}, false, err
	}
	return stats, true, nil
}

// GetStaleNodeIndices retrieves all stale markers with a stale-since version
// less than or equal to the given version, in (version, key) order. This is
// the scan a pruner uses to locate nodes eligible for collection.
func (s *NodeStore) GetStaleNodeIndices(upToVersion jmt.Version) ([]jmt.StaleNodeIndex, error) {
	res := []jmt.StaleNodeIndex{}
	iter := s.db.NewIterator(util.BytesPrefix([]byte{byte(StaleNodeKeySpace)}), nil)
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()
		version := jmt.Version(binary.BigEndian.Uint64(key[1:]))
		if version > upToVersion {
			break
		}
		res = append(res, jmt.StaleNodeIndex{
			StaleSinceVersion: version,
			NodeKey:           jmt.NodeKeyEncoder{}.Load(key[1+8:]),
		})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return res, nil
}

// ----------------------------------------------------------------------------
//                              Key Layouts
// ----------------------------------------------------------------------------

func nodeDbKey(key jmt.NodeKey) []byte {
	encoder := jmt.NodeKeyEncoder{}
	res := make([]byte, 1+encoder.GetEncodedSize())
	res[0] = byte(NodeKeySpace)
	encoder.Store(res[1:], key)
	return res
}

func valueDbKey(key jmt.VersionedKey) []byte {
	res := make([]byte, 1+32+8)
	res[0] = byte(ValueKeySpace)
	copy(res[1:], key.KeyHash[:])
	binary.BigEndian.PutUint64(res[1+32:], uint64(key.Version))
	return res
}

func staleNodeDbKey(index jmt.StaleNodeIndex) []byte {
	encoder := jmt.NodeKeyEncoder{}
	res := make([]byte, 1+8+encoder.GetEncodedSize())
	res[0] = byte(StaleNodeKeySpace)
	binary.BigEndian.PutUint64(res[1:], uint64(index.StaleSinceVersion))
	encoder.Store(res[1+8:], index.NodeKey)
	return res
}

func versionDbKey(space TableSpace, version jmt.Version) []byte {
	res := make([]byte, 1+8)
	res[0] = byte(space)
	binary.BigEndian.PutUint64(res[1:], uint64(version))
	return res
}

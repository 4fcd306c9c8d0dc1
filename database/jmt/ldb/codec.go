package ldb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/mmalik-al/jmt/common"
	"github.com/mmalik-al/jmt/database/jmt"
)

// Nodes are stored as a one-byte kind tag followed by an RLP encoded
// payload. Values are stored as a one-byte liveness flag followed by the
// raw content, allowing tombstones to be distinguished from empty values.

const (
	nullNodeTag     byte = 0
	leafNodeTag     byte = 1
	internalNodeTag byte = 2

	valueTombstoneTag byte = 0
	valueLiveTag      byte = 1
)

type leafNodePayload struct {
	KeyHash   [32]byte
	ValueHash [32]byte
}

type childPayload struct {
	Position uint8
	Hash     [32]byte
	Version  uint64
	IsLeaf   bool
}

type nodeStatsPayload struct {
	NewNodes    uint64
	NewLeaves   uint64
	StaleNodes  uint64
	StaleLeaves uint64
}

func encodeNode(node jmt.Node) ([]byte, error) {
	switch node := node.(type) {
	case jmt.NullNode:
		return []byte{nullNodeTag}, nil
	case jmt.LeafNode:
		payload, err := rlp.EncodeToBytes(leafNodePayload{
			KeyHash:   [32]byte(node.KeyHash()),
			ValueHash: [32]byte(node.ValueHash()),
		})
		if err != nil {
			return nil, err
		}
		return append([]byte{leafNodeTag}, payload...), nil
	case jmt.InternalNode:
		children := []childPayload{}
		for i := jmt.Nibble(0); i < 16; i++ {
			if child, exists := node.Child(i); exists {
				children = append(children, childPayload{
					Position: uint8(i),
					Hash:     [32]byte(child.Hash),
					Version:  uint64(child.Version),
					IsLeaf:   child.IsLeaf,
				})
			}
		}
		payload, err := rlp.EncodeToBytes(children)
		if err != nil {
			return nil, err
		}
		return append([]byte{internalNodeTag}, payload...), nil
	default:
		return nil, fmt.Errorf("unsupported node type %T", node)
	}
}

func decodeNode(data []byte) (jmt.Node, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("invalid empty node encoding")
	}
	switch data[0] {
	case nullNodeTag:
		return jmt.NullNode{}, nil
	case leafNodeTag:
		var payload leafNodePayload
		if err := rlp.DecodeBytes(data[1:], &payload); err != nil {
			return nil, fmt.Errorf("failed to decode leaf node: %w", err)
		}
		return jmt.NewLeafNode(jmt.KeyHash(payload.KeyHash), common.Hash(payload.ValueHash)), nil
	case internalNodeTag:
		var payload []childPayload
		if err := rlp.DecodeBytes(data[1:], &payload); err != nil {
			return nil, fmt.Errorf("failed to decode internal node: %w", err)
		}
		children := map[jmt.Nibble]jmt.Child{}
		for _, child := range payload {
			children[jmt.Nibble(child.Position)] = jmt.Child{
				Hash:    common.Hash(child.Hash),
				Version: jmt.Version(child.Version),
				IsLeaf:  child.IsLeaf,
			}
		}
		return jmt.NewInternalNode(children)
	default:
		return nil, fmt.Errorf("unknown node kind tag %d", data[0])
	}
}

func encodeValue(value []byte) []byte {
	if value == nil {
		return []byte{valueTombstoneTag}
	}
	return append([]byte{valueLiveTag}, value...)
}

func decodeValue(data []byte) ([]byte, bool, error) {
	if len(data) == 0 {
		return nil, false, fmt.Errorf("invalid empty value encoding")
	}
	switch data[0] {
	case valueTombstoneTag:
		return nil, false, nil
	case valueLiveTag:
		res := make([]byte, len(data)-1)
		copy(res, data[1:])
		return res, true, nil
	default:
		return nil, false, fmt.Errorf("unknown value tag %d", data[0])
	}
}

func encodeNodeStats(stats jmt.NodeStats) ([]byte, error) {
	return rlp.EncodeToBytes(nodeStatsPayload{
		NewNodes:    uint64(stats.NewNodes),
		NewLeaves:   uint64(stats.NewLeaves),
		StaleNodes:  uint64(stats.StaleNodes),
		StaleLeaves: uint64(stats.StaleLeaves),
	})
}

func decodeNodeStats(data []byte) (jmt.NodeStats, error) {
	var payload nodeStatsPayload
	if err := rlp.DecodeBytes(data, &payload); err != nil {
		return jmt.NodeStats{}, fmt.Errorf("failed to decode node stats: %w", err)
	}
	return jmt.NodeStats{
		NewNodes:    int(payload.NewNodes),
		NewLeaves:   int(payload.NewLeaves),
		StaleNodes:  int(payload.StaleNodes),
		StaleLeaves: int(payload.StaleLeaves),
	}, nil
}

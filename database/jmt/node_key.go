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
	"encoding/binary"
	"fmt"
)

// Version is a monotonically increasing identifier for one committed state
// transition of the tree. The tree at a given version is immutable once the
// version has been frozen.
type Version uint64

// PreGenesisVersion is a sentinel version logically located before version 0.
// A root recorded at this version marks a pre-genesis state, allowing a fresh
// genesis to be derived on top of an already-initialized store whose
// transaction history has been discarded.
const PreGenesisVersion = Version(^uint64(0))

// NodeKey is the unique identity of a node in the tree, in the staging cache,
// and in storage. It combines the version at which the node was created with
// the node's navigation path from the root. NodeKeys are immutable value
// types and can be used as map keys.
type NodeKey struct {
	version Version
	path    Path
}

// NewNodeKey creates a node key for the given version and path.
func NewNodeKey(version Version, path Path) NodeKey {
	return NodeKey{version: version, path: path}
}

// RootNodeKey creates the key of the root node at the given version, having
// an empty navigation path.
func RootNodeKey(version Version) NodeKey {
	return NodeKey{version: version}
}

// Version returns the version at which the identified node was created.
func (k NodeKey) Version() Version {
	return k.version
}

// Path returns the navigation path of the identified node.
func (k NodeKey) Path() Path {
	return k.path
}

// WithVersion derives a key addressing the same path at a different version.
func (k NodeKey) WithVersion(version Version) NodeKey {
	return NodeKey{version: version, path: k.path}
}

// Child derives the key of the child node reached through the given nibble,
// created at the given version.
func (k NodeKey) Child(version Version, step Nibble) NodeKey {
	path := k.path
	path.Append(step)
	return NodeKey{version: version, path: path}
}

// Parent derives the key of the parent position of this key at the same
// version. Calling it on a root key returns the root key unchanged.
func (k NodeKey) Parent() NodeKey {
	path := k.path
	path.RemoveLast(1)
	return NodeKey{version: k.version, path: path}
}

// Compare orders node keys by (version, path). It returns a negative number
// if k is less than other, zero if they are equal, and a positive number
// otherwise.
func (k NodeKey) Compare(other NodeKey) int {
	if k.version != other.version {
		if k.version < other.version {
			return -1
		}
		return 1
	}
	return k.path.Compare(&other.path)
}

func (k NodeKey) String() string {
	if k.version == PreGenesisVersion {
		return fmt.Sprintf("node-key(pre-genesis,%v)", &k.path)
	}
	return fmt.Sprintf("node-key(%d,%v)", k.version, &k.path)
}

// ----------------------------------------------------------------------------
//                             NodeKey Encoder
// ----------------------------------------------------------------------------

// NodeKeyEncoder encodes a NodeKey into a fixed-size binary representation
// of 41 bytes, a big-endian version followed by the encoded path. The
// encoding preserves the (version, path-length-last) layout required for
// version-ordered range scans in durable storage.
type NodeKeyEncoder struct{}

func (NodeKeyEncoder) GetEncodedSize() int {
	return 8 + PathEncoder{}.GetEncodedSize()
}

func (NodeKeyEncoder) Store(trg []byte, key NodeKey) {
	binary.BigEndian.PutUint64(trg, uint64(key.version))
	path := key.path
	PathEncoder{}.Store(trg[8:], &path)
}

func (NodeKeyEncoder) Load(src []byte) NodeKey {
	var path Path
	PathEncoder{}.Load(src[8:], &path)
	return NodeKey{
		version: Version(binary.BigEndian.Uint64(src)),
		path:    path,
	}
}

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
)

// Path is a sequence of nibble's describing a navigation path in the tree.
// A node's path is the sequence of branching decisions taken from the root
// to reach the node. Unlike []Nibble slices, Paths are encoding pairs of
// 4-bit Nibbles into 8-bit values for a dense data representation. Also,
// paths are limited to a maximum length of 64 Nibbles, corresponding to the
// depth of a tree keyed by 32-byte key hashes.
type Path struct {
	// The zero-padded navigation path to be covered. The maximum length
	// is 256 bits, which are 32 bytes and 64 nibbles. Nibbles are encoded
	// in bytes in little-endian order.
	path [32]byte
	// The length of the relevant prefix of the path to be represented in
	// number of nibbles (= 4bit values). Limited to <= 64.
	length uint8
}

// EmptyPath creates the zero-length path addressing the root node.
func EmptyPath() Path {
	return Path{}
}

// SingleStepPath creates a path consisting of a single step.
func SingleStepPath(n Nibble) Path {
	return Path{path: [32]byte{byte(n) << 4}, length: uint8(1)}
}

// CreatePathFromNibbles converts a Nibble-slice into a path.
func CreatePathFromNibbles(path []Nibble) Path {
	res := Path{}
	for _, cur := range path {
		res.Append(cur)
	}
	return res
}

// Length returns the length of the path.
func (p *Path) Length() int {
	return int(p.length)
}

// Get returns the Nibble value at the given path position, where pos == 0
// is the first position and Length()-1 the last. For positions outside this
// range the value 0 is returned.
func (p *Path) Get(pos int) Nibble {
	if pos < 0 || pos >= int(p.length) {
		return 0
	}
	twin := p.path[pos/2]
	if pos%2 == 0 {
		return Nibble(twin >> 4)
	}
	return Nibble(twin & 0xF)
}

// Append appends a nibble to the end of this path extending it by one element.
func (p *Path) Append(n Nibble) *Path {
	trg := &p.path[p.length/2]
	if p.length%2 == 0 {
		*trg |= byte(n&0xF) << 4
	} else {
		*trg |= byte(n & 0xF)
	}
	p.length++
	return p
}

// RemoveLast removes the last n elements from this path. If n > length, the
// resulting path is empty. Removed positions are zeroed to keep equal paths
// comparable by value.
func (p *Path) RemoveLast(n int) *Path {
	if n > int(p.length) {
		p.length = 0
	} else {
		p.length -= uint8(n)
	}
	// Zero the removed positions to keep truncated paths canonical, such
	// that equal paths remain equal by value and Append can rely on zero
	// padding.
	first := int(p.length)
	if first%2 == 1 {
		p.path[first/2] &= 0xF0
		first++
	}
	for i := first / 2; i < len(p.path); i++ {
		p.path[i] = 0
	}
	return p
}

// GetPackedNibbles returns a slice of nibbles encoded in consecutive high/low
// bits of bytes. If the path length is odd, a leading 0 is added.
func (p *Path) GetPackedNibbles() []byte {
	// If the length is even, we can return a prefix of the path.
	if p.length%2 == 0 {
		return p.path[:p.length/2]
	}
	// Otherwise we need to shift the path by 4 bit.
	length := p.length/2 + 1
	res := make([]byte, length)
	res[0] = p.path[0] >> 4
	for i := 1; i < len(res); i++ {
		res[i] = (p.path[i-1]&0xf)<<4 | (p.path[i] >> 4)
	}
	return res
}

// GetCommonPrefixLength determines the common prefix of the given Nibble
// slice and this path.
func (p *Path) GetCommonPrefixLength(list []Nibble) int {
	max := int(p.length)
	if max > len(list) {
		max = len(list)
	}
	for i := 0; i < max; i++ {
		if p.Get(i) != list[i] {
			return i
		}
	}
	return max
}

// IsPrefixOf determines whether this path is a prefix of the given nibble
// sequence.
func (p *Path) IsPrefixOf(list []Nibble) bool {
	return p.GetCommonPrefixLength(list) == int(p.length)
}

// Compare orders paths lexicographically by their nibble sequence, with a
// proper prefix sorting before any of its extensions. It returns a negative
// number if p is less than other, zero if they are equal, and a positive
// number otherwise.
func (p *Path) Compare(other *Path) int {
	min := int(p.length)
	if int(other.length) < min {
		min = int(other.length)
	}
	for i := 0; i < min; i++ {
		if a, b := p.Get(i), other.Get(i); a != b {
			return int(a) - int(b)
		}
	}
	return int(p.length) - int(other.length)
}

func (p *Path) String() string {
	if p.length == 0 {
		return "-empty-"
	}
	builder := strings.Builder{}
	for i := 0; i < p.Length(); i++ {
		builder.WriteRune(p.Get(i).Rune())
	}
	builder.WriteString(fmt.Sprintf(" : %d", p.length))
	return builder.String()
}

// ----------------------------------------------------------------------------
//                               Path Encoder
// ----------------------------------------------------------------------------

type PathEncoder struct{}

func (PathEncoder) GetEncodedSize() int {
	return 33
}

func (PathEncoder) Store(trg []byte, path *Path) {
	copy(trg, path.path[:])
	trg[32] = path.length
}

func (PathEncoder) Load(src []byte, path *Path) {
	copy(path.path[:], src)
	path.length = src[32]
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package jmt provides the in-memory staging layer for a versioned,
// copy-on-write authenticated tree.
//
// Every committed state transition produces a new tree version. A version
// shares all unmodified nodes with its predecessors; only the nodes on the
// paths touched by the transition are created anew, while the nodes they
// supersede remain on disk to keep every historical version byte-identical
// and readable. The TreeCache is the structure deciding, for every node
// touched by tree-mutation logic, whether it is a fresh node to be
// materialized or a previously persisted node to be marked stale.
//
// Mutation logic drives one cache through a sequence of versions: any number
// of PutNode / DeleteNode / PutValue calls describe one version's effects,
// Freeze seals them, and the cycle repeats. A single Export at the end hands
// the accumulated multi-version effect, root hashes, node and value writes,
// stale markers, and per-version statistics, to durable storage for one
// atomic commit. Reads during construction resolve through the staged
// overlay, then the frozen accumulation, and finally the external reader, so
// storage is only consulted for nodes of previously committed versions.
package jmt

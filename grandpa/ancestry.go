// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	grandpa "github.com/ChainSafe/gossamer/pkg/finality-grandpa"
	"github.com/tidwall/btree"
	"golang.org/x/exp/constraints"
)

// ancestryChain is the partial view of the chain built from the loose headers
// attached to a justification. It is created for a single verification call
// and discarded afterwards.
type ancestryChain[H constraints.Ordered, N constraints.Unsigned] struct {
	// the header finalized by the commit; every vote must descend from it
	base grandpa.HashNumber[H, N]
	// child hash -> parent hash, one entry per attached header
	parents *btree.Map[H, H]
	// headers not yet proven useful by an accepted vote
	unvisited *btree.Set[H]
}

func newAncestryChain[H constraints.Ordered, N constraints.Unsigned, S comparable, ID constraints.Ordered](
	justification *GrandpaJustification[H, N, S, ID],
) *ancestryChain[H, N] {
	parents := btree.NewMap[H, H](2)
	unvisited := &btree.Set[H]{}
	for _, header := range justification.VotesAncestries {
		hash := header.Hash()
		parents.Set(hash, header.ParentHash())
		unvisited.Insert(hash)
	}
	return &ancestryChain[H, N]{
		base:      justification.Target(),
		parents:   parents,
		unvisited: unvisited,
	}
}

// ancestry returns the hashes of the attached headers on the route from the
// given precommit target down to (excluding) the base. ok is false when the
// target is not connected to the base through the attached headers.
//
// The walk stops early when it reaches a header already visited by a previous
// accepted vote: all ancestors of a visited header are visited as well, so the
// partial route is sufficient.
func (c *ancestryChain[H, N]) ancestry(targetHash H, targetNumber N) (route []H, ok bool) {
	if targetNumber < c.base.Number {
		return nil, false
	}
	route = []H{}
	current := targetHash
	for current != c.base.Hash {
		parent, has := c.parents.Get(current)
		if !has {
			return nil, false
		}
		if !c.unvisited.Contains(current) {
			return route, true
		}
		route = append(route, current)
		current = parent
	}
	return route, true
}

// markRouteVisited records that the headers on the route are needed by an
// accepted vote.
func (c *ancestryChain[H, N]) markRouteVisited(route []H) {
	for _, hash := range route {
		c.unvisited.Delete(hash)
	}
}

// unvisitedHashes returns all attached headers no accepted vote has needed.
func (c *ancestryChain[H, N]) unvisitedHashes() []H {
	hashes := make([]H, 0, c.unvisited.Len())
	c.unvisited.Scan(func(hash H) bool {
		hashes = append(hashes, hash)
		return true
	})
	return hashes
}

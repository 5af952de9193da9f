// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAncestryChain(t *testing.T) *ancestryChain[string, uint32] {
	t.Helper()
	justification := newTestJustification(t, nil, testHeaderB, testHeaderC)
	return newAncestryChain(&justification)
}

func TestAncestryChain_Ancestry(t *testing.T) {
	testCases := map[string]struct {
		targetHash   string
		targetNumber uint32
		expRoute     []string
		expOk        bool
	}{
		"target_is_base": {
			targetHash:   "a",
			targetNumber: 1,
			expRoute:     []string{},
			expOk:        true,
		},
		"direct_child": {
			targetHash:   "b",
			targetNumber: 2,
			expRoute:     []string{"b"},
			expOk:        true,
		},
		"grandchild": {
			targetHash:   "c",
			targetNumber: 3,
			expRoute:     []string{"c", "b"},
			expOk:        true,
		},
		"not_connected": {
			targetHash:   "z",
			targetNumber: 5,
			expOk:        false,
		},
		"below_base": {
			targetHash:   "0",
			targetNumber: 0,
			expOk:        false,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			chain := newTestAncestryChain(t)
			route, ok := chain.ancestry(testCase.targetHash, testCase.targetNumber)
			assert.Equal(t, testCase.expOk, ok)
			assert.Equal(t, testCase.expRoute, route)
		})
	}
}

func TestAncestryChain_MarkRouteVisited(t *testing.T) {
	chain := newTestAncestryChain(t)

	route, ok := chain.ancestry("c", 3)
	require.True(t, ok)
	chain.markRouteVisited(route)
	assert.Empty(t, chain.unvisitedHashes())

	// a later walk through visited headers short-circuits with a partial route
	route, ok = chain.ancestry("c", 3)
	require.True(t, ok)
	assert.Empty(t, route)
}

func TestAncestryChain_UnvisitedHashes(t *testing.T) {
	chain := newTestAncestryChain(t)
	assert.ElementsMatch(t, []string{"b", "c"}, chain.unvisitedHashes())

	route, ok := chain.ancestry("b", 2)
	require.True(t, ok)
	chain.markRouteVisited(route)
	assert.Equal(t, []string{"c"}, chain.unvisitedHashes())
}

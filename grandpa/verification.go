// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"fmt"

	grandpa "github.com/ChainSafe/gossamer/pkg/finality-grandpa"
	"github.com/tidwall/btree"
	"golang.org/x/exp/constraints"
)

// SignatureVerifier checks authority signatures over encoded vote messages.
// The concrete scheme is supplied by the embedder; Ed25519SignatureVerifier
// covers the scheme used by Polkadot-like chains.
type SignatureVerifier[S, ID any] interface {
	Verify(message []byte, id ID, signature S) bool
}

// verificationCallbacks is the strategy applied during a single traversal of
// the justification. Strict verification turns every anomaly into a terminal
// error; optimization collects anomalies so they can be stripped afterwards.
type verificationCallbacks[H constraints.Ordered] interface {
	onRedundantVote(precommitIdx int) error
	onUnknownAuthorityVote(precommitIdx int) error
	onDuplicateAuthorityVote(precommitIdx int) error
	onUnrelatedAncestryVote(precommitIdx int) error
	onInvalidAuthoritySignature(precommitIdx int) error
	onRedundantVotesAncestries(unvisited []H) error
}

// VerifyJustification checks that the justification finalizes the given
// target under the given authority set. It fails fast on the first anomaly
// and mutates nothing.
func VerifyJustification[H constraints.Ordered, N constraints.Unsigned, S comparable, ID constraints.Ordered](
	finalizedTarget grandpa.HashNumber[H, N],
	setID uint64,
	voters grandpa.VoterSet[ID],
	verifier SignatureVerifier[S, ID],
	justification GrandpaJustification[H, N, S, ID],
) error {
	return verifyJustificationWithCallbacks(
		finalizedTarget, setID, voters, verifier, &justification, strictCallbacks[H]{})
}

// VerifyAndOptimizeJustification runs the same traversal as
// VerifyJustification, but instead of rejecting redundant precommits, votes of
// unknown or duplicate authorities, votes with broken signatures or unrelated
// ancestry, and unused ancestry headers, it collects them and strips them from
// the justification, leaving a smaller proof that still verifies on its own.
func VerifyAndOptimizeJustification[H constraints.Ordered, N constraints.Unsigned, S comparable, ID constraints.Ordered](
	finalizedTarget grandpa.HashNumber[H, N],
	setID uint64,
	voters grandpa.VoterSet[ID],
	verifier SignatureVerifier[S, ID],
	justification *GrandpaJustification[H, N, S, ID],
) error {
	callbacks := &optimizationCallbacks[H]{redundantHeaders: &btree.Set[H]{}}
	err := verifyJustificationWithCallbacks(
		finalizedTarget, setID, voters, verifier, justification, callbacks)
	if err != nil {
		return err
	}

	// remove flagged precommits in descending index order so earlier indices
	// stay valid
	for i := len(callbacks.extraPrecommits) - 1; i >= 0; i-- {
		idx := callbacks.extraPrecommits[i]
		justification.Commit.Precommits = append(
			justification.Commit.Precommits[:idx],
			justification.Commit.Precommits[idx+1:]...)
	}

	if callbacks.redundantHeaders.Len() > 0 {
		kept := make([]Header[H, N], 0, len(justification.VotesAncestries))
		for _, header := range justification.VotesAncestries {
			if !callbacks.redundantHeaders.Contains(header.Hash()) {
				kept = append(kept, header)
			}
		}
		justification.VotesAncestries = kept
	}

	return nil
}

// verifyJustificationWithCallbacks is the traversal shared by both modes.
// State is fully local to the call; the justification itself is never mutated
// here, so an error mid-way leaves no partial effects.
func verifyJustificationWithCallbacks[H constraints.Ordered, N constraints.Unsigned, S comparable, ID constraints.Ordered](
	finalizedTarget grandpa.HashNumber[H, N],
	setID uint64,
	voters grandpa.VoterSet[ID],
	verifier SignatureVerifier[S, ID],
	justification *GrandpaJustification[H, N, S, ID],
	callbacks verificationCallbacks[H],
) error {
	if justification.Commit.TargetHash != finalizedTarget.Hash ||
		justification.Commit.TargetNumber != finalizedTarget.Number {
		return ErrInvalidJustificationTarget
	}

	threshold := uint64(voters.Threshold())
	chain := newAncestryChain(justification)

	votes := &btree.Set[ID]{}
	var cumulativeWeight uint64

	for i, signed := range justification.Commit.Precommits {
		// once the threshold is reached every remaining precommit is extra
		// weight the proof does not need
		if cumulativeWeight >= threshold {
			if err := callbacks.onRedundantVote(i); err != nil {
				return err
			}
			continue
		}

		info := voters.Get(signed.ID)
		if info == nil {
			if err := callbacks.onUnknownAuthorityVote(i); err != nil {
				return err
			}
			continue
		}

		if votes.Contains(signed.ID) {
			if err := callbacks.onDuplicateAuthorityVote(i); err != nil {
				return err
			}
			continue
		}

		route, ok := chain.ancestry(signed.Precommit.TargetHash, signed.Precommit.TargetNumber)
		if !ok {
			if err := callbacks.onUnrelatedAncestryVote(i); err != nil {
				return err
			}
			continue
		}

		message, err := NewPrecommitSignedMessage(signed.Precommit, justification.Round, setID)
		if err != nil {
			return fmt.Errorf("encoding precommit %d: %w", i, err)
		}
		if !verifier.Verify(message, signed.ID, signed.Signature) {
			if err := callbacks.onInvalidAuthoritySignature(i); err != nil {
				return err
			}
			continue
		}

		votes.Insert(signed.ID)
		chain.markRouteVisited(route)
		cumulativeWeight += uint64(info.Weight())
	}

	if cumulativeWeight < threshold {
		return ErrTooLowCumulativeWeight
	}

	if unvisited := chain.unvisitedHashes(); len(unvisited) > 0 {
		if err := callbacks.onRedundantVotesAncestries(unvisited); err != nil {
			return err
		}
	}

	return nil
}

type strictCallbacks[H constraints.Ordered] struct{}

func (strictCallbacks[H]) onRedundantVote(int) error { return ErrRedundantVotes }

func (strictCallbacks[H]) onUnknownAuthorityVote(int) error { return ErrUnknownAuthorityVote }

func (strictCallbacks[H]) onDuplicateAuthorityVote(int) error { return ErrDuplicateAuthorityVote }

func (strictCallbacks[H]) onUnrelatedAncestryVote(int) error { return ErrUnrelatedAncestryVote }

func (strictCallbacks[H]) onInvalidAuthoritySignature(int) error { return ErrInvalidAuthoritySignature }

func (strictCallbacks[H]) onRedundantVotesAncestries([]H) error { return ErrRedundantVotesAncestries }

// optimizationCallbacks records every anomaly instead of rejecting, so the
// caller can prune the justification once the traversal succeeds.
type optimizationCallbacks[H constraints.Ordered] struct {
	// indices into Commit.Precommits, in ascending order
	extraPrecommits  []int
	redundantHeaders *btree.Set[H]
}

func (c *optimizationCallbacks[H]) onRedundantVote(precommitIdx int) error {
	c.extraPrecommits = append(c.extraPrecommits, precommitIdx)
	return nil
}

func (c *optimizationCallbacks[H]) onUnknownAuthorityVote(precommitIdx int) error {
	c.extraPrecommits = append(c.extraPrecommits, precommitIdx)
	return nil
}

func (c *optimizationCallbacks[H]) onDuplicateAuthorityVote(precommitIdx int) error {
	c.extraPrecommits = append(c.extraPrecommits, precommitIdx)
	return nil
}

func (c *optimizationCallbacks[H]) onUnrelatedAncestryVote(precommitIdx int) error {
	c.extraPrecommits = append(c.extraPrecommits, precommitIdx)
	return nil
}

func (c *optimizationCallbacks[H]) onInvalidAuthoritySignature(precommitIdx int) error {
	c.extraPrecommits = append(c.extraPrecommits, precommitIdx)
	return nil
}

func (c *optimizationCallbacks[H]) onRedundantVotesAncestries(unvisited []H) error {
	for _, hash := range unvisited {
		c.redundantHeaders.Insert(hash)
	}
	return nil
}

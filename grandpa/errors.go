// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"errors"
)

// ErrJustificationDecode is returned when a justification fails to decode
var ErrJustificationDecode = errors.New("failed to decode justification")

// ErrInvalidJustificationTarget is returned when the commit target of a justification
// is not the header being finalized
var ErrInvalidJustificationTarget = errors.New("justification target does not match finalized header")

// ErrRedundantVotes is returned when a justification carries precommits beyond the
// point where the cumulative weight has reached the threshold
var ErrRedundantVotes = errors.New("redundant votes in justification")

// ErrUnknownAuthorityVote is returned when a precommit is signed by an authority
// that is not in the voter set
var ErrUnknownAuthorityVote = errors.New("vote of unknown authority in justification")

// ErrDuplicateAuthorityVote is returned when the same authority votes more than once
// within one justification
var ErrDuplicateAuthorityVote = errors.New("duplicate vote of authority in justification")

// ErrInvalidAuthoritySignature is returned when a precommit signature does not verify
var ErrInvalidAuthoritySignature = errors.New("invalid authority signature in justification")

// ErrUnrelatedAncestryVote is returned when a precommit targets a block that is not
// a descendant of the commit target
var ErrUnrelatedAncestryVote = errors.New("vote of unrelated ancestry in justification")

// ErrTooLowCumulativeWeight is returned when the accepted votes do not reach the
// voter set threshold
var ErrTooLowCumulativeWeight = errors.New("cumulative weight of votes is below threshold")

// ErrRedundantVotesAncestries is returned when votes_ancestries contains headers
// that no accepted precommit needs
var ErrRedundantVotesAncestries = errors.New("redundant headers in votes ancestries")

// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package grandpa verifies GRANDPA finality justifications without access to
// the bridged chain itself. A justification proves, to a light client holding
// only the current authority set, that a given header has been finalized by a
// supermajority of authority precommits.
package grandpa

import (
	"fmt"

	grandpa "github.com/ChainSafe/gossamer/pkg/finality-grandpa"
	"github.com/ChainSafe/gossamer/pkg/scale"
	"golang.org/x/exp/constraints"
)

const (
	// ReasonableHeadersInJustificationAncestry is the number of loose ancestry
	// headers we expect an honest justification to carry. Used for resource
	// sizing only, never for correctness.
	ReasonableHeadersInJustificationAncestry uint32 = 16

	// AverageHeaderSizeInJustification is the assumed encoded size of a single
	// ancestry header, again only used for sizing.
	AverageHeaderSizeInJustification uint32 = 512

	// size of one encoded signed precommit: target hash (32) + target number (4)
	// + signature (64) + authority id (32)
	precommitEncodedSize uint32 = 32 + 4 + 64 + 32
)

// Header is the view of a chain header the verifier needs to walk the ancestry
// attached to a justification.
type Header[H constraints.Ordered, N constraints.Unsigned] interface {
	ParentHash() H
	Hash() H
	Number() N
}

// GrandpaJustification is a finality proof for a single header: the GRANDPA
// round it was produced in, a commit aggregating the authority precommits, and
// the loose headers connecting every precommit target back to the commit
// target.
type GrandpaJustification[H constraints.Ordered, N constraints.Unsigned, S comparable, ID constraints.Ordered] struct {
	Round           uint64
	Commit          grandpa.Commit[H, N, S, ID]
	VotesAncestries []Header[H, N]
}

// Target returns the header this justification finalizes.
func (j *GrandpaJustification[H, N, S, ID]) Target() grandpa.HashNumber[H, N] {
	return grandpa.HashNumber[H, N]{
		Hash:   j.Commit.TargetHash,
		Number: j.Commit.TargetNumber,
	}
}

// Encode returns the SCALE encoding of the justification. Values round-trip
// byte-exactly since they cross a storage-proof boundary and are hashed.
func (j *GrandpaJustification[H, N, S, ID]) Encode() ([]byte, error) {
	return scale.Marshal(*j)
}

// DecodeJustification decodes a SCALE encoded justification. The concrete
// header type Hdr is required since VotesAncestries is held behind the Header
// interface.
func DecodeJustification[H constraints.Ordered, N constraints.Unsigned, S comparable,
	ID constraints.Ordered, Hdr Header[H, N]](encoded []byte,
) (*GrandpaJustification[H, N, S, ID], error) {
	decoded := struct {
		Round           uint64
		Commit          grandpa.Commit[H, N, S, ID]
		VotesAncestries []Hdr
	}{}
	err := scale.Unmarshal(encoded, &decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrJustificationDecode, err)
	}

	votesAncestries := make([]Header[H, N], len(decoded.VotesAncestries))
	for i, header := range decoded.VotesAncestries {
		votesAncestries[i] = header
	}

	return &GrandpaJustification[H, N, S, ID]{
		Round:           decoded.Round,
		Commit:          decoded.Commit,
		VotesAncestries: votesAncestries,
	}, nil
}

// DecodeJustificationTarget decodes an encoded justification just far enough
// to learn which header it claims to finalize.
func DecodeJustificationTarget[H constraints.Ordered, N constraints.Unsigned, S comparable,
	ID constraints.Ordered, Hdr Header[H, N]](encoded []byte,
) (grandpa.HashNumber[H, N], error) {
	justification, err := DecodeJustification[H, N, S, ID, Hdr](encoded)
	if err != nil {
		return grandpa.HashNumber[H, N]{}, err
	}
	return justification.Target(), nil
}

// RequiredJustificationPrecommits returns the minimal number of distinct
// authority votes a justification needs, assuming every authority has weight
// one. With f = (n-1)/3 tolerated faulty authorities, n - f votes are
// required. For general weights use VoterSet.Threshold.
func RequiredJustificationPrecommits(authoritiesCount uint32) uint32 {
	if authoritiesCount == 0 {
		return 0
	}
	faulty := (authoritiesCount - 1) / 3
	return authoritiesCount - faulty
}

// MaxExpectedJustificationSize estimates the encoded size of a justification
// carrying the given number of precommits. Only a sizing hint for callers that
// budget proof space.
func MaxExpectedJustificationSize(requiredPrecommits uint32) uint32 {
	const roundAndLengthPrefixes uint32 = 8 + 5 + 5
	return roundAndLengthPrefixes +
		requiredPrecommits*precommitEncodedSize +
		ReasonableHeadersInJustificationAncestry*AverageHeaderSizeInJustification
}

// stage tag of a precommit inside an encoded GRANDPA vote message
const precommitStage uint8 = 1

// NewPrecommitSignedMessage returns the exact byte message an authority signs
// when casting the given precommit in the given round of the given authority
// set: the SCALE encoding of (stage, target hash, target number, round, set id).
func NewPrecommitSignedMessage[H constraints.Ordered, N constraints.Unsigned](
	precommit grandpa.Precommit[H, N], round, setID uint64,
) ([]byte, error) {
	message, err := scale.Marshal(struct {
		Stage     uint8
		Precommit grandpa.Precommit[H, N]
		Round     uint64
		SetID     uint64
	}{precommitStage, precommit, round, setID})
	if err != nil {
		return nil, fmt.Errorf("encoding precommit message: %w", err)
	}
	return message, nil
}

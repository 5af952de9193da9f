// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

import (
	"errors"
)

// ErrFailedToConfirmFutureMessages is returned when a delivery confirmation
// claims messages that were never sent on this lane
var ErrFailedToConfirmFutureMessages = errors.New("trying to confirm messages that are not yet sent")

// ErrTryingToConfirmMoreMessagesThanExpected is returned when a delivery
// confirmation covers more new messages than the caller declared, which would
// make reward processing unboundedly expensive
var ErrTryingToConfirmMoreMessagesThanExpected = errors.New("trying to confirm more messages than expected")

// ErrEmptyUnrewardedRelayerEntry signals an empty entry in the unrewarded
// relayers queue of the bridged chain, which can only mean its state is
// corrupt
var ErrEmptyUnrewardedRelayerEntry = errors.New("empty unrewarded relayer entry in the delivery proof")

// ErrNonConsecutiveUnrewardedRelayerEntries signals unrewarded relayer
// entries that are not strictly consecutive, which can only mean the bridged
// chain state is corrupt
var ErrNonConsecutiveUnrewardedRelayerEntries = errors.New("non-consecutive unrewarded relayer entries in the delivery proof")

// ErrInvalidNumberOfDispatchResults signals a relayer entry whose dispatch
// results bitfield does not cover its nonce range
var ErrInvalidNumberOfDispatchResults = errors.New("invalid number of dispatch results in the delivery proof")

// ErrInvalidLaneBounds is returned when a lane is constructed with a relayer
// entries bound above the unconfirmed messages bound
var ErrInvalidLaneBounds = errors.New("maximal number of unrewarded relayer entries exceeds maximal number of unconfirmed messages")

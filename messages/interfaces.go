// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

// OutboundLaneStorage gives an outbound lane access to its persistent state.
// The lane is agnostic to the concrete storage engine.
type OutboundLaneStorage interface {
	ID() LaneID
	Data() (OutboundLaneData, error)
	SetData(data OutboundLaneData) error
	SaveMessage(nonce MessageNonce, payload MessagePayload) error
	RemoveMessage(nonce MessageNonce) error
}

// InboundLaneStorage gives an inbound lane access to its persistent state and
// to the queue bounds configured by the embedder.
type InboundLaneStorage[R any] interface {
	ID() LaneID
	// maximal number of entries the unrewarded relayers queue may hold; keeps
	// the confirmation transaction weight bounded
	MaxUnrewardedRelayerEntries() MessageNonce
	// maximal number of delivered but unconfirmed messages; keeps the
	// confirmation transaction proof size bounded
	MaxUnconfirmedMessages() MessageNonce
	Data() (InboundLaneData[R], error)
	SetData(data InboundLaneData[R]) error
}

// MessageDispatch hands a received message payload to the target chain
// handler. The returned bit is recorded as the message's dispatch result.
type MessageDispatch[R any] interface {
	Dispatch(relayer R, key MessageKey, payload MessagePayload) bool
}

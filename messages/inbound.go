// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

import (
	"fmt"

	"go.uber.org/zap"
)

// ReceptionResult is the outcome of receiving one message on an inbound lane.
type ReceptionResult int

const (
	// ReceptionDispatched - the message has been received and dispatched
	ReceptionDispatched ReceptionResult = iota
	// ReceptionInvalidNonce - the nonce is not the next expected one; gaps are
	// rejected, not buffered
	ReceptionInvalidNonce
	// ReceptionTooManyUnrewardedRelayers - accepting the message would push
	// the relayers queue over its entries bound
	ReceptionTooManyUnrewardedRelayers
	// ReceptionTooManyUnconfirmedMessages - accepting the message would push
	// the number of unconfirmed messages over its bound
	ReceptionTooManyUnconfirmedMessages
)

func (r ReceptionResult) String() string {
	switch r {
	case ReceptionDispatched:
		return "dispatched"
	case ReceptionInvalidNonce:
		return "invalid nonce"
	case ReceptionTooManyUnrewardedRelayers:
		return "too many unrewarded relayers"
	case ReceptionTooManyUnconfirmedMessages:
		return "too many unconfirmed messages"
	}
	return "unknown"
}

// InboundLane is the receiving half of a message lane. It accepts messages in
// strict nonce order, dispatches them, and tracks which relayer delivered
// which range so the source chain can reward them.
type InboundLane[R comparable] struct {
	storage  InboundLaneStorage[R]
	dispatch MessageDispatch[R]
	logger   *zap.Logger
}

// NewInboundLane returns an inbound lane over the given storage and dispatch.
// The storage bounds must satisfy MaxUnrewardedRelayerEntries <=
// MaxUnconfirmedMessages, otherwise the relayers queue itself could exceed
// what a confirmation transaction may carry.
func NewInboundLane[R comparable](
	storage InboundLaneStorage[R],
	dispatch MessageDispatch[R],
	logger *zap.Logger,
) (*InboundLane[R], error) {
	if storage.MaxUnrewardedRelayerEntries() > storage.MaxUnconfirmedMessages() {
		return nil, ErrInvalidLaneBounds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InboundLane[R]{
		storage:  storage,
		dispatch: dispatch,
		logger:   logger,
	}, nil
}

// ID returns the lane id.
func (l *InboundLane[R]) ID() LaneID {
	return l.storage.ID()
}

// Data returns the current lane state, including the unrewarded relayers
// queue a confirmation transaction proves back to the source chain.
func (l *InboundLane[R]) Data() (InboundLaneData[R], error) {
	return l.storage.Data()
}

// StateSummary returns the relayers state a confirmation transaction for this
// lane would declare.
func (l *InboundLane[R]) StateSummary() (UnrewardedRelayersState, error) {
	data, err := l.storage.Data()
	if err != nil {
		return UnrewardedRelayersState{}, fmt.Errorf("reading inbound lane data: %w", err)
	}
	return UnrewardedRelayersStateFor(data), nil
}

// ReceiveMessage accepts the message with the given nonce if it is exactly
// the next one on the lane and the queue bounds leave room, dispatches it and
// records the outcome against the delivering relayer. Both bounds are checked
// before dispatch, so a rejected message has no side effects.
func (l *InboundLane[R]) ReceiveMessage(
	relayer R,
	nonce MessageNonce,
	payload MessagePayload,
) (ReceptionResult, error) {
	data, err := l.storage.Data()
	if err != nil {
		return 0, fmt.Errorf("reading inbound lane data: %w", err)
	}

	if nonce != data.LastDeliveredNonce()+1 {
		return ReceptionInvalidNonce, nil
	}

	// a full queue rejects every delivery, even one the trailing relayer
	// could fold into its entry
	if MessageNonce(len(data.Relayers)) >= l.storage.MaxUnrewardedRelayerEntries() {
		return ReceptionTooManyUnrewardedRelayers, nil
	}

	if nonce-data.LastConfirmedNonce > l.storage.MaxUnconfirmedMessages() {
		return ReceptionTooManyUnconfirmedMessages, nil
	}

	dispatchResult := l.dispatch.Dispatch(relayer, MessageKey{LaneID: l.storage.ID(), Nonce: nonce}, payload)

	// a delivery by the relayer that delivered the previous nonce extends its
	// trailing queue entry instead of opening a new one
	if len(data.Relayers) > 0 && data.Relayers[len(data.Relayers)-1].Relayer == relayer {
		data.Relayers[len(data.Relayers)-1].Messages.NoteDispatchedMessage(dispatchResult)
	} else {
		data.Relayers = append(data.Relayers, UnrewardedRelayer[R]{
			Relayer:  relayer,
			Messages: NewDeliveredMessages(nonce, dispatchResult),
		})
	}

	err = l.storage.SetData(data)
	if err != nil {
		return 0, fmt.Errorf("writing inbound lane data: %w", err)
	}

	l.logger.Debug("message dispatched",
		zap.Stringer("lane", l.storage.ID()),
		zap.Uint64("nonce", uint64(nonce)),
		zap.Bool("dispatchResult", dispatchResult))
	return ReceptionDispatched, nil
}

// ReceiveStateUpdate processes the outbound lane state of the bridged chain,
// which reports the latest nonce whose delivery confirmation it has received.
// Queue entries fully covered by the new confirmation are dropped and a
// partially covered head entry is shrunk, so those relayers are never paid
// twice. Returns the new confirmed nonce, or nil when the update is stale or
// claims more than was ever delivered.
func (l *InboundLane[R]) ReceiveStateUpdate(outboundData OutboundLaneData) (*MessageNonce, error) {
	data, err := l.storage.Data()
	if err != nil {
		return nil, fmt.Errorf("reading inbound lane data: %w", err)
	}

	if outboundData.LatestReceivedNonce > data.LastDeliveredNonce() {
		// the bridged chain confirms delivery of messages we never delivered;
		// its state is corrupt and the update is ignored
		return nil, nil
	}
	if outboundData.LatestReceivedNonce <= data.LastConfirmedNonce {
		return nil, nil
	}

	newConfirmedNonce := outboundData.LatestReceivedNonce
	data.LastConfirmedNonce = newConfirmedNonce

	for len(data.Relayers) > 0 {
		entry := &data.Relayers[0]
		if entry.Messages.End <= newConfirmedNonce {
			data.Relayers = data.Relayers[1:]
			continue
		}
		if entry.Messages.Begin <= newConfirmedNonce {
			confirmedCount := newConfirmedNonce - entry.Messages.Begin + 1
			entry.Messages.DispatchResults = entry.Messages.DispatchResults.tail(uint(confirmedCount))
			entry.Messages.Begin = newConfirmedNonce + 1
		}
		break
	}

	err = l.storage.SetData(data)
	if err != nil {
		return nil, fmt.Errorf("writing inbound lane data: %w", err)
	}

	l.logger.Debug("received lane state update",
		zap.Stringer("lane", l.storage.ID()),
		zap.Uint64("latestConfirmedNonce", uint64(newConfirmedNonce)),
		zap.Int("unrewardedRelayers", len(data.Relayers)))
	return &newConfirmedNonce, nil
}

// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

import (
	"fmt"

	"go.uber.org/zap"
)

// OutboundLane is the sending half of a message lane. A message moves through
// three states: sent (nonce above LatestReceivedNonce), confirmed (delivery
// acknowledged by the bridged chain) and pruned (below OldestUnprunedNonce).
type OutboundLane[R any] struct {
	storage OutboundLaneStorage
	logger  *zap.Logger
}

// NewOutboundLane returns an outbound lane over the given storage. A nil
// logger disables logging.
func NewOutboundLane[R any](storage OutboundLaneStorage, logger *zap.Logger) *OutboundLane[R] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboundLane[R]{
		storage: storage,
		logger:  logger,
	}
}

// ID returns the lane id.
func (l *OutboundLane[R]) ID() LaneID {
	return l.storage.ID()
}

// Data returns the current lane state.
func (l *OutboundLane[R]) Data() (OutboundLaneData, error) {
	return l.storage.Data()
}

// SendMessage assigns the next nonce to the payload and persists both. The
// transition is infallible once the storage writes succeed.
func (l *OutboundLane[R]) SendMessage(payload MessagePayload) (MessageNonce, error) {
	data, err := l.storage.Data()
	if err != nil {
		return 0, fmt.Errorf("reading outbound lane data: %w", err)
	}

	nonce := data.LatestGeneratedNonce + 1
	data.LatestGeneratedNonce = nonce

	err = l.storage.SaveMessage(nonce, payload)
	if err != nil {
		return 0, fmt.Errorf("saving message %d: %w", nonce, err)
	}
	err = l.storage.SetData(data)
	if err != nil {
		return 0, fmt.Errorf("writing outbound lane data: %w", err)
	}

	l.logger.Debug("accepted message",
		zap.Stringer("lane", l.storage.ID()),
		zap.Uint64("nonce", uint64(nonce)))
	return nonce, nil
}

// ConfirmDelivery processes a delivery confirmation from the bridged chain,
// reporting that every message up to and including latestDeliveredNonce has
// been delivered by the relayers in the given queue.
//
// A stale or duplicate confirmation is a benign no-op and returns (nil, nil).
// maxAllowedMessages bounds how many new messages one call may confirm so
// reward processing stays within the weight the caller declared. On success
// the returned range tells the caller exactly which nonces to reward.
func (l *OutboundLane[R]) ConfirmDelivery(
	maxAllowedMessages MessageNonce,
	latestDeliveredNonce MessageNonce,
	relayers []UnrewardedRelayer[R],
) (*DeliveredMessages, error) {
	data, err := l.storage.Data()
	if err != nil {
		return nil, fmt.Errorf("reading outbound lane data: %w", err)
	}

	if latestDeliveredNonce <= data.LatestReceivedNonce {
		return nil, nil
	}
	if latestDeliveredNonce > data.LatestGeneratedNonce {
		return nil, ErrFailedToConfirmFutureMessages
	}
	newConfirmations := latestDeliveredNonce - data.LatestReceivedNonce
	if newConfirmations > maxAllowedMessages {
		return nil, fmt.Errorf("%w: confirming %d, declared at most %d",
			ErrTryingToConfirmMoreMessagesThanExpected, newConfirmations, maxAllowedMessages)
	}

	confirmed, err := confirmedDeliveries(relayers, data.LatestReceivedNonce, latestDeliveredNonce)
	if err != nil {
		return nil, err
	}

	data.LatestReceivedNonce = latestDeliveredNonce
	err = l.storage.SetData(data)
	if err != nil {
		return nil, fmt.Errorf("writing outbound lane data: %w", err)
	}

	l.logger.Debug("received delivery confirmation",
		zap.Stringer("lane", l.storage.ID()),
		zap.Uint64("begin", uint64(confirmed.Begin)),
		zap.Uint64("end", uint64(confirmed.End)))
	return confirmed, nil
}

// confirmedDeliveries validates the unrewarded relayers queue reported by the
// bridged chain and assembles the newly confirmed range with its dispatch
// results. Structural violations mean the bridged chain state is corrupt.
func confirmedDeliveries[R any](
	relayers []UnrewardedRelayer[R],
	latestReceivedNonce MessageNonce,
	latestDeliveredNonce MessageNonce,
) (*DeliveredMessages, error) {
	confirmed := DeliveredMessages{
		Begin: latestReceivedNonce + 1,
		End:   latestDeliveredNonce,
	}

	var expectedBegin MessageNonce
	for i, entry := range relayers {
		total := entry.Messages.TotalMessages()
		if total == 0 {
			return nil, ErrEmptyUnrewardedRelayerEntry
		}
		if entry.Messages.DispatchResults.Size() != uint(total) {
			return nil, ErrInvalidNumberOfDispatchResults
		}
		if i > 0 && entry.Messages.Begin != expectedBegin {
			return nil, ErrNonConsecutiveUnrewardedRelayerEntries
		}
		if entry.Messages.End > latestDeliveredNonce {
			return nil, ErrFailedToConfirmFutureMessages
		}
		expectedBegin = entry.Messages.End + 1

		for nonce := entry.Messages.Begin; nonce <= entry.Messages.End; nonce++ {
			if !confirmed.Contains(nonce) {
				continue
			}
			confirmed.DispatchResults.note(
				entry.Messages.DispatchResults.At(uint(nonce - entry.Messages.Begin)))
		}
	}

	return &confirmed, nil
}

// PruneMessages deletes confirmed messages starting at OldestUnprunedNonce
// until either the weight budget or the confirmed range is exhausted, and
// returns the weight actually spent. The budget must always cover the final
// lane data write, so pruning stops while at least two writes remain.
func (l *OutboundLane[R]) PruneMessages(dbWeight DbWeight, remainingWeight Weight) (Weight, error) {
	var spentWeight Weight

	data, err := l.storage.Data()
	if err != nil {
		return 0, fmt.Errorf("reading outbound lane data: %w", err)
	}

	pruned := 0
	for remainingWeight >= dbWeight.Writes(2) && data.OldestUnprunedNonce <= data.LatestReceivedNonce {
		err = l.storage.RemoveMessage(data.OldestUnprunedNonce)
		if err != nil {
			return spentWeight, fmt.Errorf("pruning message %d: %w", data.OldestUnprunedNonce, err)
		}
		data.OldestUnprunedNonce++
		pruned++

		weight := dbWeight.Writes(1)
		remainingWeight -= weight
		spentWeight += weight
	}

	if spentWeight > 0 {
		spentWeight += dbWeight.Writes(1)
		err = l.storage.SetData(data)
		if err != nil {
			return spentWeight, fmt.Errorf("writing outbound lane data: %w", err)
		}
		l.logger.Debug("pruned messages",
			zap.Stringer("lane", l.storage.ID()),
			zap.Int("count", pruned))
	}

	return spentWeight, nil
}

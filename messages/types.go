// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package messages implements both halves of a bridge message lane: the
// outbound lane on the source chain (send, delivery confirmation, pruning)
// and the inbound lane on the target chain (strictly ordered receipt, relayer
// bookkeeping, confirmation of confirmations). All state transitions are pure
// and synchronous; persistence goes through injected lane storage.
package messages

import (
	"fmt"
	"io"

	"github.com/ChainSafe/gossamer/pkg/scale"
)

// MessageNonce is a per-lane, strictly increasing sequence number identifying
// one message. Nonces are never reused within a lane.
type MessageNonce uint64

// LaneID identifies one independent, ordered message channel between two
// chains.
type LaneID [4]byte

func (l LaneID) String() string {
	return fmt.Sprintf("0x%x", l[:])
}

// MessagePayload is the opaque application payload carried by a message.
type MessagePayload []byte

// MessageKey uniquely identifies a message on the source chain.
type MessageKey struct {
	LaneID LaneID
	Nonce  MessageNonce
}

// Message is a sent message with its key.
type Message struct {
	Key     MessageKey
	Payload MessagePayload
}

// Weight is an execution resource budget, in the units of the embedding
// runtime.
type Weight uint64

// DbWeight is the cost of single database operations.
type DbWeight struct {
	Read  Weight
	Write Weight
}

// Writes returns the weight of n database writes.
func (w DbWeight) Writes(n uint64) Weight {
	return w.Write * Weight(n)
}

// Reads returns the weight of n database reads.
func (w DbWeight) Reads(n uint64) Weight {
	return w.Read * Weight(n)
}

// OutboundLaneData is the persistent state of one outbound lane. The nonce
// counters are monotonic for the life of the lane and satisfy
// OldestUnprunedNonce <= LatestReceivedNonce+1 <= LatestGeneratedNonce+1.
type OutboundLaneData struct {
	// nonce of the oldest message not yet pruned; may point past
	// LatestReceivedNonce when everything confirmed has been pruned
	OldestUnprunedNonce MessageNonce
	// nonce of the latest message for which delivery has been confirmed
	LatestReceivedNonce MessageNonce
	// nonce of the latest message generated on this lane
	LatestGeneratedNonce MessageNonce
}

// NewOutboundLaneData returns the state of a lane before its first message.
func NewOutboundLaneData() OutboundLaneData {
	return OutboundLaneData{OldestUnprunedNonce: 1}
}

// InboundLaneData is the persistent state of one inbound lane.
type InboundLaneData[R any] struct {
	// relayers that have delivered messages not yet confirmed back to the
	// bridged chain, in delivery order; entries are non-empty, disjoint and
	// strictly consecutive
	Relayers []UnrewardedRelayer[R]
	// nonce of the latest message for which the bridged chain is known to have
	// received our delivery confirmation
	LastConfirmedNonce MessageNonce
}

// LastDeliveredNonce returns the nonce of the latest message delivered to
// this lane.
func (d InboundLaneData[R]) LastDeliveredNonce() MessageNonce {
	if len(d.Relayers) == 0 {
		return d.LastConfirmedNonce
	}
	return d.Relayers[len(d.Relayers)-1].Messages.End
}

// UnrewardedRelayer is one relayer with a consecutive range of delivered but
// not yet rewarded messages.
type UnrewardedRelayer[R any] struct {
	Relayer  R
	Messages DeliveredMessages
}

// DeliveredMessages is a consecutive range of delivered message nonces
// together with the dispatch outcome of each.
type DeliveredMessages struct {
	Begin MessageNonce
	End   MessageNonce
	// per-message dispatch outcomes for Begin..End
	DispatchResults DispatchResults
}

// NewDeliveredMessages returns a range holding the single given nonce.
func NewDeliveredMessages(nonce MessageNonce, dispatchResult bool) DeliveredMessages {
	return DeliveredMessages{
		Begin:           nonce,
		End:             nonce,
		DispatchResults: NewDispatchResults(dispatchResult),
	}
}

// TotalMessages returns the number of nonces in the range.
func (d DeliveredMessages) TotalMessages() MessageNonce {
	if d.End < d.Begin {
		return 0
	}
	return d.End - d.Begin + 1
}

// Contains reports whether the nonce is in the range.
func (d DeliveredMessages) Contains(nonce MessageNonce) bool {
	return d.Begin <= nonce && nonce <= d.End
}

// NoteDispatchedMessage appends the next nonce of the range with its dispatch
// outcome.
func (d *DeliveredMessages) NoteDispatchedMessage(dispatchResult bool) {
	d.End++
	d.DispatchResults.note(dispatchResult)
}

// DispatchResults is a compact bitfield of per-message dispatch outcomes.
// It encodes as a compact bit count followed by the bits packed into bytes,
// least significant bit first.
type DispatchResults struct {
	bits []bool
}

// NewDispatchResults returns a bitfield holding the given outcomes.
func NewDispatchResults(results ...bool) DispatchResults {
	return DispatchResults{bits: results}
}

// Size returns the number of recorded outcomes.
func (d DispatchResults) Size() uint {
	return uint(len(d.bits))
}

// At returns the i-th outcome.
func (d DispatchResults) At(i uint) bool {
	return d.bits[i]
}

func (d *DispatchResults) note(result bool) {
	d.bits = append(d.bits, result)
}

// tail returns the results with the first n outcomes dropped.
func (d DispatchResults) tail(n uint) DispatchResults {
	if n >= uint(len(d.bits)) {
		return DispatchResults{}
	}
	bits := make([]bool, len(d.bits)-int(n))
	copy(bits, d.bits[n:])
	return DispatchResults{bits: bits}
}

// MarshalSCALE fulfils the SCALE interface for encoding
func (d DispatchResults) MarshalSCALE() ([]byte, error) {
	encoded, err := scale.Marshal(uint(len(d.bits)))
	if err != nil {
		return nil, err
	}
	return append(encoded, bitsToBytes(d.bits)...), nil
}

// UnmarshalSCALE fulfils the SCALE interface for decoding
func (d *DispatchResults) UnmarshalSCALE(r io.Reader) error {
	var size uint
	decoder := scale.NewDecoder(r)
	err := decoder.Decode(&size)
	if err != nil {
		return err
	}
	if size == 0 {
		d.bits = nil
		return nil
	}
	packed := make([]byte, (size+7)/8)
	_, err = io.ReadFull(r, packed)
	if err != nil {
		return err
	}
	d.bits = bytesToBits(packed, size)
	return nil
}

func bitsToBytes(bits []bool) []byte {
	packed := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			packed[i/8] |= 1 << uint(i%8)
		}
	}
	return packed
}

func bytesToBits(packed []byte, size uint) []bool {
	bits := make([]bool, size)
	for i := range bits {
		bits[i] = packed[i/8]&(1<<uint(i%8)) != 0
	}
	return bits
}

// UnrewardedRelayersState is the snapshot of an inbound lane's relayers queue
// that a confirmation transaction declares up-front, so its cost can be
// checked against what the lane data actually requires.
type UnrewardedRelayersState struct {
	// number of entries in the relayers queue
	UnrewardedRelayerEntries MessageNonce
	// number of messages in the oldest queue entry
	MessagesInOldestEntry MessageNonce
	// total number of messages in the queue
	TotalMessages MessageNonce
	// nonce of the latest delivered message
	LastDeliveredNonce MessageNonce
}

// UnrewardedRelayersStateFor computes the state declared by the given lane
// data.
func UnrewardedRelayersStateFor[R any](data InboundLaneData[R]) UnrewardedRelayersState {
	state := UnrewardedRelayersState{
		UnrewardedRelayerEntries: MessageNonce(len(data.Relayers)),
		LastDeliveredNonce:       data.LastDeliveredNonce(),
	}
	if len(data.Relayers) > 0 {
		state.MessagesInOldestEntry = data.Relayers[0].Messages.TotalMessages()
		state.TotalMessages = data.Relayers[len(data.Relayers)-1].Messages.End -
			data.Relayers[0].Messages.Begin + 1
	}
	return state
}

// ValidUnrewardedRelayersState reports whether a declared state matches the
// lane data extracted from the delivery proof.
func ValidUnrewardedRelayersState[R any](declared UnrewardedRelayersState, data InboundLaneData[R]) bool {
	return declared == UnrewardedRelayersStateFor(data)
}

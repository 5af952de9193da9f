// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/gossamer/pkg/scale"
)

// database key prefixes, always followed by the lane id
var (
	outboundLaneDataPrefix = []byte("outbound_lane_data")
	inboundLaneDataPrefix  = []byte("inbound_lane_data")
	outboundMessagePrefix  = []byte("outbound_message")
)

func outboundLaneDataKey(lane LaneID) []byte {
	return append(outboundLaneDataPrefix, lane[:]...)
}

func inboundLaneDataKey(lane LaneID) []byte {
	return append(inboundLaneDataPrefix, lane[:]...)
}

func outboundMessageKey(lane LaneID, nonce MessageNonce) ([]byte, error) {
	encoded, err := scale.Marshal(MessageKey{LaneID: lane, Nonce: nonce})
	if err != nil {
		return nil, fmt.Errorf("encoding message key: %w", err)
	}
	return append(outboundMessagePrefix, encoded...), nil
}

// DatabaseOutboundLaneStorage persists outbound lane state and message
// payloads in a chaindb database, scale encoded under lane scoped keys.
type DatabaseOutboundLaneStorage struct {
	db   chaindb.Database
	lane LaneID
}

var _ OutboundLaneStorage = (*DatabaseOutboundLaneStorage)(nil)

// NewDatabaseOutboundLaneStorage returns storage for the given lane backed by
// the given database.
func NewDatabaseOutboundLaneStorage(db chaindb.Database, lane LaneID) *DatabaseOutboundLaneStorage {
	return &DatabaseOutboundLaneStorage{db: db, lane: lane}
}

// ID returns the lane id.
func (s *DatabaseOutboundLaneStorage) ID() LaneID {
	return s.lane
}

// Data returns the stored lane state, or the initial state for a lane that
// has not sent anything yet.
func (s *DatabaseOutboundLaneStorage) Data() (OutboundLaneData, error) {
	encoded, err := s.db.Get(outboundLaneDataKey(s.lane))
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return NewOutboundLaneData(), nil
	} else if err != nil {
		return OutboundLaneData{}, fmt.Errorf("reading lane data: %w", err)
	}

	var data OutboundLaneData
	err = scale.Unmarshal(encoded, &data)
	if err != nil {
		return OutboundLaneData{}, fmt.Errorf("decoding lane data: %w", err)
	}
	return data, nil
}

// SetData overwrites the stored lane state.
func (s *DatabaseOutboundLaneStorage) SetData(data OutboundLaneData) error {
	encoded, err := scale.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding lane data: %w", err)
	}
	return s.db.Put(outboundLaneDataKey(s.lane), encoded)
}

// Message returns the stored payload for the given nonce, or nil if it was
// never saved or has been pruned.
func (s *DatabaseOutboundLaneStorage) Message(nonce MessageNonce) (MessagePayload, error) {
	key, err := outboundMessageKey(s.lane, nonce)
	if err != nil {
		return nil, err
	}
	payload, err := s.db.Get(key)
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading message %d: %w", nonce, err)
	}
	return payload, nil
}

// SaveMessage stores the payload under the given nonce.
func (s *DatabaseOutboundLaneStorage) SaveMessage(nonce MessageNonce, payload MessagePayload) error {
	key, err := outboundMessageKey(s.lane, nonce)
	if err != nil {
		return err
	}
	return s.db.Put(key, payload)
}

// RemoveMessage deletes the payload stored under the given nonce.
func (s *DatabaseOutboundLaneStorage) RemoveMessage(nonce MessageNonce) error {
	key, err := outboundMessageKey(s.lane, nonce)
	if err != nil {
		return err
	}
	return s.db.Del(key)
}

// DatabaseInboundLaneStorage persists inbound lane state in a chaindb
// database. The queue bounds are fixed at construction.
type DatabaseInboundLaneStorage[R any] struct {
	db                          chaindb.Database
	lane                        LaneID
	maxUnrewardedRelayerEntries MessageNonce
	maxUnconfirmedMessages      MessageNonce
}

// NewDatabaseInboundLaneStorage returns storage for the given lane backed by
// the given database, carrying the configured queue bounds.
func NewDatabaseInboundLaneStorage[R any](
	db chaindb.Database,
	lane LaneID,
	maxUnrewardedRelayerEntries MessageNonce,
	maxUnconfirmedMessages MessageNonce,
) *DatabaseInboundLaneStorage[R] {
	return &DatabaseInboundLaneStorage[R]{
		db:                          db,
		lane:                        lane,
		maxUnrewardedRelayerEntries: maxUnrewardedRelayerEntries,
		maxUnconfirmedMessages:      maxUnconfirmedMessages,
	}
}

// ID returns the lane id.
func (s *DatabaseInboundLaneStorage[R]) ID() LaneID {
	return s.lane
}

// MaxUnrewardedRelayerEntries returns the relayers queue entries bound.
func (s *DatabaseInboundLaneStorage[R]) MaxUnrewardedRelayerEntries() MessageNonce {
	return s.maxUnrewardedRelayerEntries
}

// MaxUnconfirmedMessages returns the unconfirmed messages bound.
func (s *DatabaseInboundLaneStorage[R]) MaxUnconfirmedMessages() MessageNonce {
	return s.maxUnconfirmedMessages
}

// Data returns the stored lane state, or the initial state for a lane that
// has not received anything yet.
func (s *DatabaseInboundLaneStorage[R]) Data() (InboundLaneData[R], error) {
	encoded, err := s.db.Get(inboundLaneDataKey(s.lane))
	if errors.Is(err, chaindb.ErrKeyNotFound) {
		return InboundLaneData[R]{}, nil
	} else if err != nil {
		return InboundLaneData[R]{}, fmt.Errorf("reading lane data: %w", err)
	}

	var data InboundLaneData[R]
	err = scale.Unmarshal(encoded, &data)
	if err != nil {
		return InboundLaneData[R]{}, fmt.Errorf("decoding lane data: %w", err)
	}
	return data, nil
}

// SetData overwrites the stored lane state.
func (s *DatabaseInboundLaneStorage[R]) SetData(data InboundLaneData[R]) error {
	encoded, err := scale.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding lane data: %w", err)
	}
	return s.db.Put(inboundLaneDataKey(s.lane), encoded)
}

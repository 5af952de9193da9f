// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLaneID = LaneID{0, 0, 0, 1}

type testOutboundStorage struct {
	data     OutboundLaneData
	messages map[MessageNonce]MessagePayload
}

func newTestOutboundStorage() *testOutboundStorage {
	return &testOutboundStorage{
		data:     NewOutboundLaneData(),
		messages: make(map[MessageNonce]MessagePayload),
	}
}

func (s *testOutboundStorage) ID() LaneID { return testLaneID }

func (s *testOutboundStorage) Data() (OutboundLaneData, error) { return s.data, nil }

func (s *testOutboundStorage) SetData(data OutboundLaneData) error {
	s.data = data
	return nil
}

func (s *testOutboundStorage) SaveMessage(nonce MessageNonce, payload MessagePayload) error {
	s.messages[nonce] = payload
	return nil
}

func (s *testOutboundStorage) RemoveMessage(nonce MessageNonce) error {
	delete(s.messages, nonce)
	return nil
}

func newTestOutboundLane(t *testing.T, sent int) (*OutboundLane[string], *testOutboundStorage) {
	t.Helper()
	storage := newTestOutboundStorage()
	lane := NewOutboundLane[string](storage, nil)
	for i := 0; i < sent; i++ {
		_, err := lane.SendMessage(MessagePayload("payload"))
		require.NoError(t, err)
	}
	return lane, storage
}

// a relayer queue entry covering begin..end with successful dispatches
func unrewardedRelayer(relayer string, begin, end MessageNonce) UnrewardedRelayer[string] {
	entry := UnrewardedRelayer[string]{
		Relayer:  relayer,
		Messages: NewDeliveredMessages(begin, true),
	}
	for nonce := begin + 1; nonce <= end; nonce++ {
		entry.Messages.NoteDispatchedMessage(true)
	}
	return entry
}

func TestOutboundLane_SendMessage(t *testing.T) {
	lane, storage := newTestOutboundLane(t, 0)

	for expected := MessageNonce(1); expected <= 3; expected++ {
		nonce, err := lane.SendMessage(MessagePayload("payload"))
		require.NoError(t, err)
		assert.Equal(t, expected, nonce)
	}

	data, err := lane.Data()
	require.NoError(t, err)
	assert.Equal(t, OutboundLaneData{
		OldestUnprunedNonce:  1,
		LatestReceivedNonce:  0,
		LatestGeneratedNonce: 3,
	}, data)
	assert.Len(t, storage.messages, 3)
}

func TestOutboundLane_ConfirmDelivery(t *testing.T) {
	lane, _ := newTestOutboundLane(t, 3)

	confirmed, err := lane.ConfirmDelivery(3, 3, []UnrewardedRelayer[string]{
		unrewardedRelayer("relayer-a", 1, 3),
	})
	require.NoError(t, err)
	require.NotNil(t, confirmed)
	assert.Equal(t, DeliveredMessages{
		Begin:           1,
		End:             3,
		DispatchResults: NewDispatchResults(true, true, true),
	}, *confirmed)

	data, err := lane.Data()
	require.NoError(t, err)
	assert.Equal(t, MessageNonce(3), data.LatestReceivedNonce)

	// replaying the same confirmation is a no-op
	confirmed, err = lane.ConfirmDelivery(3, 3, []UnrewardedRelayer[string]{
		unrewardedRelayer("relayer-a", 1, 3),
	})
	require.NoError(t, err)
	assert.Nil(t, confirmed)
}

func TestOutboundLane_ConfirmDelivery_PartialThenRest(t *testing.T) {
	lane, _ := newTestOutboundLane(t, 3)

	confirmed, err := lane.ConfirmDelivery(3, 1, []UnrewardedRelayer[string]{
		unrewardedRelayer("relayer-a", 1, 1),
	})
	require.NoError(t, err)
	require.NotNil(t, confirmed)
	assert.Equal(t, MessageNonce(1), confirmed.End)

	// the second confirmation only yields the nonces beyond the first one
	confirmed, err = lane.ConfirmDelivery(3, 3, []UnrewardedRelayer[string]{
		unrewardedRelayer("relayer-a", 1, 1),
		unrewardedRelayer("relayer-b", 2, 3),
	})
	require.NoError(t, err)
	require.NotNil(t, confirmed)
	assert.Equal(t, DeliveredMessages{
		Begin:           2,
		End:             3,
		DispatchResults: NewDispatchResults(true, true),
	}, *confirmed)
}

func TestOutboundLane_ConfirmDelivery_Errors(t *testing.T) {
	badResultsCount := unrewardedRelayer("relayer-a", 1, 2)
	badResultsCount.Messages.DispatchResults = NewDispatchResults(true)

	testCases := map[string]struct {
		maxAllowedMessages   MessageNonce
		latestDeliveredNonce MessageNonce
		relayers             []UnrewardedRelayer[string]
		expErr               error
	}{
		"confirming_unsent_messages": {
			maxAllowedMessages:   10,
			latestDeliveredNonce: 10,
			relayers:             []UnrewardedRelayer[string]{unrewardedRelayer("relayer-a", 1, 10)},
			expErr:               ErrFailedToConfirmFutureMessages,
		},
		"confirming_more_than_declared": {
			maxAllowedMessages:   1,
			latestDeliveredNonce: 3,
			relayers:             []UnrewardedRelayer[string]{unrewardedRelayer("relayer-a", 1, 3)},
			expErr:               ErrTryingToConfirmMoreMessagesThanExpected,
		},
		"empty_relayer_entry": {
			maxAllowedMessages:   3,
			latestDeliveredNonce: 3,
			relayers: []UnrewardedRelayer[string]{{
				Relayer:  "relayer-a",
				Messages: DeliveredMessages{Begin: 2, End: 1},
			}},
			expErr: ErrEmptyUnrewardedRelayerEntry,
		},
		"non_consecutive_entries": {
			maxAllowedMessages:   3,
			latestDeliveredNonce: 3,
			relayers: []UnrewardedRelayer[string]{
				unrewardedRelayer("relayer-a", 1, 1),
				unrewardedRelayer("relayer-b", 3, 3),
			},
			expErr: ErrNonConsecutiveUnrewardedRelayerEntries,
		},
		"entry_beyond_confirmation": {
			maxAllowedMessages:   3,
			latestDeliveredNonce: 3,
			relayers:             []UnrewardedRelayer[string]{unrewardedRelayer("relayer-a", 1, 5)},
			expErr:               ErrFailedToConfirmFutureMessages,
		},
		"dispatch_results_count_mismatch": {
			maxAllowedMessages:   3,
			latestDeliveredNonce: 2,
			relayers:             []UnrewardedRelayer[string]{badResultsCount},
			expErr:               ErrInvalidNumberOfDispatchResults,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			lane, storage := newTestOutboundLane(t, 3)
			before := storage.data

			confirmed, err := lane.ConfirmDelivery(
				testCase.maxAllowedMessages, testCase.latestDeliveredNonce, testCase.relayers)
			assert.ErrorIs(t, err, testCase.expErr)
			assert.Nil(t, confirmed)
			// a rejected confirmation changes nothing
			assert.Equal(t, before, storage.data)
		})
	}
}

func TestOutboundLane_PruneMessages(t *testing.T) {
	dbWeight := DbWeight{Read: 1, Write: 10}

	lane, storage := newTestOutboundLane(t, 5)
	_, err := lane.ConfirmDelivery(5, 3, []UnrewardedRelayer[string]{
		unrewardedRelayer("relayer-a", 1, 3),
	})
	require.NoError(t, err)

	// nothing to do within a budget below two writes
	spent, err := lane.PruneMessages(dbWeight, 19)
	require.NoError(t, err)
	assert.Equal(t, Weight(0), spent)
	assert.Len(t, storage.messages, 5)

	// budget for a single message plus the lane data write
	spent, err = lane.PruneMessages(dbWeight, 25)
	require.NoError(t, err)
	assert.Equal(t, Weight(20), spent)
	assert.Equal(t, MessageNonce(2), storage.data.OldestUnprunedNonce)

	// the remaining confirmed messages fit the budget; unconfirmed ones stay
	spent, err = lane.PruneMessages(dbWeight, 100)
	require.NoError(t, err)
	assert.Equal(t, Weight(30), spent)
	assert.Equal(t, MessageNonce(4), storage.data.OldestUnprunedNonce)
	assert.Len(t, storage.messages, 2)

	// nothing confirmed is left to prune
	spent, err = lane.PruneMessages(dbWeight, 100)
	require.NoError(t, err)
	assert.Equal(t, Weight(0), spent)
	assert.Len(t, storage.messages, 2)
}

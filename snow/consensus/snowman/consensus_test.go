// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snowman

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/frostlabs/snowgo/ids"
	"github.com/frostlabs/snowgo/snow"
	"github.com/frostlabs/snowgo/snow/choices"
	"github.com/frostlabs/snowgo/snow/consensus/snowball"
	"github.com/frostlabs/snowgo/utils/bag"
)

var (
	GenesisID     = ids.Empty.Prefix(0)
	GenesisHeight = uint64(0)
	Genesis       = &TestBlock{TestDecidable: choices.TestDecidable{
		IDV:     GenesisID,
		StatusV: choices.Accepted,
	}}

	errTest = errors.New("non-nil error")

	Tests = []func(*testing.T, Factory){
		InitializeTest,
		InvalidParametersTest,
		NumProcessingTest,
		AddToTailTest,
		AddToNonTailTest,
		AddOnUnknownParentTest,
		AddDuplicateTest,
		AddOnRejectedParentTest,
		StatusOrProcessingPreviouslyAcceptedTest,
		StatusOrProcessingPreviouslyRejectedTest,
		StatusOrProcessingUnissuedTest,
		StatusOrProcessingIssuedTest,
		RecordPollAcceptSingleBlockTest,
		RecordPollAcceptAndRejectTest,
		RecordPollSplitVoteNoChangeTest,
		RecordPollWhenFinalizedTest,
		RecordPollRejectTransitivelyTest,
		RecordPollTransitivelyResetConfidenceTest,
		RecordPollTransitivelyAcceptTest,
		RecordPollInvalidVoteTest,
		RecordPollTransitiveVotingTest,
		AbandonUnissuedTest,
		AbandonPendingBlockTest,
		AbandonVotedBlockTest,
		AbandonBlockWithSiblingTest,
		AbandonBlockWithChildTest,
		HealthCheckTest,
		EventDispatcherTest,
		MetricsProcessingErrorTest,
		MetricsAcceptedErrorTest,
		MetricsRejectedErrorTest,
		ErrorOnAcceptTest,
		ErrorOnRejectSiblingTest,
		ErrorOnTransitiveRejectionTest,
	}
)

// Make sure that initialize sets the state correctly
func InitializeTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          3,
		BetaRogue:             5,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	require.Equal(params, sm.Parameters())
	require.Equal(GenesisID, sm.Preference())

	lastAcceptedID, lastAcceptedHeight := sm.LastAccepted()
	require.Equal(GenesisID, lastAcceptedID)
	require.Equal(GenesisHeight, lastAcceptedHeight)

	require.Zero(sm.NumProcessing())
	require.True(sm.Finalized())
}

// Make sure that initializing with invalid parameters errors
func InvalidParametersTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:     1,
		Alpha: 0,
	}
	err := sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight)
	require.ErrorIs(err, snowball.ErrParametersInvalid)
}

// Make sure that the number of processing blocks is tracked correctly
func NumProcessingTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             1,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.Zero(sm.NumProcessing())

	// Adding to the previous preference will update the preference
	require.NoError(sm.Add(block))
	require.Equal(1, sm.NumProcessing())

	votes := bag.Of(block.ID())
	require.NoError(sm.RecordPoll(votes))
	require.Zero(sm.NumProcessing())
}

// Make sure that adding a block to the tail updates the preference
func AddToTailTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          3,
		BetaRogue:             5,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	// Adding to the previous preference will update the preference
	require.NoError(sm.Add(block))
	require.Equal(block.ID(), sm.Preference())
	require.True(sm.IsPreferred(block))
}

// Make sure that adding a block not to the tail doesn't change the preference
func AddToNonTailTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          3,
		BetaRogue:             5,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	firstBlock := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	secondBlock := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	// Adding to the previous preference will update the preference
	require.NoError(sm.Add(firstBlock))
	require.Equal(firstBlock.IDV, sm.Preference())

	// Adding to something other than the previous preference won't update the
	// preference
	require.NoError(sm.Add(secondBlock))
	require.Equal(firstBlock.IDV, sm.Preference())
	require.False(sm.IsPreferred(secondBlock))
}

// Make sure that adding a block whose parent was never issued errors
func AddOnUnknownParentTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          3,
		BetaRogue:             5,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: ids.GenerateTestID(),
		HeightV: Genesis.HeightV + 1,
	}

	err := sm.Add(block)
	require.ErrorIs(err, ErrUnknownParentBlock)
	require.Zero(sm.NumProcessing())
}

// Make sure that adding the same block twice errors
func AddDuplicateTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          3,
		BetaRogue:             5,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(block))

	err := sm.Add(block)
	require.ErrorIs(err, ErrDuplicateAdd)

	// A decided block must have been previously added as well
	acceptedBlock := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Accepted,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	err = sm.Add(acceptedBlock)
	require.ErrorIs(err, ErrDuplicateAdd)
}

// Make sure that adding a block whose parent was rejected rejects the block
func AddOnRejectedParentTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             2,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	acceptedBlock := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	rejectedBlock := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(acceptedBlock))
	require.NoError(sm.Add(rejectedBlock))

	votes := bag.Of(acceptedBlock.ID())
	require.NoError(sm.RecordPoll(votes))
	require.NoError(sm.RecordPoll(votes))

	require.True(sm.Finalized())
	require.Equal(choices.Accepted, acceptedBlock.Status())
	require.Equal(choices.Rejected, rejectedBlock.Status())

	// A block whose parent was rejected should be transitively rejected
	// without an error
	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: rejectedBlock.IDV,
		HeightV: rejectedBlock.HeightV + 1,
	}
	require.NoError(sm.Add(block))
	require.Equal(choices.Rejected, block.Status())
	require.Zero(sm.NumProcessing())
}

func StatusOrProcessingPreviouslyAcceptedTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          3,
		BetaRogue:             5,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	require.True(sm.Decided(Genesis))
	require.False(sm.Processing(Genesis.ID()))
	require.True(sm.IsPreferred(Genesis))
}

func StatusOrProcessingPreviouslyRejectedTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          3,
		BetaRogue:             5,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Rejected,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.True(sm.Decided(block))
	require.False(sm.Processing(block.ID()))
	require.False(sm.IsPreferred(block))
}

func StatusOrProcessingUnissuedTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          3,
		BetaRogue:             5,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.False(sm.Decided(block))
	require.False(sm.Processing(block.ID()))
	require.False(sm.IsPreferred(block))
}

func StatusOrProcessingIssuedTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          3,
		BetaRogue:             5,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(block))

	require.False(sm.Decided(block))
	require.True(sm.Processing(block.ID()))
	require.True(sm.IsPreferred(block))
}

func RecordPollAcceptSingleBlockTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          2,
		BetaRogue:             3,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(block))

	votes := bag.Of(block.ID())
	require.NoError(sm.RecordPoll(votes))
	require.False(sm.Finalized())
	require.Equal(choices.Processing, block.Status())

	require.NoError(sm.RecordPoll(votes))
	require.True(sm.Finalized())
	require.Equal(choices.Accepted, block.Status())

	lastAcceptedID, lastAcceptedHeight := sm.LastAccepted()
	require.Equal(block.ID(), lastAcceptedID)
	require.Equal(block.Height(), lastAcceptedHeight)
}

func RecordPollAcceptAndRejectTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             2,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	firstBlock := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	secondBlock := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(firstBlock))
	require.NoError(sm.Add(secondBlock))

	votes := bag.Of(firstBlock.ID())

	require.NoError(sm.RecordPoll(votes))
	require.False(sm.Finalized())
	require.Equal(choices.Processing, firstBlock.Status())
	require.Equal(choices.Processing, secondBlock.Status())

	require.NoError(sm.RecordPoll(votes))
	require.True(sm.Finalized())
	require.Equal(choices.Accepted, firstBlock.Status())
	require.Equal(choices.Rejected, secondBlock.Status())
}

func RecordPollSplitVoteNoChangeTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     2,
		Alpha:                 2,
		BetaVirtuous:          1,
		BetaRogue:             2,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	firstBlock := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	secondBlock := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(firstBlock))
	require.NoError(sm.Add(secondBlock))

	// A poll that splits the vote between the two conflicting blocks can't
	// give either choice an alpha majority
	splitVotes := bag.Of(firstBlock.ID(), secondBlock.ID())
	require.NoError(sm.RecordPoll(splitVotes))
	require.False(sm.Finalized())
	require.Equal(firstBlock.ID(), sm.Preference())

	require.NoError(sm.RecordPoll(splitVotes))
	require.False(sm.Finalized())
	require.Equal(firstBlock.ID(), sm.Preference())

	firstVotes := bag.Of(firstBlock.ID(), firstBlock.ID())
	require.NoError(sm.RecordPoll(firstVotes))
	require.False(sm.Finalized())

	require.NoError(sm.RecordPoll(firstVotes))
	require.True(sm.Finalized())
	require.Equal(choices.Accepted, firstBlock.Status())
	require.Equal(choices.Rejected, secondBlock.Status())
}

func RecordPollWhenFinalizedTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             2,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	// Votes for the last accepted block are dropped
	votes := bag.Of(GenesisID)
	require.NoError(sm.RecordPoll(votes))
	require.True(sm.Finalized())
	require.Equal(GenesisID, sm.Preference())
}

func RecordPollRejectTransitivelyTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             1,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block0 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	block1 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	block2 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: block1.IDV,
		HeightV: block1.HeightV + 1,
	}

	// Current graph structure:
	//   G
	//  / \
	// 0   1
	//     |
	//     2
	require.NoError(sm.Add(block0))
	require.NoError(sm.Add(block1))
	require.NoError(sm.Add(block2))

	// Because block0 is accepted, block1 and block2 are rejected
	votes := bag.Of(block0.ID())
	require.NoError(sm.RecordPoll(votes))

	require.True(sm.Finalized())
	require.Equal(block0.ID(), sm.Preference())
	require.Equal(choices.Accepted, block0.Status())
	require.Equal(choices.Rejected, block1.Status())
	require.Equal(choices.Rejected, block2.Status())
}

func RecordPollTransitivelyResetConfidenceTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          2,
		BetaRogue:             2,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	require.NoError(sm.Add(block))

	votes := bag.Of(block.ID())
	require.NoError(sm.RecordPoll(votes))
	require.False(sm.Finalized())

	// A failed poll resets the confidence of the whole preferred branch
	emptyVotes := bag.Bag[ids.ID]{}
	require.NoError(sm.RecordPoll(emptyVotes))
	require.False(sm.Finalized())

	require.NoError(sm.RecordPoll(votes))
	require.False(sm.Finalized())

	require.NoError(sm.RecordPoll(votes))
	require.True(sm.Finalized())
	require.Equal(choices.Accepted, block.Status())
}

func RecordPollTransitivelyAcceptTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          2,
		BetaRogue:             2,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block0 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	block1 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: block0.IDV,
		HeightV: block0.HeightV + 1,
	}

	// Current graph structure:
	// G
	// |
	// 0
	// |
	// 1
	require.NoError(sm.Add(block0))
	require.NoError(sm.Add(block1))

	// Voting for the leaf of the chain votes for the entire chain
	votes := bag.Of(block1.ID())
	require.NoError(sm.RecordPoll(votes))
	require.False(sm.Finalized())

	// An empty poll defers the confidence reset into the chain
	emptyVotes := bag.Bag[ids.ID]{}
	require.NoError(sm.RecordPoll(emptyVotes))
	require.False(sm.Finalized())

	require.NoError(sm.RecordPoll(votes))
	require.False(sm.Finalized())
	require.Equal(choices.Processing, block0.Status())
	require.Equal(choices.Processing, block1.Status())

	// Both blocks finalize in the same poll
	require.NoError(sm.RecordPoll(votes))
	require.True(sm.Finalized())
	require.Equal(choices.Accepted, block0.Status())
	require.Equal(choices.Accepted, block1.Status())

	lastAcceptedID, lastAcceptedHeight := sm.LastAccepted()
	require.Equal(block1.ID(), lastAcceptedID)
	require.Equal(block1.Height(), lastAcceptedHeight)
}

func RecordPollInvalidVoteTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          2,
		BetaRogue:             2,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	unknownBlockID := ids.GenerateTestID()

	require.NoError(sm.Add(block))

	validVotes := bag.Of(block.ID())
	require.NoError(sm.RecordPoll(validVotes))

	// Vote for a block that isn't in consensus. The vote is dropped, so the
	// poll fails and the confidence is reset.
	invalidVotes := bag.Of(unknownBlockID)
	require.NoError(sm.RecordPoll(invalidVotes))

	require.NoError(sm.RecordPoll(validVotes))
	require.False(sm.Finalized())

	require.NoError(sm.RecordPoll(validVotes))
	require.True(sm.Finalized())
	require.Equal(block.ID(), sm.Preference())
}

func RecordPollTransitiveVotingTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     3,
		Alpha:                 2,
		BetaVirtuous:          1,
		BetaRogue:             1,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block0 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	block1 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: block0.IDV,
		HeightV: block0.HeightV + 1,
	}
	block2 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: block1.IDV,
		HeightV: block1.HeightV + 1,
	}
	block3 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: block0.IDV,
		HeightV: block0.HeightV + 1,
	}

	// Current graph structure:
	//   G
	//   |
	//   0
	//  / \
	// 1   3
	// |
	// 2
	require.NoError(sm.Add(block0))
	require.NoError(sm.Add(block1))
	require.NoError(sm.Add(block2))
	require.NoError(sm.Add(block3))

	// Because the votes for block2 are transitively votes for block1 and
	// block0, block0 and block1 are accepted and block3 is rejected in a
	// single poll.
	votes := bag.Of(block2.ID(), block2.ID(), block3.ID())
	require.NoError(sm.RecordPoll(votes))

	require.True(sm.Finalized())
	require.Equal(block2.ID(), sm.Preference())
	require.Equal(choices.Accepted, block0.Status())
	require.Equal(choices.Accepted, block1.Status())
	require.Equal(choices.Accepted, block2.Status())
	require.Equal(choices.Rejected, block3.Status())

	lastAcceptedID, lastAcceptedHeight := sm.LastAccepted()
	require.Equal(block2.ID(), lastAcceptedID)
	require.Equal(block2.Height(), lastAcceptedHeight)
}

// Make sure that abandoning a block that was never issued is a noop
func AbandonUnissuedTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          2,
		BetaRogue:             3,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	require.NoError(sm.Abandon(ids.GenerateTestID()))
	require.NoError(sm.Abandon(GenesisID))
	require.True(sm.Finalized())
}

// Make sure that a pending block that never received votes can be abandoned
func AbandonPendingBlockTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          2,
		BetaRogue:             3,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(block))
	require.Equal(block.ID(), sm.Preference())

	require.NoError(sm.Abandon(block.ID()))
	require.Equal(choices.Rejected, block.Status())
	require.Equal(GenesisID, sm.Preference())
	require.Zero(sm.NumProcessing())
	require.True(sm.Finalized())

	// The genesis can be built on again after the abandon
	replacement := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	require.NoError(sm.Add(replacement))
	require.Equal(replacement.ID(), sm.Preference())

	// A block that builds on the abandoned block is transitively rejected
	child := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: block.IDV,
		HeightV: block.HeightV + 1,
	}
	require.NoError(sm.Add(child))
	require.Equal(choices.Rejected, child.Status())
}

// Make sure that a block that has received votes can't be abandoned
func AbandonVotedBlockTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          2,
		BetaRogue:             3,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(block))

	votes := bag.Of(block.ID())
	require.NoError(sm.RecordPoll(votes))
	require.False(sm.Finalized())

	err := sm.Abandon(block.ID())
	require.ErrorIs(err, ErrAbandonVoted)
	require.Equal(choices.Processing, block.Status())
}

// Make sure that a block with a processing sibling can't be abandoned
func AbandonBlockWithSiblingTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          2,
		BetaRogue:             3,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block0 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	block1 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(block0))
	require.NoError(sm.Add(block1))

	err := sm.Abandon(block0.ID())
	require.ErrorIs(err, ErrAbandonVoted)

	err = sm.Abandon(block1.ID())
	require.ErrorIs(err, ErrAbandonVoted)
}

// Make sure that a block with processing children can't be abandoned, but its
// leaf child can
func AbandonBlockWithChildTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          2,
		BetaRogue:             3,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block0 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	block1 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: block0.IDV,
		HeightV: block0.HeightV + 1,
	}

	require.NoError(sm.Add(block0))
	require.NoError(sm.Add(block1))

	err := sm.Abandon(block0.ID())
	require.ErrorIs(err, ErrAbandonVoted)

	require.NoError(sm.Abandon(block1.ID()))
	require.Equal(choices.Rejected, block1.Status())
	require.Equal(block0.ID(), sm.Preference())
	require.Equal(1, sm.NumProcessing())
}

func HealthCheckTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          2,
		BetaRogue:             3,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: time.Minute,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	details, err := sm.HealthCheck()
	require.NoError(err)
	require.NotNil(details)

	block0 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	block1 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: block0.IDV,
		HeightV: block0.HeightV + 1,
	}

	require.NoError(sm.Add(block0))
	require.NoError(sm.Add(block1))

	_, err = sm.HealthCheck()
	require.ErrorContains(err, "number of outstanding blocks")
}

// eventCollector records the decisions dispatched by consensus.
type eventCollector struct {
	issued, accepted, rejected, preferred []ids.ID
}

func (e *eventCollector) Issue(_ *snow.Context, containerID ids.ID, _ []byte) {
	e.issued = append(e.issued, containerID)
}

func (e *eventCollector) Accept(_ *snow.Context, containerID ids.ID, _ []byte) {
	e.accepted = append(e.accepted, containerID)
}

func (e *eventCollector) Reject(_ *snow.Context, containerID ids.ID, _ []byte) {
	e.rejected = append(e.rejected, containerID)
}

func (e *eventCollector) PreferenceChanged(_ *snow.Context, containerID ids.ID) {
	e.preferred = append(e.preferred, containerID)
}

func EventDispatcherTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             2,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	collector := &eventCollector{}
	ctx := snow.DefaultContextTest()
	ctx.Decisions = collector
	require.NoError(sm.Initialize(ctx, params, GenesisID, GenesisHeight))

	firstBlock := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	secondBlock := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(firstBlock))
	require.Equal([]ids.ID{firstBlock.ID()}, collector.issued)
	require.Equal([]ids.ID{firstBlock.ID()}, collector.preferred)

	require.NoError(sm.Add(secondBlock))
	require.Equal([]ids.ID{firstBlock.ID(), secondBlock.ID()}, collector.issued)
	require.Equal([]ids.ID{firstBlock.ID()}, collector.preferred)

	votes := bag.Of(firstBlock.ID())
	require.NoError(sm.RecordPoll(votes))
	require.NoError(sm.RecordPoll(votes))

	require.Equal([]ids.ID{firstBlock.ID()}, collector.accepted)
	require.Equal([]ids.ID{secondBlock.ID()}, collector.rejected)
}

func MetricsProcessingErrorTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             2,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	ctx := snow.DefaultContextTest()

	numProcessing := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blks_processing",
	})
	require.NoError(ctx.Registerer.Register(numProcessing))

	err := sm.Initialize(ctx, params, GenesisID, GenesisHeight)
	require.Error(err)
}

func MetricsAcceptedErrorTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             2,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	ctx := snow.DefaultContextTest()

	numAccepted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blks_accepted",
	})
	require.NoError(ctx.Registerer.Register(numAccepted))

	err := sm.Initialize(ctx, params, GenesisID, GenesisHeight)
	require.Error(err)
}

func MetricsRejectedErrorTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             2,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	ctx := snow.DefaultContextTest()

	numRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blks_rejected",
	})
	require.NoError(ctx.Registerer.Register(numRejected))

	err := sm.Initialize(ctx, params, GenesisID, GenesisHeight)
	require.Error(err)
}

func ErrorOnAcceptTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             1,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			AcceptV: errTest,
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(block))

	votes := bag.Of(block.ID())
	err := sm.RecordPoll(votes)
	require.ErrorIs(err, errTest)
}

func ErrorOnRejectSiblingTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             1,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block0 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	block1 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			RejectV: errTest,
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}

	require.NoError(sm.Add(block0))
	require.NoError(sm.Add(block1))

	votes := bag.Of(block0.ID())
	err := sm.RecordPoll(votes)
	require.ErrorIs(err, errTest)
}

func ErrorOnTransitiveRejectionTest(t *testing.T, factory Factory) {
	require := require.New(t)

	sm := factory.New()

	params := snowball.Parameters{
		K:                     1,
		Alpha:                 1,
		BetaVirtuous:          1,
		BetaRogue:             1,
		ConcurrentRepolls:     1,
		OptimalProcessing:     1,
		MaxOutstandingItems:   1,
		MaxItemProcessingTime: 1,
	}
	require.NoError(sm.Initialize(snow.DefaultContextTest(), params, GenesisID, GenesisHeight))

	block0 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	block1 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			StatusV: choices.Processing,
		},
		ParentV: Genesis.IDV,
		HeightV: Genesis.HeightV + 1,
	}
	block2 := &TestBlock{
		TestDecidable: choices.TestDecidable{
			IDV:     ids.GenerateTestID(),
			RejectV: errTest,
			StatusV: choices.Processing,
		},
		ParentV: block1.IDV,
		HeightV: block1.HeightV + 1,
	}

	require.NoError(sm.Add(block0))
	require.NoError(sm.Add(block1))
	require.NoError(sm.Add(block2))

	votes := bag.Of(block0.ID())
	err := sm.RecordPoll(votes)
	require.ErrorIs(err, errTest)
}

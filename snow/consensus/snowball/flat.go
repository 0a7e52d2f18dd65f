// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snowball

import (
	"github.com/frostlabs/snowgo/ids"
	"github.com/frostlabs/snowgo/utils/bag"
)

var (
	_ Factory   = (*FlatFactory)(nil)
	_ Consensus = (*Flat)(nil)
)

// FlatFactory implements Factory by returning a flat struct
type FlatFactory struct{}

func (FlatFactory) New() Consensus {
	return &Flat{}
}

// Flat is a naive implementation of a multi-choice snowball instance
type Flat struct {
	// wraps the n-nary snowball logic
	nnarySnowball

	// params contains all the configurations of a snowball instance
	params Parameters
}

func (f *Flat) Initialize(params Parameters, choice ids.ID) {
	f.nnarySnowball.Initialize(params.BetaVirtuous, params.BetaRogue, choice)
	f.params = params
}

func (f *Flat) Parameters() Parameters {
	return f.params
}

func (f *Flat) RecordPoll(votes bag.Bag[ids.ID]) bool {
	pollMode, numVotes := votes.Mode()
	if numVotes < f.params.Alpha {
		f.RecordUnsuccessfulPoll()
		return false
	}
	f.RecordSuccessfulPoll(pollMode)
	return true
}

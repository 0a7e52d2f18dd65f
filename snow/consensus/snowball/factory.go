// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snowball

// Factory returns new instances of Consensus
type Factory interface {
	New() Consensus
}

var _ Factory = (*TreeFactory)(nil)

// TreeFactory implements Factory by returning a tree struct
type TreeFactory struct{}

func (TreeFactory) New() Consensus {
	return &Tree{}
}

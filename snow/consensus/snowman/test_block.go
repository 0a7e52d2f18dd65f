// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snowman

import (
	"sort"
	"time"

	"github.com/frostlabs/snowgo/ids"
	"github.com/frostlabs/snowgo/snow/choices"
)

var _ Block = (*TestBlock)(nil)

// TestBlock is a useful test block
type TestBlock struct {
	choices.TestDecidable

	ParentV    ids.ID
	HeightV    uint64
	TimestampV time.Time
	VerifyV    error
	BytesV     []byte
}

func (b *TestBlock) Parent() ids.ID {
	return b.ParentV
}

func (b *TestBlock) Height() uint64 {
	return b.HeightV
}

func (b *TestBlock) Timestamp() time.Time {
	return b.TimestampV
}

func (b *TestBlock) Verify() error {
	return b.VerifyV
}

func (b *TestBlock) Bytes() []byte {
	return b.BytesV
}

// SortTestBlocks sorts the array of blocks by height
func SortTestBlocks(blocks []*TestBlock) {
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].HeightV < blocks[j].HeightV
	})
}

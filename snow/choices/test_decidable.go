// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package choices

import (
	"fmt"

	"github.com/frostlabs/snowgo/ids"
)

var _ Decidable = (*TestDecidable)(nil)

// TestDecidable is a test Decidable
type TestDecidable struct {
	IDV              ids.ID
	AcceptV, RejectV error
	StatusV          Status
}

func (d *TestDecidable) ID() ids.ID {
	return d.IDV
}

func (d *TestDecidable) Accept() error {
	switch d.StatusV {
	case Unknown, Processing:
		d.StatusV = Accepted
		return d.AcceptV
	default:
		return fmt.Errorf("invalid state transition from %s to %s",
			d.StatusV, Accepted)
	}
}

func (d *TestDecidable) Reject() error {
	switch d.StatusV {
	case Unknown, Processing:
		d.StatusV = Rejected
		return d.RejectV
	default:
		return fmt.Errorf("invalid state transition from %s to %s",
			d.StatusV, Rejected)
	}
}

func (d *TestDecidable) Status() Status {
	return d.StatusV
}

// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package choices

import (
	"errors"
)

// Status describes where a decidable element is in its lifecycle.
type Status uint32

const (
	// Unknown means the element is not known to consensus
	Unknown Status = iota

	// Processing means the element was issued to consensus and hasn't been
	// decided yet
	Processing

	// Rejected means the element will never be accepted by any correct node
	Rejected

	// Accepted means the element was accepted and is final
	Accepted
)

var errUnknownStatus = errors.New("unknown status")

// Fetched returns true if the status has been set
func (s Status) Fetched() bool {
	switch s {
	case Processing:
		return true
	default:
		return s.Decided()
	}
}

// Decided returns true if the status is terminal
func (s Status) Decided() bool {
	switch s {
	case Rejected, Accepted:
		return true
	default:
		return false
	}
}

// Valid returns nil if the status is a recognized value
func (s Status) Valid() error {
	switch s {
	case Unknown, Processing, Rejected, Accepted:
		return nil
	default:
		return errUnknownStatus
	}
}

func (s Status) String() string {
	switch s {
	case Unknown:
		return "Unknown"
	case Processing:
		return "Processing"
	case Rejected:
		return "Rejected"
	case Accepted:
		return "Accepted"
	default:
		return "Invalid status"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	if err := s.Valid(); err != nil {
		return nil, err
	}
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Status) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "null":
	case `"Unknown"`:
		*s = Unknown
	case `"Processing"`:
		*s = Processing
	case `"Rejected"`:
		*s = Rejected
	case `"Accepted"`:
		*s = Accepted
	default:
		return errUnknownStatus
	}
	return nil
}

// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snow

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/frostlabs/snowgo/ids"
	"github.com/frostlabs/snowgo/utils/logging"
)

// Context is information about the chain a consensus instance is running on.
// [NetworkID] is the ID of the network this context exists within.
// [ChainID] is the ID of the chain this context exists within.
type Context struct {
	NetworkID uint32
	ChainID   ids.ID

	Log        logging.Logger
	Registerer prometheus.Registerer

	// Decisions is notified whenever the consensus instance issues or decides
	// a container.
	Decisions EventDispatcher
}

// DefaultContextTest returns a context that should only be used in tests.
func DefaultContextTest() *Context {
	return &Context{
		Log:        logging.NoLog{},
		Registerer: prometheus.NewRegistry(),
		Decisions:  NoOpEventDispatcher{},
	}
}

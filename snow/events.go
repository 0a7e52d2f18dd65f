// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snow

import "github.com/frostlabs/snowgo/ids"

// EventDispatcher fans consensus decisions out to subscribers that live
// outside the consensus core, such as indexers, networking, and telemetry.
//
// Dispatch happens synchronously on the consensus goroutine. Implementations
// must return quickly and must not call back into the consensus instance.
type EventDispatcher interface {
	// Issue is called when a container is added to consensus.
	Issue(ctx *Context, containerID ids.ID, container []byte)

	// Accept is called when a container is accepted, before the container's
	// own Accept callback runs.
	Accept(ctx *Context, containerID ids.ID, container []byte)

	// Reject is called when a container is rejected, before the container's
	// own Reject callback runs.
	Reject(ctx *Context, containerID ids.ID, container []byte)

	// PreferenceChanged is called when the preferred tail of the chain moves
	// to a different container.
	PreferenceChanged(ctx *Context, containerID ids.ID)
}

var _ EventDispatcher = NoOpEventDispatcher{}

// NoOpEventDispatcher drops all events.
type NoOpEventDispatcher struct{}

func (NoOpEventDispatcher) Issue(*Context, ids.ID, []byte)  {}
func (NoOpEventDispatcher) Accept(*Context, ids.ID, []byte) {}
func (NoOpEventDispatcher) Reject(*Context, ids.ID, []byte) {}
func (NoOpEventDispatcher) PreferenceChanged(*Context, ids.ID) {}

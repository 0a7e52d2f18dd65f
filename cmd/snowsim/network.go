// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/frostlabs/snowgo/ids"
	"github.com/frostlabs/snowgo/snow/consensus/snowball"
	"github.com/frostlabs/snowgo/utils/bag"
	"github.com/frostlabs/snowgo/utils/sampler"
)

// network simulates a group of nodes repeatedly polling each other over the
// same set of conflicting choices.
type network struct {
	params         snowball.Parameters
	colors         []ids.ID
	source         sampler.Source
	nodes, running []snowball.Consensus
}

func newNetwork(params snowball.Parameters, numColors int, source sampler.Source) *network {
	n := &network{
		params: params,
		source: source,
	}
	for i := 0; i < numColors; i++ {
		n.colors = append(n.colors, ids.Empty.Prefix(uint64(i)))
	}
	return n
}

func (n *network) shuffleColors() {
	s := sampler.NewDeterministicUniform(n.source)
	s.Initialize(uint64(len(n.colors)))
	indices, _ := s.Sample(len(n.colors))
	colors := []ids.ID(nil)
	for _, index := range indices {
		colors = append(colors, n.colors[int(index)])
	}
	n.colors = colors
}

// addNode initializes a new consensus instance with a randomly shuffled view
// of the colors and adds it to the network.
func (n *network) addNode(sb snowball.Consensus) {
	n.shuffleColors()
	sb.Initialize(n.params, n.colors[0])
	for _, color := range n.colors[1:] {
		sb.Add(color)
	}

	n.nodes = append(n.nodes, sb)
	if !sb.Finalized() {
		n.running = append(n.running, sb)
	}
}

func (n *network) finalized() bool {
	return len(n.running) == 0
}

// round performs a single poll on a randomly selected running node.
func (n *network) round() {
	if len(n.running) == 0 {
		return
	}

	s := sampler.NewDeterministicUniform(n.source)
	s.Initialize(uint64(len(n.running)))
	runningInd, _ := s.Next()
	running := n.running[runningInd]

	s.Initialize(uint64(len(n.nodes)))
	indices, _ := s.Sample(n.params.K)
	sampledColors := bag.Bag[ids.ID]{}
	for _, index := range indices {
		peer := n.nodes[int(index)]
		sampledColors.Add(peer.Preference())
	}

	running.RecordPoll(sampledColors)

	if running.Finalized() {
		newSize := len(n.running) - 1
		n.running[runningInd] = n.running[newSize]
		n.running = n.running[:newSize]
	}
}

// disagreement returns true if two finalized correct nodes prefer different
// choices.
func (n *network) disagreement() bool {
	for _, node := range n.nodes {
		if _, ok := node.(*byzantine); ok {
			continue
		}
		for _, otherNode := range n.nodes {
			if _, ok := otherNode.(*byzantine); ok {
				continue
			}
			if node.Finalized() && otherNode.Finalized() &&
				node.Preference() != otherNode.Preference() {
				return true
			}
		}
	}
	return false
}

var _ snowball.Consensus = (*byzantine)(nil)

// byzantine is a naive byzantine implementation of the snowball interface. It
// registers in polls with whatever preference it was initialized with and
// never changes its mind.
type byzantine struct {
	params     snowball.Parameters
	preference ids.ID
}

func (b *byzantine) Initialize(params snowball.Parameters, choice ids.ID) {
	b.params = params
	b.preference = choice
}

func (b *byzantine) Parameters() snowball.Parameters {
	return b.params
}

func (*byzantine) Add(ids.ID) {}

func (b *byzantine) Preference() ids.ID {
	return b.preference
}

func (*byzantine) RecordPoll(bag.Bag[ids.ID]) bool {
	return false
}

func (*byzantine) RecordUnsuccessfulPoll() {}

func (*byzantine) Finalized() bool {
	return true
}

func (b *byzantine) String() string {
	return b.preference.String()
}

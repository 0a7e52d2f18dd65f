// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snowball

import (
	"fmt"
	"strings"

	"github.com/frostlabs/snowgo/ids"
	"github.com/frostlabs/snowgo/utils/bag"
)

var _ Consensus = (*Tree)(nil)

// Tree implements the snowball interface by using a modified patricia tree.
type Tree struct {
	// node is the root that represents the first snowball instance in the
	// tree, and contains references to all the other snowball instances in
	// the tree.
	node

	// params contains all the configurations of a snowball instance
	params Parameters

	// shouldReset is used as a flag to indicate that snowball should either
	// reset the confidence counters of the current preferred branch, or to
	// initialize the counters of any newly provided choices. This is needed
	// because snowball doesn't call RecordUnsuccessfulPoll on the nodes of
	// the branch when an unsuccessful poll is recorded, it only sets this
	// flag and performs the reset lazily during the next RecordPoll.
	shouldReset bool
}

func (t *Tree) Initialize(params Parameters, choice ids.ID) {
	t.params = params

	snowball := &unarySnowball{}
	snowball.Initialize(params.BetaVirtuous)

	t.node = &unaryNode{
		tree:         t,
		preference:   choice,
		commonPrefix: ids.NumBits, // The initial state has no conflicts
		snowball:     snowball,
	}
}

func (t *Tree) Parameters() Parameters {
	return t.params
}

func (t *Tree) Add(choice ids.ID) {
	prefix := t.node.DecidedPrefix()
	// Make sure that we haven't already decided against this new id
	if ids.EqualSubset(0, prefix, t.Preference(), choice) {
		t.node = t.node.Add(choice)
	}
}

func (t *Tree) RecordPoll(votes bag.Bag[ids.ID]) bool {
	// Get the assumed decided prefix of the root node.
	decidedPrefix := t.node.DecidedPrefix()

	// If any of the bits differ from the preference in this prefix, the vote
	// is for a rejected operation. So, we filter out these invalid votes.
	preference := t.Preference()
	filteredVotes := votes.Filter(func(id ids.ID) bool {
		return ids.EqualSubset(0, decidedPrefix, preference, id)
	})

	// Now that the votes have been restricted to valid votes, pass them into
	// the first snowball instance
	var successful bool
	t.node, successful = t.node.RecordPoll(filteredVotes, t.shouldReset)

	// Because we just passed the reset into the snowball instance, we should
	// no longer reset.
	t.shouldReset = false
	return successful
}

func (t *Tree) RecordUnsuccessfulPoll() {
	t.shouldReset = true
}

func (t *Tree) String() string {
	sb := strings.Builder{}

	prefixes := []string{""}
	nodes := []node{t.node}

	for len(prefixes) > 0 {
		newSize := len(prefixes) - 1

		prefix := prefixes[newSize]
		prefixes = prefixes[:newSize]

		node := nodes[newSize]
		nodes = nodes[:newSize]

		s, newNodes := node.Printable()

		sb.WriteString(prefix)
		sb.WriteString(s)
		sb.WriteString("\n")

		newPrefix := prefix + "    "
		for range newNodes {
			prefixes = append(prefixes, newPrefix)
		}
		nodes = append(nodes, newNodes...)
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

// node is a member of the patricia tree of snowball instances
type node interface {
	// Preference returns the preferred choice of this sub-tree
	Preference() ids.ID

	// DecidedPrefix returns the number of assumed decided bits of this node
	DecidedPrefix() int

	// Add a new choice to vote on. Returns the new root of the sub-tree that
	// this node was the root of.
	Add(newChoice ids.ID) node

	// RecordPoll applies the votes and resets the model if needed. Returns
	// the new root of the sub-tree that this node was the root of, and true
	// if the poll was successful for this instance.
	RecordPoll(votes bag.Bag[ids.ID], shouldReset bool) (node, bool)

	// Finalized returns true if consensus has been reached on this node
	Finalized() bool

	// Printable returns the string representation of this node, along with
	// the nodes of its children
	Printable() (string, []node)
}

// unaryNode is a node with either no children, or a single child. It handles
// the voting on a range of identical, virtuous, snowball instances.
type unaryNode struct {
	// tree references the tree that contains this node
	tree *Tree

	// preference is the choice that is preferred at every branch in this
	// sub-tree
	preference ids.ID

	// decidedPrefix is the last bit in the prefix that is assumed to be
	// decided
	decidedPrefix int // Will be in the range [0, 255)

	// commonPrefix is the last bit in the prefix that this node transitively
	// references
	commonPrefix int // Will be in the range (decidedPrefix, 256)

	// snowball wraps the snowball logic
	snowball UnarySnowball

	// shouldReset is used as an optimization to prevent needless tree
	// traversals. If a snowball instance does not get an alpha majority, that
	// instance needs to reset by calling RecordUnsuccessfulPoll. Because the
	// tree splits votes based on the branch, when an instance doesn't get an
	// alpha majority none of the children of this instance can get an alpha
	// majority. To avoid calling RecordUnsuccessfulPoll on the full sub-tree
	// of a node that didn't get an alpha majority, shouldReset is used to
	// indicate that any subsequent traversal into this sub-tree should call
	// RecordUnsuccessfulPoll before performing any other action.
	shouldReset bool

	// child is the, possibly nil, node that votes on the next bits in the
	// decision
	child node
}

func (u *unaryNode) Preference() ids.ID {
	return u.preference
}

func (u *unaryNode) DecidedPrefix() int {
	return u.decidedPrefix
}

// This is by far the most complicated function in this codebase.
// The intuition is that this instance represents a series of consecutive
// unary snowball instances, and this function's purpose is to convert one of
// these unary snowball instances into a binary snowball instance.
// There are 5 possible cases.
//
//  1. None of these instances should be split, we should attempt to split a
//     child
//
//  2. This instance represents a series of only one unary instance and it
//     must be split
//
//  3. This instance must be split on the first bit
//
//  4. This instance must be split on the last bit
//
//  5. This instance must be split on an interior bit
func (u *unaryNode) Add(newChoice ids.ID) node {
	if u.Finalized() {
		return u // Only happens if the tree is finalized, or it's a leaf node
	}

	index, found := ids.FirstDifferenceSubset(
		u.decidedPrefix, u.commonPrefix, u.preference, newChoice)
	if !found {
		// If the first difference doesn't exist, then this node shouldn't be
		// split
		if u.child != nil {
			// Because this node will finalize before any children could
			// finalize, it must be that the newChoice will match my child's
			// prefix. (Case 1. from above)
			u.child = u.child.Add(newChoice)
		}
		// if u.child is nil, then we are attempting to add the same choice
		// into the tree, which should be a noop
		return u
	}

	// The difference was found, so this node must be split

	bit := u.preference.Bit(uint(index)) // The currently preferred bit
	b := &binaryNode{
		tree:        u.tree,
		bit:         index,
		snowball:    u.snowball.Extend(u.tree.params.BetaRogue, bit),
		shouldReset: [2]bool{u.shouldReset, u.shouldReset},
	}
	b.preferences[bit] = u.preference
	b.preferences[1-bit] = newChoice

	newChildSnowball := &unarySnowball{}
	newChildSnowball.Initialize(u.tree.params.BetaVirtuous)
	newChild := &unaryNode{
		tree:          u.tree,
		preference:    newChoice,
		decidedPrefix: index + 1,   // The new child assumes this branch has decided in its favor
		commonPrefix:  ids.NumBits, // The new child has no conflicts under this branch
		snowball:      newChildSnowball,
	}

	switch {
	case u.decidedPrefix == u.commonPrefix-1:
		// This node was only voting over one bit. (Case 2. from above)
		b.children[bit] = u.child
		if u.child != nil {
			b.children[1-bit] = newChild
		}
		return b
	case index == u.decidedPrefix:
		// This node was split on the first bit. (Case 3. from above)
		u.decidedPrefix++
		b.children[bit] = u
		b.children[1-bit] = newChild
		return b
	case index == u.commonPrefix-1:
		// This node was split on the last bit. (Case 4. from above)
		u.commonPrefix--
		b.children[bit] = u.child
		if u.child != nil {
			b.children[1-bit] = newChild
		}
		u.child = b
		return u
	default:
		// This node was split on an interior bit. (Case 5. from above)
		originalDecidedPrefix := u.decidedPrefix
		u.decidedPrefix = index + 1
		b.children[bit] = u
		b.children[1-bit] = newChild
		return &unaryNode{
			tree:          u.tree,
			preference:    u.preference,
			decidedPrefix: originalDecidedPrefix,
			commonPrefix:  index,
			snowball:      u.snowball.Clone(),
			child:         b,
		}
	}
}

func (u *unaryNode) RecordPoll(votes bag.Bag[ids.ID], reset bool) (node, bool) {
	// We are guaranteed that the votes are of IDs that have previously been
	// added. This ensures that the provided votes all have the same bits in
	// the range [u.decidedPrefix, u.commonPrefix) as in u.preference.

	// If my parent didn't get enough votes previously, then neither did I
	if reset {
		u.snowball.RecordUnsuccessfulPoll()
		u.shouldReset = true // Make sure my child is also reset correctly
	}

	numVotes := votes.Len()
	if numVotes < u.tree.params.Alpha {
		// I didn't get enough votes
		u.snowball.RecordUnsuccessfulPoll()
		u.shouldReset = true // Make sure my child is also reset correctly
		return u, false
	}

	u.snowball.RecordSuccessfulPoll()

	if u.child != nil {
		// We are guaranteed that u.commonPrefix will equal
		// u.child.DecidedPrefix(). Otherwise, there must have been a
		// decision under this node, which isn't possible because
		// beta1 <= beta2. That means that filtering the votes between
		// u.commonPrefix and u.child.DecidedPrefix() would always result in
		// the same set being returned.

		// If I'm now decided, return my child
		if u.Finalized() {
			newChild, _ := u.child.RecordPoll(votes, u.shouldReset)
			return newChild, true
		}

		newChild, _ := u.child.RecordPoll(votes, u.shouldReset)
		u.child = newChild
		// The child's preference may have changed
		u.preference = u.child.Preference()
	}
	// Now that I have passed my reset to my child, I don't need to reset
	// anymore
	u.shouldReset = false
	return u, true
}

func (u *unaryNode) Finalized() bool {
	return u.snowball.Finalized()
}

func (u *unaryNode) Printable() (string, []node) {
	s := fmt.Sprintf("%s Bits = [%d, %d)",
		u.snowball, u.decidedPrefix, u.commonPrefix)
	if u.child == nil {
		return s, nil
	}
	return s, []node{u.child}
}

// binaryNode is a node with either no children, or two children. It handles
// the voting of a single, rogue, snowball instance.
type binaryNode struct {
	// tree references the tree that contains this node
	tree *Tree

	// preferences of the decisions with the last bit equal to 0 and 1
	preferences [2]ids.ID

	// bit is the index in the id of the choice this node is deciding on
	bit int // Will be in the range [0, 256)

	// snowball wraps the snowball logic
	snowball BinarySnowball

	// shouldReset is used as an optimization to prevent needless tree
	// traversals. It is the continuation of shouldReset in the Tree struct.
	shouldReset [2]bool

	// children are the, possibly nil, nodes that vote on the next bits in
	// the decision
	children [2]node
}

func (b *binaryNode) Preference() ids.ID {
	return b.preferences[b.snowball.Preference()]
}

func (b *binaryNode) DecidedPrefix() int {
	return b.bit
}

func (b *binaryNode) Add(id ids.ID) node {
	bit := id.Bit(uint(b.bit))
	child := b.children[bit]
	// If child is nil, then the id was added to this node when it was
	// created, so there is nothing left to do.
	if child != nil {
		b.children[bit] = child.Add(id)
	}
	return b
}

func (b *binaryNode) RecordPoll(votes bag.Bag[ids.ID], shouldReset bool) (node, bool) {
	// The list of votes are split into votes for bit 0 and votes for bit 1
	splitVotes := votes.Split(func(id ids.ID) bool {
		return id.Bit(uint(b.bit)) == 1
	})

	bit := 0
	// We only care about which bit is set if a successful poll can happen
	if splitVotes[1].Len() >= b.tree.params.Alpha {
		bit = 1
	}

	if shouldReset {
		b.snowball.RecordUnsuccessfulPoll()
		b.shouldReset[0] = true // Make sure my children are also reset
		b.shouldReset[1] = true // correctly
	}

	prunedVotes := splitVotes[bit]
	successful := prunedVotes.Len() >= b.tree.params.Alpha
	if successful {
		b.snowball.RecordSuccessfulPoll(bit)
	} else {
		// The winning child didn't get enough votes either
		b.shouldReset[bit] = true
	}

	if child := b.children[bit]; child != nil {
		// The votes are filtered to ensure that they are votes that should
		// count for the child
		decidedPrefix := child.DecidedPrefix()
		filteredVotes := prunedVotes.Filter(func(id ids.ID) bool {
			return ids.EqualSubset(b.bit+1, decidedPrefix, b.preferences[bit], id)
		})

		newChild, _ := child.RecordPoll(filteredVotes, b.shouldReset[bit])
		if b.snowball.Finalized() {
			// If we are decided here, that means we must have decided due to
			// this poll. Therefore, we must have decided on bit.
			return newChild, successful
		}
		b.children[bit] = newChild
		// The child's preference may have changed
		b.preferences[bit] = newChild.Preference()
	}
	// Now that I have passed my reset to my child, I don't need to reset
	// anymore
	b.shouldReset[bit] = false
	return b, successful
}

func (b *binaryNode) Finalized() bool {
	return b.snowball.Finalized()
}

func (b *binaryNode) Printable() (string, []node) {
	s := fmt.Sprintf("%s Bit = %d", b.snowball, b.bit)
	newNodes := make([]node, 0, 2)
	if child := b.children[1]; child != nil {
		newNodes = append(newNodes, child)
	}
	if child := b.children[0]; child != nil {
		newNodes = append(newNodes, child)
	}
	return s, newNodes
}

package dialog

import (
	"math/rand/v2"
	"strings"
)

// NodeID identifies an expander node in the registry.
type NodeID string

// Precondition gates whether a node may be used. It must not mutate the
// conversation. A nil precondition always holds.
type Precondition func(conv *Conversation) bool

// Formatter turns the utterances of a node's realized parts into the node's
// own utterance. A nil formatter concatenates the parts.
type Formatter func(conv *Conversation, rng *rand.Rand, parts []string) string

// EditHistoricalMove runs after the node's children were applied to the
// in-progress move and may override their effects.
type EditHistoricalMove func(conv *Conversation, rng *rand.Rand, h *HistoricalMove)

// MoveNode is a template describing how to realize dialog moves and topics.
type MoveNode struct {
	DialogMoves        Set[DialogMove]
	AddressedTopics    Set[Topic]
	Precondition       Precondition
	EditHistoricalMove EditHistoricalMove
	Formatter          Formatter
	// Parts is an AND of ORs: every part must be realized by one of its
	// alternatives, in declared order.
	Parts [][]NodeID
}

// Check evaluates the node's precondition against conv.
func (n *MoveNode) Check(conv *Conversation) bool {
	if n.Precondition == nil {
		return true
	}
	return n.Precondition(conv)
}

func (n *MoveNode) format(conv *Conversation, rng *rand.Rand, parts []string) string {
	if n.Formatter == nil {
		return strings.Join(parts, "")
	}
	return n.Formatter(conv, rng, parts)
}

// IsLeaf reports whether the node has no parts.
func (n *MoveNode) IsLeaf() bool {
	return len(n.Parts) == 0
}

package dialog

import (
	"maps"
	"math/rand/v2"
	"slices"
)

// maxExpansionDepth bounds forward chaining on registries that were not
// validated by a TemplateBuilder and may contain cycles.
const maxExpansionDepth = 64

// Expander is the template registry. It keeps three reverse indices that are
// rebuilt in full after every mutation: move to nodes, topic to nodes, and
// child to parents. Index entries are kept sorted so that a seeded RNG yields
// reproducible realizations.
//
// Expander is not safe for concurrent mutation; Manager serializes access.
type Expander struct {
	nodes           map[NodeID]*MoveNode
	addressingMove  map[DialogMove][]NodeID
	addressingTopic map[Topic][]NodeID
	apartOf         map[NodeID][]NodeID
}

// NewExpander creates an expander over a copy of nodes.
func NewExpander(nodes map[NodeID]*MoveNode) *Expander {
	e := &Expander{nodes: make(map[NodeID]*MoveNode, len(nodes))}
	maps.Copy(e.nodes, nodes)
	e.Build()
	return e
}

// Build recomputes every reverse index from the node arena.
func (e *Expander) Build() {
	moves := make(map[DialogMove]Set[NodeID])
	topics := make(map[Topic]Set[NodeID])
	parents := make(map[NodeID]Set[NodeID])

	for id, node := range e.nodes {
		for move := range node.DialogMoves {
			addIndex(moves, move, id)
		}
		for topic := range node.AddressedTopics {
			addIndex(topics, topic, id)
		}
		for _, part := range node.Parts {
			for _, child := range part {
				addIndex(parents, child, id)
			}
		}
	}

	e.addressingMove = sortIndex(moves)
	e.addressingTopic = sortIndex(topics)
	e.apartOf = sortIndex(parents)
}

func addIndex[K comparable](index map[K]Set[NodeID], key K, id NodeID) {
	set, ok := index[key]
	if !ok {
		set = make(Set[NodeID])
		index[key] = set
	}
	set.Add(id)
}

func sortIndex[K comparable](index map[K]Set[NodeID]) map[K][]NodeID {
	out := make(map[K][]NodeID, len(index))
	for key, set := range index {
		out[key] = Sorted(set)
	}
	return out
}

// Node returns the node registered under id.
func (e *Expander) Node(id NodeID) (*MoveNode, bool) {
	n, ok := e.nodes[id]
	return n, ok
}

// Len returns the number of registered nodes.
func (e *Expander) Len() int {
	return len(e.nodes)
}

// Insert registers node under id and returns the node it replaced, if any.
func (e *Expander) Insert(id NodeID, node *MoveNode) (*MoveNode, bool) {
	prev, ok := e.nodes[id]
	e.nodes[id] = node
	e.Build()
	return prev, ok
}

// Remove unregisters id and returns the removed node, if any.
func (e *Expander) Remove(id NodeID) (*MoveNode, bool) {
	prev, ok := e.nodes[id]
	delete(e.nodes, id)
	e.Build()
	return prev, ok
}

// Extend registers many nodes at once, replacing existing ids.
func (e *Expander) Extend(nodes map[NodeID]*MoveNode) {
	maps.Copy(e.nodes, nodes)
	e.Build()
}

// NodesForMove returns the ids of nodes declaring move, sorted.
func (e *Expander) NodesForMove(move DialogMove) []NodeID {
	return slices.Clone(e.addressingMove[move])
}

// NodesForTopic returns the ids of nodes addressing topic, sorted.
func (e *Expander) NodesForTopic(topic Topic) []NodeID {
	return slices.Clone(e.addressingTopic[topic])
}

// Parents returns the ids of nodes listing id as a part alternative, sorted.
func (e *Expander) Parents(id NodeID) []NodeID {
	return slices.Clone(e.apartOf[id])
}

// IsTopLevel reports whether no node uses id as a part.
func (e *Expander) IsTopLevel(id NodeID) bool {
	return len(e.apartOf[id]) == 0
}

// AddressDialogMove realizes move for the current speaker. The conversation
// itself is not updated; callers merge the returned move.
func (e *Expander) AddressDialogMove(conv *Conversation, rng *rand.Rand, move DialogMove) (*HistoricalMove, error) {
	candidates := e.addressingMove[move]
	if len(candidates) == 0 {
		return nil, noExpanderForMove(move)
	}
	return e.address(conv, rng, candidates)
}

// AddressTopic realizes topic for the current speaker.
func (e *Expander) AddressTopic(conv *Conversation, rng *rand.Rand, topic Topic) (*HistoricalMove, error) {
	candidates := e.addressingTopic[topic]
	if len(candidates) == 0 {
		return nil, noExpanderForTopic(topic)
	}
	return e.address(conv, rng, candidates)
}

func (e *Expander) address(conv *Conversation, rng *rand.Rand, candidates []NodeID) (*HistoricalMove, error) {
	tree, ok := e.expandSatisfying(conv, rng, candidates)
	if !ok {
		return nil, noNodesSatisfyPreconditions()
	}
	tree, ok = e.backwardChain(conv, rng, tree)
	if !ok {
		return nil, noNodesSatisfyPreconditions()
	}
	return tree.historical(conv, rng), nil
}

func (e *Expander) expandSatisfying(conv *Conversation, rng *rand.Rand, candidates []NodeID) (*expansionTree, bool) {
	order := slices.Clone(candidates)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, id := range order {
		node := e.nodes[id]
		if !node.Check(conv) {
			continue
		}
		tree := &expansionTree{id: id, node: node}
		if e.forwardChain(conv, rng, tree, -1, 0) {
			return tree, true
		}
	}
	return nil, false
}

// forwardChain realizes every part of tree except skipPart. The first
// alternative whose precondition holds and whose own chain succeeds wins the
// part; earlier parts are never revisited.
func (e *Expander) forwardChain(conv *Conversation, rng *rand.Rand, tree *expansionTree, skipPart, depth int) bool {
	if depth > maxExpansionDepth {
		return false
	}
	for i, part := range tree.node.Parts {
		if i == skipPart {
			continue
		}
		sub, ok := e.chainPart(conv, rng, part, depth)
		if !ok {
			return false
		}
		tree.parts = append(tree.parts, sub)
	}
	return true
}

func (e *Expander) chainPart(conv *Conversation, rng *rand.Rand, part []NodeID, depth int) (*expansionTree, bool) {
	for _, idx := range rng.Perm(len(part)) {
		id := part[idx]
		node, ok := e.nodes[id]
		if !ok || !node.Check(conv) {
			continue
		}
		sub := &expansionTree{id: id, node: node}
		if e.forwardChain(conv, rng, sub, -1, depth+1) {
			return sub, true
		}
	}
	return nil, false
}

// backwardChain embeds tree into the first parent, in index order, whose
// precondition holds and whose remaining parts can be chained. Only one level
// of wrapping is attempted.
func (e *Expander) backwardChain(conv *Conversation, rng *rand.Rand, tree *expansionTree) (*expansionTree, bool) {
	parents := e.apartOf[tree.id]
	if len(parents) == 0 {
		return tree, true
	}
	for _, pid := range parents {
		parent, ok := e.nodes[pid]
		if !ok || !parent.Check(conv) {
			continue
		}
		slot := slices.IndexFunc(parent.Parts, func(part []NodeID) bool {
			return slices.Contains(part, tree.id)
		})
		if slot < 0 {
			continue
		}
		wrapped := &expansionTree{id: pid, node: parent}
		if !e.forwardChain(conv, rng, wrapped, slot, 0) {
			continue
		}
		wrapped.parts = slices.Insert(wrapped.parts, slot, tree)
		return wrapped, true
	}
	return nil, false
}

type expansionTree struct {
	id    NodeID
	node  *MoveNode
	parts []*expansionTree
}

// historical composes the utterance first, then walks the tree post-order to
// apply declared effects and edit callbacks.
func (t *expansionTree) historical(conv *Conversation, rng *rand.Rand) *HistoricalMove {
	h := NewHistoricalMove(conv.Speaker, t.utterance(conv, rng))
	t.apply(conv, rng, h)
	return h
}

func (t *expansionTree) utterance(conv *Conversation, rng *rand.Rand) string {
	parts := make([]string, len(t.parts))
	for i, p := range t.parts {
		parts[i] = p.utterance(conv, rng)
	}
	return t.node.format(conv, rng, parts)
}

func (t *expansionTree) apply(conv *Conversation, rng *rand.Rand, h *HistoricalMove) {
	for _, p := range t.parts {
		p.apply(conv, rng, h)
	}
	h.SpeakerObligations(conv.Speaker).Addressed.Union(t.node.DialogMoves)
	h.TopicState.Addressed.Union(t.node.AddressedTopics)
	if t.node.EditHistoricalMove != nil {
		t.node.EditHistoricalMove(conv, rng, h)
	}
}

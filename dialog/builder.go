package dialog

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"
)

// TemplateBuilder provides a fluent API for registering expander nodes.
type TemplateBuilder struct {
	nodes  map[NodeID]*MoveNode
	order  []NodeID
	errs   []error
	logger *zap.Logger
}

// NewTemplateBuilder creates an empty builder.
func NewTemplateBuilder() *TemplateBuilder {
	return &TemplateBuilder{
		nodes:  make(map[NodeID]*MoveNode),
		logger: zap.NewNop(),
	}
}

// WithLogger sets a custom logger.
func (b *TemplateBuilder) WithLogger(logger *zap.Logger) *TemplateBuilder {
	if logger != nil {
		b.logger = logger.With(zap.String("component", "template_builder"))
	}
	return b
}

// Node declares a node and returns a NodeBuilder to configure it. Declaring
// the same id twice is reported by Build.
func (b *TemplateBuilder) Node(id NodeID) *NodeBuilder {
	node := &MoveNode{
		DialogMoves:     make(Set[DialogMove]),
		AddressedTopics: make(Set[Topic]),
	}
	if _, exists := b.nodes[id]; exists {
		b.errs = append(b.errs, fmt.Errorf("duplicate node: %s", id))
	} else {
		b.order = append(b.order, id)
	}
	b.nodes[id] = node
	return &NodeBuilder{id: id, node: node, parent: b}
}

// Build validates the registered nodes and returns them keyed by id.
func (b *TemplateBuilder) Build() (map[NodeID]*MoveNode, error) {
	if err := b.validate(); err != nil {
		return nil, invalidTemplate("template validation failed: %v", err)
	}

	out := make(map[NodeID]*MoveNode, len(b.nodes))
	for id, node := range b.nodes {
		out[id] = node
	}

	b.logger.Debug("templates built", zap.Int("nodes", len(out)))
	return out, nil
}

func (b *TemplateBuilder) validate() error {
	if len(b.errs) > 0 {
		return b.errs[0]
	}
	if len(b.nodes) == 0 {
		return fmt.Errorf("no nodes registered")
	}

	for _, id := range b.order {
		node := b.nodes[id]
		for i, part := range node.Parts {
			if len(part) == 0 {
				return fmt.Errorf("node %s: part %d has no alternatives", id, i)
			}
			for _, child := range part {
				if _, exists := b.nodes[child]; !exists {
					return fmt.Errorf("node %s: part %d references non-existent node: %s", id, i, child)
				}
			}
		}
	}

	return b.detectCycles()
}

// detectCycles rejects templates that (transitively) contain themselves.
func (b *TemplateBuilder) detectCycles() error {
	visited := make(map[NodeID]bool)
	recStack := make(map[NodeID]bool)

	for _, id := range b.order {
		if !visited[id] {
			if cyc := b.hasCycleDFS(id, visited, recStack); cyc != "" {
				return fmt.Errorf("cycle detected involving node: %s", cyc)
			}
		}
	}
	return nil
}

func (b *TemplateBuilder) hasCycleDFS(id NodeID, visited, recStack map[NodeID]bool) NodeID {
	visited[id] = true
	recStack[id] = true

	for _, part := range b.nodes[id].Parts {
		for _, child := range part {
			if !visited[child] {
				if cyc := b.hasCycleDFS(child, visited, recStack); cyc != "" {
					return cyc
				}
			} else if recStack[child] {
				return child
			}
		}
	}

	recStack[id] = false
	return ""
}

// NodeBuilder configures a single node.
type NodeBuilder struct {
	id     NodeID
	node   *MoveNode
	parent *TemplateBuilder
}

// ID returns the id of the node being built.
func (nb *NodeBuilder) ID() NodeID {
	return nb.id
}

// Moves declares dialog moves the node performs.
func (nb *NodeBuilder) Moves(moves ...DialogMove) *NodeBuilder {
	for _, m := range moves {
		nb.node.DialogMoves.Add(m)
	}
	return nb
}

// Topics declares topics the node addresses.
func (nb *NodeBuilder) Topics(topics ...Topic) *NodeBuilder {
	for _, t := range topics {
		nb.node.AddressedTopics.Add(t)
	}
	return nb
}

// When sets the precondition.
func (nb *NodeBuilder) When(p Precondition) *NodeBuilder {
	nb.node.Precondition = p
	return nb
}

// Format sets the formatter.
func (nb *NodeBuilder) Format(f Formatter) *NodeBuilder {
	nb.node.Formatter = f
	return nb
}

// Text makes the node say a fixed utterance.
func (nb *NodeBuilder) Text(text string) *NodeBuilder {
	nb.node.Formatter = func(*Conversation, *rand.Rand, []string) string { return text }
	return nb
}

// Edit sets the edit-historical-move callback.
func (nb *NodeBuilder) Edit(e EditHistoricalMove) *NodeBuilder {
	nb.node.EditHistoricalMove = e
	return nb
}

// Part appends an OR-group of alternatives.
func (nb *NodeBuilder) Part(alternatives ...NodeID) *NodeBuilder {
	nb.node.Parts = append(nb.node.Parts, slices.Clone(alternatives))
	return nb
}

// Done returns to the parent builder.
func (nb *NodeBuilder) Done() *TemplateBuilder {
	return nb.parent
}

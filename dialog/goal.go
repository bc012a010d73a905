package dialog

import "slices"

// GoalPursuer restricts which participant may pursue a goal move.
type GoalPursuer struct {
	speaker Speaker
	either  bool
}

// PursuerAny lets either participant pursue the move.
func PursuerAny() GoalPursuer { return GoalPursuer{either: true} }

// PursuedBy restricts the move to s.
func PursuedBy(s Speaker) GoalPursuer { return GoalPursuer{speaker: s} }

// AgreesWith reports whether s may pursue the move.
func (p GoalPursuer) AgreesWith(s Speaker) bool {
	return p.either || p.speaker == s
}

func (p GoalPursuer) String() string {
	if p.either {
		return "any"
	}
	return p.speaker.String()
}

// GoalMove is a move a goal wants made, and by whom.
type GoalMove struct {
	Pursuer GoalPursuer
	Move    DialogMove
}

// Goal is a stateful behavior that proposes moves and tracks its completion.
// MadeMove receives the conversation with its goal list detached.
type Goal interface {
	NextStep(conv *Conversation) (GoalMove, bool)
	MadeMove(conv *Conversation, h *HistoricalMove)
	IsSatisfied() bool
	Clone() Goal
}

// Frame seeds a freshly created conversation with obligations and goals.
type Frame func(conv *Conversation)

// PerformMove is satisfied once its move is made by an agreeing pursuer.
type PerformMove struct {
	GoalMove  GoalMove
	Satisfied bool
}

// NewPerformMove creates a single-move goal.
func NewPerformMove(pursuer GoalPursuer, move DialogMove) *PerformMove {
	return &PerformMove{GoalMove: GoalMove{Pursuer: pursuer, Move: move}}
}

func (g *PerformMove) NextStep(*Conversation) (GoalMove, bool) {
	if g.Satisfied {
		return GoalMove{}, false
	}
	return g.GoalMove, true
}

func (g *PerformMove) MadeMove(_ *Conversation, h *HistoricalMove) {
	if g.GoalMove.Pursuer.AgreesWith(h.Speaker) && h.WasMoveSatisfied(g.GoalMove.Move) {
		g.Satisfied = true
	}
}

func (g *PerformMove) IsSatisfied() bool { return g.Satisfied }

func (g *PerformMove) Clone() Goal {
	c := *g
	return &c
}

// RepeatMove needs its move made MaxReps times.
type RepeatMove struct {
	GoalMove GoalMove
	Reps     int
	MaxReps  int
}

// NewRepeatMove creates a goal satisfied after times occurrences of move.
func NewRepeatMove(pursuer GoalPursuer, move DialogMove, times int) *RepeatMove {
	return &RepeatMove{GoalMove: GoalMove{Pursuer: pursuer, Move: move}, MaxReps: times}
}

func (g *RepeatMove) NextStep(*Conversation) (GoalMove, bool) {
	if g.IsSatisfied() {
		return GoalMove{}, false
	}
	return g.GoalMove, true
}

func (g *RepeatMove) MadeMove(_ *Conversation, h *HistoricalMove) {
	if g.GoalMove.Pursuer.AgreesWith(h.Speaker) && h.WasMoveSatisfied(g.GoalMove.Move) {
		g.Reps++
	}
}

func (g *RepeatMove) IsSatisfied() bool { return g.Reps >= g.MaxReps }

func (g *RepeatMove) Clone() Goal {
	c := *g
	return &c
}

// Sequence proposes its first remaining entry. Every entry satisfied by an
// observed move is removed, not only the first.
type Sequence struct {
	Moves []GoalMove
}

// NewSequence creates an ordered multi-move goal.
func NewSequence(moves ...GoalMove) *Sequence {
	return &Sequence{Moves: slices.Clone(moves)}
}

func (g *Sequence) NextStep(*Conversation) (GoalMove, bool) {
	if len(g.Moves) == 0 {
		return GoalMove{}, false
	}
	return g.Moves[0], true
}

func (g *Sequence) MadeMove(_ *Conversation, h *HistoricalMove) {
	g.Moves = removeSatisfied(g.Moves, h)
}

func (g *Sequence) IsSatisfied() bool { return len(g.Moves) == 0 }

func (g *Sequence) Clone() Goal {
	return &Sequence{Moves: slices.Clone(g.Moves)}
}

// EagerSequence behaves like Sequence, except that satisfying the last entry
// completes the whole goal at once.
type EagerSequence struct {
	Moves []GoalMove
}

// NewEagerSequence creates an ordered goal that short-circuits on its last entry.
func NewEagerSequence(moves ...GoalMove) *EagerSequence {
	return &EagerSequence{Moves: slices.Clone(moves)}
}

func (g *EagerSequence) NextStep(*Conversation) (GoalMove, bool) {
	if len(g.Moves) == 0 {
		return GoalMove{}, false
	}
	return g.Moves[0], true
}

func (g *EagerSequence) MadeMove(_ *Conversation, h *HistoricalMove) {
	if n := len(g.Moves); n > 0 {
		last := g.Moves[n-1]
		if last.Pursuer.AgreesWith(h.Speaker) && h.WasMoveSatisfied(last.Move) {
			g.Moves = g.Moves[:0]
			return
		}
	}
	g.Moves = removeSatisfied(g.Moves, h)
}

func (g *EagerSequence) IsSatisfied() bool { return len(g.Moves) == 0 }

func (g *EagerSequence) Clone() Goal {
	return &EagerSequence{Moves: slices.Clone(g.Moves)}
}

func removeSatisfied(moves []GoalMove, h *HistoricalMove) []GoalMove {
	for i := len(moves) - 1; i >= 0; i-- {
		if moves[i].Pursuer.AgreesWith(h.Speaker) && h.WasMoveSatisfied(moves[i].Move) {
			moves = slices.Delete(moves, i, i+1)
		}
	}
	return moves
}

// Concat is the conjunction of two goals. It proposes the first goal's move,
// falling back to the second's.
type Concat struct {
	First  Goal
	Second Goal
}

// NewConcat joins two goals.
func NewConcat(first, second Goal) *Concat {
	return &Concat{First: first, Second: second}
}

func (g *Concat) NextStep(conv *Conversation) (GoalMove, bool) {
	if m, ok := g.First.NextStep(conv); ok {
		return m, true
	}
	return g.Second.NextStep(conv)
}

func (g *Concat) MadeMove(conv *Conversation, h *HistoricalMove) {
	g.First.MadeMove(conv, h)
	g.Second.MadeMove(conv, h)
}

func (g *Concat) IsSatisfied() bool {
	return g.First.IsSatisfied() && g.Second.IsSatisfied()
}

func (g *Concat) Clone() Goal {
	return &Concat{First: g.First.Clone(), Second: g.Second.Clone()}
}

package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func made(speaker Speaker, moves ...DialogMove) *HistoricalMove {
	h := NewHistoricalMove(speaker, "")
	for _, m := range moves {
		h.SpeakerObligations(speaker).Address(m)
	}
	return h
}

func TestGoalPursuer_AgreesWith(t *testing.T) {
	assert.True(t, PursuerAny().AgreesWith(Person0))
	assert.True(t, PursuerAny().AgreesWith(Person1))
	assert.True(t, PursuedBy(Person1).AgreesWith(Person1))
	assert.False(t, PursuedBy(Person1).AgreesWith(Person0))
}

func TestPerformMove(t *testing.T) {
	g := NewPerformMove(PursuedBy(Person0), "greet")

	next, ok := g.NextStep(nil)
	require.True(t, ok)
	assert.Equal(t, DialogMove("greet"), next.Move)

	g.MadeMove(nil, made(Person1, "greet"))
	assert.False(t, g.IsSatisfied(), "wrong pursuer must not satisfy")

	g.MadeMove(nil, made(Person0, "bye"))
	assert.False(t, g.IsSatisfied())

	g.MadeMove(nil, made(Person0, "greet"))
	assert.True(t, g.IsSatisfied())
	_, ok = g.NextStep(nil)
	assert.False(t, ok)
}

func TestRepeatMove(t *testing.T) {
	g := NewRepeatMove(PursuerAny(), "small_talk", 2)

	g.MadeMove(nil, made(Person0, "small_talk"))
	assert.False(t, g.IsSatisfied())
	_, ok := g.NextStep(nil)
	assert.True(t, ok)

	g.MadeMove(nil, made(Person1, "small_talk"))
	assert.True(t, g.IsSatisfied())
	_, ok = g.NextStep(nil)
	assert.False(t, ok)
}

func TestSequence(t *testing.T) {
	g := NewSequence(
		GoalMove{Pursuer: PursuedBy(Person0), Move: "move1"},
		GoalMove{Pursuer: PursuedBy(Person1), Move: "move2"},
	)

	g.MadeMove(nil, made(Person0, "move1"))
	next, ok := g.NextStep(nil)
	require.True(t, ok)
	assert.Equal(t, GoalMove{Pursuer: PursuedBy(Person1), Move: "move2"}, next)
	assert.False(t, g.IsSatisfied())

	g.MadeMove(nil, made(Person1, "move2"))
	assert.True(t, g.IsSatisfied())
}

func TestSequence_RemovesEveryMatchingEntry(t *testing.T) {
	g := NewSequence(
		GoalMove{Pursuer: PursuerAny(), Move: "ask"},
		GoalMove{Pursuer: PursuedBy(Person1), Move: "answer"},
		GoalMove{Pursuer: PursuerAny(), Move: "ask"},
	)

	g.MadeMove(nil, made(Person0, "ask"))
	require.Len(t, g.Moves, 1)
	assert.Equal(t, DialogMove("answer"), g.Moves[0].Move)
}

func TestEagerSequence_OutOfOrderCompletion(t *testing.T) {
	g := NewEagerSequence(
		GoalMove{Pursuer: PursuedBy(Person0), Move: "move1"},
		GoalMove{Pursuer: PursuedBy(Person1), Move: "move2"},
	)

	g.MadeMove(nil, made(Person1, "move2"))
	assert.True(t, g.IsSatisfied())
	_, ok := g.NextStep(nil)
	assert.False(t, ok)
}

func TestEagerSequence_InOrderBehavesLikeSequence(t *testing.T) {
	g := NewEagerSequence(
		GoalMove{Pursuer: PursuedBy(Person0), Move: "move1"},
		GoalMove{Pursuer: PursuedBy(Person1), Move: "move2"},
	)

	g.MadeMove(nil, made(Person0, "move1"))
	next, ok := g.NextStep(nil)
	require.True(t, ok)
	assert.Equal(t, DialogMove("move2"), next.Move)
}

func TestConcat(t *testing.T) {
	g := NewConcat(
		NewPerformMove(PursuedBy(Person0), "greet"),
		NewPerformMove(PursuedBy(Person1), "greet_back"),
	)

	next, ok := g.NextStep(nil)
	require.True(t, ok)
	assert.Equal(t, DialogMove("greet"), next.Move)

	g.MadeMove(nil, made(Person0, "greet"))
	next, ok = g.NextStep(nil)
	require.True(t, ok)
	assert.Equal(t, DialogMove("greet_back"), next.Move)
	assert.False(t, g.IsSatisfied())

	g.MadeMove(nil, made(Person1, "greet_back"))
	assert.True(t, g.IsSatisfied())
}

func TestGoal_CloneIsIndependent(t *testing.T) {
	orig := NewConcat(
		NewSequence(GoalMove{Pursuer: PursuerAny(), Move: "a"}),
		NewRepeatMove(PursuerAny(), "b", 1),
	)
	clone := orig.Clone()

	clone.MadeMove(nil, made(Person0, "a", "b"))
	assert.True(t, clone.IsSatisfied())
	assert.False(t, orig.IsSatisfied())
}

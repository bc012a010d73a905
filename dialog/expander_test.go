package dialog

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func never(*Conversation) bool  { return false }
func always(*Conversation) bool { return true }

func joinSpaced(_ *Conversation, _ *rand.Rand, parts []string) string {
	return strings.Join(parts, " ")
}

func testConversation() *Conversation {
	return newConversation(Person0, 0, nil, nil)
}

func mustBuild(t *testing.T, b *TemplateBuilder) map[NodeID]*MoveNode {
	t.Helper()
	nodes, err := b.Build()
	require.NoError(t, err)
	return nodes
}

func TestExpander_ZeroPartRoundTrip(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("wave").Moves("greet", "acknowledge").Topics("weather").Text("Nice day.").Done())
	e := NewExpander(nodes)
	conv := testConversation()

	h, err := e.AddressDialogMove(conv, NewRand(1), "greet")
	require.NoError(t, err)

	assert.Equal(t, "Nice day.", h.Utterance)
	assert.Equal(t, Person0, h.Speaker)
	assert.Equal(t, []DialogMove{"acknowledge", "greet"}, Sorted(h.Person0Obligations.Addressed))
	assert.Equal(t, []Topic{"weather"}, Sorted(h.TopicState.Addressed))
	assert.Empty(t, h.TopicState.Introduced)
	assert.Empty(t, h.Person1Obligations.Addressed)
	assert.Empty(t, h.Person0Obligations.Pushed)
	assert.Empty(t, h.Person1Obligations.Pushed)

	// The conversation itself is untouched until the move is merged.
	assert.Empty(t, conv.History)
}

func TestExpander_SingleSatisfiableAlternativeAlwaysChosen(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("greet").Moves("greet").Part("hello", "hi").Done().
		Node("hello").When(never).Text("Hello").Done().
		Node("hi").When(always).Text("Hi").Done())
	e := NewExpander(nodes)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("the only satisfiable alternative is selected", prop.ForAll(
		func(seed uint64) bool {
			h, err := e.AddressDialogMove(testConversation(), NewRand(seed), "greet")
			return err == nil && h.Utterance == "Hi"
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

func TestExpander_NextAlternativeWhenChildChainFails(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("root").Moves("ask").Part("deep", "shallow").Done().
		Node("deep").Part("blocked").Done().
		Node("blocked").When(never).Text("never").Done().
		Node("shallow").Text("shallow").Done())
	e := NewExpander(nodes)

	for seed := uint64(0); seed < 50; seed++ {
		h, err := e.AddressDialogMove(testConversation(), NewRand(seed), "ask")
		require.NoError(t, err)
		assert.Equal(t, "shallow", h.Utterance)
	}
}

func TestExpander_PartWithoutSatisfiableAlternativeFails(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("root").Moves("ask").Part("a").Part("b").Done().
		Node("a").Text("a").Done().
		Node("b").When(never).Text("b").Done())
	e := NewExpander(nodes)

	_, err := e.AddressDialogMove(testConversation(), NewRand(3), "ask")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoNodesSatisfyPreconditions))
	assert.True(t, IsTransient(err))
}

func TestExpander_MissingExpanderIsFatal(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().Node("greet").Moves("greet").Done())
	e := NewExpander(nodes)

	_, err := e.AddressDialogMove(testConversation(), NewRand(1), "farewell")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoExpanderForMove))
	assert.False(t, IsTransient(err))

	_, err = e.AddressTopic(testConversation(), NewRand(1), "music")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoExpanderForTopic))
	assert.False(t, IsTransient(err))
}

func TestExpander_BackwardChainFailsWhenOnlyParentBlocked(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("parent").When(never).Part("sub").Done().
		Node("sub").Moves("sub_move").When(always).Text("sub").Done())
	e := NewExpander(nodes)

	_, err := e.AddressDialogMove(testConversation(), NewRand(1), "sub_move")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoNodesSatisfyPreconditions))
}

func TestExpander_BackwardChainWrapsIntoParentSlot(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("parent").Moves("chat").Format(joinSpaced).
		Part("intro").Part("sub").Part("outro").Done().
		Node("intro").Text("Well,").Done().
		Node("sub").Moves("opine").Text("I like jazz.").Done().
		Node("outro").Text("You?").Done())
	e := NewExpander(nodes)

	for seed := uint64(0); seed < 20; seed++ {
		h, err := e.AddressDialogMove(testConversation(), NewRand(seed), "opine")
		require.NoError(t, err)
		assert.Equal(t, "Well, I like jazz. You?", h.Utterance)
		assert.Equal(t, []DialogMove{"chat", "opine"}, Sorted(h.Person0Obligations.Addressed))
	}
}

func TestExpander_BackwardChainTriesNextParent(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("a_parent").Part("sub").Part("blocked").Done().
		Node("b_parent").Format(joinSpaced).Part("sub").Part("tail").Done().
		Node("blocked").When(never).Done().
		Node("tail").Text("indeed").Done().
		Node("sub").Moves("opine").Text("sure").Done())
	e := NewExpander(nodes)

	h, err := e.AddressDialogMove(testConversation(), NewRand(7), "opine")
	require.NoError(t, err)
	assert.Equal(t, "sure indeed", h.Utterance)
}

func TestExpander_EditCallbacksRunPostOrder(t *testing.T) {
	var order []NodeID
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("root").Moves("ask").Part("child").
		Edit(func(_ *Conversation, _ *rand.Rand, h *HistoricalMove) {
			order = append(order, "root")
			// The child already pushed; override it.
			assert.Contains(t, h.OthersObligations().Pushed, DialogMove("answer"))
			h.OthersObligations().RemovePushed("answer")
			h.OthersObligations().Push("answer_politely", 10, 2)
		}).Done().
		Node("child").Moves("question").Text("How are you?").
		Edit(func(_ *Conversation, _ *rand.Rand, h *HistoricalMove) {
			order = append(order, "child")
			h.OthersObligations().Push("answer", 1, 1)
			h.TopicState.Introduced.Add("feelings")
		}).Done())
	e := NewExpander(nodes)

	h, err := e.AddressDialogMove(testConversation(), NewRand(1), "ask")
	require.NoError(t, err)

	assert.Equal(t, []NodeID{"child", "root"}, order)
	assert.Equal(t, "How are you?", h.Utterance)
	assert.NotContains(t, h.Person1Obligations.Pushed, DialogMove("answer"))
	require.Contains(t, h.Person1Obligations.Pushed, DialogMove("answer_politely"))
	assert.Equal(t, int32(10), h.Person1Obligations.Pushed["answer_politely"].Urgency)
	assert.True(t, h.TopicState.Introduced.Has("feelings"))
}

func TestExpander_UtteranceBuiltBeforeEdits(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("root").Moves("greet").
		Format(func(conv *Conversation, _ *rand.Rand, _ []string) string {
			if conv.TopicState.Introduced.Has("late") {
				return "after"
			}
			return "before"
		}).
		Edit(func(conv *Conversation, _ *rand.Rand, _ *HistoricalMove) {
			conv.TopicState.Introduced.Add("late")
		}).Done())
	e := NewExpander(nodes)

	h, err := e.AddressDialogMove(testConversation(), NewRand(1), "greet")
	require.NoError(t, err)
	assert.Equal(t, "before", h.Utterance)
}

func TestExpander_NilFormatterConcatenatesParts(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("root").Moves("greet").Part("a").Part("b").Done().
		Node("a").Text("Hel").Done().
		Node("b").Text("lo").Done())
	e := NewExpander(nodes)

	h, err := e.AddressDialogMove(testConversation(), NewRand(1), "greet")
	require.NoError(t, err)
	assert.Equal(t, "Hello", h.Utterance)
}

func TestExpander_AddressTopic(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("music").Topics("music").Text("I like jazz.").Done())
	e := NewExpander(nodes)
	conv := testConversation()
	conv.Speaker = Person1

	h, err := e.AddressTopic(conv, NewRand(1), "music")
	require.NoError(t, err)
	assert.Equal(t, Person1, h.Speaker)
	assert.True(t, h.TopicState.Addressed.Has("music"))
}

func TestExpander_IndicesRebuiltOnMutation(t *testing.T) {
	nodes := mustBuild(t, NewTemplateBuilder().
		Node("greet").Moves("greet").Part("hello").Done().
		Node("hello").Text("Hello").Done())
	e := NewExpander(nodes)

	assert.Equal(t, []NodeID{"greet"}, e.NodesForMove("greet"))
	assert.Equal(t, []NodeID{"greet"}, e.Parents("hello"))
	assert.False(t, e.IsTopLevel("hello"))
	assert.True(t, e.IsTopLevel("greet"))

	prev, replaced := e.Insert("wave", &MoveNode{DialogMoves: NewSet[DialogMove]("greet")})
	assert.Nil(t, prev)
	assert.False(t, replaced)
	assert.Equal(t, []NodeID{"greet", "wave"}, e.NodesForMove("greet"))

	removed, ok := e.Remove("greet")
	require.True(t, ok)
	assert.NotNil(t, removed)
	assert.Equal(t, []NodeID{"wave"}, e.NodesForMove("greet"))
	assert.True(t, e.IsTopLevel("hello"))

	e.Extend(map[NodeID]*MoveNode{
		"chat": {AddressedTopics: NewSet[Topic]("music"), Parts: [][]NodeID{{"hello"}}},
	})
	assert.Equal(t, []NodeID{"chat"}, e.NodesForTopic("music"))
	assert.Equal(t, []NodeID{"chat"}, e.Parents("hello"))
	assert.Equal(t, 3, e.Len())
}

func TestExpander_SameSeedSameRealization(t *testing.T) {
	b := NewTemplateBuilder().Node("greet").Moves("greet").Format(joinSpaced).
		Part("hello", "hi", "hey").Part("there", "friend").Done()
	for _, id := range []NodeID{"hello", "hi", "hey", "there", "friend"} {
		b.Node(id).Text(string(id))
	}
	e := NewExpander(mustBuild(t, b))

	for seed := uint64(0); seed < 20; seed++ {
		h1, err := e.AddressDialogMove(testConversation(), NewRand(seed), "greet")
		require.NoError(t, err)
		h2, err := e.AddressDialogMove(testConversation(), NewRand(seed), "greet")
		require.NoError(t, err)
		assert.Equal(t, h1.Utterance, h2.Utterance)
	}
}

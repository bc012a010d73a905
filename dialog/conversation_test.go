package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// observingGoal records what it sees when notified of a move.
type observingGoal struct {
	sawGoals []int
	moves    []DialogMove
}

func (g *observingGoal) NextStep(*Conversation) (GoalMove, bool) { return GoalMove{}, false }
func (g *observingGoal) MadeMove(conv *Conversation, h *HistoricalMove) {
	g.sawGoals = append(g.sawGoals, len(conv.Goals))
	g.moves = append(g.moves, h.AllAddressedObligations()...)
}
func (g *observingGoal) IsSatisfied() bool { return false }
func (g *observingGoal) Clone() Goal {
	c := *g
	return &c
}

func TestConversation_UpdateForMove(t *testing.T) {
	conv := newConversation(Person0, 0.5, "alice", "bob")
	goal := &observingGoal{}
	conv.AddGoal(goal)

	conv.Person0.PushedObligations["greet"] = &PushedObligationMetadata{Urgency: 5, TimeToLive: 3, TimesPushed: 1}

	h := NewHistoricalMove(Person0, "Hello! Like music?")
	h.Person0Obligations.Address("greet")
	h.Person1Obligations.Push("greet", 5, 3)
	h.TopicState.Introduced.Add("music")
	h.TopicState.Addressed.Add("weather")
	conv.updateForMove(h)

	assert.Equal(t, []int{0}, goal.sawGoals, "goals are detached during notification")
	assert.Equal(t, []DialogMove{"greet"}, goal.moves)
	require.Len(t, conv.Goals, 1)

	assert.True(t, conv.TopicState.NeedsAddressing("music"))
	assert.False(t, conv.TopicState.CanBeAddressed("weather"))
	require.Contains(t, conv.Person0.Topics, Topic("music"))
	assert.Equal(t, uint32(1), conv.Person0.Topics["music"].TimesIntroduced)
	assert.Equal(t, uint32(1), conv.Person0.Topics["weather"].TimesAddressed)
	assert.Empty(t, conv.Person1.Topics)

	assert.False(t, conv.Person0.HasObligation("greet"))
	assert.True(t, conv.Person1.HasObligation("greet"))
	assert.Same(t, h, conv.LastMove())
	assert.Equal(t, 1, conv.Turns())
}

func TestConversation_NextSpeakerTopics(t *testing.T) {
	conv := newConversation(Person0, 0, nil, nil)
	assert.Empty(t, conv.nextSpeakerTopics(NewRand(1)))

	conv.TopicState.Introduced.Union(NewSet[Topic]("music", "weather", "food"))
	conv.TopicState.Addressed.Add("weather")

	topics := conv.nextSpeakerTopics(NewRand(1))
	assert.ElementsMatch(t, []Topic{"music", "food"}, topics)
}

func TestConversation_NextSpeakerMovesOrdering(t *testing.T) {
	conv := newConversation(Person1, 0, nil, nil)
	conv.Person1.PushedObligations["low"] = &PushedObligationMetadata{Urgency: 1, TimeToLive: 1}
	conv.Person1.PushedObligations["high"] = &PushedObligationMetadata{Urgency: 9, TimeToLive: 1}
	conv.Person1.PushedObligations["tie_short"] = &PushedObligationMetadata{Urgency: 5, TimeToLive: 1}
	conv.Person1.PushedObligations["tie_long"] = &PushedObligationMetadata{Urgency: 5, TimeToLive: 7}
	conv.Person0.PushedObligations["not_mine"] = &PushedObligationMetadata{Urgency: 100}

	conv.AddGoal(NewPerformMove(PursuedBy(Person1), "goal_mine"))
	conv.AddGoal(NewPerformMove(PursuedBy(Person0), "goal_theirs"))
	conv.AddGoal(NewPerformMove(PursuerAny(), "goal_any"))

	moves := conv.nextSpeakerMoves(NewRand(5))
	require.Len(t, moves, 6)
	assert.ElementsMatch(t, []DialogMove{"goal_mine", "goal_any"}, moves[:2])
	assert.Equal(t, []DialogMove{"low", "tie_long", "tie_short", "high"}, moves[2:])
}

func TestConversation_Accessors(t *testing.T) {
	conv := newConversation(Person1, 0, "alice", "bob")
	assert.Equal(t, "bob", conv.MyState().Character)
	assert.Equal(t, "alice", conv.OthersState().Character)
	assert.Equal(t, "alice", conv.SpeakerState(Person0).Character)
	assert.Nil(t, conv.LastMove())
	assert.Equal(t, 0, conv.Turns())
}

func TestConversation_CloneIsDeep(t *testing.T) {
	conv := newConversation(Person0, 0.3, "alice", "bob")
	conv.AddGoal(NewRepeatMove(PursuerAny(), "chat", 2))
	h := NewHistoricalMove(Person0, "hi")
	h.Person1Obligations.Push("greet", 1, 2)
	h.TopicState.Introduced.Add("music")
	conv.updateForMove(h)

	clone := conv.Clone()
	clone.Person1.PushedObligations["greet"].Urgency = 99
	clone.TopicState.Addressed.Add("music")
	clone.History[0].Utterance = "changed"
	clone.Goals[0].MadeMove(clone, made(Person0, "chat"))

	assert.Equal(t, int32(1), conv.Person1.PushedObligations["greet"].Urgency)
	assert.True(t, conv.TopicState.NeedsAddressing("music"))
	assert.Equal(t, "hi", conv.History[0].Utterance)
	assert.Equal(t, 0, conv.Goals[0].(*RepeatMove).Reps)
	assert.Equal(t, "alice", clone.Person0.Character)
	assert.Equal(t, 0.3, clone.LullContinueChance)
}

package dialog

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// Conversation is the aggregate state of one simulated conversation. It is
// owned by whoever drives the simulation and must not be stepped concurrently.
type Conversation struct {
	Initiator Speaker
	// Speaker names who should speak next.
	Speaker    Speaker
	Person0    *ParticipantState
	Person1    *ParticipantState
	TopicState TopicState
	History    []*HistoricalMove
	Goals      []Goal
	Done       bool
	// LullContinueChance is the probability of continuing with the lull move
	// when neither participant has anything to say.
	LullContinueChance float64
}

func newConversation(initiator Speaker, lullChance float64, person0, person1 any) *Conversation {
	return &Conversation{
		Initiator:          initiator,
		Speaker:            initiator,
		Person0:            NewParticipantState(person0),
		Person1:            NewParticipantState(person1),
		TopicState:         NewTopicState(),
		LullContinueChance: lullChance,
	}
}

// SpeakerState returns the ledger of s.
func (c *Conversation) SpeakerState(s Speaker) *ParticipantState {
	if s == Person0 {
		return c.Person0
	}
	return c.Person1
}

// MyState returns the ledger of the participant about to speak.
func (c *Conversation) MyState() *ParticipantState {
	return c.SpeakerState(c.Speaker)
}

// OthersState returns the ledger of the participant about to listen.
func (c *Conversation) OthersState() *ParticipantState {
	return c.SpeakerState(c.Speaker.Not())
}

// Turns returns the number of moves made so far.
func (c *Conversation) Turns() int {
	return len(c.History)
}

// LastMove returns the most recent move, or nil before the first one.
func (c *Conversation) LastMove() *HistoricalMove {
	if len(c.History) == 0 {
		return nil
	}
	return c.History[len(c.History)-1]
}

// AddGoal appends a goal. Frames use it to seed conversations.
func (c *Conversation) AddGoal(g Goal) {
	c.Goals = append(c.Goals, g)
}

// Timestep decays the obligations of both participants.
func (c *Conversation) Timestep() {
	c.Person0.Timestep()
	c.Person1.Timestep()
}

// Clone deep-copies the conversation. Character payloads are shared.
func (c *Conversation) Clone() *Conversation {
	out := &Conversation{
		Initiator:          c.Initiator,
		Speaker:            c.Speaker,
		Person0:            c.Person0.clone(),
		Person1:            c.Person1.clone(),
		TopicState:         c.TopicState.clone(),
		History:            make([]*HistoricalMove, len(c.History)),
		Goals:              make([]Goal, len(c.Goals)),
		Done:               c.Done,
		LullContinueChance: c.LullContinueChance,
	}
	for i, h := range c.History {
		out.History[i] = h.clone()
	}
	for i, g := range c.Goals {
		out.Goals[i] = g.Clone()
	}
	return out
}

func (c *Conversation) updateForMove(h *HistoricalMove) {
	goals := c.Goals
	c.Goals = nil
	for _, g := range goals {
		g.MadeMove(c, h)
	}
	c.Goals = goals

	speaker := c.MyState()
	for _, topic := range Sorted(h.TopicState.Introduced) {
		c.TopicState.Introduced.Add(topic)
		speaker.topic(topic).Introduce()
	}
	for _, topic := range Sorted(h.TopicState.Addressed) {
		c.TopicState.Addressed.Add(topic)
		speaker.topic(topic).Address()
	}

	c.Person0.MergeObligations(&h.Person0Obligations)
	c.Person1.MergeObligations(&h.Person1Obligations)
	c.History = append(c.History, h)
}

// nextSpeakerTopics returns the topics introduced but not yet addressed, in
// random order.
func (c *Conversation) nextSpeakerTopics(rng *rand.Rand) []Topic {
	topics := make([]Topic, 0, len(c.TopicState.Introduced))
	for _, topic := range Sorted(c.TopicState.Introduced) {
		if !c.TopicState.Addressed.Has(topic) {
			topics = append(topics, topic)
		}
	}
	if len(topics) > 1 {
		rng.Shuffle(len(topics), func(i, j int) { topics[i], topics[j] = topics[j], topics[i] })
	}
	return topics
}

// nextSpeakerMoves returns goal proposals in random order followed by the
// speaker's obligations by ascending urgency, ties by descending TTL. Callers
// consume the list from the back.
func (c *Conversation) nextSpeakerMoves(rng *rand.Rand) []DialogMove {
	pushed := c.MyState().PushedObligations
	obligations := make([]DialogMove, 0, len(pushed))
	for move := range pushed {
		obligations = append(obligations, move)
	}
	slices.SortFunc(obligations, func(a, b DialogMove) int {
		l, r := pushed[a], pushed[b]
		if n := cmp.Compare(l.Urgency, r.Urgency); n != 0 {
			return n
		}
		if n := cmp.Compare(r.TimeToLive, l.TimeToLive); n != 0 {
			return n
		}
		return cmp.Compare(a, b)
	})

	moves := make([]DialogMove, 0, len(c.Goals)+len(obligations))
	for _, g := range c.Goals {
		if next, ok := g.NextStep(c); ok && next.Pursuer.AgreesWith(c.Speaker) {
			moves = append(moves, next.Move)
		}
	}
	if len(moves) > 1 {
		rng.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })
	}
	return append(moves, obligations...)
}

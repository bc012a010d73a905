package dialog

import "math"

// Topic is a subject that can be introduced and later addressed.
type Topic string

// DialogMove is an abstract conversational intention such as "greet".
type DialogMove string

// Speaker identifies one of the two conversation participants.
type Speaker uint8

const (
	Person0 Speaker = iota
	Person1
)

// Not returns the other participant.
func (s Speaker) Not() Speaker {
	if s == Person0 {
		return Person1
	}
	return Person0
}

func (s Speaker) String() string {
	if s == Person0 {
		return "person0"
	}
	return "person1"
}

// TopicMetadata counts how often one participant introduced or addressed a topic.
type TopicMetadata struct {
	TimesIntroduced uint32 `json:"times_introduced"`
	TimesAddressed  uint32 `json:"times_addressed"`
}

// Introduce records one introduction of the topic.
func (m *TopicMetadata) Introduce() { m.TimesIntroduced++ }

// Address records one addressing of the topic.
func (m *TopicMetadata) Address() { m.TimesAddressed++ }

// PushedObligationMetadata describes a dialog move a participant still owes.
type PushedObligationMetadata struct {
	Urgency int32 `json:"urgency"`
	// TimeToLive is measured in steps. An obligation with TTL n survives n+1
	// timesteps and expires on the next one.
	TimeToLive  uint32 `json:"time_to_live"`
	TimesPushed uint32 `json:"times_pushed"`
}

// Push records one more push of the obligation.
func (m *PushedObligationMetadata) Push() { m.TimesPushed++ }

// Merge folds other into m: max urgency, max TTL, summed push counts.
func (m *PushedObligationMetadata) Merge(other PushedObligationMetadata) {
	m.Urgency = max(m.Urgency, other.Urgency)
	m.TimeToLive = max(m.TimeToLive, other.TimeToLive)
	m.TimesPushed += other.TimesPushed
}

// Timestep decays the obligation and reports whether it expired. A TTL of
// zero expires without being decremented.
func (m *PushedObligationMetadata) Timestep() (expired bool) {
	if m.TimeToLive == 0 {
		return true
	}
	m.TimeToLive--
	return false
}

// ParticipantState is the long-lived ledger of one participant.
type ParticipantState struct {
	Topics            map[Topic]*TopicMetadata
	PushedObligations map[DialogMove]*PushedObligationMetadata
	// Character is opaque to the engine; only callbacks look inside it.
	Character any
}

// NewParticipantState creates an empty ledger for character.
func NewParticipantState(character any) *ParticipantState {
	return &ParticipantState{
		Topics:            make(map[Topic]*TopicMetadata),
		PushedObligations: make(map[DialogMove]*PushedObligationMetadata),
		Character:         character,
	}
}

// Timestep decays every pushed obligation and drops the expired ones.
func (p *ParticipantState) Timestep() {
	for move, obligation := range p.PushedObligations {
		if obligation.Timestep() {
			delete(p.PushedObligations, move)
		}
	}
}

// HasObligation reports whether move is currently owed.
func (p *ParticipantState) HasObligation(move DialogMove) bool {
	_, ok := p.PushedObligations[move]
	return ok
}

// MergeObligations applies the obligation deltas of one move. Addressed
// obligations are removed before pushed ones are merged in.
func (p *ParticipantState) MergeObligations(h *HistoricalObligations) {
	for move := range h.Addressed {
		delete(p.PushedObligations, move)
	}
	for move, pushed := range h.Pushed {
		current, ok := p.PushedObligations[move]
		if !ok {
			current = &PushedObligationMetadata{Urgency: math.MinInt32}
			p.PushedObligations[move] = current
		}
		current.Merge(*pushed)
	}
}

func (p *ParticipantState) topic(topic Topic) *TopicMetadata {
	meta, ok := p.Topics[topic]
	if !ok {
		meta = &TopicMetadata{}
		p.Topics[topic] = meta
	}
	return meta
}

func (p *ParticipantState) clone() *ParticipantState {
	out := NewParticipantState(p.Character)
	for topic, meta := range p.Topics {
		m := *meta
		out.Topics[topic] = &m
	}
	for move, obligation := range p.PushedObligations {
		o := *obligation
		out.PushedObligations[move] = &o
	}
	return out
}

// TopicState tracks which topics were introduced and which were addressed.
type TopicState struct {
	Introduced Set[Topic]
	Addressed  Set[Topic]
}

// NewTopicState returns an empty topic state.
func NewTopicState() TopicState {
	return TopicState{Introduced: make(Set[Topic]), Addressed: make(Set[Topic])}
}

// CanBeAddressed reports whether topic has not been addressed yet.
func (t TopicState) CanBeAddressed(topic Topic) bool {
	return !t.Addressed.Has(topic)
}

// NeedsAddressing reports whether topic was introduced but not yet addressed.
func (t TopicState) NeedsAddressing(topic Topic) bool {
	return t.Introduced.Has(topic) && t.CanBeAddressed(topic)
}

// CanBeIntroduced reports whether topic was neither introduced nor addressed.
func (t TopicState) CanBeIntroduced(topic Topic) bool {
	return !t.Introduced.Has(topic) && t.CanBeAddressed(topic)
}

func (t TopicState) clone() TopicState {
	return TopicState{Introduced: t.Introduced.Clone(), Addressed: t.Addressed.Clone()}
}

// HistoricalObligations records the obligations one move pushed to and
// addressed for a single participant.
type HistoricalObligations struct {
	Pushed    map[DialogMove]*PushedObligationMetadata
	Addressed Set[DialogMove]
}

// NewHistoricalObligations returns an empty record.
func NewHistoricalObligations() HistoricalObligations {
	return HistoricalObligations{
		Pushed:    make(map[DialogMove]*PushedObligationMetadata),
		Addressed: make(Set[DialogMove]),
	}
}

// Push inserts or merges an obligation and counts the push.
func (h *HistoricalObligations) Push(move DialogMove, urgency int32, ttl uint32) {
	obligation, ok := h.Pushed[move]
	if !ok {
		obligation = &PushedObligationMetadata{Urgency: urgency, TimeToLive: ttl}
		h.Pushed[move] = obligation
	}
	obligation.Push()
	obligation.Urgency = max(obligation.Urgency, urgency)
	obligation.TimeToLive = max(obligation.TimeToLive, ttl)
}

// RemovePushed withdraws an obligation pushed earlier in the same move.
func (h *HistoricalObligations) RemovePushed(move DialogMove) {
	delete(h.Pushed, move)
}

// Address marks move as addressed by this move.
func (h *HistoricalObligations) Address(move DialogMove) {
	h.Addressed.Add(move)
}

// RemoveAddressed withdraws an addressed mark, typically from an edit callback
// overriding what a child node declared.
func (h *HistoricalObligations) RemoveAddressed(move DialogMove) {
	h.Addressed.Remove(move)
}

func (h HistoricalObligations) clone() HistoricalObligations {
	out := HistoricalObligations{
		Pushed:    make(map[DialogMove]*PushedObligationMetadata, len(h.Pushed)),
		Addressed: h.Addressed.Clone(),
	}
	for move, obligation := range h.Pushed {
		o := *obligation
		out.Pushed[move] = &o
	}
	return out
}

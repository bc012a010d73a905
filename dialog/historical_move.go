package dialog

// HistoricalMove is the record of one realized move. It is appended to the
// conversation history and not mutated afterwards.
type HistoricalMove struct {
	Utterance          string
	Speaker            Speaker
	Person0Obligations HistoricalObligations
	Person1Obligations HistoricalObligations
	// TopicState holds only the topics this move introduced or addressed.
	TopicState TopicState
}

// NewHistoricalMove returns an empty record for speaker.
func NewHistoricalMove(speaker Speaker, utterance string) *HistoricalMove {
	return &HistoricalMove{
		Utterance:          utterance,
		Speaker:            speaker,
		Person0Obligations: NewHistoricalObligations(),
		Person1Obligations: NewHistoricalObligations(),
		TopicState:         NewTopicState(),
	}
}

// WasMoveSatisfied reports whether either participant addressed move.
func (h *HistoricalMove) WasMoveSatisfied(move DialogMove) bool {
	return h.Person0Obligations.Addressed.Has(move) || h.Person1Obligations.Addressed.Has(move)
}

// AllAddressedObligations returns the moves addressed by either participant,
// sorted and without duplicates.
func (h *HistoricalMove) AllAddressedObligations() []DialogMove {
	all := h.Person0Obligations.Addressed.Clone()
	all.Union(h.Person1Obligations.Addressed)
	return Sorted(all)
}

// SpeakerObligations returns the mutable obligation record for s.
func (h *HistoricalMove) SpeakerObligations(s Speaker) *HistoricalObligations {
	if s == Person0 {
		return &h.Person0Obligations
	}
	return &h.Person1Obligations
}

// MyObligations returns the record of whoever made this move.
func (h *HistoricalMove) MyObligations() *HistoricalObligations {
	return h.SpeakerObligations(h.Speaker)
}

// OthersObligations returns the record of the listener.
func (h *HistoricalMove) OthersObligations() *HistoricalObligations {
	return h.SpeakerObligations(h.Speaker.Not())
}

func (h *HistoricalMove) String() string {
	return h.Utterance
}

func (h *HistoricalMove) clone() *HistoricalMove {
	return &HistoricalMove{
		Utterance:          h.Utterance,
		Speaker:            h.Speaker,
		Person0Obligations: h.Person0Obligations.clone(),
		Person1Obligations: h.Person1Obligations.clone(),
		TopicState:         h.TopicState.clone(),
	}
}

package transcript

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/convosim/dialog"
)

// Transcript is the persisted record of one finished conversation.
type Transcript struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Pack      string    `json:"pack,omitempty"`
	Initiator string    `json:"initiator"`
	Person0   string    `json:"person0"`
	Person1   string    `json:"person1"`
	Turns     []Turn    `json:"turns"`
}

// Turn is one realized move. Set-valued fields are sorted.
type Turn struct {
	Index             int                `json:"index"`
	Speaker           string             `json:"speaker"`
	Utterance         string             `json:"utterance"`
	AddressedMoves    []string           `json:"addressed_moves,omitempty"`
	PushedObligations []PushedObligation `json:"pushed_obligations,omitempty"`
	IntroducedTopics  []string           `json:"introduced_topics,omitempty"`
	AddressedTopics   []string           `json:"addressed_topics,omitempty"`
}

// PushedObligation is an obligation a turn placed on a participant.
type PushedObligation struct {
	To      string `json:"to"`
	Move    string `json:"move"`
	Urgency int32  `json:"urgency"`
	TTL     uint32 `json:"ttl"`
}

// FromConversation snapshots the history of conv under a fresh ID.
func FromConversation(conv *dialog.Conversation, pack, person0, person1 string) *Transcript {
	t := &Transcript{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Pack:      pack,
		Initiator: conv.Initiator.String(),
		Person0:   person0,
		Person1:   person1,
		Turns:     make([]Turn, 0, len(conv.History)),
	}
	for i, h := range conv.History {
		t.Turns = append(t.Turns, turnFromMove(i, h))
	}
	return t
}

func turnFromMove(index int, h *dialog.HistoricalMove) Turn {
	turn := Turn{
		Index:            index,
		Speaker:          h.Speaker.String(),
		Utterance:        h.Utterance,
		AddressedMoves:   toStrings(h.AllAddressedObligations()),
		IntroducedTopics: toStrings(dialog.Sorted(h.TopicState.Introduced)),
		AddressedTopics:  toStrings(dialog.Sorted(h.TopicState.Addressed)),
	}
	for _, s := range []dialog.Speaker{dialog.Person0, dialog.Person1} {
		pushed := h.SpeakerObligations(s).Pushed
		moves := make([]dialog.DialogMove, 0, len(pushed))
		for move := range pushed {
			moves = append(moves, move)
		}
		slices.Sort(moves)
		for _, move := range moves {
			turn.PushedObligations = append(turn.PushedObligations, PushedObligation{
				To:      s.String(),
				Move:    string(move),
				Urgency: pushed[move].Urgency,
				TTL:     pushed[move].TimeToLive,
			})
		}
	}
	return turn
}

func toStrings[T ~string](in []T) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

// SpeakerName maps a turn speaker to the participant's display name.
func (t *Transcript) SpeakerName(speaker string) string {
	switch {
	case speaker == dialog.Person0.String() && t.Person0 != "":
		return t.Person0
	case speaker == dialog.Person1.String() && t.Person1 != "":
		return t.Person1
	}
	return speaker
}

// Format renders the transcript as "name: utterance" lines.
func (t *Transcript) Format() string {
	var b strings.Builder
	for _, turn := range t.Turns {
		fmt.Fprintf(&b, "%s: %s\n", t.SpeakerName(turn.Speaker), turn.Utterance)
	}
	return b.String()
}

// Clone deep-copies t.
func (t *Transcript) Clone() *Transcript {
	out := *t
	out.Turns = make([]Turn, len(t.Turns))
	for i, turn := range t.Turns {
		turn.AddressedMoves = slices.Clone(turn.AddressedMoves)
		turn.PushedObligations = slices.Clone(turn.PushedObligations)
		turn.IntroducedTopics = slices.Clone(turn.IntroducedTopics)
		turn.AddressedTopics = slices.Clone(turn.AddressedTopics)
		out.Turns[i] = turn
	}
	return &out
}

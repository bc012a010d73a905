package dialog

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/BaSui01/convosim/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/BaSui01/convosim/dialog"

// Realization kinds and step outcomes reported to a Recorder.
const (
	KindMove  = "move"
	KindTopic = "topic"
	KindLull  = "lull"

	OutcomeRealized = "realized"
	OutcomeBlocked  = "blocked"
	OutcomeFailed   = "failed"

	StepSpoke = "spoke"
	StepLull  = "lull"
	StepEnded = "ended"
	StepError = "error"
)

// Recorder receives simulation measurements.
type Recorder interface {
	RecordRealization(kind, outcome string, d time.Duration)
	RecordStep(outcome string)
	RecordConversation(turns int)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordRealization(string, string, time.Duration) {}
func (NopRecorder) RecordStep(string)                                {}
func (NopRecorder) RecordConversation(int)                           {}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger.With(zap.String("component", "dialog_manager"))
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ManagerOption {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithTracer sets the tracer used for step spans.
func WithTracer(t trace.Tracer) ManagerOption {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// Manager owns the template registry and frames and drives conversations.
// Any number of conversations may be stepped concurrently; registry mutation
// waits for in-flight steps and rebuilds the indices before releasing them.
type Manager struct {
	mu       sync.RWMutex
	expander *Expander
	frames   []Frame

	logger   *zap.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// NewManager creates a manager over nodes and frames.
func NewManager(nodes map[NodeID]*MoveNode, frames []Frame, opts ...ManagerOption) *Manager {
	m := &Manager{
		expander: NewExpander(nodes),
		frames:   slices.Clone(frames),
		logger:   zap.NewNop(),
		recorder: NopRecorder{},
		tracer:   otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewConversation creates a conversation and runs every frame on it in
// registration order.
func (m *Manager) NewConversation(initiator Speaker, lullContinueChance float64, person0, person1 any) (*Conversation, error) {
	if lullContinueChance < 0 || lullContinueChance > 1 || math.IsNaN(lullContinueChance) {
		return nil, types.Errorf(types.ErrInvalidProbability,
			"lull continue chance %v is not within [0, 1]", lullContinueChance)
	}

	conv := newConversation(initiator, lullContinueChance, person0, person1)

	m.mu.RLock()
	frames := slices.Clone(m.frames)
	m.mu.RUnlock()

	for _, frame := range frames {
		frame(conv)
	}
	return conv, nil
}

// NewRand returns a generator seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewEntropyRand returns a generator seeded from system entropy.
func NewEntropyRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Step advances conv by one turn using a freshly seeded generator.
func (m *Manager) Step(ctx context.Context, conv *Conversation, lullMove DialogMove) error {
	return m.StepWithRand(ctx, conv, lullMove, NewEntropyRand())
}

// StepWithRand advances conv by one turn drawing randomness from rng.
//
// The current speaker tries pending topics, then its moves; failing that the
// other participant tries. After a success the speaker marker is flipped once
// more, so it names who speaks next. When nobody can speak, the lull chance
// decides between forcing lullMove and ending the conversation. Only missing
// expanders are returned as errors.
func (m *Manager) StepWithRand(ctx context.Context, conv *Conversation, lullMove DialogMove, rng *rand.Rand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if conv.Done {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ctx, span := m.tracer.Start(ctx, "dialog.step",
		trace.WithAttributes(
			attribute.String("dialog.speaker", conv.Speaker.String()),
			attribute.Int("dialog.turn", conv.Turns()),
		))
	defer span.End()

	outcome, err := m.step(ctx, conv, lullMove, rng)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.recorder.RecordStep(StepError)
		return err
	}

	span.SetAttributes(attribute.String("dialog.outcome", outcome))
	m.recorder.RecordStep(outcome)
	if conv.Done {
		m.recorder.RecordConversation(conv.Turns())
		m.logger.Info("conversation finished",
			zap.String("conversation_id", conversationID(ctx)),
			zap.Int("turns", conv.Turns()))
	}
	return nil
}

func (m *Manager) step(ctx context.Context, conv *Conversation, lullMove DialogMove, rng *rand.Rand) (string, error) {
	conv.Timestep()

	spoke, err := m.attemptToSpeak(ctx, rng, conv)
	if err != nil {
		return "", err
	}
	if !spoke {
		conv.Speaker = conv.Speaker.Not()
		if spoke, err = m.attemptToSpeak(ctx, rng, conv); err != nil {
			return "", err
		}
	}
	if spoke {
		conv.Speaker = conv.Speaker.Not()
		return StepSpoke, nil
	}

	if rng.Float64() >= conv.LullContinueChance {
		conv.Done = true
		return StepEnded, nil
	}

	made, err := m.attemptMove(ctx, rng, conv, KindLull, lullMove)
	if err != nil {
		return "", err
	}
	if !made {
		conv.Speaker = conv.Speaker.Not()
		if made, err = m.attemptMove(ctx, rng, conv, KindLull, lullMove); err != nil {
			return "", err
		}
	}
	if made {
		conv.Speaker = conv.Speaker.Not()
		return StepLull, nil
	}
	conv.Done = true
	return StepEnded, nil
}

func (m *Manager) attemptToSpeak(ctx context.Context, rng *rand.Rand, conv *Conversation) (bool, error) {
	for _, topic := range conv.nextSpeakerTopics(rng) {
		ok, err := m.attemptTopic(ctx, rng, conv, topic)
		if err != nil || ok {
			return ok, err
		}
	}

	moves := conv.nextSpeakerMoves(rng)
	for i := len(moves) - 1; i >= 0; i-- {
		ok, err := m.attemptMove(ctx, rng, conv, KindMove, moves[i])
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (m *Manager) attemptMove(ctx context.Context, rng *rand.Rand, conv *Conversation, kind string, move DialogMove) (bool, error) {
	return m.realize(ctx, conv, kind, string(move), func() (*HistoricalMove, error) {
		return m.expander.AddressDialogMove(conv, rng, move)
	})
}

func (m *Manager) attemptTopic(ctx context.Context, rng *rand.Rand, conv *Conversation, topic Topic) (bool, error) {
	return m.realize(ctx, conv, KindTopic, string(topic), func() (*HistoricalMove, error) {
		return m.expander.AddressTopic(conv, rng, topic)
	})
}

// realize runs one realization, merges a successful result into conv and
// swallows transient failures.
func (m *Manager) realize(ctx context.Context, conv *Conversation, kind, target string, fn func() (*HistoricalMove, error)) (bool, error) {
	start := time.Now()
	h, err := fn()
	elapsed := time.Since(start)

	switch {
	case err == nil:
		conv.updateForMove(h)
		m.recorder.RecordRealization(kind, OutcomeRealized, elapsed)
		m.logger.Debug("realized",
			zap.String("conversation_id", conversationID(ctx)),
			zap.String("kind", kind),
			zap.String("target", target),
			zap.Stringer("speaker", h.Speaker),
			zap.String("utterance", h.Utterance))
		return true, nil
	case IsTransient(err):
		m.recorder.RecordRealization(kind, OutcomeBlocked, elapsed)
		return false, nil
	default:
		m.recorder.RecordRealization(kind, OutcomeFailed, elapsed)
		m.logger.Error("realization failed",
			zap.String("conversation_id", conversationID(ctx)),
			zap.String("kind", kind),
			zap.String("target", target),
			zap.Error(err))
		return false, fmt.Errorf("realize %s %q: %w", kind, target, err)
	}
}

// AttemptMove realizes move for the current speaker and merges it into conv.
// It reports false when the current state does not permit the move.
func (m *Manager) AttemptMove(ctx context.Context, conv *Conversation, rng *rand.Rand, move DialogMove) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attemptMove(ctx, rng, conv, KindMove, move)
}

// AttemptTopic realizes topic for the current speaker and merges it into conv.
func (m *Manager) AttemptTopic(ctx context.Context, conv *Conversation, rng *rand.Rand, topic Topic) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attemptTopic(ctx, rng, conv, topic)
}

// Run steps conv until it is done or maxSteps steps were taken (0 means no
// limit) and returns the number of steps. A nil rng draws fresh entropy on
// every step.
func (m *Manager) Run(ctx context.Context, conv *Conversation, lullMove DialogMove, rng *rand.Rand, maxSteps int) (int, error) {
	steps := 0
	for !conv.Done && (maxSteps <= 0 || steps < maxSteps) {
		r := rng
		if r == nil {
			r = NewEntropyRand()
		}
		if err := m.StepWithRand(ctx, conv, lullMove, r); err != nil {
			return steps, err
		}
		steps++
	}
	return steps, nil
}

// MoveNode returns the node registered under id. Callers that modify it must
// call RebuildExpander afterwards.
func (m *Manager) MoveNode(id NodeID) (*MoveNode, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expander.Node(id)
}

// InsertMoveNode registers node under id, returning the node it replaced.
func (m *Manager) InsertMoveNode(id NodeID, node *MoveNode) (*MoveNode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expander.Insert(id, node)
}

// RemoveMoveNode unregisters id, returning the removed node.
func (m *Manager) RemoveMoveNode(id NodeID) (*MoveNode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expander.Remove(id)
}

// ExtendMoveNodes registers many nodes at once.
func (m *Manager) ExtendMoveNodes(nodes map[NodeID]*MoveNode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expander.Extend(nodes)
}

// RebuildExpander recomputes the registry indices.
func (m *Manager) RebuildExpander() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expander.Build()
}

// AddFrames appends frames. Existing conversations are unaffected.
func (m *Manager) AddFrames(frames ...Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, frames...)
}

// NodeCount returns the number of registered nodes.
func (m *Manager) NodeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expander.Len()
}

func conversationID(ctx context.Context) string {
	id, _ := types.ConversationID(ctx)
	return id
}

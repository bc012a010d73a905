package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/convosim/dialog"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector(reg, "convosim", zap.NewNop()), reg
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector, reg := newTestCollector(t)

	assert.NotNil(t, collector.realizationsTotal)
	assert.NotNil(t, collector.realizationDuration)
	assert.NotNil(t, collector.stepsTotal)
	assert.NotNil(t, collector.conversationTurns)
	assert.NotNil(t, collector.transcriptsSaved)

	// 同一 registry 重复注册应 panic
	assert.Panics(t, func() { NewCollector(reg, "convosim", nil) })

	// 不同 namespace 可共存
	assert.NotPanics(t, func() { NewCollector(reg, "other", nil) })
}

func TestCollector_RecordRealization(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.RecordRealization(dialog.KindMove, dialog.OutcomeRealized, time.Millisecond)
	collector.RecordRealization(dialog.KindMove, dialog.OutcomeRealized, 2*time.Millisecond)
	collector.RecordRealization(dialog.KindTopic, dialog.OutcomeBlocked, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.realizationsTotal.WithLabelValues("move", "realized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.realizationsTotal.WithLabelValues("topic", "blocked")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.realizationsTotal))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.realizationDuration))
}

func TestCollector_RecordStep(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.RecordStep(dialog.StepSpoke)
	collector.RecordStep(dialog.StepSpoke)
	collector.RecordStep(dialog.StepEnded)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.stepsTotal.WithLabelValues("spoke")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.stepsTotal.WithLabelValues("ended")))
}

func TestCollector_RecordConversation(t *testing.T) {
	collector, reg := newTestCollector(t)

	collector.RecordConversation(7)
	collector.RecordConversation(12)

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() != "convosim_conversation_turns" {
			continue
		}
		found = true
		h := mf.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(2), h.GetSampleCount())
		assert.Equal(t, 19.0, h.GetSampleSum())
	}
	assert.True(t, found)
}

func TestCollector_RecordTranscriptSaved(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.RecordTranscriptSaved("sqlite", nil)
	collector.RecordTranscriptSaved("sqlite", errors.New("disk full"))
	collector.RecordTranscriptSaved("redis", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.transcriptsSaved.WithLabelValues("sqlite", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.transcriptsSaved.WithLabelValues("sqlite", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.transcriptsSaved.WithLabelValues("redis", "success")))
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector, _ := newTestCollector(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RecordRealization(dialog.KindLull, dialog.OutcomeRealized, time.Microsecond)
			collector.RecordStep(dialog.StepLull)
			collector.RecordConversation(3)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.realizationsTotal.WithLabelValues("lull", "realized")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.stepsTotal.WithLabelValues("lull")))
}

// =============================================================================
// 🔗 与 dialog.Manager 集成
// =============================================================================

func TestCollector_WithManager(t *testing.T) {
	collector, _ := newTestCollector(t)

	nodes, err := dialog.NewTemplateBuilder().
		Node("hi").Moves("greet").Text("Hi.").Done().
		Build()
	require.NoError(t, err)

	m := dialog.NewManager(nodes, nil, dialog.WithRecorder(collector))
	conv, err := m.NewConversation(dialog.Person0, 0, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	rng := dialog.NewRand(1)

	ok, err := m.AttemptMove(ctx, conv, rng, "greet")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.realizationsTotal.WithLabelValues("move", "realized")))

	// 无义务且闲聊概率为 0 时会话结束
	_, err = m.Run(ctx, conv, "greet", rng, 10)
	require.NoError(t, err)
	assert.True(t, conv.Done)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.stepsTotal.WithLabelValues("ended")))
}

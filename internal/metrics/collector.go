// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/convosim/dialog"
)

var _ dialog.Recorder = (*Collector)(nil)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器，实现 dialog.Recorder
type Collector struct {
	// 实现指标
	realizationsTotal   *prometheus.CounterVec
	realizationDuration *prometheus.HistogramVec

	// 会话指标
	stepsTotal        *prometheus.CounterVec
	conversationTurns prometheus.Histogram

	// 存储指标
	transcriptsSaved *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 在 reg 上注册并创建指标收集器
func NewCollector(reg prometheus.Registerer, namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.realizationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realizations_total",
			Help:      "Total number of move and topic realization attempts",
		},
		[]string{"kind", "outcome"},
	)

	c.realizationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "realization_duration_seconds",
			Help:      "Time spent searching for and applying an expansion",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"kind"},
	)

	c.stepsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Total number of conversation steps",
		},
		[]string{"outcome"},
	)

	c.conversationTurns = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversation_turns",
			Help:      "Number of moves in finished conversations",
			Buckets:   prometheus.LinearBuckets(0, 5, 12),
		},
	)

	c.transcriptsSaved = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_saved_total",
			Help:      "Total number of transcript save attempts",
		},
		[]string{"driver", "status"},
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// =============================================================================
// 🎯 记录方法
// =============================================================================

// RecordRealization 记录一次实现尝试
func (c *Collector) RecordRealization(kind, outcome string, d time.Duration) {
	c.realizationsTotal.WithLabelValues(kind, outcome).Inc()
	c.realizationDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordStep 记录一次会话步进
func (c *Collector) RecordStep(outcome string) {
	c.stepsTotal.WithLabelValues(outcome).Inc()
}

// RecordConversation 记录结束会话的轮数
func (c *Collector) RecordConversation(turns int) {
	c.conversationTurns.Observe(float64(turns))
}

// RecordTranscriptSaved 记录一次对话记录保存
func (c *Collector) RecordTranscriptSaved(driver string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.transcriptsSaved.WithLabelValues(driver, status).Inc()
}

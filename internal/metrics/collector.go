package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// LLM 指标
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensUsed      *prometheus.CounterVec
	llmRateLimitWaits  prometheus.Counter
	llmRateLimitDelay  prometheus.Histogram

	// 对话指标
	turnsTotal         *prometheus.CounterVec
	turnDuration       *prometheus.HistogramVec
	nodeTransitions    *prometheus.CounterVec
	escalationsTotal   prometheus.Counter
	offersAtEscalation prometheus.Histogram

	// 审计指标
	auditAppendsTotal *prometheus.CounterVec

	// 数据库指标
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// LLM 指标
	c.llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"provider", "model", "status"},
	)

	c.llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.llmTokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"provider", "model", "type"}, // type: prompt, completion
	)

	c.llmRateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_rate_limit_waits_total",
		Help:      "Total number of backoff waits after a rate-limit signal",
	})

	c.llmRateLimitDelay = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_rate_limit_delay_seconds",
		Help:      "Backoff delay chosen after a rate-limit signal",
		Buckets:   []float64{1, 5, 15, 30, 45, 60, 120},
	})

	// 对话指标
	c.turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_turns_total",
			Help:      "Total number of conversation turns by handling node",
		},
		[]string{"node", "status"},
	)

	c.turnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversation_turn_duration_seconds",
			Help:      "Conversation turn duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"node"},
	)

	c.nodeTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_node_transitions_total",
			Help:      "Total number of node transitions",
		},
		[]string{"from", "to"},
	)

	c.escalationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retention_escalations_total",
		Help:      "Total number of retention negotiations escalated to processing",
	})

	c.offersAtEscalation = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "retention_offers_at_escalation",
		Help:      "Offers made before the customer was escalated",
		Buckets:   []float64{0, 1, 2, 3, 4, 5},
	})

	// 审计指标
	c.auditAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_appends_total",
			Help:      "Total number of audit appends by sink",
		},
		[]string{"sink", "status"},
	)

	// 数据库指标
	c.dbConnectionsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 🤖 LLM 指标记录
// =============================================================================

// RecordLLMRequest 记录 LLM 请求，实现 llm.CallObserver
func (c *Collector) RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int) {
	c.llmRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	c.llmTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	c.llmTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
}

// RecordRateLimitWait 记录一次限流退避，签名匹配 retry.RateLimitPolicy.OnWait
func (c *Collector) RecordRateLimitWait(_, _ int, delay time.Duration) {
	c.llmRateLimitWaits.Inc()
	c.llmRateLimitDelay.Observe(delay.Seconds())
}

// =============================================================================
// 💬 对话指标记录
// =============================================================================

// RecordTurn 记录一轮对话，实现 workflow.TurnRecorder
func (c *Collector) RecordTurn(node, status string, duration time.Duration) {
	c.turnsTotal.WithLabelValues(node, status).Inc()
	c.turnDuration.WithLabelValues(node).Observe(duration.Seconds())
}

// RecordTransition 记录节点转换
func (c *Collector) RecordTransition(from, to string) {
	c.nodeTransitions.WithLabelValues(from, to).Inc()
}

// RecordEscalation 记录挽留升级
func (c *Collector) RecordEscalation(offersMade int) {
	c.escalationsTotal.Inc()
	c.offersAtEscalation.Observe(float64(offersMade))
}

// =============================================================================
// 📝 审计指标记录
// =============================================================================

// RecordAuditAppend 记录审计写入，实现 audit.ResultObserver
func (c *Collector) RecordAuditAppend(sink string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.auditAppendsTotal.WithLabelValues(sink, status).Inc()
}

// =============================================================================
// 🗄️ 数据库指标记录
// =============================================================================

// RecordDBConnections 记录数据库连接数
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chaincare"

var (
	// Registry 应用指标注册表
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "path"})

	depositsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "deposits",
		Name:      "recorded_total",
		Help:      "Deposits recorded through the API.",
	})

	pointsAwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rewards",
		Name:      "points_awarded_total",
		Help:      "Reward points credited to wallets.",
	})

	achievementsAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rewards",
		Name:      "achievements_awarded_total",
		Help:      "Achievements awarded, by achievement name.",
	}, []string{"achievement"})

	pointsRepaired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rewards",
		Name:      "points_repaired_total",
		Help:      "Reward point balances corrected by reconciliation.",
	})

	apyFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "vault",
		Name:      "apy_fallbacks_total",
		Help:      "APY lookups that fell back to the default rate, by reason.",
	}, []string{"reason"})

	vaultTransactions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "vault",
		Name:      "transactions_total",
		Help:      "Vault transactions submitted, by method and outcome.",
	}, []string{"method", "status"})

	monitorEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "events_total",
		Help:      "Chain events processed by the monitor, by event name.",
	}, []string{"event"})

	monitorBlock = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "last_block",
		Help:      "Last block scanned by the chain monitor.",
	})

	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "task",
		Name:      "runs_total",
		Help:      "Scheduled job executions.",
	}, []string{"job", "success"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "task",
		Name:      "run_duration_seconds",
		Help:      "Duration of scheduled job executions.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"job"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		depositsRecorded,
		pointsAwarded,
		achievementsAwarded,
		pointsRepaired,
		apyFallbacks,
		vaultTransactions,
		monitorEvents,
		monitorBlock,
		jobRuns,
		jobDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler 暴露已注册的指标
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware 记录 HTTP 请求指标，路径使用路由模板避免标签爆炸
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordDeposit(points float64) {
	depositsRecorded.Inc()
	if points > 0 {
		pointsAwarded.Add(points)
	}
}

func RecordAchievement(name string) {
	achievementsAwarded.WithLabelValues(name).Inc()
}

func RecordPointsRepair() {
	pointsRepaired.Inc()
}

func RecordAPYFallback(reason string) {
	apyFallbacks.WithLabelValues(reason).Inc()
}

func RecordVaultTransaction(method string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	vaultTransactions.WithLabelValues(method, status).Inc()
}

func RecordMonitorEvent(event string) {
	monitorEvents.WithLabelValues(event).Inc()
}

func SetMonitorBlock(block int64) {
	monitorBlock.Set(float64(block))
}

// RecordJobRun 记录定时任务执行
func RecordJobRun(job string, duration time.Duration, err error) {
	jobRuns.WithLabelValues(job, strconv.FormatBool(err == nil)).Inc()
	jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

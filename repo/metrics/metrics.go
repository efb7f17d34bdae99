package metrics

import (
	"net/http"

	"github.com/HildaM/logs/slog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QARequests QA请求计数，按规划开关区分
	QARequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qa_requests_total",
			Help: "Total number of QA pipeline runs.",
		},
		[]string{"planning"},
	)

	// QAFailures 流水线失败计数，按错误种类区分
	QAFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qa_failures_total",
			Help: "Total number of failed QA pipeline runs by error kind.",
		},
		[]string{"kind"},
	)

	// QADuration 流水线整体耗时
	QADuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qa_duration_seconds",
			Help:    "End-to-end QA pipeline duration.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ChunksIndexed 摄取写入的分块计数
	ChunksIndexed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chunks_indexed_total",
			Help: "Total number of document chunks written to the vector index.",
		},
	)
)

func init() {
	prometheus.MustRegister(QARequests)
	prometheus.MustRegister(QAFailures)
	prometheus.MustRegister(QADuration)
	prometheus.MustRegister(ChunksIndexed)
}

// Serve 在独立端口暴露 /metrics，addr 为空则不启动
func Serve(addr string) {
	if addr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server failed, err: %v", err)
		}
	}()
}

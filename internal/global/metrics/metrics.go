// Package metrics 汇总 Prometheus 指标，/metrics 由 ping 模块暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "按路由与状态码统计的请求数",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "请求耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	ReviewTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_transitions_total",
		Help:      "审核状态迁移结果",
	}, []string{"action", "result"})

	DefenseDraws = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "defense_draws_total",
		Help:      "答辩顺序抽签结果",
	}, []string{"source", "result"})

	DetectorChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sensitive_checks_total",
		Help:      "附件敏感信息检测结果",
	}, []string{"file_type", "result"})

	Certificates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "certificates_rendered_total",
		Help:      "获奖证书生成结果",
	}, []string{"result"})
)

// Result 把 error 归为 ok / error 两种标签
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Package metrics exposes emberd's request, connection, upload, CGI and
// buffer-pool counters as Prometheus metrics. Registration is explicit:
// NewServer builds a registry carrying every collector, and Render
// serializes it into a wire-level response so the reactor can answer
// /metrics scrapes without a second listener.
package metrics

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/emberd/pkg/emberd/cgi"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// Server aggregates the per-request counters the handler records.
type Server struct {
	registry *prometheus.Registry

	connectionsAccepted prometheus.Counter
	requestsTotal       *prometheus.CounterVec
	uploadBytes         prometheus.Counter
}

// NewServer builds a metrics registry with every emberd collector attached:
// the request/connection/upload counters, the CGI invocation collector,
// the buffer-pool collector, and the standard Go runtime collectors.
func NewServer() *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		registry: reg,
		connectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emberd",
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted client connections",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emberd",
			Name:      "requests_total",
			Help:      "Total number of completed requests by status class",
		}, []string{"class"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emberd",
			Name:      "upload_bytes_total",
			Help:      "Total bytes written by the upload producer",
		}),
	}
	reg.MustRegister(
		s.connectionsAccepted,
		s.requestsTotal,
		s.uploadBytes,
		NewBufferPoolCollector(),
		newCGICollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

// ConnectionAccepted records one accepted client connection.
func (s *Server) ConnectionAccepted() {
	s.connectionsAccepted.Inc()
}

// RequestCompleted records one completed request by its status class
// ("2xx", "4xx", ...).
func (s *Server) RequestCompleted(status int) {
	s.requestsTotal.WithLabelValues(statusClass(status)).Inc()
}

// UploadStored records bytes persisted by a successful upload.
func (s *Server) UploadStored(n int) {
	s.uploadBytes.Add(float64(n))
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

// Render serializes the registry in Prometheus exposition format as a
// wire.Response, bridging promhttp's net/http contract onto the reactor's
// own response type.
func (s *Server) Render() *wire.Response {
	rec := &recorder{header: make(http.Header), status: http.StatusOK}
	req := &http.Request{
		Method: http.MethodGet,
		URL:    &url.URL{Path: "/metrics"},
		Header: make(http.Header),
	}
	promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(rec, req)

	resp := wire.NewResponse()
	resp.SetStatus(rec.status)
	for name, values := range rec.header {
		if len(values) > 0 {
			resp.Header.Set(name, values[0])
		}
	}
	resp.Body = rec.body.Bytes()
	return resp
}

// recorder is the minimal http.ResponseWriter promhttp needs.
type recorder struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) Write(p []byte) (int, error) { return r.body.Write(p) }

func (r *recorder) WriteHeader(status int) { r.status = status }

// cgiCollector surfaces the cgi package's invocation counters at scrape
// time, the same snapshot-on-scrape split the buffer-pool collector uses.
type cgiCollector struct {
	invocations *prometheus.Desc
	failures    *prometheus.Desc
}

func newCGICollector() prometheus.Collector {
	return &cgiCollector{
		invocations: prometheus.NewDesc(
			prometheus.BuildFQName("emberd", "cgi", "invocations_total"),
			"Total number of CGI script invocations", nil, nil),
		failures: prometheus.NewDesc(
			prometheus.BuildFQName("emberd", "cgi", "failures_total"),
			"Total number of failed CGI invocations", nil, nil),
	}
}

func (c *cgiCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.invocations
	ch <- c.failures
}

func (c *cgiCollector) Collect(ch chan<- prometheus.Metric) {
	stats := cgi.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.invocations, prometheus.CounterValue, float64(stats.Invocations))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(stats.Failures))
}

// Package server wires the request pipeline together: a completed request
// from the reactor is routed into a Decision, dispatched to the matching
// producer (static, autoindex, redirect, upload, CGI, error), counted, and
// logged. It is the only package that sees every subsystem at once.
package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/emberd/pkg/emberd/cgi"
	"github.com/yourusername/emberd/pkg/emberd/metrics"
	"github.com/yourusername/emberd/pkg/emberd/router"
	"github.com/yourusername/emberd/pkg/emberd/serve"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// Handler implements reactor.Handler over the router and the response
// producers.
type Handler struct {
	Router  *router.Router
	CGI     *cgi.Engine
	Metrics *metrics.Server
	Log     *logrus.Logger

	// MetricsPath, when non-empty, serves the Prometheus registry for GET
	// requests on that exact path, ahead of routing.
	MetricsPath string
}

// NewHandler builds a Handler with a default CGI engine.
func NewHandler(r *router.Router, m *metrics.Server, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Router:  r,
		CGI:     &cgi.Engine{Log: log},
		Metrics: m,
		Log:     log,
	}
}

// Handle turns one completed request into a response. Each request gets a
// v4 UUID request id, attached as X-Request-Id so it reaches CGI children
// as HTTP_X_REQUEST_ID and flows through the structured logs.
func (h *Handler) Handle(req *wire.Request) *wire.Response {
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	resp := h.dispatch(req)

	if h.Metrics != nil {
		h.Metrics.RequestCompleted(resp.StatusCode)
	}
	h.Log.WithFields(logrus.Fields{
		"request_id": reqID,
		"method":     req.Method,
		"path":       req.Path,
		"status":     resp.StatusCode,
		"remote":     req.RemoteAddr,
	}).Info("request completed")

	return resp
}

func (h *Handler) dispatch(req *wire.Request) *wire.Response {
	if h.MetricsPath != "" && req.Err == nil &&
		req.Method == wire.MethodGET && req.Path == h.MetricsPath {
		return h.Metrics.Render()
	}

	d := h.Router.Route(req)
	switch d.Kind {
	case router.KindStatic:
		return serve.Static(d)
	case router.KindAutoindex:
		return serve.Autoindex(d, req)
	case router.KindRedirect:
		return serve.Redirect(d)
	case router.KindUpload:
		resp := serve.Upload(d, req)
		if resp.StatusCode == 201 && h.Metrics != nil {
			h.Metrics.UploadStored(len(req.Body))
		}
		return resp
	case router.KindCgi:
		return h.CGI.Run(context.Background(), d, req)
	default:
		return serve.Error(d)
	}
}

// Package cgi executes CGI/1.1 scripts as subprocesses, building the RFC
// 3875 environment from a router.Decision and the originating Request,
// piping the request body to the child's stdin, and parsing the header
// block the child writes to stdout into a wire.Response. Process plumbing
// goes through os/exec, which already handles pipe setup, partial writes
// and EINTR retries and reaps the child exactly once.
package cgi

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/emberd/pkg/emberd/router"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// DefaultTimeout bounds how long a CGI child may run before the parent
// kills it and reports a 500. CGI runs synchronously between reactor
// ticks, so a hung script would otherwise wedge every connection.
const DefaultTimeout = 30 * time.Second

// Engine runs CGI scripts. The zero value uses DefaultTimeout.
type Engine struct {
	Timeout time.Duration
	Log     *logrus.Logger
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

func (e *Engine) log() *logrus.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}

// Run executes the script named by d against req and returns the parsed
// CGI response. It never returns an error: exec failure, timeout, empty
// output and malformed output all become a 500 wire.Response, and no
// partial CGI output is ever sent to a client.
func (e *Engine) Run(ctx context.Context, d router.Decision, req *wire.Request) *wire.Response {
	recordInvocation()

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	split := splitDecision(d)
	argv := []string{split.scriptPath}
	name := split.scriptPath
	if d.CgiInterpreter != "" {
		name = d.CgiInterpreter
		argv = []string{d.CgiInterpreter, split.scriptPath}
	}

	cmd := exec.CommandContext(ctx, name, argv[1:]...)
	cmd.Env = buildEnv(d, req)

	if req.Method == wire.MethodPOST && len(req.Body) > 0 {
		cmd.Stdin = bytes.NewReader(req.Body)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		recordFailure()
		e.log().WithFields(logrus.Fields{"script": split.scriptPath}).Warn("cgi: script timed out")
		return errorResponse("CGI script exceeded its time limit.")
	}
	if runErr != nil && out.Len() == 0 {
		recordFailure()
		e.log().WithError(runErr).WithField("script", split.scriptPath).Warn("cgi: exec failed")
		return errorResponse("CGI execution error: could not start script.")
	}

	if out.Len() == 0 {
		recordFailure()
		e.log().WithField("script", split.scriptPath).Warn("cgi: empty output")
		return errorResponse("CGI execution error: no output from CGI script.")
	}

	resp, err := parseOutput(out.Bytes())
	if err != nil {
		recordFailure()
		if errors.Is(err, errMalformedOutput) {
			e.log().WithField("script", split.scriptPath).Warn("cgi: malformed output")
			return errorResponse("CGI execution error: malformed CGI output.")
		}
		return errorResponse("CGI execution error.")
	}
	return resp
}

func errorResponse(msg string) *wire.Response {
	resp := wire.NewResponse()
	resp.SetStatus(500)
	resp.Header.Set("Content-Type", "text/html")
	resp.Body = []byte("<html><body><h1>500 Internal Server Error</h1><p>" + msg + "</p></body></html>")
	return resp
}

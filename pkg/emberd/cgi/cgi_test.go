package cgi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/yourusername/emberd/pkg/emberd/router"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "s.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func cgiDecision(script string) router.Decision {
	return router.Decision{
		Kind:           router.KindCgi,
		MountURI:       "/cgi-bin",
		RelPath:        "/s.sh",
		FsPath:         script,
		Root:           filepath.Dir(script),
		CgiExt:         ".sh",
		CgiInterpreter: "/bin/sh",
	}
}

func TestRunScriptWithQuery(t *testing.T) {
	script := writeScript(t, "echo \"Content-Type: text/plain\"\necho\nprintf 'QS=%s' \"$QUERY_STRING\"\n")

	req := wire.GetRequest()
	defer wire.PutRequest(req)
	req.Method = wire.MethodGET
	req.Query = "x=1"
	req.Header.Set("Host", "a")

	e := &Engine{}
	resp := e.Run(context.Background(), cgiDecision(script), req)
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, body = %q", resp.StatusCode, resp.Body)
	}
	if string(resp.Body) != "QS=x=1" {
		t.Errorf("body = %q", resp.Body)
	}
	if ct, _ := resp.Header.Get("Content-Type"); ct != "text/plain" {
		t.Errorf("content-type = %q", ct)
	}
}

func TestRunLocationDefaultsTo302(t *testing.T) {
	script := writeScript(t, "echo \"Location: /elsewhere\"\necho\n")

	req := wire.GetRequest()
	defer wire.PutRequest(req)
	req.Method = wire.MethodGET

	e := &Engine{}
	resp := e.Run(context.Background(), cgiDecision(script), req)
	if resp.StatusCode != 302 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if loc, _ := resp.Header.Get("Location"); loc != "/elsewhere" {
		t.Errorf("location = %q", loc)
	}
}

func TestRunExplicitStatusWins(t *testing.T) {
	script := writeScript(t, "echo \"Status: 418 I'm a teapot\"\necho \"Location: /x\"\necho\n")

	req := wire.GetRequest()
	defer wire.PutRequest(req)
	req.Method = wire.MethodGET

	e := &Engine{}
	resp := e.Run(context.Background(), cgiDecision(script), req)
	if resp.StatusCode != 418 {
		t.Fatalf("status = %d, want 418", resp.StatusCode)
	}
}

func TestRunPostBodyReachesStdin(t *testing.T) {
	script := writeScript(t, "echo \"Content-Type: text/plain\"\necho\ncat\n")

	req := wire.GetRequest()
	defer wire.PutRequest(req)
	req.Method = wire.MethodPOST
	req.Body = []byte("hello=world")

	e := &Engine{}
	resp := e.Run(context.Background(), cgiDecision(script), req)
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != "hello=world" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestRunMissingScriptIs500(t *testing.T) {
	req := wire.GetRequest()
	defer wire.PutRequest(req)
	req.Method = wire.MethodGET

	d := cgiDecision("/no/such/script.sh")
	d.CgiInterpreter = ""

	e := &Engine{}
	resp := e.Run(context.Background(), d, req)
	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestRunEmptyOutputIs500(t *testing.T) {
	script := writeScript(t, "exit 0\n")

	req := wire.GetRequest()
	defer wire.PutRequest(req)
	req.Method = wire.MethodGET

	e := &Engine{}
	resp := e.Run(context.Background(), cgiDecision(script), req)
	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

package cgi

import "testing"

func TestParseOutputWithStatus(t *testing.T) {
	raw := []byte("Content-Type: text/plain\r\nStatus: 404 Not Found\r\n\r\nmissing\n")
	resp, err := parseOutput(raw)
	if err != nil {
		t.Fatalf("parseOutput: %v", err)
	}
	if resp.StatusCode != 404 || resp.StatusMessage != "Not Found" {
		t.Fatalf("status = %d %q", resp.StatusCode, resp.StatusMessage)
	}
	if string(resp.Body) != "missing\n" {
		t.Fatalf("body = %q", resp.Body)
	}
	if ct, _ := resp.Header.Get("Content-Type"); ct != "text/plain" {
		t.Fatalf("content-type = %q", ct)
	}
}

func TestParseOutputLocationDefaultsTo302(t *testing.T) {
	raw := []byte("Location: /elsewhere\r\n\r\n")
	resp, err := parseOutput(raw)
	if err != nil {
		t.Fatalf("parseOutput: %v", err)
	}
	if resp.StatusCode != 302 {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	loc, _ := resp.Header.Get("Location")
	if loc != "/elsewhere" {
		t.Fatalf("location = %q", loc)
	}
}

func TestParseOutputLFFallback(t *testing.T) {
	raw := []byte("Content-Type: text/plain\n\nQS=x=1")
	resp, err := parseOutput(raw)
	if err != nil {
		t.Fatalf("parseOutput: %v", err)
	}
	if string(resp.Body) != "QS=x=1" {
		t.Fatalf("body = %q", resp.Body)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestParseOutputNoSeparatorFails(t *testing.T) {
	if _, err := parseOutput([]byte("not a valid cgi response")); err == nil {
		t.Fatal("expected error for missing header/body separator")
	}
}

func TestParseOutputDefaultContentType(t *testing.T) {
	raw := []byte("\r\n\r\n<html></html>")
	resp, err := parseOutput(raw)
	if err != nil {
		t.Fatalf("parseOutput: %v", err)
	}
	if ct, _ := resp.Header.Get("Content-Type"); ct != "text/html" {
		t.Fatalf("content-type = %q", ct)
	}
}

package cgi

import "errors"

var (
	errMalformedOutput = errors.New("cgi: no header/body separator in script output")
	errEmptyOutput     = errors.New("cgi: script produced no output")
)

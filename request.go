package responder

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

var crlf = []byte("\r\n")

// RequestLine is the first line of an HTTP request.
type RequestLine struct {
	Method  string
	Path    string
	Version string
}

// String returns the request line as it is printed for each request.
func (l RequestLine) String() string {
	return l.Method + " " + l.Path + " " + l.Version
}

// ParseRequestLine extracts the request line from the bytes of a request.
// Only the text before the first CRLF is looked at, it must be valid UTF-8
// and hold exactly three whitespace separated tokens.
func ParseRequestLine(b []byte) (RequestLine, error) {
	if len(b) == 0 {
		return RequestLine{}, ErrNoData
	}
	line := b
	if i := bytes.Index(b, crlf); i >= 0 {
		line = b[:i]
	}
	if !utf8.Valid(line) {
		return RequestLine{}, &MalformedError{
			Line:   string(line),
			Reason: "invalid utf-8",
		}
	}
	s := string(line)
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return RequestLine{}, &MalformedError{
			Line:   s,
			Tokens: len(fields),
			Reason: fmt.Sprintf("got %d tokens, want 3", len(fields)),
		}
	}
	return RequestLine{
		Method:  fields[0],
		Path:    fields[1],
		Version: fields[2],
	}, nil
}

package http

import (
	"strconv"
	"strings"
)

// Request is a parsed HTTP request. It is built once per connection by
// ReadRequest and must not be modified afterwards.
type Request struct {
	Method string
	Path   string
	Proto  string

	// Headers are keyed by lower-cased name, last occurrence wins
	Headers map[string]string

	Body []byte
}

// Header returns the value of the named header, case-insensitively
func (r *Request) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[strings.ToLower(name)]
}

// ContentLength returns the declared body length, or 0 when the header is
// absent, negative or not a number.
func (r *Request) ContentLength() int {
	n, ok := parseContentLength(r.Header(HeaderContentLength))
	if !ok {
		return 0
	}
	return n
}

func parseContentLength(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// HandlerFunc maps a parsed request to a response. A returned error, a
// panic or a nil response is answered with 500 Internal Server Error.
type HandlerFunc func(req *Request) (*Response, error)

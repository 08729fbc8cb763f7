package http

import (
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/proto"
)

// Response is produced by a handler and serialized once by the engine
type Response struct {
	Status  int
	Body    []byte
	Headers map[string]string
}

// NewResponse creates an empty response with the given status code
func NewResponse(code int) *Response {
	return &Response{Status: code}
}

// Text creates a text/plain response
func Text(code int, s string) *Response {
	return NewResponse(code).SetBody(MIMEText, []byte(s))
}

// HTML creates a text/html response
func HTML(code int, s string) *Response {
	return NewResponse(code).SetBody(MIMEHTML, []byte(s))
}

// JSON creates an application/json response from v
func JSON(code int, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return NewResponse(code).SetBody(MIMEJSON, data), nil
}

// Protobuf creates an application/x-protobuf response from msg
func Protobuf(code int, msg proto.Message) (*Response, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal protobuf: %w", err)
	}
	return NewResponse(code).SetBody(MIMEProtobuf, data), nil
}

// File creates a 200 response holding the contents of the file at path.
// The content type is chosen by extension.
func File(path string) (*Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewResponse(200).SetBody(ContentTypeByExt(path), data), nil
}

// SetBody sets the body and its Content-Type
func (r *Response) SetBody(contentType string, body []byte) *Response {
	r.Body = body
	return r.SetHeader(HeaderContentType, contentType)
}

// SetHeader sets a response header, replacing any previous value. Names
// are stored in canonical form, so "content-type" and "Content-Type" are
// the same header.
func (r *Response) SetHeader(key, value string) *Response {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[canonicalKey(key)] = value
	return r
}

// headerSanitizer removes line breaks that would end a header line early
var headerSanitizer = strings.NewReplacer("\r", "", "\n", "")

func canonicalKey(key string) string {
	return textproto.CanonicalMIMEHeaderKey(headerSanitizer.Replace(key))
}

// SetHeaders merges headers into the response
func (r *Response) SetHeaders(headers map[string]string) *Response {
	for k, v := range headers {
		r.SetHeader(k, v)
	}
	return r
}

// SetDate sets the Date header to t in RFC 1123 format, UTC
func (r *Response) SetDate(t time.Time) *Response {
	return r.SetHeader(HeaderDate, t.UTC().Format(nethttp.TimeFormat))
}

// AppendTo appends the wire form of the response to b.
//
// Content-Length is always computed from the body; a handler supplied
// Content-Length header is ignored. Other headers follow, sorted by
// canonical name, with CR and LF removed from names and values.
func (r *Response) AppendTo(b []byte) []byte {
	b = r.AppendHead(b)
	return append(b, r.Body...)
}

// AppendHead appends the status line and headers, including the blank
// line, but not the body. It answers HEAD requests.
func (r *Response) AppendHead(b []byte) []byte {
	b = append(b, "HTTP/1.1 "...)
	b = strconv.AppendInt(b, int64(r.Status), 10)
	b = append(b, ' ')
	b = append(b, StatusText(r.Status)...)
	b = append(b, "\r\nContent-Length: "...)
	b = strconv.AppendInt(b, int64(len(r.Body)), 10)
	b = append(b, "\r\n"...)

	if len(r.Headers) > 0 {
		// Fold keys that differ only in case; in sorted order of the raw
		// keys the last one wins.
		raw := make([]string, 0, len(r.Headers))
		for k := range r.Headers {
			raw = append(raw, k)
		}
		sort.Strings(raw)

		folded := make(map[string]string, len(raw))
		for _, k := range raw {
			ck := canonicalKey(k)
			if ck == "" || ck == HeaderContentLength {
				continue
			}
			folded[ck] = headerSanitizer.Replace(r.Headers[k])
		}

		keys := make([]string, 0, len(folded))
		for k := range folded {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b = append(b, k...)
			b = append(b, ": "...)
			b = append(b, folded[k]...)
			b = append(b, "\r\n"...)
		}
	}

	return append(b, "\r\n"...)
}

// WriteTo writes the wire form of the response to w in a single write
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	buf := r.AppendTo(make([]byte, 0, 128+len(r.Body)))
	n, err := w.Write(buf)
	return int64(n), err
}

// NotFound is the fixed response for a path with no route
func NotFound() *Response {
	return &Response{Status: 404, Body: []byte("404 Not Found")}
}

// MethodNotAllowed answers a request whose path is routed under other methods
func MethodNotAllowed(allowed []string) *Response {
	r := &Response{Status: 405, Body: []byte("405 Method Not Allowed")}
	return r.SetHeader(HeaderAllow, strings.Join(allowed, ", "))
}

// InternalError is sent when a handler fails
func InternalError() *Response {
	return &Response{Status: 500, Body: []byte("500 Internal Server Error")}
}

// StatusText returns the standard reason phrase for code
func StatusText(code int) string {
	if text := nethttp.StatusText(code); text != "" {
		return text
	}
	return "Unknown"
}

// ContentTypeByExt picks a content type from the file extension
func ContentTypeByExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".html", ".htm":
		return MIMEHTML
	case ".css":
		return "text/css"
	case ".js":
		return "application/javascript"
	case ".json":
		return MIMEJSON
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".txt":
		return MIMEText
	default:
		return MIMEOctetStream
	}
}

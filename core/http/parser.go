package http

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Limits bounds what ReadRequest accepts from a peer
type Limits struct {
	MaxLineBytes int // request line and each header line, excluding CRLF
	MaxHeaders   int
	MaxBodyBytes int
}

// DefaultLimits is used for any zero field of the Limits passed to ReadRequest
var DefaultLimits = Limits{
	MaxLineBytes: 8 * 1024,
	MaxHeaders:   100,
	MaxBodyBytes: 10 * 1024 * 1024,
}

func (l Limits) normalize() Limits {
	if l.MaxLineBytes <= 0 {
		l.MaxLineBytes = DefaultLimits.MaxLineBytes
	}
	if l.MaxHeaders <= 0 {
		l.MaxHeaders = DefaultLimits.MaxHeaders
	}
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = DefaultLimits.MaxBodyBytes
	}
	return l
}

// ReadRequest reads one request from r: the request line, headers up to
// the first empty line, and a body of exactly Content-Length bytes.
//
// Chunked transfer encoding is not decoded; such requests are rejected
// with ErrUnsupportedTransferEncoding.
func ReadRequest(r *bufio.Reader, limits Limits) (*Request, error) {
	limits = limits.normalize()

	line, err := readLine(r, limits.MaxLineBytes)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrConnectionClosed
		}
		return nil, fmt.Errorf("read request line: %w", err)
	}

	req := &Request{}
	if err := parseRequestLine(req, line); err != nil {
		return nil, err
	}

	req.Headers, err = readHeaders(r, limits)
	if err != nil {
		return nil, err
	}

	if te := req.Headers["transfer-encoding"]; te != "" && !strings.EqualFold(te, "identity") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransferEncoding, te)
	}

	n, ok := parseContentLength(req.Headers["content-length"])
	if !ok || n == 0 {
		return req, nil
	}
	if n > limits.MaxBodyBytes {
		return nil, fmt.Errorf("%w: %d bytes declared, limit %d", ErrBodyTooLarge, n, limits.MaxBodyBytes)
	}

	req.Body = make([]byte, n)
	if read, err := io.ReadFull(r, req.Body); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedBody, read, n)
		}
		return nil, fmt.Errorf("read body: %w", err)
	}

	return req, nil
}

// parseRequestLine splits METHOD PATH PROTO
func parseRequestLine(req *Request, line string) error {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return fmt.Errorf("%w: %q", ErrMalformedRequestLine, line)
	}

	path := parts[1]
	if path != "*" && !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: bad path %q", ErrMalformedRequestLine, path)
	}

	req.Method = parts[0]
	req.Path = path
	req.Proto = parts[2]
	return nil
}

func readHeaders(r *bufio.Reader, limits Limits) (map[string]string, error) {
	headers := make(map[string]string)
	count := 0

	for {
		line, err := readLine(r, limits.MaxLineBytes)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrConnectionClosed
			}
			return nil, fmt.Errorf("read header: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			return headers, nil
		}

		count++
		if count > limits.MaxHeaders {
			return nil, fmt.Errorf("%w: more than %d headers", ErrMalformedHeader, limits.MaxHeaders)
		}

		// A line without ": " is kept whole as the name with an empty value
		name, value, _ := strings.Cut(line, ": ")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}
		headers[name] = value
	}
}

// readLine returns the next line without its line terminator. A final line
// with no terminator is returned as is; io.EOF is only reported when
// nothing at all could be read.
func readLine(r *bufio.Reader, max int) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if len(line)+len(chunk) > max+2 {
			return "", ErrLineTooLong
		}
		line = append(line, chunk...)

		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			break
		}
		return "", err
	}

	line = trimEOL(line)
	return string(line), nil
}

func trimEOL(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return b
}

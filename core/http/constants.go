package http

import "errors"

// HTTP header constants
const (
	HeaderContentType      = "Content-Type"
	HeaderContentLength    = "Content-Length"
	HeaderTransferEncoding = "Transfer-Encoding"
	HeaderDate             = "Date"
	HeaderAllow            = "Allow"
	HeaderServer           = "Server"
)

// Content types used by the response builders
const (
	MIMEText        = "text/plain"
	MIMEHTML        = "text/html"
	MIMEJSON        = "application/json"
	MIMEProtobuf    = "application/x-protobuf"
	MIMEOctetStream = "application/octet-stream"
)

// Parse errors. Callers match them with errors.Is.
var (
	ErrConnectionClosed            = errors.New("connection closed")
	ErrMalformedRequestLine        = errors.New("malformed request line")
	ErrMalformedHeader             = errors.New("malformed header")
	ErrLineTooLong                 = errors.New("line too long")
	ErrTruncatedBody               = errors.New("truncated body")
	ErrBodyTooLarge                = errors.New("body too large")
	ErrUnsupportedTransferEncoding = errors.New("unsupported transfer encoding")
)

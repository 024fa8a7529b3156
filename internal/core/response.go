package core

import (
	"errors"
	"time"
)

var (
	errEmptyMethod = errors.New("method cannot be empty")
	errEmptyURL    = errors.New("url cannot be empty")
)

// Status represents an HTTP status code and text.
type Status struct {
	code int
	text string
}

// NewStatus creates a new status.
func NewStatus(code int, text string) Status {
	return Status{code: code, text: text}
}

func (s Status) Code() int    { return s.code }
func (s Status) Text() string { return s.text }

func (s Status) IsSuccess() bool {
	return s.code >= 200 && s.code < 300
}

func (s Status) IsError() bool {
	return s.code >= 400
}

// Response is the result of executing an endpoint.
type Response struct {
	status      Status
	headers     []KeyValueItem
	body        []byte
	contentType string
	duration    time.Duration
}

// NewResponse creates a response with the given status.
func NewResponse(status Status) *Response {
	return &Response{status: status}
}

func (r *Response) Status() Status          { return r.status }
func (r *Response) Headers() []KeyValueItem { return r.headers }
func (r *Response) Body() []byte            { return r.body }
func (r *Response) ContentType() string     { return r.contentType }
func (r *Response) Duration() time.Duration { return r.duration }

// WithHeaders sets the response headers and returns the response for chaining.
func (r *Response) WithHeaders(h []KeyValueItem) *Response {
	r.headers = h
	return r
}

// WithBody sets the response body and returns the response for chaining.
func (r *Response) WithBody(body []byte, contentType string) *Response {
	r.body = body
	r.contentType = contentType
	return r
}

// WithDuration sets the total request duration and returns the response for
// chaining.
func (r *Response) WithDuration(d time.Duration) *Response {
	r.duration = d
	return r
}

package core

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Endpoint is a single HTTP request definition: method, URL, headers and body.
// It participates in the collection tree as a leaf and is the unit handed to
// the request-execution engine.
type Endpoint struct {
	id          string
	name        string
	method      string
	url         string
	headers     []KeyValueItem
	bodyType    string
	bodyContent string
}

// NewEndpoint creates a new endpoint definition.
func NewEndpoint(name, method, rawURL string) *Endpoint {
	return &Endpoint{
		id:      uuid.New().String(),
		name:    name,
		method:  method,
		url:     rawURL,
		headers: make([]KeyValueItem, 0),
	}
}

// NewEndpointWithID creates an endpoint with a specific ID (for loading from
// storage).
func NewEndpointWithID(id, name, method, rawURL string) *Endpoint {
	e := NewEndpoint(name, method, rawURL)
	e.id = id
	return e
}

func (e *Endpoint) ID() string          { return e.id }
func (e *Endpoint) Name() string        { return e.name }
func (e *Endpoint) Method() string      { return e.method }
func (e *Endpoint) URL() string         { return e.url }
func (e *Endpoint) BodyType() string    { return e.bodyType }
func (e *Endpoint) BodyContent() string { return e.bodyContent }

func (e *Endpoint) SetName(name string) {
	e.name = name
}

func (e *Endpoint) SetMethod(method string) {
	e.method = strings.ToUpper(method)
}

// SetURL stores the URL as given; validation happens at send time.
func (e *Endpoint) SetURL(rawURL string) {
	e.url = rawURL
}

// SetBody sets the body content and its type ("json", "raw", ...).
func (e *Endpoint) SetBody(content, bodyType string) {
	e.bodyContent = content
	e.bodyType = bodyType
}

// AddHeader appends a header item, preserving order.
func (e *Endpoint) AddHeader(h KeyValueItem) {
	e.headers = append(e.headers, h)
}

// HeaderCount returns the number of header items.
func (e *Endpoint) HeaderCount() int {
	return len(e.headers)
}

// HeaderAt returns the header at index, or false if out of range.
func (e *Endpoint) HeaderAt(index int) (KeyValueItem, bool) {
	if index < 0 || index >= len(e.headers) {
		return KeyValueItem{}, false
	}
	return e.headers[index], true
}

// SetHeaderAt replaces the header at index, reporting false if out of range.
func (e *Endpoint) SetHeaderAt(index int, h KeyValueItem) bool {
	if index < 0 || index >= len(e.headers) {
		return false
	}
	e.headers[index] = h
	return true
}

// RemoveHeader removes and returns the header at index, shifting subsequent
// indices down by one.
func (e *Endpoint) RemoveHeader(index int) (KeyValueItem, bool) {
	if index < 0 || index >= len(e.headers) {
		return KeyValueItem{}, false
	}
	h := e.headers[index]
	e.headers = append(e.headers[:index], e.headers[index+1:]...)
	return h, true
}

// Headers returns a copy of the ordered header sequence.
func (e *Endpoint) Headers() []KeyValueItem {
	out := make([]KeyValueItem, len(e.headers))
	copy(out, e.headers)
	return out
}

// Validate reports whether the endpoint can be sent.
func (e *Endpoint) Validate() error {
	if e.method == "" {
		return errEmptyMethod
	}
	if e.url == "" {
		return errEmptyURL
	}
	if _, err := url.Parse(e.url); err != nil {
		return err
	}
	return nil
}

// Clone creates a deep copy of the endpoint with a fresh ID.
func (e *Endpoint) Clone() *Endpoint {
	clone := NewEndpoint(e.name, e.method, e.url)
	clone.bodyType = e.bodyType
	clone.bodyContent = e.bodyContent
	clone.headers = append(clone.headers, e.headers...)
	return clone
}

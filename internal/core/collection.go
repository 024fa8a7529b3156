package core

import (
	"github.com/google/uuid"
)

// Collection is a named container of variables and endpoints, persisted as one
// file. Variables and endpoints are independently ordered and index-addressable;
// insertion order is display order.
type Collection struct {
	id          string
	name        string
	variables   []*KeyValueItem
	endpoints   []*Endpoint
	listeners   []listener
	listenerSeq int
}

type listener struct {
	id int
	fn func()
}

// NewCollection creates an empty collection with the given name.
func NewCollection(name string) *Collection {
	return &Collection{
		id:        uuid.New().String(),
		name:      name,
		variables: make([]*KeyValueItem, 0),
		endpoints: make([]*Endpoint, 0),
	}
}

// NewCollectionWithID creates a collection with a specific ID (for loading
// from storage).
func NewCollectionWithID(id, name string) *Collection {
	c := NewCollection(name)
	c.id = id
	return c
}

func (c *Collection) ID() string   { return c.id }
func (c *Collection) Name() string { return c.name }

func (c *Collection) SetName(name string) {
	c.name = name
	c.changed()
}

// OnChange registers a listener invoked after every mutation and returns a
// handle that removes it. The tree projection uses this to invalidate cached
// rows and to detach from roots it no longer displays.
func (c *Collection) OnChange(fn func()) (remove func()) {
	c.listenerSeq++
	id := c.listenerSeq
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Collection) changed() {
	for _, l := range c.listeners {
		l.fn()
	}
}

// AddVariable appends a variable to the collection.
func (c *Collection) AddVariable(v *KeyValueItem) {
	c.variables = append(c.variables, v)
	c.changed()
}

// VariableCount returns the number of variables.
func (c *Collection) VariableCount() int {
	return len(c.variables)
}

// VariableAt returns the variable at index, or false if out of range.
func (c *Collection) VariableAt(index int) (*KeyValueItem, bool) {
	if index < 0 || index >= len(c.variables) {
		return nil, false
	}
	return c.variables[index], true
}

// RemoveVariable removes and returns the variable at index. Subsequent indices
// shift down by one; out-of-range indices leave the collection untouched.
func (c *Collection) RemoveVariable(index int) (*KeyValueItem, bool) {
	if index < 0 || index >= len(c.variables) {
		return nil, false
	}
	v := c.variables[index]
	c.variables = append(c.variables[:index], c.variables[index+1:]...)
	c.changed()
	return v, true
}

// Variables returns a copy of the ordered variable sequence. The items are
// shared; reordering the copy does not touch the collection.
func (c *Collection) Variables() []*KeyValueItem {
	out := make([]*KeyValueItem, len(c.variables))
	copy(out, c.variables)
	return out
}

// AddEndpoint appends an endpoint to the collection.
func (c *Collection) AddEndpoint(e *Endpoint) {
	c.endpoints = append(c.endpoints, e)
	c.changed()
}

// EndpointCount returns the number of endpoints.
func (c *Collection) EndpointCount() int {
	return len(c.endpoints)
}

// EndpointAt returns the endpoint at index, or false if out of range.
func (c *Collection) EndpointAt(index int) (*Endpoint, bool) {
	if index < 0 || index >= len(c.endpoints) {
		return nil, false
	}
	return c.endpoints[index], true
}

// RemoveEndpoint removes and returns the endpoint at index. Subsequent indices
// shift down by one; out-of-range indices leave the collection untouched.
func (c *Collection) RemoveEndpoint(index int) (*Endpoint, bool) {
	if index < 0 || index >= len(c.endpoints) {
		return nil, false
	}
	e := c.endpoints[index]
	c.endpoints = append(c.endpoints[:index], c.endpoints[index+1:]...)
	c.changed()
	return e, true
}

// Endpoints returns a copy of the ordered endpoint sequence. The endpoints
// are shared; reordering the copy does not touch the collection.
func (c *Collection) Endpoints() []*Endpoint {
	out := make([]*Endpoint, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

// Clone creates a deep copy of the collection. Listeners are not carried over.
func (c *Collection) Clone() *Collection {
	clone := NewCollection(c.name)
	for _, v := range c.variables {
		item := *v
		clone.variables = append(clone.variables, &item)
	}
	for _, e := range c.endpoints {
		clone.endpoints = append(clone.endpoints, e.Clone())
	}
	return clone
}

// KeyValueItem is a name/value pair with active/secret flags, used for
// collection variables and endpoint headers. Equality is by value; identity is
// positional.
type KeyValueItem struct {
	Name   string
	Value  string
	Active bool
	Secret bool
}

package server

import (
	"fmt"
	"net"
)

// Registry tracks which endpoint belongs to which user name. It is
// owned by the dispatch goroutine; no locking.
type Registry struct {
	byName map[string]*Endpoint
	byConn map[net.Conn]*Endpoint
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Endpoint),
		byConn: make(map[net.Conn]*Endpoint),
	}
}

// Add registers an authenticated endpoint.
func (r *Registry) Add(e *Endpoint) {
	r.byName[e.Name] = e
	r.byConn[e.conn] = e
}

// Remove unregisters an endpoint, by connection.
func (r *Registry) Remove(conn net.Conn) {
	if e, ok := r.byConn[conn]; ok {
		delete(r.byName, e.Name)
		delete(r.byConn, conn)
	}
}

// Lookup resolves a user name to their endpoint.
func (r *Registry) Lookup(name string) (*Endpoint, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, name)
	}
	return e, nil
}

// ByConn resolves a connection to its endpoint, nil when the
// connection never authenticated.
func (r *Registry) ByConn(conn net.Conn) *Endpoint {
	return r.byConn[conn]
}

// Connected reports whether a user has an active endpoint.
func (r *Registry) Connected(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// LookupAll resolves a list of names, skipping any that are offline.
func (r *Registry) LookupAll(names []string) []*Endpoint {
	endpoints := make([]*Endpoint, 0, len(names))
	for _, name := range names {
		if e, ok := r.byName[name]; ok {
			endpoints = append(endpoints, e)
		}
	}
	return endpoints
}

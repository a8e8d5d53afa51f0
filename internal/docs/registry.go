// Package docs holds the document registry: a map from
// URI to the most recently parsed DocumentState for that document.
package docs

import (
	"sync"

	"github.com/depls-dev/depls"
)

// DocumentState is the ecosystem and parsed dependencies currently known
// for one open document. Created on open, replaced wholesale on
// re-process, destroyed on close.
type DocumentState struct {
	Ecosystem    depls.Ecosystem
	Dependencies []depls.Dependency
}

// Registry is the URI -> DocumentState map. Reads take the shared lock
// (many readers); writes (Set, Delete) take the exclusive lock.
type Registry struct {
	mu    sync.RWMutex
	docs  map[string]DocumentState
	order []string // URIs in first-open order; backs First
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{docs: make(map[string]DocumentState)}
}

// Set replaces the document state for uri wholesale.
func (r *Registry) Set(uri string, state DocumentState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, open := r.docs[uri]; !open {
		r.order = append(r.order, uri)
	}
	r.docs[uri] = state
}

// Get returns the current state for uri, or ok=false if it is not open.
func (r *Registry) Get(uri string) (DocumentState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.docs[uri]
	return s, ok
}

// Delete removes uri's state, on close.
func (r *Registry) Delete(uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, uri)
	for i, u := range r.order {
		if u == uri {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// First returns the earliest-opened document still open, or ok=false if
// none is. The dependi/generateReport command defaults to it when no URI
// argument is supplied.
func (r *Registry) First() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return "", false
	}
	return r.order[0], true
}

// Len reports how many documents are currently open, for diagnostics and
// tests.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

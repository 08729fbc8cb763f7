package router

import (
	"errors"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/searchktools/tcp-dispatch/core/http"
)

// ErrSealed is returned by Add once the table has been sealed
var ErrSealed = errors.New("route table is sealed")

type routeKey struct {
	method string
	path   string
}

// Table maps (method, path) to a handler by exact string match.
//
// Routes are added before serving starts and the table is then sealed;
// Find takes no lock because nothing writes after Seal.
type Table struct {
	routes map[routeKey]http.HandlerFunc
	paths  map[string][]string // path -> registered methods
	sealed atomic.Bool
}

// NewTable creates an empty route table
func NewTable() *Table {
	return &Table{
		routes: make(map[routeKey]http.HandlerFunc),
		paths:  make(map[string][]string),
	}
}

// Add registers handler for method and path, replacing any earlier handler
// for the same pair
func (t *Table) Add(method, path string, handler http.HandlerFunc) error {
	if t.sealed.Load() {
		return ErrSealed
	}
	if handler == nil {
		return errors.New("nil handler for " + method + " " + path)
	}
	if !strings.HasPrefix(path, "/") {
		return errors.New("path must begin with '/': " + path)
	}

	method = strings.ToUpper(method)
	key := routeKey{method: method, path: path}
	if _, exists := t.routes[key]; !exists {
		methods := append(t.paths[path], method)
		sort.Strings(methods)
		t.paths[path] = methods
	}
	t.routes[key] = handler
	return nil
}

// Find returns the handler registered for method and path
func (t *Table) Find(method, path string) (http.HandlerFunc, bool) {
	h, ok := t.routes[routeKey{method: method, path: path}]
	return h, ok
}

// Allowed returns the sorted methods registered for path, or nil
func (t *Table) Allowed(path string) []string {
	return t.paths[path]
}

// Seal makes the table read-only
func (t *Table) Seal() {
	t.sealed.Store(true)
}

// Sealed reports whether Seal has been called
func (t *Table) Sealed() bool {
	return t.sealed.Load()
}

// Len returns the number of registered routes
func (t *Table) Len() int {
	return len(t.routes)
}

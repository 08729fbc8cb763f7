package core

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/searchktools/tcp-dispatch/core/http"
	"github.com/searchktools/tcp-dispatch/core/observability"
	"github.com/searchktools/tcp-dispatch/core/pools"
	"github.com/searchktools/tcp-dispatch/core/router"
)

// ErrServerClosed is returned by Serve and Run after Shutdown
var ErrServerClosed = errors.New("core: server closed")

// HandlerFunc is the handler signature accepted by the registration methods
type HandlerFunc = http.HandlerFunc

// Config contains engine configuration. Zero values select defaults.
type Config struct {
	Workers        int // default runtime.NumCPU()
	QueueSize      int // pending connections; default 4 * Workers
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxConnections int  // 0 means unlimited
	ReusePort      bool // set SO_REUSEPORT on the listening socket
	Limits         http.Limits
	Logger         logrus.FieldLogger
}

// Engine accepts TCP connections, parses one HTTP request from each and
// dispatches it to the handler registered for its method and path.
//
// Routes must be registered before Run or Serve; the route table is sealed
// when serving starts.
type Engine struct {
	cfg     Config
	router  *router.Table
	monitor *observability.Monitor
	buffers *pools.BufferPool
	log     logrus.FieldLogger

	mu       sync.Mutex
	listener net.Listener
	pool     *pools.WorkerPool
	closing  atomic.Bool
}

// NewEngine creates a new engine instance
func NewEngine(cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4 * cfg.Workers
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return &Engine{
		cfg:     cfg,
		router:  router.NewTable(),
		monitor: observability.NewMonitor(),
		buffers: pools.NewBufferPool(),
		log:     cfg.Logger,
	}
}

// Handle registers handler for method and path. Registering the same
// method and path again replaces the earlier handler. Handle panics when
// called after serving has started.
func (e *Engine) Handle(method, path string, handler HandlerFunc) {
	if err := e.router.Add(method, path, handler); err != nil {
		panic(fmt.Sprintf("core: register %s %s: %v", method, path, err))
	}
	e.log.WithFields(logrus.Fields{
		"method": strings.ToUpper(method),
		"path":   path,
	}).Debug("route registered")
}

// GET registers a GET route
func (e *Engine) GET(path string, handler HandlerFunc) {
	e.Handle("GET", path, handler)
}

// POST registers a POST route
func (e *Engine) POST(path string, handler HandlerFunc) {
	e.Handle("POST", path, handler)
}

// PUT registers a PUT route
func (e *Engine) PUT(path string, handler HandlerFunc) {
	e.Handle("PUT", path, handler)
}

// DELETE registers a DELETE route
func (e *Engine) DELETE(path string, handler HandlerFunc) {
	e.Handle("DELETE", path, handler)
}

// PATCH registers a PATCH route
func (e *Engine) PATCH(path string, handler HandlerFunc) {
	e.Handle("PATCH", path, handler)
}

// HEAD registers a HEAD route
func (e *Engine) HEAD(path string, handler HandlerFunc) {
	e.Handle("HEAD", path, handler)
}

// OPTIONS registers an OPTIONS route
func (e *Engine) OPTIONS(path string, handler HandlerFunc) {
	e.Handle("OPTIONS", path, handler)
}

// Addr returns the address being served, or nil before Serve
func (e *Engine) Addr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listener == nil {
		return nil
	}
	return e.listener.Addr()
}

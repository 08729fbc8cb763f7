package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"github.com/searchktools/tcp-dispatch/core/pools"
)

// Run binds addr and serves connections until Shutdown. A bind failure is
// returned immediately.
func (e *Engine) Run(addr string) error {
	lc := net.ListenConfig{Control: socketControl(e.cfg.ReusePort)}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}

	if e.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, e.cfg.MaxConnections)
	}

	return e.Serve(ln)
}

// Serve accepts connections on ln and submits each one to the worker pool
// as a single job. Accept errors are logged and do not stop the loop.
// Serve always returns a non-nil error; after Shutdown it is ErrServerClosed.
// If ln is closed directly, Serve drains the worker pool and returns an
// error wrapping net.ErrClosed.
func (e *Engine) Serve(ln net.Listener) error {
	e.mu.Lock()
	if e.closing.Load() {
		e.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	if e.listener != nil {
		e.mu.Unlock()
		return errors.New("core: engine is already serving")
	}

	e.router.Seal()
	e.listener = ln
	e.pool = pools.NewWorkerPool(e.cfg.Workers, e.cfg.QueueSize, pools.WithPanicHandler(e.logPanic))
	pool := e.pool
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"addr":    ln.Addr().String(),
		"workers": e.cfg.Workers,
		"queue":   e.cfg.QueueSize,
		"routes":  e.router.Len(),
	}).Info("server listening")

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if e.closing.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				// Closed by someone other than Shutdown: finish queued
				// connections and allow a later Serve
				pool.Close()
				e.mu.Lock()
				e.listener = nil
				e.mu.Unlock()
				return fmt.Errorf("accept: %w", err)
			}

			// Back off on repeated failures such as EMFILE
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if tempDelay > time.Second {
				tempDelay = time.Second
			}
			e.log.WithError(err).WithField("retry_in", tempDelay).Warn("accept failed")
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0

		if err := pool.Submit(func() { e.serveConn(conn) }); err != nil {
			conn.Close()
			return ErrServerClosed
		}
	}
}

// Shutdown closes the listener, then waits for queued and in-flight
// connections to finish or for ctx to be done.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.closing.Store(true)

	e.mu.Lock()
	ln, pool := e.listener, e.pool
	e.mu.Unlock()

	if ln == nil {
		return nil
	}

	var closeErr error
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		closeErr = fmt.Errorf("close listener: %w", err)
	}

	done := make(chan struct{})
	go func() {
		pool.Close()
		close(done)
	}()

	select {
	case <-done:
		e.log.Info("server stopped")
		return closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) logPanic(workerID int, recovered any) {
	e.log.WithFields(logrus.Fields{
		"worker": workerID,
		"panic":  recovered,
	}).Error("worker recovered from panic")
}

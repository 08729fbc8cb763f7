package core

import (
	"bufio"
	"errors"
	"net"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/searchktools/tcp-dispatch/core/http"
)

// Route names used for metrics when no handler matched
const (
	routeNotFound         = "<not found>"
	routeMethodNotAllowed = "<method not allowed>"
)

// serveConn is the job run by a worker for one accepted connection: read
// one request, dispatch it, write the response and close.
func (e *Engine) serveConn(conn net.Conn) {
	start := time.Now()
	log := e.log.WithFields(logrus.Fields{
		"conn_id": uuid.NewString(),
		"remote":  conn.RemoteAddr().String(),
	})

	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.WithError(err).Debug("close connection")
		}
	}()

	if e.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(e.cfg.ReadTimeout))
	}

	req, err := http.ReadRequest(bufio.NewReader(conn), e.cfg.Limits)
	if err != nil {
		if errors.Is(err, http.ErrConnectionClosed) {
			log.Debug("peer closed before sending a request")
			return
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			e.monitor.RecordReadTimeout()
			log.WithError(err).Warn("read timeout, dropping connection")
			return
		}
		e.monitor.RecordParseError()
		log.WithError(err).Warn("dropping unparseable request")
		return
	}

	log = log.WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.Path,
	})
	log.WithField("headers", req.Headers).Debug("request parsed")

	resp, route := e.dispatch(req, log)
	e.monitor.RecordRequest(route, resp.Status, time.Since(start))

	if e.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(e.cfg.WriteTimeout))
	}
	buf := e.buffers.Get(len(resp.Body) + 256)
	if req.Method == "HEAD" {
		*buf = resp.AppendHead(*buf)
	} else {
		*buf = resp.AppendTo(*buf)
	}
	_, err = conn.Write(*buf)
	e.buffers.Put(buf)
	if err != nil {
		e.monitor.RecordWriteError()
		log.WithError(err).Warn("write response failed")
		return
	}

	log.WithFields(logrus.Fields{
		"status":   resp.Status,
		"bytes":    len(resp.Body),
		"duration": time.Since(start),
	}).Info("request served")
}

// dispatch finds the handler for req and runs it. It returns the response
// to write and the route name used for metrics.
func (e *Engine) dispatch(req *http.Request, log logrus.FieldLogger) (*http.Response, string) {
	h, ok := e.router.Find(req.Method, req.Path)
	if !ok {
		if allowed := e.router.Allowed(req.Path); len(allowed) > 0 {
			return http.MethodNotAllowed(allowed), routeMethodNotAllowed
		}
		return http.NotFound(), routeNotFound
	}

	return e.invoke(h, req, log), req.Method + " " + req.Path
}

// invoke calls h and converts any failure into a 500 response
func (e *Engine) invoke(h http.HandlerFunc, req *http.Request, log logrus.FieldLogger) (resp *http.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("handler panicked")
			resp = http.InternalError()
		}
	}()

	var err error
	resp, err = h(req)
	if err != nil {
		log.WithError(err).Error("handler failed")
		return http.InternalError()
	}
	if resp == nil {
		log.Error("handler returned no response")
		return http.InternalError()
	}
	return resp
}

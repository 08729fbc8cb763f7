/*
Package dispatch is a small HTTP-over-TCP request dispatcher.

It accepts TCP connections, hands each one to a fixed-size worker pool,
parses a single HTTP/1.x request from it, looks the request up by exact
method and path in a route table registered before serving starts, runs the
handler and writes the serialized response before closing the connection.

# Quick Start

	package main

	import (
	    "github.com/searchktools/tcp-dispatch/app"
	    "github.com/searchktools/tcp-dispatch/config"
	    "github.com/searchktools/tcp-dispatch/core/http"
	)

	func main() {
	    application := app.New(config.New())

	    engine := application.Engine()
	    engine.GET("/text", func(req *http.Request) (*http.Response, error) {
	        return http.Text(200, "Hi"), nil
	    })

	    application.Run()
	}

# Modules

  - app: Application lifecycle, logging setup and signal handling
  - config: Flag and DISPATCH_* environment configuration
  - core: Engine with listener, connection dispatch and statistics
  - core/http: Request and Response types, parser, response builders
  - core/router: Route table keyed by method and path
  - core/pools: Fixed-size worker pool
  - core/observability: Per-route request metrics

# Limitations

One request is served per connection. Keep-alive, pipelining, chunked
transfer encoding and TLS are not supported.
*/
package dispatch

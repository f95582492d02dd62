// Package timeouts defines shared timeout constants used across dungeonkit
// processes.
package timeouts

import "time"

// StoreCall caps a single journal store operation made on behalf of a tool.
const StoreCall = 5 * time.Second

// PageFetch is the default budget for fetching one web page.
const PageFetch = 15 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// TelemetryFlush limits how long a process waits for pending spans on exit.
const TelemetryFlush = 5 * time.Second

// FeedWrite limits how long one websocket frame may take to reach a viewer.
const FeedWrite = 5 * time.Second

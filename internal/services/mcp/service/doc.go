// Package service exposes the dungeon master tools over MCP.
//
// It owns transport concerns, stdio or HTTP with server-sent events, and
// registers the tool and resource handlers from the domain package behind a
// tracing and error localization wrapper.
package service

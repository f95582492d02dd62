// Package domain maps MCP tool calls onto the game preparation packages.
//
// Each tool has a definition (XTool), typed input and result structs whose
// json/jsonschema tags drive the advertised schema, and a handler factory
// (XHandler) that receives only the collaborators it needs. Handlers return
// domain errors; LocalizeError turns them into client-facing messages.
package domain

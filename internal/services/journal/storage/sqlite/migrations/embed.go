// Package migrations embeds the journal SQLite schema.
package migrations

import "embed"

// FS holds the journal migration files.
//
//go:embed *.sql
var FS embed.FS

package migrations

import "embed"

// FS embeds the SQL migrations of the SQLite store.
//
//go:embed *.sql
var FS embed.FS

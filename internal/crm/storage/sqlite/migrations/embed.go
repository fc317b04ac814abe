package migrations

import "embed"

// FS contains the embedded SQLite baseline snapshot for the CRM schema.
//
//go:embed *.sql
var FS embed.FS

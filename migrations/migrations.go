// Package migrations embeds the goose SQL migrations of the ledger schema.
package migrations

import "embed"

//go:embed *.sql
var MigrationsFS embed.FS

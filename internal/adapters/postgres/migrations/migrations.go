// Package migrations embeds the SQL schema migrations applied by goose at
// startup.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS

// Package migrations embeds the lead archive schema for golang-migrate.
package migrations

import "embed"

// FS holds the numbered up/down SQL files.
//
//go:embed *.sql
var FS embed.FS
